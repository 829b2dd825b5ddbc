package autosave

import "time"

type State int

const (
	Stopped State = iota
	Armed
	Saving
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Saving:
		return "saving"
	default:
		return "stopped"
	}
}

// Status is what subscribers see after every tick and transition.
type Status struct {
	Active            bool
	Document          string
	LastSavedAt       *time.Time
	NextSaveAt        *time.Time
	HasUnsavedChanges bool
	LastError         error
}

// Notification is emitted after a successful save when notifications are on.
type Notification struct {
	Document string
	SavedAt  time.Time
}

type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

const subscriberBuffer = 8

// subscribers fans statuses out without ever blocking the publisher. A full
// channel loses its oldest pending value. Callers hold the scheduler lock.
type subscribers struct {
	next int
	chs  map[int]chan Status
}

func (s *subscribers) add() (int, chan Status) {
	if s.chs == nil {
		s.chs = make(map[int]chan Status)
	}
	id := s.next
	s.next++
	ch := make(chan Status, subscriberBuffer)
	s.chs[id] = ch
	return id, ch
}

func (s *subscribers) remove(id int) {
	if ch, ok := s.chs[id]; ok {
		delete(s.chs, id)
		close(ch)
	}
}

func (s *subscribers) closeAll() {
	for id := range s.chs {
		s.remove(id)
	}
}

func (s *subscribers) publish(st Status) {
	for _, ch := range s.chs {
		send(ch, st)
	}
}

func send(ch chan Status, st Status) {
	select {
	case ch <- st:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- st:
	default:
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
