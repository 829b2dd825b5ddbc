// Package autosave keeps the active document in the store in step with the
// editing buffer.
//
// A Scheduler is built once per process. Start points it at a document; a
// background ticker then compares the buffer with the last saved content and
// writes the document back when they differ. Autosave only ever updates
// documents that already exist.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nzaccagnino/go-sheets/internal/logging"
	"github.com/nzaccagnino/go-sheets/internal/store"
)

var (
	ErrNoDocument     = errors.New("no document to save")
	ErrSaveInProgress = errors.New("a save is already in progress")
	ErrClosed         = errors.New("autosave scheduler closed")
)

// Editor exposes the serialized buffer. editor.Buffer satisfies it.
type Editor interface {
	CurrentContent(ctx context.Context) (string, error)
}

// Documents is the subset of store.Store the scheduler writes through.
type Documents interface {
	Exists(ctx context.Context, name string) (bool, error)
	Get(ctx context.Context, name string) (*store.Document, error)
	Save(ctx context.Context, doc store.Document, opts ...store.SaveOption) error
}

// TickerFunc starts a ticker firing every d. stop releases it.
type TickerFunc func(d time.Duration) (c <-chan time.Time, stop func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

type Option func(*Scheduler)

func WithLogger(l logging.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

func WithNotifier(n Notifier) Option {
	return func(s *Scheduler) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func WithTicker(f TickerFunc) Option {
	return func(s *Scheduler) { s.ticker = f }
}

type startOptions struct {
	password string
}

type StartOption func(*startOptions)

// WithPassword is held for re-sealing a protected document on save.
func WithPassword(password string) StartOption {
	return func(o *startOptions) { o.password = password }
}

type Scheduler struct {
	docs     Documents
	editor   Editor
	configs  *ConfigStore
	notifier Notifier
	log      logging.Logger
	now      func() time.Time
	ticker   TickerFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	cfg      Config
	state    State
	gen      uint64
	epoch    uint64
	stop     chan struct{}
	saving   bool
	closed   bool
	target   string
	billType int
	password string
	baseline string
	status   Status
	subs     subscribers
}

// New loads the persisted config and returns a stopped scheduler.
func New(ctx context.Context, docs Documents, editor Editor, configs *ConfigStore, opts ...Option) *Scheduler {
	s := &Scheduler{
		docs:    docs,
		editor:  editor,
		configs: configs,
		log:     logging.Discard(),
		now:     time.Now,
		ticker:  realTicker,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cfg = configs.Load(ctx)
	return s
}

func isTarget(name string) bool {
	return name != "" && !store.IsReserved(name)
}

// Start points the scheduler at name, replacing any previous target and
// timer. Sentinel names and a disabled config leave it stopped.
func (s *Scheduler) Start(ctx context.Context, name string, billType int, opts ...StartOption) error {
	var o startOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.disarmLocked()
	s.epoch++
	s.target, s.billType, s.password = name, billType, o.password
	s.baseline = ""
	s.status = Status{Document: name}
	gen := s.gen
	if !isTarget(name) {
		s.publishLocked(s.status)
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	content, err := s.editor.CurrentContent(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		// Superseded by a later Start or Stop.
		return nil
	}
	if err != nil {
		s.publishLocked(Status{Document: name, LastError: err})
		return fmt.Errorf("failed to read editor content: %w", err)
	}
	s.baseline = content
	if !s.cfg.Enabled {
		s.publishLocked(s.status)
		return nil
	}
	s.armLocked()
	s.log.Debug(ctx, "autosave started", "document", name, "interval", s.cfg.Interval())
	return nil
}

// Retarget restarts on a different document; for the current one it only
// updates the bill type.
func (s *Scheduler) Retarget(ctx context.Context, name string, billType int, opts ...StartOption) error {
	s.mu.Lock()
	if name == s.target && !s.closed {
		s.billType = billType
		if len(opts) > 0 {
			var o startOptions
			for _, opt := range opts {
				opt(&o)
			}
			s.password = o.password
		}
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	return s.Start(ctx, name, billType, opts...)
}

// Stop disarms the timer. No tick starts after it returns; one already
// committing may finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasActive := s.stop != nil || s.status.Active
	s.disarmLocked()
	s.epoch++
	if wasActive {
		s.publishLocked(Status{Document: s.target})
	}
}

// disarmLocked drops the timer. Only Start, Stop and Close move epoch, so a
// re-arm from UpdateConfig keeps an in-flight save attached to its target.
func (s *Scheduler) disarmLocked() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.gen++
	s.state = Stopped
}

func (s *Scheduler) armLocked() {
	interval := s.cfg.Interval()
	stop := make(chan struct{})
	s.stop = stop
	s.state = Armed

	c, stopTicker := s.ticker(interval)
	s.wg.Add(1)
	go s.run(s.gen, c, stopTicker, stop)

	st := s.status
	st.Active = true
	st.Document = s.target
	st.NextSaveAt = timePtr(s.now().Add(interval))
	st.HasUnsavedChanges = false
	s.publishLocked(st)
}

func (s *Scheduler) run(gen uint64, c <-chan time.Time, stopTicker func(), stop <-chan struct{}) {
	defer s.wg.Done()
	defer stopTicker()

	for {
		select {
		case <-stop:
			return
		case <-c:
			if err := s.tick(s.ctx, gen, false); err != nil && !errors.Is(err, ErrSaveInProgress) {
				s.log.Debug(s.ctx, "autosave tick failed", "error", err)
			}
		}
	}
}

func (s *Scheduler) publishLocked(st Status) {
	s.status = st
	s.subs.publish(st)
}

// UpdateConfig merges patch into the config, persists it and re-applies it
// to the current document. Pending changes stay pending.
func (s *Scheduler) UpdateConfig(ctx context.Context, patch ConfigPatch) error {
	s.mu.Lock()
	next := s.cfg.Apply(patch)
	s.mu.Unlock()

	if err := next.Validate(); err != nil {
		return err
	}
	if err := s.configs.Save(ctx, next); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = next
	if s.closed || !isTarget(s.target) {
		return nil
	}
	s.disarmLocked()
	if next.Enabled {
		s.armLocked()
	} else {
		st := s.status
		st.Active = false
		st.NextSaveAt = nil
		s.publishLocked(st)
	}
	s.log.Info(ctx, "autosave config updated",
		"enabled", next.Enabled, "interval", next.IntervalSeconds, "notifications", next.ShowNotifications)
	return nil
}

func (s *Scheduler) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the last published status.
func (s *Scheduler) Current() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Document returns the current target name and bill type.
func (s *Scheduler) Document() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target, s.billType
}

// ManualSave runs one save attempt now, whether or not autosave is armed.
func (s *Scheduler) ManualSave(ctx context.Context) error {
	return s.tick(ctx, 0, true)
}

// HasUnsavedChanges compares the buffer with the last saved content.
func (s *Scheduler) HasUnsavedChanges(ctx context.Context) bool {
	s.mu.Lock()
	target, baseline := s.target, s.baseline
	s.mu.Unlock()

	if !isTarget(target) {
		return false
	}
	content, err := s.editor.CurrentContent(ctx)
	if err != nil {
		s.log.Warn(ctx, "failed to read editor content", "error", err)
		return false
	}
	return content != baseline
}

// Subscribe returns a channel receiving every published status, starting
// with the current one. cancel closes the channel.
func (s *Scheduler) Subscribe() (<-chan Status, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ch := s.subs.add()
	ch <- s.status
	if s.closed {
		s.subs.remove(id)
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.subs.remove(id)
		})
	}
}

// Close stops the scheduler for good, waits for its goroutines and closes
// every subscription.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.disarmLocked()
	s.epoch++
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	s.subs.closeAll()
	s.mu.Unlock()
}
