package autosave

import (
	"context"
	"fmt"
	"time"

	"github.com/nzaccagnino/go-sheets/internal/store"
)

type outcome int

const (
	unchanged outcome = iota
	skipped
	saved
	failed
)

type saveJob struct {
	name     string
	billType int
	password string
	baseline string
}

type saveResult struct {
	outcome outcome
	content string
	at      time.Time
	err     error
}

// tick runs one compare-and-commit pass. Timer ticks pass the generation
// they were armed with and are dropped once it is stale; manual ticks pass
// zero and always run. The result is applied while the target is unchanged,
// even if the timer was re-armed meanwhile.
func (s *Scheduler) tick(ctx context.Context, gen uint64, manual bool) error {
	s.mu.Lock()
	if !manual && (gen != s.gen || s.state != Armed) {
		s.mu.Unlock()
		return nil
	}
	if !isTarget(s.target) {
		s.mu.Unlock()
		return ErrNoDocument
	}
	if s.saving {
		s.mu.Unlock()
		return ErrSaveInProgress
	}
	s.saving = true
	if s.state == Armed {
		s.state = Saving
	}
	epoch := s.epoch
	job := saveJob{
		name:     s.target,
		billType: s.billType,
		password: s.password,
		baseline: s.baseline,
	}
	s.mu.Unlock()

	res := s.commit(ctx, job)

	s.mu.Lock()
	s.saving = false
	if epoch == s.epoch && job.name == s.target {
		if s.state == Saving {
			s.state = Armed
		}
		if res.outcome == saved {
			s.baseline = res.content
		}
		s.publishLocked(s.statusFor(res))
	}
	notify := s.cfg.ShowNotifications
	s.mu.Unlock()

	switch res.outcome {
	case saved:
		s.log.Debug(ctx, "autosaved", "document", job.name, "manual", manual)
		if notify && s.notifier != nil {
			s.notifier.Notify(Notification{Document: job.name, SavedAt: res.at})
		}
	case skipped:
		s.log.Warn(ctx, "autosave skipped, document does not exist", "document", job.name)
	case failed:
		s.log.Error(ctx, "autosave failed", "document", job.name, "error", res.err)
	}
	return res.err
}

// commit does the blocking part of a tick without holding the lock.
func (s *Scheduler) commit(ctx context.Context, job saveJob) saveResult {
	content, err := s.editor.CurrentContent(ctx)
	if err != nil {
		return saveResult{outcome: failed, err: fmt.Errorf("failed to read editor content: %w", err)}
	}
	if content == job.baseline {
		return saveResult{outcome: unchanged}
	}

	exists, err := s.docs.Exists(ctx, job.name)
	if err != nil {
		return saveResult{outcome: failed, err: err}
	}
	if !exists {
		return saveResult{
			outcome: skipped,
			err:     &store.Error{Op: "autosave", Name: job.name, Err: store.ErrNotFound},
		}
	}

	existing, err := s.docs.Get(ctx, job.name)
	if err != nil {
		return saveResult{outcome: failed, err: err}
	}

	now := s.now()
	doc := store.Document{
		Name:              job.name,
		Created:           existing.Created,
		Modified:          now,
		Content:           store.EncodeContent(content),
		BillType:          job.billType,
		PasswordProtected: existing.PasswordProtected,
	}

	var opts []store.SaveOption
	if existing.PasswordProtected {
		if job.password == "" {
			return saveResult{
				outcome: failed,
				err:     &store.Error{Op: "autosave", Name: job.name, Err: store.ErrPasswordRequired},
			}
		}
		opts = append(opts, store.WithPassword(job.password))
	}

	if err := s.docs.Save(ctx, doc, opts...); err != nil {
		return saveResult{outcome: failed, err: err}
	}
	return saveResult{outcome: saved, content: content, at: now}
}

func (s *Scheduler) statusFor(res saveResult) Status {
	st := s.status
	st.Document = s.target
	st.Active = s.state != Stopped
	st.NextSaveAt = nil
	if st.Active {
		st.NextSaveAt = timePtr(s.now().Add(s.cfg.Interval()))
	}

	switch res.outcome {
	case unchanged:
		st.HasUnsavedChanges = false
		st.LastError = nil
	case skipped:
		st.HasUnsavedChanges = true
		st.LastError = nil
	case saved:
		st.LastSavedAt = timePtr(res.at)
		st.HasUnsavedChanges = false
		st.LastError = nil
	case failed:
		st.HasUnsavedChanges = true
		st.LastError = res.err
	}
	return st
}
