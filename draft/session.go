package draft

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rpupo63/verbavista-backend/errs"
	"github.com/rpupo63/verbavista-backend/models"
)

// Session is one logical post being edited. It owns a quiescence timer,
// reset by every edit, and a heartbeat timer with a fixed period. Persistence
// calls for a session never overlap: a create in flight always finishes, and
// its identity is recorded, before the next call reads the session.
type Session struct {
	engine *Engine

	// persistMu is held for the whole of a persistence call.
	persistMu sync.Mutex

	mu              sync.Mutex
	id              string
	state           WorkingState
	closed          bool
	quiescenceTimer Timer
	quiescenceGen   uint64
	heartbeatTimer  Timer
	heartbeatGen    uint64
	autosaveQueued  bool
	manualGen       uint64
	inflight        sync.WaitGroup
}

// ID returns the post identity, empty until the first successful create.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Persisted reports whether the session has an identity.
func (s *Session) Persisted() bool {
	return s.ID() != ""
}

// State returns a copy of the working state.
func (s *Session) State() WorkingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Edit replaces the working state and restarts the quiescence window.
func (s *Session) Edit(state WorkingState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.state = state.clone()
	s.armQuiescenceLocked()
}

func (s *Session) armQuiescenceLocked() {
	if s.quiescenceTimer != nil {
		s.quiescenceTimer.Stop()
	}
	s.quiescenceGen++
	gen := s.quiescenceGen
	s.quiescenceTimer = s.engine.clock.AfterFunc(s.engine.quiescence, func() {
		s.fire(TriggerQuiescence, gen)
	})
}

func (s *Session) stopQuiescenceLocked() {
	if s.quiescenceTimer != nil {
		s.quiescenceTimer.Stop()
		s.quiescenceTimer = nil
	}
	s.quiescenceGen++
}

func (s *Session) armHeartbeatLocked() {
	if s.heartbeatTimer != nil {
		s.heartbeatTimer.Stop()
	}
	s.heartbeatGen++
	gen := s.heartbeatGen
	s.heartbeatTimer = s.engine.clock.AfterFunc(s.engine.heartbeat, func() {
		s.fire(TriggerHeartbeat, gen)
	})
}

// fire runs on the timer's goroutine. It only schedules: the call itself runs
// on its own goroutine so a slow request never holds up the clock.
func (s *Session) fire(trigger Trigger, gen uint64) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	switch trigger {
	case TriggerQuiescence:
		if gen != s.quiescenceGen {
			s.mu.Unlock()
			return
		}
		s.quiescenceTimer = nil
	case TriggerHeartbeat:
		if gen != s.heartbeatGen {
			s.mu.Unlock()
			return
		}
		s.armHeartbeatLocked()
	}

	// one queued autosave is enough: it reads the state when it starts
	if s.autosaveQueued {
		s.mu.Unlock()
		return
	}
	s.autosaveQueued = true
	manualGen := s.manualGen
	s.inflight.Add(1)
	s.mu.Unlock()

	go s.autosave(trigger, manualGen)
}

func (s *Session) autosave(trigger Trigger, manualGen uint64) {
	defer s.inflight.Done()

	s.persistMu.Lock()

	s.mu.Lock()
	s.autosaveQueued = false
	// dropped if the session closed or a manual save superseded it while queued
	if s.closed || s.manualGen != manualGen {
		s.mu.Unlock()
		s.persistMu.Unlock()
		return
	}
	state, id := s.state.clone(), s.id
	s.mu.Unlock()

	_, report := s.persist(context.Background(), trigger, state, id, models.StatusDraft)
	s.engine.report(report)
	s.persistMu.Unlock()
}

// SaveDraft persists the current state with status draft.
func (s *Session) SaveDraft(ctx context.Context) (SaveResult, error) {
	return s.save(ctx, TriggerSaveDraft, models.StatusDraft)
}

// Publish persists the current state with status published. Title and
// content are both required.
func (s *Session) Publish(ctx context.Context) (SaveResult, error) {
	return s.save(ctx, TriggerPublish, models.StatusPublished)
}

func (s *Session) save(ctx context.Context, trigger Trigger, status models.PostStatus) (SaveResult, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return SaveResult{}, ErrSessionClosed
	}
	// a save that would issue no call leaves the timers and queued autosaves alone
	if result, report, ok := resolveLocally(trigger, s.state, s.id, status); ok {
		s.mu.Unlock()
		s.engine.report(report)
		return result, report.Err
	}
	s.stopQuiescenceLocked()
	s.armHeartbeatLocked()
	s.manualGen++
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	s.mu.Lock()
	state, id := s.state.clone(), s.id
	s.mu.Unlock()

	result, report := s.persist(ctx, trigger, state, id, status)
	s.engine.report(report)
	return result, report.Err
}

// resolveLocally settles attempts that need no call: a publish missing its
// title or content is rejected, an empty draft is skipped.
func resolveLocally(trigger Trigger, state WorkingState, id string, status models.PostStatus) (SaveResult, Report, bool) {
	report := Report{Trigger: trigger, Status: status, PostID: id}

	if status == models.StatusPublished {
		if err := validatePublish(state); err != nil {
			report.Outcome, report.Err = OutcomeRejected, err
			return SaveResult{ID: id}, report, true
		}
		return SaveResult{}, report, false
	}
	if state.empty() {
		report.Outcome = OutcomeSkipped
		return SaveResult{ID: id, Skipped: true}, report, true
	}
	return SaveResult{}, report, false
}

// persist issues at most one call. Callers hold persistMu, so reports reach
// the reporter in the order the calls ran.
func (s *Session) persist(ctx context.Context, trigger Trigger, state WorkingState, id string, status models.PostStatus) (SaveResult, Report) {
	result, report, done := resolveLocally(trigger, state, id, status)
	if done {
		return result, report
	}

	payload := state.payload(status)

	if id != "" {
		if err := s.engine.persister.UpdatePost(ctx, id, payload); err != nil {
			report.Outcome, report.Err = OutcomeFailed, err
			return SaveResult{ID: id}, report
		}
		report.Outcome = OutcomeUpdated
		return SaveResult{ID: id}, report
	}

	newID, err := s.engine.persister.CreatePost(ctx, payload)
	if err == nil && newID == "" {
		err = errors.New("create returned no identity")
	}
	if err != nil {
		report.Outcome, report.Err = OutcomeFailed, err
		return SaveResult{}, report
	}

	s.mu.Lock()
	if s.id == "" {
		s.id = newID
	}
	s.mu.Unlock()

	report.Outcome, report.PostID = OutcomeCreated, newID
	return SaveResult{ID: newID, Created: true}, report
}

func validatePublish(state WorkingState) error {
	if strings.TrimSpace(state.Title) == "" {
		return errs.NewMissingRequiredFieldError("title")
	}
	if strings.TrimSpace(state.Content) == "" {
		return errs.NewMissingRequiredFieldError("content")
	}
	return nil
}

// Close cancels both timers. A call already in flight completes on its own;
// autosaves still waiting to start are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.quiescenceTimer != nil {
		s.quiescenceTimer.Stop()
		s.quiescenceTimer = nil
	}
	if s.heartbeatTimer != nil {
		s.heartbeatTimer.Stop()
		s.heartbeatTimer = nil
	}
	s.mu.Unlock()

	s.engine.forget(s)
}

// Wait blocks until every started or queued persistence call has finished.
func (s *Session) Wait() {
	s.inflight.Wait()
}
