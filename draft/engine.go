// Package draft turns a stream of edits into infrequent create-or-update
// calls against the blog API, one underlying post per edit session.
package draft

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultQuiescence = 5 * time.Second
	DefaultHeartbeat  = 30 * time.Second
)

// ErrSessionClosed is returned by manual saves on a closed session.
var ErrSessionClosed = errors.New("edit session closed")

// Persister performs the two persistence calls. CreatePost returns the
// identity the server assigned.
type Persister interface {
	CreatePost(ctx context.Context, p Payload) (string, error)
	UpdatePost(ctx context.Context, id string, p Payload) error
}

// Engine holds the configuration shared by edit sessions and tracks the
// ones that are open.
type Engine struct {
	persister  Persister
	clock      Clock
	quiescence time.Duration
	heartbeat  time.Duration
	reporter   func(Report)
	logger     zerolog.Logger

	mu       sync.Mutex
	sessions map[*Session]struct{}
}

type Option func(*Engine)

func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithQuiescence sets the idle window after the last edit before an autosave.
func WithQuiescence(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.quiescence = d
		}
	}
}

// WithHeartbeat sets the period of the forced autosave.
func WithHeartbeat(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.heartbeat = d
		}
	}
}

// WithReporter receives the outcome of every persistence attempt, one at a
// time per session and in the order the attempts ran. It must not save on the
// reporting session; closing sessions is fine.
func WithReporter(f func(Report)) Option {
	return func(e *Engine) {
		e.reporter = f
	}
}

func NewEngine(persister Persister, opts ...Option) *Engine {
	e := &Engine{
		persister:  persister,
		clock:      RealClock(),
		quiescence: DefaultQuiescence,
		heartbeat:  DefaultHeartbeat,
		logger:     log.With().Str("component", "draftEngine").Logger(),
		sessions:   make(map[*Session]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Open starts a session for a post that has never been saved.
func (e *Engine) Open(initial WorkingState) *Session {
	return e.open("", initial)
}

// OpenExisting starts a session for a post that already has an identity, so
// every save is an update.
func (e *Engine) OpenExisting(id string, initial WorkingState) *Session {
	return e.open(id, initial)
}

func (e *Engine) open(id string, initial WorkingState) *Session {
	s := &Session{
		engine: e,
		id:     id,
		state:  initial.clone(),
	}

	s.mu.Lock()
	s.armHeartbeatLocked()
	s.mu.Unlock()

	e.mu.Lock()
	e.sessions[s] = struct{}{}
	e.mu.Unlock()

	e.logger.Debug().Str("postId", id).Msg("edit session opened")
	return s
}

func (e *Engine) forget(s *Session) {
	e.mu.Lock()
	delete(e.sessions, s)
	e.mu.Unlock()
}

// OpenSessions returns the number of sessions not yet closed.
func (e *Engine) OpenSessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

// CloseAll closes every open session. Used on logout.
func (e *Engine) CloseAll() {
	e.mu.Lock()
	sessions := make([]*Session, 0, len(e.sessions))
	for s := range e.sessions {
		sessions = append(sessions, s)
	}
	e.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func (e *Engine) report(r Report) {
	r.At = e.clock.Now()

	event := e.logger.Debug()
	if r.Err != nil {
		event = e.logger.Warn().Err(r.Err)
	}
	event.Str("trigger", string(r.Trigger)).
		Str("outcome", string(r.Outcome)).
		Str("postId", r.PostID).
		Msg("persistence attempt")

	if e.reporter != nil {
		e.reporter(r)
	}
}
