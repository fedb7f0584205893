package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"chatgate/internal/clock"
	"chatgate/internal/domain"
	"chatgate/internal/logger"
	"chatgate/internal/services/conversation"
)

// ErrAlreadyAuthenticated is returned by Login on a session that is already logged in.
var ErrAlreadyAuthenticated = errors.New("session already authenticated")

// Session is one visitor's authentication and conversation state.
type Session struct {
	id     string
	clock  clock.Clock
	policy domain.IdlePolicy
	log    logger.Logger

	mu              sync.Mutex
	state           domain.SessionState
	user            domain.Username
	createdAt       time.Time
	lastInteraction time.Time
	timedOutAt      time.Time
	conv            *conversation.Conversation

	turn      sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// New returns an unauthenticated session.
func New(id string, clk clock.Clock, policy domain.IdlePolicy, log logger.Logger) *Session {
	return &Session{
		id:        id,
		clock:     clk,
		policy:    policy,
		log:       log.With(logger.Component("session"), logger.SessionID(id)),
		state:     domain.Unauthenticated,
		createdAt: clk.Now(),
		conv:      conversation.New(),
		done:      make(chan struct{}),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Login applies an authentication result. A valid result moves an
// unauthenticated session to Authenticated and starts its idle clock.
func (s *Session) Login(res domain.AuthResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case domain.TimedOut:
		return domain.ErrSessionTimedOut
	case domain.Authenticated:
		return ErrAlreadyAuthenticated
	}
	if !res.Valid {
		return domain.ErrInvalidToken
	}

	s.state = domain.Authenticated
	s.user = res.Username
	s.lastInteraction = s.clock.Now()
	s.log.Info("session authenticated", logger.User(string(s.user)))
	return nil
}

// Touch records an interaction, refreshing the idle clock.
func (s *Session) Touch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expireLocked() {
		return domain.ErrSessionTimedOut
	}
	switch s.state {
	case domain.TimedOut:
		return domain.ErrSessionTimedOut
	case domain.Unauthenticated:
		return domain.ErrUnauthenticated
	}
	s.lastInteraction = s.clock.Now()
	return nil
}

// CheckIdle times the session out if it has been idle for longer than the
// policy allows. It reports whether this call made the transition.
func (s *Session) CheckIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expireLocked()
}

func (s *Session) expireLocked() bool {
	if s.state != domain.Authenticated {
		return false
	}
	now := s.clock.Now()
	idle := now.Sub(s.lastInteraction)
	if idle <= s.policy.Timeout {
		return false
	}

	s.log.Info("session timed out",
		logger.User(string(s.user)),
		logger.Duration("idle", idle),
	)
	s.state = domain.TimedOut
	s.user = ""
	s.timedOutAt = now
	s.conv.Clear()
	s.stop()
	return true
}

// Watch runs the idle check every poll interval until the session times
// out, is closed, or ctx is cancelled.
func (s *Session) Watch(ctx context.Context) {
	t := s.clock.NewTicker(s.policy.Poll)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-t.C:
			if s.CheckIdle() {
				return
			}
		}
	}
}

// Done is closed when the session times out or is closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close stops the session's watcher. The state is left as it is.
func (s *Session) Close() { s.stop() }

func (s *Session) stop() { s.closeOnce.Do(func() { close(s.done) }) }

// State returns the current state.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Username returns the authenticated user, or "" when there is none.
func (s *Session) Username() domain.Username {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// LastInteraction returns the time of the last recorded interaction.
func (s *Session) LastInteraction() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastInteraction
}

// TimedOutAt returns when the session timed out, or the zero time.
func (s *Session) TimedOutAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timedOutAt
}

// Snapshot returns a copy of the session's observable state.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SessionSnapshot{
		ID:              s.id,
		State:           s.state,
		Username:        s.user,
		CreatedAt:       s.createdAt,
		LastInteraction: s.lastInteraction,
		TimedOutAt:      s.timedOutAt,
		History:         s.conv.History(),
	}
}

// Conversation returns the session's continuity state.
func (s *Session) Conversation() *conversation.Conversation { return s.conv }

// TryBeginTurn claims the session's turn slot without blocking.
func (s *Session) TryBeginTurn() (func(), bool) {
	if !s.turn.TryLock() {
		return nil, false
	}
	return s.turn.Unlock, true
}

// WhileAuthenticated runs fn with the session locked, provided it is still
// authenticated. The idle check cannot fire while fn runs.
func (s *Session) WhileAuthenticated(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case domain.TimedOut:
		return domain.ErrSessionTimedOut
	case domain.Unauthenticated:
		return domain.ErrUnauthenticated
	}
	return fn()
}

var _ conversation.Owner = (*Session)(nil)
