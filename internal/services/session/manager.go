package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"chatgate/internal/clock"
	"chatgate/internal/domain"
	"chatgate/internal/logger"
)

// Manager owns the live sessions of the process.
type Manager struct {
	clock  clock.Clock
	policy domain.IdlePolicy
	retain time.Duration
	log    logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns a Manager. Timed-out sessions are kept for retain
// before Sweep removes them.
func NewManager(clk clock.Clock, policy domain.IdlePolicy, retain time.Duration, log logger.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		clock:    clk,
		policy:   policy,
		retain:   retain,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// Start creates a new session for an authentication result and, if the
// result is valid, logs it in and starts its idle watcher. Invalid results
// create nothing and return domain.ErrInvalidToken.
func (m *Manager) Start(res domain.AuthResult) (*Session, error) {
	if !res.Valid {
		return nil, domain.ErrInvalidToken
	}

	s := New(uuid.NewString(), m.clock, m.policy, m.log)
	if err := s.Login(res); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		s.Watch(m.ctx)
	}()
	return s, nil
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// Remove forgets the session with id and stops its watcher.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Len returns the number of sessions held, timed out or not.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions that timed out more than retain ago and returns
// how many were removed.
func (m *Manager) Sweep() int {
	cutoff := m.clock.Now().Add(-m.retain)

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.State() != domain.TimedOut {
			continue
		}
		if s.TimedOutAt().Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	if n > 0 {
		m.log.Debug("swept timed-out sessions", logger.Component("session"), logger.Int("count", n))
	}
	return n
}

// RunSweeper calls Sweep every poll interval until ctx is cancelled or the
// manager is closed.
func (m *Manager) RunSweeper(ctx context.Context) {
	t := m.clock.NewTicker(m.policy.Poll)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.ctx.Done():
			return
		case <-t.C:
			m.Sweep()
		}
	}
}

// Close stops every watcher and waits for them to exit.
func (m *Manager) Close() {
	m.cancel()
	m.mu.Lock()
	for _, s := range m.sessions {
		s.Close()
	}
	m.mu.Unlock()
	m.wg.Wait()
}
