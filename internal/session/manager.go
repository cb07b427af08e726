package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/time-agent/internal/domain"
)

// Manager owns the live sessions of all players.
type Manager struct {
	opts Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a Manager whose sessions share opts. Each session gets
// its own random source; opts.Rand is ignored.
func NewManager(opts Options) *Manager {
	opts = opts.withDefaults()
	opts.Rand = nil
	return &Manager{
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session for owner over set.
func (m *Manager) Create(owner string, set domain.PuzzleSet) (*Session, error) {
	s, err := New(uuid.NewString(), owner, set, m.opts)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	slog.Info("Session created", "session_id", s.ID, "user_id", owner, "topic", set.Topic, "rooms", len(set.Puzzles))
	return s, nil
}

// Get returns the session id owned by owner. Sessions of other players are
// reported as missing.
func (m *Manager) Get(owner, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || s.OwnerID != owner {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	return s, nil
}

// Delete removes the session id owned by owner.
func (m *Manager) Delete(owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || s.OwnerID != owner {
		return fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than ttl and returns their IDs.
func (m *Manager) Sweep(ttl time.Duration) []string {
	cutoff := m.opts.Clock().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []string
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			expired = append(expired, id)
		}
	}
	return expired
}
