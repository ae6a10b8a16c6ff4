// internal/store/memory.go
//
// In-memory registry of live game sessions.
// Sessions are single-process by design: they exist only between
// configuration handoff and outcome persistence, so no durable backend is
// involved.
//
// Characteristics:
//   - Stores *game.Session objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Delete closes the session, cancelling any pending timer.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/idziarhai/crossword/internal/game"
)

// ErrNotFound is returned when a session ID matches nothing.
var ErrNotFound = errors.New("session not found")

// Registry defines the live-session storage interface.
type Registry interface {
	// Save registers a session under its ID.
	Save(ctx context.Context, s *game.Session) error

	// Get retrieves a session by ID.
	Get(ctx context.Context, id string) (*game.Session, error)

	// Delete discards a session, closing it first.
	Delete(ctx context.Context, id string)
}

type memory struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session
}

// NewMemoryRegistry constructs a new in-memory Registry.
func NewMemoryRegistry() Registry {
	return &memory{sessions: make(map[string]*game.Session)}
}

func (m *memory) Save(ctx context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}
