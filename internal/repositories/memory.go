package repositories

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/shared"
)

type sessionSnapshot struct {
	values    map[string]string
	cookies   map[string]string
	createdAt time.Time
	updatedAt time.Time
	expiresAt time.Time
}

// MemorySessionStore implements [models.SessionStore] in process memory.
//
// Sessions are stored as snapshots, so a handler never shares a *Session with
// another request.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]sessionSnapshot
	now      func() time.Time
}

// NewMemorySessionStore creates an empty [MemorySessionStore]
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: map[string]sessionSnapshot{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemorySessionStore) Create(s *models.Session) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID()]; ok {
		return fmt.Errorf("%w: session %s already exists", shared.ErrInvalidInput, s.ID())
	}
	m.sessions[s.ID()] = snapshot(s)
	s.MarkClean()
	return nil
}

func (m *MemorySessionStore) Get(id string) (*models.Session, error) {
	m.mu.RLock()
	snap, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}

	s := restore(id, snap)
	if s.Expired(m.now()) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionExpired, id)
	}
	return s, nil
}

func (m *MemorySessionStore) Update(s *models.Session) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID()]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, s.ID())
	}
	m.sessions[s.ID()] = snapshot(s)
	s.MarkClean()
	return nil
}

// Save inserts or replaces s
func (m *MemorySessionStore) Save(s *models.Session) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID()] = snapshot(s)
	s.MarkClean()
	return nil
}

func (m *MemorySessionStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

// List supports the same "active" criterion as [SessionRepository.List].
func (m *MemorySessionStore) List(criteria map[string]any) ([]*models.Session, error) {
	active, _ := criteria["active"].(bool)
	now := m.now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*models.Session, 0, len(m.sessions))
	for id, snap := range m.sessions {
		if active && !now.Before(snap.expiresAt) {
			continue
		}
		sessions = append(sessions, restore(id, snap))
	}

	slices.SortFunc(sessions, func(a, b *models.Session) int {
		return b.UpdatedAt().Compare(a.UpdatedAt())
	})
	return sessions, nil
}

func (m *MemorySessionStore) Prune(now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pruned := 0
	for id, snap := range m.sessions {
		if !now.Before(snap.expiresAt) {
			delete(m.sessions, id)
			pruned++
		}
	}
	return pruned, nil
}

// Len reports how many sessions are stored, expired or not.
func (m *MemorySessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func snapshot(s *models.Session) sessionSnapshot {
	return sessionSnapshot{
		values:    s.Values(),
		cookies:   s.Cookies(),
		createdAt: s.CreatedAt(),
		updatedAt: s.UpdatedAt(),
		expiresAt: s.ExpiresAt(),
	}
}

func restore(id string, snap sessionSnapshot) *models.Session {
	return models.RestoreSession(id, maps.Clone(snap.values), maps.Clone(snap.cookies), snap.createdAt, snap.updatedAt, snap.expiresAt)
}
