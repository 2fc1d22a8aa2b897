package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/gavel/go/internal/models"
)

// MemoryStore keeps the session in process. It is the default backend and the
// one used in tests.
type MemoryStore struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	current *models.Session
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{clock: clock}
}

func (m *MemoryStore) Load(_ context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return models.NewSession(), nil
	}
	return m.current.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *models.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var stored int64
	if m.current != nil {
		stored = m.current.Version
	}
	if stored != s.Version {
		return ErrVersionConflict
	}

	s.Version++
	s.UpdatedAt = m.clock.Now().UTC().Truncate(time.Microsecond)
	m.current = s.Clone()
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stored int64
	if m.current != nil {
		stored = m.current.Version
	}
	s := cleared(stored + 1)
	s.UpdatedAt = m.clock.Now().UTC().Truncate(time.Microsecond)
	m.current = s.Clone()
	return s, nil
}
