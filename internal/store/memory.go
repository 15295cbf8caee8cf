package store

import (
	"context"
	"sync"
	"time"

	"github.com/aLoneMass/historybot/internal/domain"
)

// MemoryStore keeps schedules in a mutex-guarded map. Used when no database
// path is configured and throughout the tests.
type MemoryStore struct {
	mu        sync.Mutex
	schedules map[int64]*domain.PublicationSchedule
}

func NewMemory() *MemoryStore {
	return &MemoryStore{schedules: make(map[int64]*domain.PublicationSchedule)}
}

func (m *MemoryStore) Put(_ context.Context, s *domain.PublicationSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.schedules[s.UserID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, userID int64) (*domain.PublicationSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.schedules, userID)
	return nil
}

func (m *MemoryStore) All(_ context.Context) ([]domain.PublicationSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]domain.PublicationSchedule, 0, len(m.schedules))
	for _, s := range m.schedules {
		res = append(res, *s)
	}
	return res, nil
}

func (m *MemoryStore) SetCancelNext(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.schedules[userID]; ok {
		s.CancelNext = true
	}
	return nil
}

func (m *MemoryStore) ConsumeCancelNext(_ context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[userID]
	if !ok || !s.CancelNext {
		return false, nil
	}
	s.CancelNext = false
	return true, nil
}

func (m *MemoryStore) SetPending(_ context.Context, userID int64, jobID string, nextAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.schedules[userID]; ok {
		s.PendingJobID = jobID
		s.NextAt = nextAt.UTC()
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }
