package session

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu      sync.RWMutex
	records map[int64]Record
}

// NewMemoryStore constructs an in-memory Store used in development and
// tests, and as the default when no Redis is configured.
func NewMemoryStore() Store {
	return &memoryStore{records: make(map[int64]Record)}
}

func (m *memoryStore) Get(_ context.Context, userID int64) (Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[userID]
	if !ok {
		return Record{}, false, nil
	}
	return rec.Clone(), true, nil
}

func (m *memoryStore) Set(_ context.Context, userID int64, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[userID] = rec.Clone()
	return nil
}

func (m *memoryStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, userID)
	return nil
}
