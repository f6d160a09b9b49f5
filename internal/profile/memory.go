package profile

import (
	"context"
	"errors"
	"sync"
)

// MemoryStore is an in-memory profile store for tests.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]CallerProfile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]CallerProfile)}
}

func (m *MemoryStore) Get(ctx context.Context, mobile string) (CallerProfile, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[mobile]
	return p, ok, nil
}

func (m *MemoryStore) Save(ctx context.Context, p CallerProfile) error {
	if p.Mobile == "" {
		return errors.New("profile: mobile is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.Mobile] = p
	return nil
}
