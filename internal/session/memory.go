package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a concurrency-safe in-process session store.
//
// It backs the degraded mode of RedisStore and is also used directly in
// tests. It is an explicitly constructed value with its own lifecycle,
// never a package-level global. Entries expire after ttl; Sweep removes
// expired entries and is wired to a cron janitor in main.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	clock   func() time.Time
}

type memoryEntry struct {
	sess      CallSession
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		clock:   time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, callID string) (CallSession, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[callID]
	m.mu.RUnlock()

	if !ok || m.clock().After(e.expiresAt) {
		return New(callID), false, nil
	}
	return e.sess, true, nil
}

func (m *MemoryStore) Save(ctx context.Context, s CallSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[s.CallID] = memoryEntry{sess: s, expiresAt: m.clock().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Reset(ctx context.Context, callID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, callID)
	return nil
}

// Sweep removes expired entries. Intended to run periodically; abandoned
// calls have no cleanup obligation beyond this.
func (m *MemoryStore) Sweep() {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, id)
		}
	}
}

// Len reports the number of live entries; used by tests and health checks.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
