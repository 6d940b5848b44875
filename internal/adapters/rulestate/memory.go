package rulestate

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count    int64
	expireAt time.Time
}

// MemoryStore is a single-process rule-state store. Used in tests and for
// single-node deployments without redis.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	flags   map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*window),
		flags:   make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *MemoryStore) Increment(_ context.Context, key string, windowDur time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || now.After(w.expireAt) {
		w = &window{expireAt: now.Add(windowDur)}
		m.windows[key] = w
	}
	w.count++
	return w.count, nil
}

func (m *MemoryStore) FlagBot(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[key] = m.now().Add(ttl)
	return nil
}

// Flagged reports whether key carries a live bot flag.
func (m *MemoryStore) Flagged(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.flags[key]
	return ok && m.now().Before(exp)
}

func (m *MemoryStore) Ping(_ context.Context) error { return nil }

// Cleanup removes expired windows and flags to prevent unbounded growth.
func (m *MemoryStore) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, w := range m.windows {
		if now.After(w.expireAt) {
			delete(m.windows, k)
		}
	}
	for k, exp := range m.flags {
		if now.After(exp) {
			delete(m.flags, k)
		}
	}
}
