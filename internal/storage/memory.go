package storage

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process KV backed by a map. It is the default backend and
// the one used in tests. Expired entries are dropped lazily on read.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	// now is swappable for freshness tests.
	now func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the value for key, or ErrNotFound if absent or expired.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, ErrNotFound
	}

	// Copy so callers cannot mutate stored bytes.
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores value under key, replacing any previous value.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	e := memoryEntry{value: stored}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Close releases the store. A closed Memory remains usable; Close exists to
// satisfy KV.
func (m *Memory) Close() error { return nil }

// SetClock overrides the time source. Test hook.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// Len reports the number of stored entries, including not-yet-pruned
// expired ones.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var _ KV = (*Memory)(nil)
