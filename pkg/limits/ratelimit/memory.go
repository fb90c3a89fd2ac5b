package ratelimit

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count   int64
	resetAt time.Time
}

// MemoryCounter keeps windows in a process-local map. Expired windows are
// purged lazily on each Increment; there is no background sweeper. State is
// lost on restart.
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewMemoryCounter creates an empty in-memory counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		entries: make(map[string]*entry),
	}
}

// Increment implements Counter.
func (m *MemoryCounter) Increment(_ context.Context, key string, now time.Time, window time.Duration) (Window, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeLocked(now)

	e, ok := m.entries[key]
	if !ok {
		e = &entry{resetAt: now.Add(window)}
		m.entries[key] = e
	}
	e.count++

	return Window{Count: e.count, ResetAt: e.resetAt}, nil
}

// Len implements Counter.
func (m *MemoryCounter) Len(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := 0
	for _, e := range m.entries {
		if !expired(e, now) {
			live++
		}
	}
	return live, nil
}

// Close implements Counter.
func (m *MemoryCounter) Close() error {
	return nil
}

func (m *MemoryCounter) purgeLocked(now time.Time) {
	for key, e := range m.entries {
		if expired(e, now) {
			delete(m.entries, key)
		}
	}
}

// expired reports whether the window has passed. A window is still live at
// exactly its reset instant.
func expired(e *entry, now time.Time) bool {
	return e.resetAt.Before(now)
}
