// Package ratelimit stores sliding-window request logs in memory or in Redis.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryWindow keeps per-key timestamp logs in process memory.
type MemoryWindow struct {
	mu   sync.Mutex
	hits map[string][]time.Time
}

// NewMemoryWindow creates an empty window store.
func NewMemoryWindow() *MemoryWindow {
	return &MemoryWindow{hits: make(map[string][]time.Time)}
}

// Hit records now for key unless limit entries are already inside the window.
func (m *MemoryWindow) Hit(_ context.Context, key string, now time.Time, window time.Duration, limit int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := m.prune(key, now, window)
	if len(live) >= limit {
		return false, nil
	}
	m.hits[key] = append(live, now)
	return true, nil
}

// Count returns how many entries for key are inside the window.
func (m *MemoryWindow) Count(_ context.Context, key string, now time.Time, window time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prune(key, now, window)), nil
}

// prune drops entries older than the window. Caller holds mu.
func (m *MemoryWindow) prune(key string, now time.Time, window time.Duration) []time.Time {
	log := m.hits[key]
	i := 0
	for i < len(log) && now.Sub(log[i]) >= window {
		i++
	}
	if i == len(log) {
		delete(m.hits, key)
		return nil
	}
	live := log[i:]
	m.hits[key] = live
	return live
}
