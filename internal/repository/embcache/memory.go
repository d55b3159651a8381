package embcache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/tenantrag/internal/db"
)

// DefaultMemoryEntries bounds the in-process cache when no size is configured.
const DefaultMemoryEntries = 10000

type memEntry struct {
	value   []byte
	expires time.Time // zero: never
}

// MemoryStore is an in-process LRU used when Redis is not configured.
// Expired entries are dropped lazily on read.
type MemoryStore struct {
	cache *lru.Cache[string, memEntry]
	now   func() time.Time
}

// NewMemoryStore creates an LRU holding at most size entries.
func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	c, err := lru.New[string, memEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &MemoryStore{cache: c, now: time.Now}, nil
}

// Get returns the cached bytes or db.ErrKeyNotFound.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := m.cache.Get(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.cache.Remove(key)
		return nil, db.ErrKeyNotFound
	}
	return e.value, nil
}

// SetWithTTL stores value under key. A non-positive ttl never expires.
func (m *MemoryStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memEntry{value: value}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.cache.Add(key, e)
	return nil
}

// Len returns the number of cached entries, expired ones included.
func (m *MemoryStore) Len() int { return m.cache.Len() }
