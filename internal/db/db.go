package db

import (
	"context"
	"time"
)

// Store is everything the service needs from its shared backend.
type Store interface {
	Pinger
	KVStore
	WindowStore
	ListStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore holds opaque values with an optional expiry. Used by the embedding cache.
type KVStore interface {
	// Get returns ErrKeyNotFound for missing or expired keys.
	Get(ctx context.Context, key string) ([]byte, error)
	// SetWithTTL overwrites key. A non-positive ttl means no expiry.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// WindowStore keeps scored members in a sorted set for sliding-window counting.
// Scores are Unix milliseconds.
type WindowStore interface {
	// WindowAdd drops members scored at or below cutoff, adds member at score,
	// refreshes the key TTL and returns the resulting member count. One round trip.
	WindowAdd(ctx context.Context, key, member string, score, cutoff int64, ttl time.Duration) (int64, error)
	// WindowRemove deletes a single member.
	WindowRemove(ctx context.Context, key, member string) error
	// WindowCount counts members scored above cutoff.
	WindowCount(ctx context.Context, key string, cutoff int64) (int64, error)
}

// ListStore provides append-only capped lists.
type ListStore interface {
	// PushCapped appends value and keeps only the newest maxLen entries.
	PushCapped(ctx context.Context, key string, value []byte, maxLen int64) error
	// Range returns entries between start and stop inclusive; negative indexes count from the tail.
	Range(ctx context.Context, key string, start, stop int64) ([][]byte, error)
}
