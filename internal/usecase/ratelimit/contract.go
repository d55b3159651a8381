package ratelimit

import (
	"context"
	"time"
)

// Window is a per-key log of request timestamps.
type Window interface {
	// Hit drops entries at or before now-window, then records now unless the key
	// already holds limit entries. Reports whether now was recorded.
	Hit(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, error)
	// Count drops expired entries and returns how many remain.
	Count(ctx context.Context, key string, now time.Time, window time.Duration) (int, error)
}
