package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tenantrag/internal/domain"
)

var keyPrefix = domain.KeyPrefix + "ratelimit:"

// store is the consumer interface for the Redis window (ISP).
type store interface {
	WindowAdd(ctx context.Context, key, member string, score, cutoff int64, ttl time.Duration) (int64, error)
	WindowRemove(ctx context.Context, key, member string) error
	WindowCount(ctx context.Context, key string, cutoff int64) (int64, error)
}

// RedisWindow keeps one sorted set per key, scored by request time in milliseconds,
// so every replica shares the same quota.
type RedisWindow struct {
	store  store
	logger *zap.Logger
}

// NewRedisWindow creates a window backed by s.
func NewRedisWindow(s store, logger *zap.Logger) *RedisWindow {
	return &RedisWindow{store: s, logger: logger}
}

// Hit adds a member for now and takes it back out when the window is over limit.
func (r *RedisWindow) Hit(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, error) {
	k := keyPrefix + key
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()

	n, err := r.store.WindowAdd(ctx, k, member, now.UnixMilli(), now.Add(-window).UnixMilli(), window)
	if err != nil {
		return false, fmt.Errorf("window add: %w", err)
	}
	if n <= int64(limit) {
		return true, nil
	}

	if err := r.store.WindowRemove(ctx, k, member); err != nil {
		// The stray member only makes the window stricter until it expires.
		r.logger.Warn("Failed to remove rejected window member", zap.String("key", k), zap.Error(err))
	}
	return false, nil
}

// Count returns how many members are inside the window.
func (r *RedisWindow) Count(ctx context.Context, key string, now time.Time, window time.Duration) (int, error) {
	n, err := r.store.WindowCount(ctx, keyPrefix+key, now.Add(-window).UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("window count: %w", err)
	}
	return int(n), nil
}
