// Package ratelimit enforces a per-agent sliding-window request quota.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Defaults mirror a daily quota.
const (
	DefaultLimit  = 2000
	DefaultWindow = 24 * time.Hour
)

// Usage reports an agent's position in the current window.
type Usage struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// Limiter admits at most limit requests per agent in any rolling window.
type Limiter struct {
	store  Window
	limit  int
	window time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a limiter over store. Non-positive limit or window fall back to the defaults.
func New(store Window, limit int, window time.Duration, logger *zap.Logger, opts ...Option) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	l := &Limiter{store: store, limit: limit, window: window, now: time.Now, logger: logger}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Allow records a request for agent and reports whether it fits the quota.
func (l *Limiter) Allow(ctx context.Context, agent string) (bool, error) {
	ok, err := l.store.Hit(ctx, agent, l.now(), l.window, l.limit)
	if err != nil {
		return false, fmt.Errorf("rate limit hit: %w", err)
	}
	if !ok {
		l.logger.Warn("Rate limit exceeded", zap.String("agent_id", agent), zap.Int("limit", l.limit))
	}
	return ok, nil
}

// Usage reports how much of the quota agent has consumed.
func (l *Limiter) Usage(ctx context.Context, agent string) (Usage, error) {
	used, err := l.store.Count(ctx, agent, l.now(), l.window)
	if err != nil {
		return Usage{}, fmt.Errorf("rate limit usage: %w", err)
	}
	return Usage{Used: used, Limit: l.limit, Remaining: max(l.limit-used, 0)}, nil
}

// Limit returns the configured ceiling.
func (l *Limiter) Limit() int { return l.limit }
