package domain

import (
	"context"
	"sync/atomic"
)

type embeddingUsageKey struct{}

// EmbeddingUsage collects token usage for a single inbound request. A swarm query
// runs two pipelines against the same collector, so updates are atomic.
type EmbeddingUsage struct {
	tokens atomic.Int64
	texts  atomic.Int64
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// Add records consumed tokens for n embedded texts. Safe on a nil collector.
func (u *EmbeddingUsage) Add(texts, tokens int) {
	if u == nil {
		return
	}
	u.texts.Add(int64(texts))
	u.tokens.Add(int64(tokens))
}

// Tokens returns the total tokens recorded.
func (u *EmbeddingUsage) Tokens() int64 { return u.tokens.Load() }

// Texts returns how many texts were embedded, cache hits included.
func (u *EmbeddingUsage) Texts() int64 { return u.texts.Load() }

// Used reports whether any embedding happened.
func (u *EmbeddingUsage) Used() bool { return u != nil && u.texts.Load() > 0 }
