// Package audit persists audit events to a capped Redis list.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/tenantrag/internal/domain"
	domaudit "github.com/kailas-cloud/tenantrag/internal/domain/audit"
)

// Key is the list holding serialized events, oldest first.
var Key = domain.KeyPrefix + "audit"

// DefaultMaxEntries caps the list when no size is configured.
const DefaultMaxEntries = 100000

// store is the consumer interface for the audit list (ISP).
type store interface {
	PushCapped(ctx context.Context, key string, value []byte, maxLen int64) error
	Range(ctx context.Context, key string, start, stop int64) ([][]byte, error)
}

// Sink appends JSON-encoded events to a Redis list.
type Sink struct {
	store      store
	maxEntries int64
}

// NewSink creates a sink keeping at most maxEntries events.
func NewSink(s store, maxEntries int64) *Sink {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Sink{store: s, maxEntries: maxEntries}
}

// Write appends ev.
func (s *Sink) Write(ctx context.Context, ev domaudit.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	if err := s.store.PushCapped(ctx, Key, data, s.maxEntries); err != nil {
		return fmt.Errorf("push audit event: %w", err)
	}
	return nil
}

// Recent returns up to n of the newest events, oldest first.
func (s *Sink) Recent(ctx context.Context, n int64) ([]domaudit.Event, error) {
	if n <= 0 {
		return []domaudit.Event{}, nil
	}
	raw, err := s.store.Range(ctx, Key, -n, -1)
	if err != nil {
		return nil, fmt.Errorf("read audit events: %w", err)
	}

	out := make([]domaudit.Event, 0, len(raw))
	for _, r := range raw {
		var ev domaudit.Event
		if err := json.Unmarshal(r, &ev); err != nil {
			return nil, fmt.Errorf("unmarshal audit event: %w", err)
		}
		out = append(out, ev)
	}
	return out, nil
}
