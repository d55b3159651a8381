package audit

import (
	"context"
	"sync"

	domaudit "github.com/kailas-cloud/tenantrag/internal/domain/audit"
)

// DefaultMemoryEntries bounds the in-process event buffer.
const DefaultMemoryEntries = 1000

// MemorySink keeps the most recent events in a ring buffer.
type MemorySink struct {
	mu    sync.Mutex
	buf   []domaudit.Event
	next  int
	count int
}

// NewMemorySink creates a sink holding up to size events. size <= 0 uses DefaultMemoryEntries.
func NewMemorySink(size int) *MemorySink {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	return &MemorySink{buf: make([]domaudit.Event, size)}
}

// Write stores ev, evicting the oldest event when full.
func (s *MemorySink) Write(_ context.Context, ev domaudit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf[s.next] = ev
	s.next = (s.next + 1) % len(s.buf)
	if s.count < len(s.buf) {
		s.count++
	}
	return nil
}

// Recent returns up to n events, oldest first.
func (s *MemorySink) Recent(_ context.Context, n int64) ([]domaudit.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	take := s.count
	if n > 0 && int(n) < take {
		take = int(n)
	}
	out := make([]domaudit.Event, take)
	start := (s.next - take + len(s.buf)) % len(s.buf)
	for i := range out {
		out[i] = s.buf[(start+i)%len(s.buf)]
	}
	return out, nil
}
