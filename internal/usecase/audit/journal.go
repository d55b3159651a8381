// Package audit records who did what. Recording never fails the caller.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domaudit "github.com/kailas-cloud/tenantrag/internal/domain/audit"
)

// Journal stamps events, keeps per-agent counters and fans out to sinks.
type Journal struct {
	sinks  []Sink
	now    func() time.Time
	logger *zap.Logger

	mu     sync.Mutex
	counts map[string]map[domaudit.Kind]int
}

// New creates a journal writing to sinks in order.
func New(logger *zap.Logger, sinks ...Sink) *Journal {
	return &Journal{
		sinks:  sinks,
		now:    time.Now,
		logger: logger,
		counts: make(map[string]map[domaudit.Kind]int),
	}
}

// Record writes one event. Sink failures are logged and swallowed.
func (j *Journal) Record(ctx context.Context, kind domaudit.Kind, agent string, payload map[string]any) {
	ev := domaudit.Event{
		ID:        uuid.NewString(),
		Timestamp: j.now().UTC(),
		Kind:      kind,
		Agent:     agent,
		Payload:   payload,
	}

	j.mu.Lock()
	c, ok := j.counts[agent]
	if !ok {
		c = make(map[domaudit.Kind]int)
		j.counts[agent] = c
	}
	c[kind]++
	j.mu.Unlock()

	for _, s := range j.sinks {
		if err := s.Write(ctx, ev); err != nil {
			j.logger.Warn("Audit sink write failed",
				zap.String("event", string(kind)),
				zap.String("agent_id", agent),
				zap.Error(err),
			)
		}
	}
}

// Counts returns a copy of agent's event totals since process start.
func (j *Journal) Counts(agent string) map[domaudit.Kind]int {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make(map[domaudit.Kind]int, len(j.counts[agent]))
	for k, v := range j.counts[agent] {
		out[k] = v
	}
	return out
}

// LogSink writes every event as a structured log line.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink over logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Write logs ev at info level.
func (s *LogSink) Write(_ context.Context, ev domaudit.Event) error {
	s.logger.Info("audit",
		zap.String("audit_id", ev.ID),
		zap.Time("timestamp", ev.Timestamp),
		zap.String("event", string(ev.Kind)),
		zap.String("agent_id", ev.Agent),
		zap.Any("payload", ev.Payload),
	)
	return nil
}
