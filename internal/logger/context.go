package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ContextWithLogger stores a logger in the context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts a logger from the context.
// Returns zap.NewNop() if no logger is found.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// WithAgent returns a context whose logger tags every line with the agent.
func WithAgent(ctx context.Context, agent string) context.Context {
	return ContextWithLogger(ctx, FromContext(ctx).With(Agent(agent)))
}

// Agent is the field that ties a log line to a tenant.
func Agent(id string) zap.Field {
	return zap.String("agent_id", id)
}
