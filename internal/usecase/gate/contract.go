package gate

import (
	"context"

	domaudit "github.com/kailas-cloud/tenantrag/internal/domain/audit"
	"github.com/kailas-cloud/tenantrag/internal/domain/safety"
	"github.com/kailas-cloud/tenantrag/internal/domain/subscription"
)

// Identity verifies agent credentials.
type Identity interface {
	Verify(agent, credential string) bool
}

// Subscriptions resolves an agent's subscription.
type Subscriptions interface {
	Lookup(agent string) subscription.Subscription
}

// Inspector screens query text.
type Inspector interface {
	Inspect(ctx context.Context, text string) (safety.Verdict, error)
}

// Limiter admits requests against a quota.
type Limiter interface {
	Allow(ctx context.Context, agent string) (bool, error)
}

// Auditor records events without failing.
type Auditor interface {
	Record(ctx context.Context, kind domaudit.Kind, agent string, payload map[string]any)
}
