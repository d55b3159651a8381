package query

import (
	"context"

	domaudit "github.com/kailas-cloud/tenantrag/internal/domain/audit"
	"github.com/kailas-cloud/tenantrag/internal/domain/subscription"
	"github.com/kailas-cloud/tenantrag/internal/usecase/gate"
	"github.com/kailas-cloud/tenantrag/internal/usecase/ratelimit"
	"github.com/kailas-cloud/tenantrag/internal/usecase/retrieval"
)

// Gate admits tenant operations.
type Gate interface {
	CheckIngest(ctx context.Context, agent, credential string) (gate.Admission, error)
	CheckQuery(ctx context.Context, agent, credential, text string) (gate.Admission, error)
	CheckAccess(ctx context.Context, agent, credential string) (gate.Admission, error)
}

// Tenants resolves per-agent engines.
type Tenants interface {
	Get(id string) *retrieval.Engine
	Lookup(id string) (*retrieval.Engine, bool)
}

// Journal records audit events and reports per-agent totals.
type Journal interface {
	Record(ctx context.Context, kind domaudit.Kind, agent string, payload map[string]any)
	Counts(agent string) map[domaudit.Kind]int
}

// UsageReporter reports rate-limit consumption.
type UsageReporter interface {
	Usage(ctx context.Context, agent string) (ratelimit.Usage, error)
}

// Subscriptions resolves plan details for stats.
type Subscriptions interface {
	Lookup(agent string) subscription.Subscription
}
