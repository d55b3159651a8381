package chi

import (
	"context"

	"github.com/kailas-cloud/tenantrag/internal/domain/answer"
	domaudit "github.com/kailas-cloud/tenantrag/internal/domain/audit"
	"github.com/kailas-cloud/tenantrag/internal/domain/subscription"
	healthuc "github.com/kailas-cloud/tenantrag/internal/usecase/health"
	"github.com/kailas-cloud/tenantrag/internal/usecase/identity"
	queryuc "github.com/kailas-cloud/tenantrag/internal/usecase/query"
	"github.com/kailas-cloud/tenantrag/internal/usecase/tenant"
)

// Pipeline runs the tenant-facing operations.
type Pipeline interface {
	Ingest(ctx context.Context, agent, credential, text, source string) (queryuc.IngestReport, error)
	Query(ctx context.Context, agent, credential, text string) (answer.Result, error)
	SwarmQuery(ctx context.Context, agent, credential, text string) (answer.Merged, error)
	Stats(ctx context.Context, agent, credential string) (queryuc.Stats, error)
}

// Tenants lists and evicts tenant engines.
type Tenants interface {
	Stats() []tenant.Summary
	Delete(id string) bool
}

// Identities manages agent credentials.
type Identities interface {
	Issue(agent, role string) (string, error)
	Revoke(agent string) bool
	Role(agent string) (string, bool)
	List() []identity.Agent
}

// Subscriptions changes an agent's subscription.
type Subscriptions interface {
	Set(agent string, status subscription.Status, plan subscription.Plan) subscription.Subscription
}

// Keywords edits the forbidden keyword list.
type Keywords interface {
	AddKeyword(keyword string) bool
	RemoveKeyword(keyword string) bool
	Keywords() []string
}

// AuditLog reads recent audit events.
type AuditLog interface {
	Recent(ctx context.Context, n int64) ([]domaudit.Event, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
