package tenantrag

import (
	"context"

	healthuc "github.com/kailas-cloud/tenantrag/internal/usecase/health"
)

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// HealthStatus is the aggregated state of Redis, the embedder and the reranker.
// Components that were not configured, or cannot report, are absent from Checks.
type HealthStatus struct {
	Status string            // ok, degraded, error
	Checks map[string]string // redis, embedding, reranker -> ok / error
}

// Healthy reports whether every checked component passed.
func (h HealthStatus) Healthy() bool { return h.Status == string(healthuc.Healthy) }

// Health checks the configured components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{Status: string(report.Status), Checks: checks}
}
