// Package gate runs the ordered admission checks in front of every tenant operation.
// The first failing check decides the outcome and later checks do not run.
package gate

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tenantrag/internal/domain"
	domaudit "github.com/kailas-cloud/tenantrag/internal/domain/audit"
	"github.com/kailas-cloud/tenantrag/internal/domain/subscription"
	"github.com/kailas-cloud/tenantrag/internal/logger"
	"github.com/kailas-cloud/tenantrag/internal/metrics"
)

// Check names used in metrics.
const (
	checkIdentity     = "identity"
	checkSubscription = "subscription"
	checkSafety       = "safety"
	checkRateLimit    = "rate_limit"
)

// Admission is the result of a passed gate.
type Admission struct {
	Agent string
	Plan  subscription.Plan
}

// Gate holds the policy collaborators.
type Gate struct {
	identity  Identity
	subs      Subscriptions
	inspector Inspector
	limiter   Limiter
	audit     Auditor
}

// New creates a gate.
func New(identity Identity, subs Subscriptions, inspector Inspector, limiter Limiter, audit Auditor) *Gate {
	return &Gate{
		identity:  identity,
		subs:      subs,
		inspector: inspector,
		limiter:   limiter,
		audit:     audit,
	}
}

// CheckAccess verifies the credential and the subscription.
func (g *Gate) CheckAccess(ctx context.Context, agent, credential string) (Admission, error) {
	if !g.identity.Verify(agent, credential) {
		decide(checkIdentity, "deny")
		logger.FromContext(ctx).Warn("Invalid credential")
		return Admission{}, domain.Deny(domain.ErrUnauthorized, domain.ReasonInvalidCredential)
	}
	decide(checkIdentity, "pass")

	sub := g.subs.Lookup(agent)
	if !sub.Active() {
		decide(checkSubscription, "deny")
		logger.FromContext(ctx).Warn("Subscription not active", zap.String("status", string(sub.Status())))
		return Admission{}, domain.Deny(domain.ErrForbidden, domain.ReasonSubscriptionInactive)
	}
	decide(checkSubscription, "pass")

	return Admission{Agent: agent, Plan: sub.Plan()}, nil
}

// CheckIngest admits a document upload.
func (g *Gate) CheckIngest(ctx context.Context, agent, credential string) (Admission, error) {
	return g.CheckAccess(ctx, agent, credential)
}

// CheckQuery admits a query: access, then content safety, then the rate limit.
// Safety and rate-limit infrastructure errors let the request through.
// Log lines carry whatever fields the caller attached to the context logger.
func (g *Gate) CheckQuery(ctx context.Context, agent, credential, text string) (Admission, error) {
	adm, err := g.CheckAccess(ctx, agent, credential)
	if err != nil {
		return Admission{}, err
	}
	log := logger.FromContext(ctx)

	verdict, err := g.inspector.Inspect(ctx, text)
	switch {
	case err != nil:
		decide(checkSafety, "fail_open")
		log.Warn("Content inspection failed, allowing", zap.Error(err))
	case !verdict.Allowed:
		decide(checkSafety, "deny")
		log.Warn("Content blocked", zap.String("reason", verdict.Reason))
		g.audit.Record(ctx, domaudit.KindEthicsBlock, agent, map[string]any{
			"query":  domaudit.Preview(text),
			"reason": verdict.Reason,
		})
		return Admission{}, domain.Deny(domain.ErrBadRequest, domain.ReasonContentBlockPrefix+verdict.Reason)
	default:
		decide(checkSafety, "pass")
	}

	allowed, err := g.limiter.Allow(ctx, agent)
	switch {
	case err != nil:
		decide(checkRateLimit, "fail_open")
		log.Warn("Rate limiter failed, allowing", zap.Error(err))
	case !allowed:
		decide(checkRateLimit, "deny")
		return Admission{}, domain.Deny(domain.ErrRateLimited, domain.ReasonRateLimited)
	default:
		decide(checkRateLimit, "pass")
	}

	return adm, nil
}

func decide(check, outcome string) {
	metrics.GateDecisionsTotal.WithLabelValues(check, outcome).Inc()
}
