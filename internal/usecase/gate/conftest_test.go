package gate

import (
	"context"
	"sync"

	domaudit "github.com/kailas-cloud/tenantrag/internal/domain/audit"
	"github.com/kailas-cloud/tenantrag/internal/domain/safety"
	"github.com/kailas-cloud/tenantrag/internal/domain/subscription"
)

// calls records the order in which collaborators were consulted.
type calls struct {
	mu  sync.Mutex
	seq []string
}

func (c *calls) add(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = append(c.seq, name)
}

type mockIdentity struct {
	log   *calls
	valid bool
}

func (m *mockIdentity) Verify(_, _ string) bool {
	m.log.add("identity")
	return m.valid
}

type mockSubs struct {
	log *calls
	sub subscription.Subscription
}

func (m *mockSubs) Lookup(_ string) subscription.Subscription {
	m.log.add("subscription")
	return m.sub
}

type mockInspector struct {
	log     *calls
	verdict safety.Verdict
	err     error
}

func (m *mockInspector) Inspect(_ context.Context, _ string) (safety.Verdict, error) {
	m.log.add("safety")
	return m.verdict, m.err
}

type mockLimiter struct {
	log     *calls
	allowed bool
	err     error
}

func (m *mockLimiter) Allow(_ context.Context, _ string) (bool, error) {
	m.log.add("rate_limit")
	return m.allowed, m.err
}

type auditCall struct {
	kind    domaudit.Kind
	agent   string
	payload map[string]any
}

type mockAuditor struct {
	log     *calls
	entries []auditCall
}

func (m *mockAuditor) Record(_ context.Context, kind domaudit.Kind, agent string, payload map[string]any) {
	m.log.add("audit")
	m.entries = append(m.entries, auditCall{kind: kind, agent: agent, payload: payload})
}

type fixture struct {
	log       *calls
	identity  *mockIdentity
	subs      *mockSubs
	inspector *mockInspector
	limiter   *mockLimiter
	audit     *mockAuditor
}

// newFixture returns collaborators that all pass.
func newFixture() *fixture {
	log := &calls{}
	return &fixture{
		log:       log,
		identity:  &mockIdentity{log: log, valid: true},
		subs:      &mockSubs{log: log, sub: subscription.New(subscription.StatusActive, subscription.PlanPro)},
		inspector: &mockInspector{log: log, verdict: safety.Allow()},
		limiter:   &mockLimiter{log: log, allowed: true},
		audit:     &mockAuditor{log: log},
	}
}

func (f *fixture) gate() *Gate {
	return New(f.identity, f.subs, f.inspector, f.limiter, f.audit)
}
