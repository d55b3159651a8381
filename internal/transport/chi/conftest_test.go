package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tenantrag/internal/domain"
	"github.com/kailas-cloud/tenantrag/internal/domain/answer"
	domaudit "github.com/kailas-cloud/tenantrag/internal/domain/audit"
	"github.com/kailas-cloud/tenantrag/internal/domain/subscription"
	healthuc "github.com/kailas-cloud/tenantrag/internal/usecase/health"
	"github.com/kailas-cloud/tenantrag/internal/usecase/identity"
	queryuc "github.com/kailas-cloud/tenantrag/internal/usecase/query"
	"github.com/kailas-cloud/tenantrag/internal/usecase/tenant"
)

const adminKey = "admin-secret"

type ingestCall struct {
	agent, token, text, source string
}

type mockPipeline struct {
	ingestErr   error
	ingestCalls []ingestCall
	queryRes    answer.Result
	queryErr    error
	swarmRes    answer.Merged
	swarmErr    error
	stats       queryuc.Stats
	statsErr    error
	statsToken  string
	tokensUsed  int
}

func (m *mockPipeline) Ingest(_ context.Context, agent, token, text, source string) (queryuc.IngestReport, error) {
	m.ingestCalls = append(m.ingestCalls, ingestCall{agent, token, text, source})
	if m.ingestErr != nil {
		return queryuc.IngestReport{}, m.ingestErr
	}
	return queryuc.IngestReport{Status: "indexed", Chunks: 1, Filename: source}, nil
}

func (m *mockPipeline) Query(ctx context.Context, _, _, _ string) (answer.Result, error) {
	if m.tokensUsed > 0 {
		domain.UsageFromContext(ctx).Add(1, m.tokensUsed)
	}
	return m.queryRes, m.queryErr
}

func (m *mockPipeline) SwarmQuery(_ context.Context, _, _, _ string) (answer.Merged, error) {
	return m.swarmRes, m.swarmErr
}

func (m *mockPipeline) Stats(_ context.Context, agent, token string) (queryuc.Stats, error) {
	m.statsToken = token
	st := m.stats
	st.Agent = agent
	return st, m.statsErr
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type mockTenants struct {
	summaries []tenant.Summary
	deleted   []string
}

func (m *mockTenants) Stats() []tenant.Summary { return m.summaries }

func (m *mockTenants) Delete(id string) bool {
	for _, s := range m.summaries {
		if s.Agent == id {
			m.deleted = append(m.deleted, id)
			return true
		}
	}
	return false
}

type mockIdentities struct {
	roles map[string]string
}

func (m *mockIdentities) Issue(agent, role string) (string, error) {
	if role == "" {
		role = identity.DefaultRole
	}
	m.roles[agent] = role
	return "tok-" + agent, nil
}

func (m *mockIdentities) Revoke(agent string) bool {
	_, ok := m.roles[agent]
	delete(m.roles, agent)
	return ok
}

func (m *mockIdentities) Role(agent string) (string, bool) {
	r, ok := m.roles[agent]
	return r, ok
}

func (m *mockIdentities) List() []identity.Agent {
	out := make([]identity.Agent, 0, len(m.roles))
	for id, role := range m.roles {
		out = append(out, identity.Agent{ID: id, Role: role, IssuedAt: time.Unix(0, 0)})
	}
	slices.SortFunc(out, func(a, b identity.Agent) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

type mockSubscriptions struct {
	set map[string]subscription.Subscription
}

func (m *mockSubscriptions) Set(agent string, status subscription.Status, plan subscription.Plan) subscription.Subscription {
	s := subscription.New(status, plan)
	m.set[agent] = s
	return s
}

type mockKeywords struct {
	items []string
}

func (m *mockKeywords) AddKeyword(k string) bool {
	if slices.Contains(m.items, k) {
		return false
	}
	m.items = append(m.items, k)
	return true
}

func (m *mockKeywords) RemoveKeyword(k string) bool {
	i := slices.Index(m.items, k)
	if i < 0 {
		return false
	}
	m.items = slices.Delete(m.items, i, i+1)
	return true
}

func (m *mockKeywords) Keywords() []string { return slices.Clone(m.items) }

type mockAudit struct {
	events []domaudit.Event
	err    error
	asked  int64
}

func (m *mockAudit) Recent(_ context.Context, n int64) ([]domaudit.Event, error) {
	m.asked = n
	return m.events, m.err
}

type fixture struct {
	pipeline   *mockPipeline
	health     *mockHealth
	tenants    *mockTenants
	identities *mockIdentities
	subs       *mockSubscriptions
	keywords   *mockKeywords
	audit      *mockAudit
	handler    http.Handler
}

func newFixture(t *testing.T, apiKeys ...string) *fixture {
	t.Helper()
	f := &fixture{
		pipeline:   &mockPipeline{},
		health:     &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}},
		tenants:    &mockTenants{},
		identities: &mockIdentities{roles: map[string]string{}},
		subs:       &mockSubscriptions{set: map[string]subscription.Subscription{}},
		keywords:   &mockKeywords{},
		audit:      &mockAudit{},
	}
	if apiKeys == nil {
		apiKeys = []string{adminKey}
	}
	srv := NewServer(f.pipeline, f.health, Admin{
		Tenants:       f.tenants,
		Identities:    f.identities,
		Subscriptions: f.subs,
		Keywords:      f.keywords,
		Audit:         f.audit,
		APIKeys:       apiKeys,
	}, 1024, zap.NewNop())
	f.handler = srv.Routes()
	return f
}

func (f *fixture) do(method, target string, body io.Reader, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) admin(method, target string, body io.Reader) *httptest.ResponseRecorder {
	return f.do(method, target, body, "Authorization", "Bearer "+adminKey)
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}
