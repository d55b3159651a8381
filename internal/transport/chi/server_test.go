package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/kailas-cloud/tenantrag/internal/domain"
	"github.com/kailas-cloud/tenantrag/internal/domain/answer"
	domaudit "github.com/kailas-cloud/tenantrag/internal/domain/audit"
	"github.com/kailas-cloud/tenantrag/internal/domain/subscription"
	healthuc "github.com/kailas-cloud/tenantrag/internal/usecase/health"
	"github.com/kailas-cloud/tenantrag/internal/usecase/tenant"
)

func TestIngest_RawBody(t *testing.T) {
	f := newFixture(t)

	rr := f.do(http.MethodPost, "/ingest?agent_id=alice&token=tok&filename=policy.txt",
		strings.NewReader("refund policy"), "Content-Type", "text/plain")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	want := ingestCall{agent: "alice", token: "tok", text: "refund policy", source: "policy.txt"}
	if len(f.pipeline.ingestCalls) != 1 || f.pipeline.ingestCalls[0] != want {
		t.Errorf("ingest calls = %+v", f.pipeline.ingestCalls)
	}
	var rep map[string]any
	_ = json.NewDecoder(rr.Body).Decode(&rep)
	if rep["status"] != "indexed" || rep["filename"] != "policy.txt" {
		t.Errorf("unexpected report: %v", rep)
	}
}

func TestIngest_MultipartUsesPartFilename(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "faq.md")
	_, _ = part.Write([]byte("shipping takes five days"))
	_ = mw.Close()

	rr := f.do(http.MethodPost, "/ingest?agent_id=alice&token=tok", &buf, "Content-Type", mw.FormDataContentType())

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	got := f.pipeline.ingestCalls[0]
	if got.source != "faq.md" || got.text != "shipping takes five days" {
		t.Errorf("unexpected ingest call: %+v", got)
	}
}

func TestIngest_DefaultFilename(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/ingest?agent_id=alice&token=tok", strings.NewReader("x"))

	if f.pipeline.ingestCalls[0].source != defaultFilename {
		t.Errorf("source = %q, want %q", f.pipeline.ingestCalls[0].source, defaultFilename)
	}
}

func TestIngest_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		body     []byte
		wantCode int
		wantMsg  string
	}{
		{"missing agent", "/ingest?token=tok", []byte("x"), http.StatusBadRequest, ""},
		{"missing token", "/ingest?agent_id=alice", []byte("x"), http.StatusBadRequest, "token is required"},
		{"agent too long", "/ingest?token=tok&agent_id=" + strings.Repeat("a", maxAgentLen+1), []byte("x"), http.StatusBadRequest, ""},
		{"not utf8", "/ingest?agent_id=alice&token=tok", []byte{0xff, 0xfe, 0xfd}, http.StatusBadRequest, domain.ReasonNotUTF8},
		{"too large", "/ingest?agent_id=alice&token=tok", bytes.Repeat([]byte("a"), 2048), http.StatusRequestEntityTooLarge, domain.ReasonFileTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			rr := f.do(http.MethodPost, tc.target, bytes.NewReader(tc.body))

			if rr.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tc.wantCode, rr.Body)
			}
			if tc.wantMsg != "" {
				if msg := decodeError(t, rr).Message; msg != tc.wantMsg {
					t.Errorf("message = %q, want %q", msg, tc.wantMsg)
				}
			}
			if len(f.pipeline.ingestCalls) != 0 {
				t.Error("pipeline must not be called")
			}
		})
	}
}

func TestIngest_PlanFileLimit(t *testing.T) {
	f := newFixture(t)
	f.pipeline.ingestErr = fmt.Errorf("ingest: %w", domain.Deny(domain.ErrTooLarge, domain.ReasonFileTooLarge))

	rr := f.do(http.MethodPost, "/ingest?agent_id=alice&token=tok", strings.NewReader("some text"))

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413 (body %s)", rr.Code, rr.Body)
	}
	if msg := decodeError(t, rr).Message; msg != domain.ReasonFileTooLarge {
		t.Errorf("message = %q, want %q", msg, domain.ReasonFileTooLarge)
	}
}

func TestDomainErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
		wantMsg    string
	}{
		{"unauthorized", domain.Deny(domain.ErrUnauthorized, domain.ReasonInvalidCredential),
			http.StatusUnauthorized, CodeUnauthorized, "invalid_credential"},
		{"forbidden", domain.Deny(domain.ErrForbidden, domain.ReasonSubscriptionInactive),
			http.StatusForbidden, CodeForbidden, "subscription_inactive"},
		{"content block", domain.Deny(domain.ErrBadRequest, "ethics_block: forbidden_keyword: hack"),
			http.StatusBadRequest, CodeBadRequest, "ethics_block: forbidden_keyword: hack"},
		{"rate limited", domain.Deny(domain.ErrRateLimited, domain.ReasonRateLimited),
			http.StatusTooManyRequests, CodeRateLimited, "rate_limited"},
		{"provider", fmt.Errorf("embed: %w", domain.ErrEmbeddingProvider),
			http.StatusBadGateway, CodeProviderError, "embedding provider error"},
		{"unknown error hides details", errors.New("redis: connection pool exhausted at 10.0.0.3"),
			http.StatusInternalServerError, CodeInternalError, "internal error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.pipeline.queryErr = fmt.Errorf("query: %w", tc.err)

			rr := f.do(http.MethodPost, "/query", jsonBody(t, QueryRequest{Text: "q", AgentID: "alice", Token: "tok"}))

			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			resp := decodeError(t, rr)
			if resp.Code != tc.wantCode || resp.Message != tc.wantMsg {
				t.Errorf("got %+v, want code %q message %q", resp, tc.wantCode, tc.wantMsg)
			}
		})
	}
}

func TestQuery_Success(t *testing.T) {
	f := newFixture(t)
	f.pipeline.queryRes = answer.Result{
		Answer:     "refund policy",
		Citations:  []answer.Citation{{Source: "policy.txt"}},
		Confidence: 0.88,
	}
	f.pipeline.tokensUsed = 7

	rr := f.do(http.MethodPost, "/query", jsonBody(t, QueryRequest{Text: "refund", AgentID: "alice", Token: "tok"}))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if got := rr.Header().Get("X-Embedding-Tokens"); got != "7" {
		t.Errorf("X-Embedding-Tokens = %q, want 7", got)
	}
	var res answer.Result
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Answer != "refund policy" || res.Confidence != 0.88 || res.Citations[0].Source != "policy.txt" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestQuery_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"text":`},
		{"empty text", `{"text":"","agent_id":"a","token":"t"}`},
		{"text too long", fmt.Sprintf(`{"text":%q,"agent_id":"a","token":"t"}`, strings.Repeat("x", maxTextLen+1))},
		{"missing token", `{"text":"q","agent_id":"a"}`},
		{"missing agent", `{"text":"q","token":"t"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			for _, path := range []string{"/query", "/swarm/query"} {
				rr := f.do(http.MethodPost, path, strings.NewReader(tc.body))
				if rr.Code != http.StatusBadRequest {
					t.Errorf("%s: status = %d, want 400", path, rr.Code)
				}
			}
		})
	}
}

func TestQuery_TextLimitCountsCharacters(t *testing.T) {
	f := newFixture(t)
	// multi-byte characters, exactly at the limit
	text := strings.Repeat("é", maxTextLen)

	rr := f.do(http.MethodPost, "/query", jsonBody(t, QueryRequest{Text: text, AgentID: "a", Token: "t"}))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestSwarmQuery_Success(t *testing.T) {
	f := newFixture(t)
	f.pipeline.swarmRes = answer.Merged{
		Answer:      "a\n\na",
		Citations:   []answer.Citation{},
		Confidence:  0.6,
		SwarmSize:   2,
		Explanation: answer.SwarmExplanation{Method: "parallel_execution", Runs: 2},
	}

	rr := f.do(http.MethodPost, "/swarm/query", jsonBody(t, QueryRequest{Text: "q", AgentID: "alice", Token: "tok"}))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	var got map[string]any
	_ = json.NewDecoder(rr.Body).Decode(&got)
	if got["swarm_size"] != float64(2) {
		t.Errorf("swarm_size = %v", got["swarm_size"])
	}
	expl, _ := got["explanation"].(map[string]any)
	if expl["method"] != "parallel_execution" {
		t.Errorf("explanation = %v", got["explanation"])
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.pipeline.stats.TotalQueries = 4
	f.pipeline.stats.Plan = subscription.PlanPro

	rr := f.do(http.MethodGet, "/stats/alice?token=tok", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	if f.pipeline.statsToken != "tok" {
		t.Errorf("token = %q", f.pipeline.statsToken)
	}
	var got map[string]any
	_ = json.NewDecoder(rr.Body).Decode(&got)
	if got["agent_id"] != "alice" || got["total_queries"] != float64(4) || got["plan"] != "pro" {
		t.Errorf("unexpected stats: %v", got)
	}
}

func TestStats_MissingToken(t *testing.T) {
	f := newFixture(t)
	if rr := f.do(http.MethodGet, "/stats/alice", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		status     healthuc.Status
		wantHealth int
		wantReady  int
	}{
		{"healthy", healthuc.Healthy, http.StatusOK, http.StatusOK},
		{"degraded", healthuc.Degraded, http.StatusOK, http.StatusOK},
		{"unhealthy", healthuc.Unhealthy, http.StatusServiceUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.health.report = healthuc.Report{
				Status: tc.status,
				Checks: map[string]healthuc.CheckResult{"embedding": healthuc.CheckOK},
			}

			rr := f.do(http.MethodGet, "/health", nil)
			if rr.Code != tc.wantHealth {
				t.Errorf("/health status = %d, want %d", rr.Code, tc.wantHealth)
			}
			var resp HealthResponse
			_ = json.NewDecoder(rr.Body).Decode(&resp)
			if resp.Status != string(tc.status) || resp.Checks["embedding"] != "ok" {
				t.Errorf("unexpected health body: %+v", resp)
			}

			if rr := f.do(http.MethodGet, "/ready", nil); rr.Code != tc.wantReady {
				t.Errorf("/ready status = %d, want %d", rr.Code, tc.wantReady)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodGet, "/health", nil)

	rr := f.do(http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "tenantrag_http_requests_total") {
		t.Error("expected http request metrics to be exposed")
	}
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)
	rr := f.do(http.MethodGet, "/nope", nil)
	if rr.Code != http.StatusNotFound || decodeError(t, rr).Code != CodeNotFound {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestAdmin_RequiresKey(t *testing.T) {
	f := newFixture(t)

	if rr := f.do(http.MethodGet, "/admin/tenants", nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", rr.Code)
	}
	if rr := f.do(http.MethodGet, "/admin/tenants", nil, "Authorization", "Bearer wrong"); rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d, want 401", rr.Code)
	}
	if rr := f.admin(http.MethodGet, "/admin/tenants", nil); rr.Code != http.StatusOK {
		t.Errorf("valid key: status = %d, want 200", rr.Code)
	}
}

func TestAdmin_NotMountedWithoutKeys(t *testing.T) {
	f := newFixture(t, "")
	if rr := f.do(http.MethodGet, "/admin/tenants", nil); rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestAdmin_Tenants(t *testing.T) {
	f := newFixture(t)
	f.tenants.summaries = []tenant.Summary{{Agent: "alice", Chunks: 3}, {Agent: "bob", Chunks: 1}}

	rr := f.admin(http.MethodGet, "/admin/tenants", nil)
	var list TenantListResponse
	_ = json.NewDecoder(rr.Body).Decode(&list)
	if list.Total != 2 || list.Items[0].Agent != "alice" || list.Items[0].Chunks != 3 {
		t.Errorf("unexpected list: %+v", list)
	}

	if rr := f.admin(http.MethodDelete, "/admin/tenants/alice", nil); rr.Code != http.StatusNoContent {
		t.Errorf("delete: status = %d, want 204", rr.Code)
	}
	if rr := f.admin(http.MethodDelete, "/admin/tenants/carol", nil); rr.Code != http.StatusNotFound {
		t.Errorf("delete unknown: status = %d, want 404", rr.Code)
	}
}

func TestAdmin_Agents(t *testing.T) {
	f := newFixture(t)

	rr := f.admin(http.MethodPost, "/admin/agents/alice", jsonBody(t, IssueAgentRequest{Role: "researcher"}))
	if rr.Code != http.StatusCreated {
		t.Fatalf("issue: status = %d, body %s", rr.Code, rr.Body)
	}
	var issued IssueAgentResponse
	_ = json.NewDecoder(rr.Body).Decode(&issued)
	if issued.Token != "tok-alice" || issued.Role != "researcher" || issued.AgentID != "alice" {
		t.Errorf("unexpected issue response: %+v", issued)
	}

	rr = f.admin(http.MethodPost, "/admin/agents/bob", nil)
	_ = json.NewDecoder(rr.Body).Decode(&issued)
	if rr.Code != http.StatusCreated || issued.Role != "agent" {
		t.Errorf("issue without body: status %d, role %q", rr.Code, issued.Role)
	}

	rr = f.admin(http.MethodGet, "/admin/agents", nil)
	if strings.Contains(rr.Body.String(), "tok-") {
		t.Error("agent list must not leak credentials")
	}
	var list AgentListResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &list)
	if list.Total != 2 {
		t.Errorf("expected 2 agents, got %+v", list)
	}

	if rr := f.admin(http.MethodDelete, "/admin/agents/alice", nil); rr.Code != http.StatusNoContent {
		t.Errorf("revoke: status = %d", rr.Code)
	}
	if rr := f.admin(http.MethodDelete, "/admin/agents/alice", nil); rr.Code != http.StatusNotFound {
		t.Errorf("second revoke: status = %d, want 404", rr.Code)
	}
}

func TestAdmin_SetSubscription(t *testing.T) {
	f := newFixture(t)

	rr := f.admin(http.MethodPut, "/admin/subscriptions/alice",
		jsonBody(t, SubscriptionRequest{Status: "suspended", Plan: "pro"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body)
	}
	var resp SubscriptionResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Status != subscription.StatusSuspended || resp.Plan != subscription.PlanPro || resp.Limits.QueriesPerDay != 5000 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if f.subs.set["alice"].Status() != subscription.StatusSuspended {
		t.Error("subscription not stored")
	}

	rr = f.admin(http.MethodPut, "/admin/subscriptions/alice", jsonBody(t, SubscriptionRequest{Status: "paused"}))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown status: code = %d, want 400", rr.Code)
	}
	rr = f.admin(http.MethodPut, "/admin/subscriptions/alice", jsonBody(t, SubscriptionRequest{Plan: "gold"}))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown plan: code = %d, want 400", rr.Code)
	}
}

func TestAdmin_Keywords(t *testing.T) {
	f := newFixture(t)

	if rr := f.admin(http.MethodPost, "/admin/safety/keywords", jsonBody(t, KeywordRequest{Keyword: "exploit"})); rr.Code != http.StatusCreated {
		t.Errorf("add: status = %d, want 201", rr.Code)
	}
	if rr := f.admin(http.MethodPost, "/admin/safety/keywords", jsonBody(t, KeywordRequest{Keyword: "exploit"})); rr.Code != http.StatusOK {
		t.Errorf("re-add: status = %d, want 200", rr.Code)
	}
	if rr := f.admin(http.MethodPost, "/admin/safety/keywords", jsonBody(t, KeywordRequest{})); rr.Code != http.StatusBadRequest {
		t.Errorf("empty: status = %d, want 400", rr.Code)
	}

	rr := f.admin(http.MethodGet, "/admin/safety/keywords", nil)
	var list KeywordListResponse
	_ = json.NewDecoder(rr.Body).Decode(&list)
	if len(list.Items) != 1 || list.Items[0] != "exploit" {
		t.Errorf("unexpected keywords: %+v", list)
	}

	if rr := f.admin(http.MethodDelete, "/admin/safety/keywords/exploit", nil); rr.Code != http.StatusNoContent {
		t.Errorf("remove: status = %d, want 204", rr.Code)
	}
	if rr := f.admin(http.MethodDelete, "/admin/safety/keywords/exploit", nil); rr.Code != http.StatusNotFound {
		t.Errorf("remove missing: status = %d, want 404", rr.Code)
	}
}

func TestAdmin_Audit(t *testing.T) {
	f := newFixture(t)
	f.audit.events = []domaudit.Event{{ID: "1", Kind: domaudit.KindQuery, Agent: "alice"}}

	rr := f.admin(http.MethodGet, "/admin/audit", nil)
	var list AuditListResponse
	_ = json.NewDecoder(rr.Body).Decode(&list)
	if list.Total != 1 || list.Items[0].Kind != domaudit.KindQuery {
		t.Errorf("unexpected audit list: %+v", list)
	}
	if f.audit.asked != defaultAuditLimit {
		t.Errorf("asked for %d events, want %d", f.audit.asked, defaultAuditLimit)
	}

	f.admin(http.MethodGet, "/admin/audit?limit=5", nil)
	if f.audit.asked != 5 {
		t.Errorf("asked for %d events, want 5", f.audit.asked)
	}

	for _, bad := range []string{"0", "1001", "abc"} {
		if rr := f.admin(http.MethodGet, "/admin/audit?limit="+bad, nil); rr.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", bad, rr.Code)
		}
	}

	f.audit.err = errors.New("redis down")
	if rr := f.admin(http.MethodGet, "/admin/audit", nil); rr.Code != http.StatusInternalServerError {
		t.Errorf("store error: status = %d, want 500", rr.Code)
	}
}
