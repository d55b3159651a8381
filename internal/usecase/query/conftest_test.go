package query

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tenantrag/internal/domain"
	domaudit "github.com/kailas-cloud/tenantrag/internal/domain/audit"
	"github.com/kailas-cloud/tenantrag/internal/domain/subscription"
	"github.com/kailas-cloud/tenantrag/internal/usecase/gate"
	"github.com/kailas-cloud/tenantrag/internal/usecase/ratelimit"
	"github.com/kailas-cloud/tenantrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/tenantrag/internal/usecase/tenant"
)

type mockGate struct {
	mu          sync.Mutex
	ingestErr   error
	queryErr    error
	accessErr   error
	queryCalls  int
	accessCalls int
}

func (m *mockGate) CheckIngest(_ context.Context, agent, _ string) (gate.Admission, error) {
	return gate.Admission{Agent: agent, Plan: subscription.PlanBasic}, m.ingestErr
}

func (m *mockGate) CheckQuery(_ context.Context, agent, _, _ string) (gate.Admission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls++
	return gate.Admission{Agent: agent, Plan: subscription.PlanBasic}, m.queryErr
}

func (m *mockGate) CheckAccess(_ context.Context, agent, _ string) (gate.Admission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessCalls++
	return gate.Admission{Agent: agent, Plan: subscription.PlanBasic}, m.accessErr
}

type journalEntry struct {
	kind    domaudit.Kind
	agent   string
	payload map[string]any
}

type mockJournal struct {
	mu      sync.Mutex
	entries []journalEntry
	counts  map[domaudit.Kind]int
}

func (m *mockJournal) Record(_ context.Context, kind domaudit.Kind, agent string, payload map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, journalEntry{kind: kind, agent: agent, payload: payload})
}

func (m *mockJournal) Counts(_ string) map[domaudit.Kind]int { return m.counts }

func (m *mockJournal) kinds() []domaudit.Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domaudit.Kind, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.kind
	}
	return out
}

type mockUsage struct {
	usage ratelimit.Usage
	err   error
}

func (m *mockUsage) Usage(_ context.Context, _ string) (ratelimit.Usage, error) { return m.usage, m.err }

type mockSubs struct{}

func (mockSubs) Lookup(_ string) subscription.Subscription {
	return subscription.New(subscription.StatusActive, subscription.PlanBasic)
}

// keywordEmbedder scores a text by how often it mentions "refund".
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{
		Embedding:   []float32{float32(strings.Count(strings.ToLower(text), "refund")), 0.1},
		TotalTokens: 1,
	}, nil
}

// fixedReranker gives every passage the same score.
type fixedReranker struct{ score float64 }

func (r fixedReranker) Rerank(_ context.Context, _ string, p []string) ([]float64, error) {
	out := make([]float64, len(p))
	for i := range out {
		out[i] = r.score
	}
	return out, nil
}

type fixture struct {
	gate    *mockGate
	journal *mockJournal
	usage   *mockUsage
	tenants *tenant.Store
	svc     *Service
}

func newFixture(rerankScore float64, opts Options) *fixture {
	f := &fixture{
		gate:    &mockGate{},
		journal: &mockJournal{counts: map[domaudit.Kind]int{}},
		usage:   &mockUsage{},
	}
	f.tenants = tenant.New(func(string) *retrieval.Engine {
		return retrieval.New(keywordEmbedder{}, keywordEmbedder{}, fixedReranker{score: rerankScore}, zap.NewNop())
	}, zap.NewNop())
	f.svc = New(f.gate, f.tenants, f.journal, f.usage, mockSubs{}, opts, zap.NewNop())
	return f
}
