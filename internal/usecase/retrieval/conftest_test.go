package retrieval

import (
	"context"
	"sync"

	"github.com/kailas-cloud/tenantrag/internal/domain"
)

// mockEmbedder returns fixed vectors per text, or a fallback vector.
type mockEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return domain.EmbeddingResult{Embedding: v, TotalTokens: 1}, nil
	}
	return domain.EmbeddingResult{Embedding: m.fallback, TotalTokens: 1}, nil
}

// mockBatchEmbedder counts batch calls and delegates to the per-text map.
type mockBatchEmbedder struct {
	mockEmbedder
	batchCalls int
	short      bool
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	res, err := domain.BatchFallback(ctx, &m.mockEmbedder, texts)
	if m.short && len(res.Embeddings) > 0 {
		res.Embeddings = res.Embeddings[:len(res.Embeddings)-1]
	}
	return res, err
}

// mockReranker scores by a lookup table, defaulting to 0.
type mockReranker struct {
	scores map[string]float64
	err    error
	extra  bool
	got    []string
	query  string
}

func (m *mockReranker) Rerank(_ context.Context, query string, passages []string) ([]float64, error) {
	m.query = query
	m.got = append([]string(nil), passages...)
	if m.err != nil {
		return nil, m.err
	}
	out := make([]float64, len(passages))
	for i, p := range passages {
		out[i] = m.scores[p]
	}
	if m.extra {
		out = append(out, 0)
	}
	return out, nil
}
