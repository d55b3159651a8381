// Package retrieval implements the per-tenant retrieval engine: brute-force dot
// product ranking over every stored chunk followed by cross-encoder reranking.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tenantrag/internal/domain"
	"github.com/kailas-cloud/tenantrag/internal/domain/answer"
	"github.com/kailas-cloud/tenantrag/internal/domain/chunk"
	"github.com/kailas-cloud/tenantrag/internal/metrics"
)

// DefaultTopK is the number of candidates returned when the caller passes topK <= 0.
const DefaultTopK = 5

// Hits is the ranked output of a search. The three slices are parallel, rank 1 first.
type Hits struct {
	Candidates []string
	Citations  []answer.Citation
	Scores     []float64
}

// Len returns the number of ranked candidates.
func (h Hits) Len() int { return len(h.Candidates) }

func emptyHits() Hits {
	return Hits{Candidates: []string{}, Citations: []answer.Citation{}, Scores: []float64{}}
}

// Engine holds one tenant's chunks and answers similarity + rerank queries.
// Concurrent AddDocuments during a Search may or may not be visible to it.
type Engine struct {
	mu     sync.RWMutex
	chunks []chunk.Chunk

	docs   Embedder
	query  Embedder
	rerank Reranker
	logger *zap.Logger
}

// New creates an empty engine. docs embeds stored chunks, query embeds queries;
// they may be the same embedder.
func New(docs, query Embedder, rerank Reranker, logger *zap.Logger) *Engine {
	return &Engine{docs: docs, query: query, rerank: rerank, logger: logger}
}

// AddDocuments appends every non-blank chunk with its source label, preserving order.
// Returns how many chunks were stored.
func (e *Engine) AddDocuments(chunks []string, source string) int {
	accepted := make([]chunk.Chunk, 0, len(chunks))
	for _, text := range chunks {
		c, err := chunk.New(text, source)
		if err != nil {
			continue
		}
		accepted = append(accepted, c)
	}

	e.mu.Lock()
	e.chunks = append(e.chunks, accepted...)
	e.mu.Unlock()

	e.logger.Debug("Chunks added",
		zap.String("source", source),
		zap.Int("offered", len(chunks)),
		zap.Int("stored", len(accepted)),
	)
	return len(accepted)
}

// Len returns the number of stored chunks.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.chunks)
}

// Search ranks the stored chunks against query and reranks the top candidates.
// An empty corpus, a blank query, or a provider failure all yield empty Hits.
func (e *Engine) Search(ctx context.Context, query string, topK int) Hits {
	if topK <= 0 {
		topK = DefaultTopK
	}

	corpus := e.snapshot()
	if len(corpus) == 0 {
		e.logger.Debug("Search on empty corpus")
		metrics.SearchTotal.WithLabelValues("empty_corpus").Inc()
		return emptyHits()
	}
	if strings.TrimSpace(query) == "" {
		e.logger.Debug("Search with blank query")
		metrics.SearchTotal.WithLabelValues("blank_query").Inc()
		return emptyHits()
	}

	hits, err := e.search(ctx, corpus, query, topK)
	if err != nil {
		e.logger.Warn("Search degraded to empty result", zap.Error(err))
		metrics.SearchTotal.WithLabelValues("error").Inc()
		return emptyHits()
	}

	metrics.SearchTotal.WithLabelValues("ok").Inc()
	metrics.SearchCandidates.Observe(float64(hits.Len()))
	return hits
}

func (e *Engine) search(ctx context.Context, corpus []chunk.Chunk, query string, topK int) (Hits, error) {
	qv, err := e.query.Embed(ctx, query)
	if err != nil {
		return Hits{}, fmt.Errorf("vectorize query: %w", err)
	}

	texts := make([]string, len(corpus))
	for i := range corpus {
		texts[i] = corpus[i].Text()
	}

	dv, err := domain.EmbedAll(ctx, e.docs, texts)
	if err != nil {
		return Hits{}, fmt.Errorf("vectorize corpus: %w", err)
	}
	if len(dv.Embeddings) != len(texts) {
		return Hits{}, fmt.Errorf("vectorize corpus: got %d vectors for %d chunks: %w",
			len(dv.Embeddings), len(texts), domain.ErrEmbeddingProvider)
	}
	domain.UsageFromContext(ctx).Add(len(texts)+1, qv.TotalTokens+dv.TotalTokens)

	order := rankBySimilarity(qv.Embedding, dv.Embeddings)
	k := min(topK, len(order))

	hits := Hits{
		Candidates: make([]string, k),
		Citations:  make([]answer.Citation, k),
	}
	for rank, idx := range order[:k] {
		hits.Candidates[rank] = corpus[idx].Text()
		hits.Citations[rank] = answer.Citation{Source: corpus[idx].Source()}
	}

	scores, err := e.rerank.Rerank(ctx, query, hits.Candidates)
	if err != nil {
		return Hits{}, fmt.Errorf("rerank: %w", err)
	}
	if len(scores) != k {
		return Hits{}, fmt.Errorf("rerank: got %d scores for %d candidates: %w",
			len(scores), k, domain.ErrRerankProvider)
	}
	hits.Scores = scores

	return hits, nil
}

// rankBySimilarity returns corpus indexes ordered by descending dot product with q.
// Equal scores keep insertion order.
func rankBySimilarity(q []float32, vectors [][]float32) []int {
	sims := make([]float64, len(vectors))
	order := make([]int, len(vectors))
	for i, v := range vectors {
		sims[i] = domain.Dot(q, v)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sims[order[a]] > sims[order[b]]
	})
	return order
}

func (e *Engine) snapshot() []chunk.Chunk {
	e.mu.RLock()
	defer e.mu.RUnlock()
	// Chunks are append-only and immutable, so the prefix slice is safe to read.
	return e.chunks[:len(e.chunks):len(e.chunks)]
}
