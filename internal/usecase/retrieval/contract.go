package retrieval

import (
	"context"

	"github.com/kailas-cloud/tenantrag/internal/domain"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Reranker scores candidates against the query, one score per candidate in order.
type Reranker interface {
	Rerank(ctx context.Context, query string, passages []string) ([]float64, error)
}
