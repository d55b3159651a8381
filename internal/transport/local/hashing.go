package local

import (
	"context"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/tenantrag/internal/domain"
)

// DefaultDimensions is the vector width of the hashing embedder.
const DefaultDimensions = 256

// HashingEmbedder maps text to a fixed-width vector by feature hashing its
// lowercase tokens. Output is L2-normalised so dot product equals cosine.
type HashingEmbedder struct {
	dims int
}

// NewHashingEmbedder creates a hashing embedder. dims <= 0 uses DefaultDimensions.
func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashingEmbedder{dims: dims}
}

// Dimensions returns the vector width.
func (h *HashingEmbedder) Dimensions() int { return h.dims }

// Embed implements domain.Embedder. Token usage is the token count.
func (h *HashingEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	vec, n := h.vector(text)
	return domain.EmbeddingResult{Embedding: vec, PromptTokens: n, TotalTokens: n}, nil
}

// BatchEmbed implements domain.BatchEmbedder.
func (h *HashingEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		vec, n := h.vector(t)
		out.Embeddings[i] = vec
		out.PromptTokens += n
		out.TotalTokens += n
	}
	return out, nil
}

// HealthCheck always succeeds.
func (h *HashingEmbedder) HealthCheck(context.Context) error { return nil }

func (h *HashingEmbedder) vector(text string) ([]float32, int) {
	vec := make([]float32, h.dims)
	toks := tokenize(text)
	for _, t := range toks {
		sum := xxhash.Sum64String(t)
		idx := int(sum % uint64(h.dims))
		// top bit picks the sign so collisions tend to cancel
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, len(toks)
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec, len(toks)
}
