package embcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tenantrag/internal/db"
	"github.com/kailas-cloud/tenantrag/internal/domain"
)

// fakeEmbedder returns vec for every text and counts what reaches it.
type fakeEmbedder struct {
	vec      []float32
	tokens   int // per text
	err      error
	short    bool // return one vector fewer than asked
	calls    int
	received []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	f.calls++
	f.received = append(f.received, text)
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vec, PromptTokens: f.tokens, TotalTokens: f.tokens}, nil
}

func (f *fakeEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.calls++
	f.received = append(f.received, texts...)
	if f.err != nil {
		return domain.BatchEmbeddingResult{}, f.err
	}
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = f.vec
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   out,
		PromptTokens: f.tokens * len(texts),
		TotalTokens:  f.tokens * len(texts),
	}, nil
}

// fakeStore is a map-backed store that can be told to fail.
type fakeStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	gets    int
	setKeys []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (s *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (s *fakeStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setKeys = append(s.setKeys, key)
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	s.ttls[key] = ttl
	return nil
}

func newCached(t *testing.T, inner *fakeEmbedder, opts Options) (*CachedEmbedder, *fakeStore) {
	t.Helper()
	s := newFakeStore()
	return New(inner, s, opts, nil, zap.NewNop()), s
}
