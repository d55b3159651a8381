// Package tenant owns the per-agent retrieval engines.
package tenant

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tenantrag/internal/metrics"
	"github.com/kailas-cloud/tenantrag/internal/usecase/retrieval"
)

// Factory builds a fresh engine for a tenant.
type Factory func(id string) *retrieval.Engine

// Summary is the size of one tenant's corpus.
type Summary struct {
	Agent  string `json:"agent_id"`
	Chunks int    `json:"chunks"`
}

// Store maps tenant ids to engines. Each id gets exactly one engine for the
// lifetime of the store, or until Delete.
type Store struct {
	mu      sync.Mutex
	engines map[string]*retrieval.Engine
	factory Factory
	logger  *zap.Logger
}

// New creates an empty store.
func New(factory Factory, logger *zap.Logger) *Store {
	return &Store{
		engines: make(map[string]*retrieval.Engine),
		factory: factory,
		logger:  logger,
	}
}

// Get returns the engine for id, creating it on first use.
func (s *Store) Get(id string) *retrieval.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()

	if eng, ok := s.engines[id]; ok {
		return eng
	}
	eng := s.factory(id)
	s.engines[id] = eng
	metrics.TenantsActive.Set(float64(len(s.engines)))
	s.logger.Info("Tenant created", zap.String("agent_id", id))
	return eng
}

// Lookup returns the engine for id without creating one.
func (s *Store) Lookup(id string) (*retrieval.Engine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	eng, ok := s.engines[id]
	return eng, ok
}

// Exists reports whether id already has an engine.
func (s *Store) Exists(id string) bool {
	_, ok := s.Lookup(id)
	return ok
}

// Delete drops the engine for id. Returns false when there was none.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.engines[id]; !ok {
		return false
	}
	delete(s.engines, id)
	metrics.TenantsActive.Set(float64(len(s.engines)))
	s.logger.Info("Tenant deleted", zap.String("agent_id", id))
	return true
}

// List returns every tenant id in lexical order.
func (s *Store) List() []string {
	s.mu.Lock()
	ids := make([]string, 0, len(s.engines))
	for id := range s.engines {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	sort.Strings(ids)
	return ids
}

// Stats returns the chunk count of every tenant, ordered by id.
func (s *Store) Stats() []Summary {
	s.mu.Lock()
	snap := make(map[string]*retrieval.Engine, len(s.engines))
	for id, eng := range s.engines {
		snap[id] = eng
	}
	s.mu.Unlock()

	out := make([]Summary, 0, len(snap))
	for id, eng := range snap {
		out = append(out, Summary{Agent: id, Chunks: eng.Len()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Agent < out[j].Agent })
	return out
}
