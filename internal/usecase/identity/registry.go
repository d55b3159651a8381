// Package identity issues and verifies per-agent credentials.
package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultRole is assigned when Issue is called without a role.
const DefaultRole = "agent"

// Agent is the public part of a registry record.
type Agent struct {
	ID       string    `json:"agent_id"`
	Role     string    `json:"role"`
	IssuedAt time.Time `json:"issued_at"`
}

type record struct {
	digest   [sha256.Size]byte
	role     string
	issuedAt time.Time
}

// Registry holds one credential per agent. Only a digest of each credential is kept.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]record
	now    func() time.Time
	logger *zap.Logger
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		agents: make(map[string]record),
		now:    time.Now,
		logger: logger,
	}
}

// Seed registers a known credential, replacing any existing one.
func (r *Registry) Seed(agent, credential, role string) {
	if role == "" {
		role = DefaultRole
	}
	r.mu.Lock()
	r.agents[agent] = record{digest: sha256.Sum256([]byte(credential)), role: role, issuedAt: r.now()}
	r.mu.Unlock()
}

// Issue generates a fresh credential for agent, invalidating the previous one.
func (r *Registry) Issue(agent, role string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%d:%x", agent, r.now().UnixNano(), salt))
	credential := hex.EncodeToString(sum[:])

	r.Seed(agent, credential, role)
	r.logger.Info("Credential issued", zap.String("agent_id", agent))
	return credential, nil
}

// Verify reports whether credential belongs to agent.
func (r *Registry) Verify(agent, credential string) bool {
	r.mu.RLock()
	rec, ok := r.agents[agent]
	r.mu.RUnlock()

	if !ok {
		r.logger.Debug("Unknown agent", zap.String("agent_id", agent))
		return false
	}
	presented := sha256.Sum256([]byte(credential))
	return subtle.ConstantTimeCompare(presented[:], rec.digest[:]) == 1
}

// Revoke removes agent's credential. Returns false when there was none.
func (r *Registry) Revoke(agent string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.agents[agent]; !ok {
		return false
	}
	delete(r.agents, agent)
	r.logger.Warn("Credential revoked", zap.String("agent_id", agent))
	return true
}

// Role returns agent's role.
func (r *Registry) Role(agent string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.agents[agent]
	return rec.role, ok
}

// List returns every registered agent ordered by id.
func (r *Registry) List() []Agent {
	r.mu.RLock()
	out := make([]Agent, 0, len(r.agents))
	for id, rec := range r.agents {
		out = append(out, Agent{ID: id, Role: rec.role, IssuedAt: rec.issuedAt})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
