// Package subscription tracks the subscription of every agent.
package subscription

import (
	"sync"

	"go.uber.org/zap"

	domsub "github.com/kailas-cloud/tenantrag/internal/domain/subscription"
)

// Registry maps agents to subscriptions. Agents without a record are active on the free plan.
type Registry struct {
	mu      sync.RWMutex
	records map[string]domsub.Subscription
	logger  *zap.Logger
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{records: make(map[string]domsub.Subscription), logger: logger}
}

// Lookup returns agent's subscription.
func (r *Registry) Lookup(agent string) domsub.Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.records[agent]; ok {
		return s
	}
	return domsub.Default()
}

// Activate sets agent active on plan.
func (r *Registry) Activate(agent string, plan domsub.Plan) {
	r.Set(agent, domsub.StatusActive, plan)
}

// Suspend marks an existing subscription suspended. Agents without a record are left alone.
func (r *Registry) Suspend(agent string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.records[agent]
	if !ok {
		return false
	}
	r.records[agent] = s.WithStatus(domsub.StatusSuspended)
	r.logger.Warn("Subscription suspended", zap.String("agent_id", agent))
	return true
}

// Set replaces agent's subscription.
func (r *Registry) Set(agent string, status domsub.Status, plan domsub.Plan) domsub.Subscription {
	s := domsub.New(status, plan)

	r.mu.Lock()
	r.records[agent] = s
	r.mu.Unlock()

	r.logger.Info("Subscription updated",
		zap.String("agent_id", agent),
		zap.String("status", string(status)),
		zap.String("plan", string(plan)),
	)
	return s
}
