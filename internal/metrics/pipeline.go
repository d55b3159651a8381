package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Query pipeline metrics.
var (
	GateDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Request gate outcomes by check",
		},
		[]string{"check", "outcome"}, // outcome: pass, deny, fail_open
	)

	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_total",
			Help:      "Retrieval engine searches by outcome",
		},
		[]string{"outcome"},
	)

	SearchCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_candidates",
			Help:      "Number of candidates returned per search",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 50},
		},
	)

	SwarmRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swarm_runs_total",
			Help:      "Swarm fan-out runs by status",
		},
		[]string{"status"},
	)

	TenantsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tenants_active",
			Help:      "Number of tenants with a live retrieval engine",
		},
	)
)

var pipelineOnce sync.Once

// RegisterPipelineMetrics registers gate, search, swarm and tenant metrics.
func RegisterPipelineMetrics() {
	pipelineOnce.Do(func() {
		prometheus.MustRegister(
			GateDecisionsTotal,
			SearchTotal,
			SearchCandidates,
			SwarmRunsTotal,
			TenantsActive,
		)
	})
}
