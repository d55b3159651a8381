package tenantrag

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string

	embedder Embedder
	reranker Reranker

	chunkSize   int
	topK        int
	rateLimit   int
	rateWindow  time.Duration
	agents      []agentSeed
	subscribers []subscriptionSeed

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

type agentSeed struct {
	id, credential, role string
}

type subscriptionSeed struct {
	agent        string
	status, plan string
}

// WithRedis shares rate limits, the audit trail and the embedding cache through Redis.
// Without it everything stays in process memory.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithEmbedder sets the text embedding provider.
// Defaults to a local hashing embedder.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithReranker sets the passage reranker.
// Defaults to term-overlap scoring.
func WithReranker(r Reranker) Option {
	return optionFunc(func(c *clientConfig) {
		c.reranker = r
	})
}

// WithChunkSize sets the ingest chunk length in characters. Default: 300.
func WithChunkSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.chunkSize = n
	})
}

// WithTopK sets how many passages a query returns at most. Default: 5.
func WithTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = k
	})
}

// WithRateLimit caps queries per agent in any rolling window.
// Default: 2000 per 24h.
func WithRateLimit(limit int, window time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.rateLimit = limit
		c.rateWindow = window
	})
}

// WithAgent registers an agent with a known credential. Use Client.IssueAgent
// to mint credentials at runtime instead.
func WithAgent(id, credential string) Option {
	return optionFunc(func(c *clientConfig) {
		c.agents = append(c.agents, agentSeed{id: id, credential: credential})
	})
}

// WithSubscription presets an agent's subscription status and plan.
// Agents without one are active on the free plan.
func WithSubscription(agent, status, plan string) Option {
	return optionFunc(func(c *clientConfig) {
		c.subscribers = append(c.subscribers, subscriptionSeed{agent: agent, status: status, plan: plan})
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
