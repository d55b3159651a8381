// Package query wires the gate, tenant engines and answer synthesis into the
// operations exposed to the transport layer.
package query

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tenantrag/internal/domain"
	"github.com/kailas-cloud/tenantrag/internal/domain/answer"
	domaudit "github.com/kailas-cloud/tenantrag/internal/domain/audit"
	"github.com/kailas-cloud/tenantrag/internal/domain/chunk"
	"github.com/kailas-cloud/tenantrag/internal/domain/explain"
	"github.com/kailas-cloud/tenantrag/internal/domain/subscription"
	"github.com/kailas-cloud/tenantrag/internal/logger"
	"github.com/kailas-cloud/tenantrag/internal/usecase/ratelimit"
	"github.com/kailas-cloud/tenantrag/internal/usecase/swarm"
)

// Options tunes the pipeline. Zero values fall back to defaults.
type Options struct {
	ChunkSize int
	TopK      int
	// BaseConfidence is used as given, zero included. Nil means explain.BaseConfidence.
	BaseConfidence *float64
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = chunk.DefaultSize
	}
	if o.TopK <= 0 {
		o.TopK = 5
	}
	if o.BaseConfidence == nil {
		base := explain.BaseConfidence
		o.BaseConfidence = &base
	}
	return o
}

// IngestReport summarises an accepted upload.
type IngestReport struct {
	Status   string `json:"status"`
	Chunks   int    `json:"chunks"`
	Filename string `json:"filename"`
}

// Stats summarises an agent's activity.
type Stats struct {
	Agent           string              `json:"agent_id"`
	TotalQueries    int                 `json:"total_queries"`
	TotalIngestions int                 `json:"total_ingestions"`
	TotalDocuments  int                 `json:"total_documents"`
	Plan            subscription.Plan   `json:"plan"`
	Limits          subscription.Limits `json:"limits"`
	RateLimit       ratelimit.Usage     `json:"rate_limit"`
}

// Service runs ingest, query and swarm query for tenants.
type Service struct {
	gate    Gate
	tenants Tenants
	journal Journal
	usage   UsageReporter
	subs    Subscriptions
	opts    Options
	logger  *zap.Logger
}

// New creates a query service.
func New(
	g Gate,
	tenants Tenants,
	journal Journal,
	usage UsageReporter,
	subs Subscriptions,
	opts Options,
	logger *zap.Logger,
) *Service {
	return &Service{
		gate:    g,
		tenants: tenants,
		journal: journal,
		usage:   usage,
		subs:    subs,
		opts:    opts.withDefaults(),
		logger:  logger,
	}
}

// Ingest chunks text and stores it in the agent's engine.
func (s *Service) Ingest(ctx context.Context, agent, credential, text, source string) (IngestReport, error) {
	adm, err := s.gate.CheckIngest(ctx, agent, credential)
	if err != nil {
		return IngestReport{}, fmt.Errorf("ingest: %w", err)
	}
	if limit := subscription.LimitsFor(adm.Plan).MaxFileSize; limit > 0 && len(text) > limit {
		return IngestReport{}, fmt.Errorf("ingest: %w", domain.Deny(domain.ErrTooLarge, domain.ReasonFileTooLarge))
	}

	pieces := chunk.Split(text, s.opts.ChunkSize)
	stored := s.tenants.Get(agent).AddDocuments(pieces, source)

	s.journal.Record(ctx, domaudit.KindIngest, agent, map[string]any{
		"chunks":   stored,
		"filename": source,
		"size":     len(text),
	})
	s.logger.Info("Documents ingested",
		logger.Agent(agent),
		zap.String("filename", source),
		zap.Int("chunks", stored),
	)

	return IngestReport{Status: "indexed", Chunks: stored, Filename: source}, nil
}

// Query answers text from the agent's corpus.
func (s *Service) Query(ctx context.Context, agent, credential, text string) (answer.Result, error) {
	if _, err := s.gate.CheckQuery(ctx, agent, credential, text); err != nil {
		return answer.Result{}, fmt.Errorf("query: %w", err)
	}

	hits := s.tenants.Get(agent).Search(ctx, text, s.opts.TopK)

	trace := explain.BuildTrace(text, hits.Candidates, hits.Scores)
	body, citations := answer.Weave(hits.Candidates, hits.Citations)
	confidence := explain.Confidence(*s.opts.BaseConfidence, explain.MaxScore(hits.Scores), len(citations))

	s.journal.Record(ctx, domaudit.KindQuery, agent, map[string]any{
		"q":          domaudit.Preview(text),
		"results":    hits.Len(),
		"confidence": confidence,
	})

	return answer.Result{
		Answer:      body,
		Citations:   citations,
		Confidence:  confidence,
		Explanation: trace,
	}, nil
}

// SwarmQuery checks access once, then runs Query twice in parallel and merges.
// Each inner Query passes the full gate again.
func (s *Service) SwarmQuery(ctx context.Context, agent, credential, text string) (answer.Merged, error) {
	if _, err := s.gate.CheckAccess(ctx, agent, credential); err != nil {
		return answer.Merged{}, fmt.Errorf("swarm query: %w", err)
	}

	merged, err := swarm.Run(ctx, text, func(ctx context.Context, t string) (answer.Result, error) {
		return s.Query(ctx, agent, credential, t)
	})
	if err != nil {
		return answer.Merged{}, fmt.Errorf("swarm query: %w", err)
	}

	s.journal.Record(ctx, domaudit.KindSwarmQuery, agent, map[string]any{
		"q": domaudit.Preview(text),
	})
	return merged, nil
}

// Stats reports activity totals for the agent.
func (s *Service) Stats(ctx context.Context, agent, credential string) (Stats, error) {
	adm, err := s.gate.CheckAccess(ctx, agent, credential)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}

	counts := s.journal.Counts(agent)
	st := Stats{
		Agent:           agent,
		TotalQueries:    counts[domaudit.KindQuery],
		TotalIngestions: counts[domaudit.KindIngest],
		Plan:            adm.Plan,
		Limits:          s.subs.Lookup(agent).Limits(),
	}
	if eng, ok := s.tenants.Lookup(agent); ok {
		st.TotalDocuments = eng.Len()
	}

	usage, err := s.usage.Usage(ctx, agent)
	if err != nil {
		s.logger.Warn("Rate limit usage unavailable", logger.Agent(agent), zap.Error(err))
	}
	st.RateLimit = usage
	return st, nil
}
