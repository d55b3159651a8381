package tenantrag

import (
	"github.com/kailas-cloud/tenantrag/internal/domain/answer"
	"github.com/kailas-cloud/tenantrag/internal/domain/explain"
	queryuc "github.com/kailas-cloud/tenantrag/internal/usecase/query"
)

// Answer is the response to a single query.
type Answer struct {
	Text       string
	Citations  []string // source label per passage, in rank order
	Confidence float64
	Trace      Trace
}

// Trace explains how the passages were ranked.
type Trace struct {
	Query        string
	Method       string
	Steps        []TraceStep
	TotalResults int
}

// TraceStep describes one ranked passage.
type TraceStep struct {
	Rank      int
	Preview   string
	Score     float64
	Relevance string // high, medium, low
}

// SwarmAnswer merges two concurrent runs of the same query.
type SwarmAnswer struct {
	Text       string
	Citations  []string
	Confidence float64
	SwarmSize  int
	Method     string
}

// IngestReport summarises an accepted document.
type IngestReport struct {
	Chunks   int
	Filename string
}

// Stats summarises an agent's activity.
type Stats struct {
	Agent           string
	TotalQueries    int
	TotalIngestions int
	TotalDocuments  int
	Plan            string
	RateLimit       RateLimitUsage
}

// RateLimitUsage is the agent's position in the current rate-limit window.
type RateLimitUsage struct {
	Used      int
	Limit     int
	Remaining int
}

func sources(cs []answer.Citation) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Source
	}
	return out
}

func answerFromDomain(r answer.Result) Answer {
	return Answer{
		Text:       r.Answer,
		Citations:  sources(r.Citations),
		Confidence: r.Confidence,
		Trace:      traceFromDomain(r.Explanation),
	}
}

func traceFromDomain(t explain.Trace) Trace {
	steps := make([]TraceStep, len(t.Steps))
	for i, s := range t.Steps {
		steps[i] = TraceStep{
			Rank:      s.Rank,
			Preview:   s.Chunk,
			Score:     s.Score,
			Relevance: string(s.Relevance),
		}
	}
	return Trace{Query: t.Query, Method: t.Method, Steps: steps, TotalResults: t.TotalResults}
}

func swarmFromDomain(m answer.Merged) SwarmAnswer {
	return SwarmAnswer{
		Text:       m.Answer,
		Citations:  sources(m.Citations),
		Confidence: m.Confidence,
		SwarmSize:  m.SwarmSize,
		Method:     m.Explanation.Method,
	}
}

func statsFromDomain(s queryuc.Stats) Stats {
	return Stats{
		Agent:           s.Agent,
		TotalQueries:    s.TotalQueries,
		TotalIngestions: s.TotalIngestions,
		TotalDocuments:  s.TotalDocuments,
		Plan:            string(s.Plan),
		RateLimit: RateLimitUsage{
			Used:      s.RateLimit.Used,
			Limit:     s.RateLimit.Limit,
			Remaining: s.RateLimit.Remaining,
		},
	}
}
