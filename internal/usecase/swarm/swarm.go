// Package swarm answers a query by running the pipeline twice in parallel and merging.
package swarm

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/tenantrag/internal/domain/answer"
	"github.com/kailas-cloud/tenantrag/internal/metrics"
)

// Size is the fan-out width.
const Size = 2

// Method labels merged explanations.
const Method = "parallel_execution"

// QueryFunc answers one query.
type QueryFunc func(ctx context.Context, text string) (answer.Result, error)

// Run invokes query Size times concurrently and merges the results in call order.
// Both invocations finish before an error is returned.
func Run(ctx context.Context, text string, query QueryFunc) (answer.Merged, error) {
	results := make([]answer.Result, Size)

	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			res, err := query(ctx, text)
			if err != nil {
				return fmt.Errorf("swarm run %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.SwarmRunsTotal.WithLabelValues("error").Inc()
		return answer.Merged{}, err
	}

	metrics.SwarmRunsTotal.WithLabelValues("ok").Inc()
	return merge(results), nil
}

func merge(results []answer.Result) answer.Merged {
	answers := make([]string, len(results))
	citations := []answer.Citation{}
	var confidence float64
	for i, r := range results {
		answers[i] = r.Answer
		citations = append(citations, r.Citations...)
		confidence = max(confidence, r.Confidence)
	}

	return answer.Merged{
		Answer:     strings.Join(answers, "\n\n"),
		Citations:  citations,
		Confidence: confidence,
		SwarmSize:  len(results),
		Explanation: answer.SwarmExplanation{
			Method: Method,
			Runs:   len(results),
		},
	}
}
