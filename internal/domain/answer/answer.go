// Package answer defines the structured records returned by the query pipeline.
package answer

import (
	"strings"

	"github.com/kailas-cloud/tenantrag/internal/domain/explain"
)

// NoResults is the answer text used when retrieval finds nothing.
const NoResults = "No relevant information found."

// Citation attaches the originating document to a ranked chunk.
type Citation struct {
	Source string `json:"source"`
}

// Result is the response to a single query.
type Result struct {
	Answer      string        `json:"answer"`
	Citations   []Citation    `json:"citations"`
	Confidence  float64       `json:"confidence"`
	Explanation explain.Trace `json:"explanation"`
}

// SwarmExplanation records how a merged answer was produced.
type SwarmExplanation struct {
	Method string `json:"method"`
	Runs   int    `json:"runs"`
}

// Merged is the response to a swarm query.
type Merged struct {
	Answer      string           `json:"answer"`
	Citations   []Citation       `json:"citations"`
	Confidence  float64          `json:"confidence"`
	SwarmSize   int              `json:"swarm_size"`
	Explanation SwarmExplanation `json:"explanation"`
}

// Weave joins ranked passages into one answer separated by blank lines.
func Weave(passages []string, citations []Citation) (string, []Citation) {
	if len(passages) == 0 {
		return NoResults, []Citation{}
	}
	return strings.Join(passages, "\n\n"), citations
}
