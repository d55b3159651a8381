// Package explain turns ranked candidates into a bounded confidence value and a
// per-candidate explanation trace.
package explain

import "math"

// BaseConfidence is the baseline retrieval confidence used by the query pipeline.
const BaseConfidence = 0.7

const (
	baseWeight     = 0.4
	rerankWeight   = 0.4
	citationWeight = 0.2
	// citationSaturation is the citation count at which the citation signal maxes out.
	citationSaturation = 3.0
)

// Confidence combines the baseline, the best rerank score and the citation count
// into a value in [0,1], rounded to 3 decimal places.
func Confidence(base, rerankScore float64, citationCount int) float64 {
	citationFactor := math.Min(float64(citationCount)/citationSaturation, 1)
	if citationFactor < 0 {
		citationFactor = 0
	}

	c := baseWeight*base + rerankWeight*rerankScore + citationWeight*citationFactor
	c = math.Max(0, math.Min(1, c))
	return math.Round(c*1000) / 1000
}

// MaxScore returns the largest score, or 0 for an empty slice.
func MaxScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	m := scores[0]
	for _, s := range scores[1:] {
		if s > m {
			m = s
		}
	}
	return m
}
