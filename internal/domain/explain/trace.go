package explain

import "unicode/utf8"

// Method names the retrieval strategy recorded in every trace.
const Method = "semantic_search_with_reranking"

const previewLen = 100

// Relevance is a coarse bucket derived from a rerank score.
type Relevance string

const (
	RelevanceHigh   Relevance = "high"
	RelevanceMedium Relevance = "medium"
	RelevanceLow    Relevance = "low"
)

// Step explains one ranked candidate.
type Step struct {
	Rank      int       `json:"rank"`
	Chunk     string    `json:"chunk"`
	Score     float64   `json:"score"`
	Relevance Relevance `json:"relevance"`
}

// Trace is the explanation attached to a single query.
type Trace struct {
	Query        string `json:"query"`
	Method       string `json:"method"`
	Steps        []Step `json:"steps"`
	TotalResults int    `json:"total_results"`
}

// BuildTrace emits one step per candidate in rank order. Candidates and scores are
// paired positionally; extra entries on either side are ignored.
func BuildTrace(query string, candidates []string, scores []float64) Trace {
	n := len(candidates)
	if len(scores) < n {
		n = len(scores)
	}

	steps := make([]Step, n)
	for i := 0; i < n; i++ {
		steps[i] = Step{
			Rank:      i + 1,
			Chunk:     Preview(candidates[i]),
			Score:     scores[i],
			Relevance: Bucket(scores[i]),
		}
	}

	return Trace{
		Query:        query,
		Method:       Method,
		Steps:        steps,
		TotalResults: n,
	}
}

// Preview returns the first 100 characters of text with "..." appended when
// truncated, or text unchanged when it is short enough.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLen {
		return text
	}
	n := 0
	for i := range text {
		if n == previewLen {
			return text[:i] + "..."
		}
		n++
	}
	return text
}

// Bucket maps a score to high (> 0.5), medium (> 0.2) or low.
func Bucket(score float64) Relevance {
	switch {
	case score > 0.5:
		return RelevanceHigh
	case score > 0.2:
		return RelevanceMedium
	default:
		return RelevanceLow
	}
}
