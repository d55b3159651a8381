package local

import "context"

// LexicalReranker scores a passage by the share of distinct query terms it contains.
type LexicalReranker struct{}

// NewLexicalReranker creates a LexicalReranker.
func NewLexicalReranker() *LexicalReranker {
	return &LexicalReranker{}
}

// Rerank returns one score in [0, 1] per passage, in passage order.
func (r *LexicalReranker) Rerank(_ context.Context, query string, passages []string) ([]float64, error) {
	scores := make([]float64, len(passages))

	want := make(map[string]struct{})
	for _, t := range terms(query) {
		want[t] = struct{}{}
	}
	if len(want) == 0 {
		return scores, nil
	}

	for i, p := range passages {
		found := make(map[string]struct{}, len(want))
		for _, t := range terms(p) {
			if _, ok := want[t]; ok {
				found[t] = struct{}{}
			}
		}
		scores[i] = float64(len(found)) / float64(len(want))
	}
	return scores, nil
}

// HealthCheck always succeeds.
func (r *LexicalReranker) HealthCheck(context.Context) error { return nil }
