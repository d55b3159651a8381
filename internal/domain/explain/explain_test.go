package explain

import (
	"strings"
	"testing"
)

func TestConfidence(t *testing.T) {
	tests := []struct {
		name      string
		base      float64
		rerank    float64
		citations int
		want      float64
	}{
		{"baseline only", 0.7, 0, 0, 0.28},
		{"all signals saturated", 0.7, 1.0, 3, 0.88},
		{"citations saturate at three", 0.7, 1.0, 10, 0.88},
		{"partial citations", 0.7, 0.5, 1, 0.547},
		{"clamped high", 1, 5, 3, 1},
		{"clamped low", 0, -4, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Confidence(tc.base, tc.rerank, tc.citations); got != tc.want {
				t.Errorf("Confidence(%v, %v, %d) = %v, want %v", tc.base, tc.rerank, tc.citations, got, tc.want)
			}
		})
	}
}

func TestMaxScore(t *testing.T) {
	if got := MaxScore(nil); got != 0 {
		t.Errorf("MaxScore(nil) = %v, want 0", got)
	}
	if got := MaxScore([]float64{-2, -1, -3}); got != -1 {
		t.Errorf("MaxScore(negatives) = %v, want -1", got)
	}
	if got := MaxScore([]float64{0.1, 0.9, 0.4}); got != 0.9 {
		t.Errorf("MaxScore = %v, want 0.9", got)
	}
}

func TestBuildTrace(t *testing.T) {
	tr := BuildTrace("what is x", []string{"first", "second", "third"}, []float64{0.9, 0.3, 0.1})

	if tr.Query != "what is x" || tr.Method != Method {
		t.Errorf("unexpected header: %+v", tr)
	}
	if tr.TotalResults != 3 || len(tr.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d/%d", tr.TotalResults, len(tr.Steps))
	}

	wantBuckets := []Relevance{RelevanceHigh, RelevanceMedium, RelevanceLow}
	for i, s := range tr.Steps {
		if s.Rank != i+1 {
			t.Errorf("step %d: rank %d", i, s.Rank)
		}
		if s.Relevance != wantBuckets[i] {
			t.Errorf("step %d: relevance %q, want %q", i, s.Relevance, wantBuckets[i])
		}
	}
}

func TestBuildTrace_Empty(t *testing.T) {
	tr := BuildTrace("q", nil, nil)
	if tr.TotalResults != 0 || len(tr.Steps) != 0 {
		t.Errorf("expected empty trace, got %+v", tr)
	}
}

func TestPreview(t *testing.T) {
	exact := strings.Repeat("a", 100)
	if got := Preview(exact); got != exact {
		t.Error("100 characters must be returned untouched")
	}

	long := strings.Repeat("b", 101)
	got := Preview(long)
	if got != strings.Repeat("b", 100)+"..." {
		t.Errorf("unexpected preview %q", got)
	}

	multibyte := strings.Repeat("ж", 150)
	if got := Preview(multibyte); got != strings.Repeat("ж", 100)+"..." {
		t.Error("preview must count characters, not bytes")
	}
}

func TestBucket_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Relevance
	}{
		{0.51, RelevanceHigh},
		{0.5, RelevanceMedium},
		{0.21, RelevanceMedium},
		{0.2, RelevanceLow},
		{-3, RelevanceLow},
	}
	for _, tc := range tests {
		if got := Bucket(tc.score); got != tc.want {
			t.Errorf("Bucket(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
