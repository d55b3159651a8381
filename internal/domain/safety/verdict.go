// Package safety defines the outcome of a content inspection.
package safety

// Rule reason codes.
const (
	ReasonKeywordPrefix = "forbidden_keyword: "
	ReasonPattern       = "forbidden_pattern_detected"
	ReasonProfanity     = "excessive_profanity"
	ReasonOK            = "ok"
)

// ProfanityThreshold is the number of profane-word occurrences a text may carry.
const ProfanityThreshold = 5

// Verdict is the result of inspecting a text.
type Verdict struct {
	Allowed bool
	Reason  string
}

// Allow is the verdict for clean text.
func Allow() Verdict { return Verdict{Allowed: true, Reason: ReasonOK} }

// Block is the verdict for text that tripped a rule.
func Block(reason string) Verdict { return Verdict{Reason: reason} }
