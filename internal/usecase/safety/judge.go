// Package safety screens query text for forbidden content.
package safety

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	domsafety "github.com/kailas-cloud/tenantrag/internal/domain/safety"
)

// DefaultKeywords are matched as lowercase substrings.
var DefaultKeywords = []string{
	"hack", "kill", "steal", "murder", "bomb",
	"exploit", "ddos", "attack", "weapon", "poison",
}

// DefaultPatterns catch common character substitutions.
var DefaultPatterns = []string{
	`h[a@]ck`,
	`k[i1!]ll`,
	`st[e3]al`,
	`[b8]o[m]b`,
}

// DefaultProfanity are the words counted toward the profanity threshold.
var DefaultProfanity = []string{"fuck", "shit", "damn"}

// Judge applies keyword, pattern and profanity rules in that order.
type Judge struct {
	mu        sync.RWMutex
	keywords  []string
	patterns  []*regexp.Regexp
	profanity []string
	logger    *zap.Logger
}

// New compiles patterns and returns a judge. Keywords and profanity are lowercased.
func New(keywords, patterns, profanity []string, logger *zap.Logger) (*Judge, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile pattern: %w", err)
		}
		compiled = append(compiled, re)
	}

	j := &Judge{patterns: compiled, logger: logger}
	for _, k := range keywords {
		j.AddKeyword(k)
	}
	for _, w := range profanity {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			j.profanity = append(j.profanity, w)
		}
	}
	return j, nil
}

// Inspect returns the first rule the text trips, or an allow verdict.
func (j *Judge) Inspect(_ context.Context, text string) (domsafety.Verdict, error) {
	if text == "" {
		return domsafety.Allow(), nil
	}
	lower := strings.ToLower(text)

	j.mu.RLock()
	defer j.mu.RUnlock()

	for _, kw := range j.keywords {
		if strings.Contains(lower, kw) {
			j.logger.Warn("Content blocked by keyword", zap.String("keyword", kw))
			return domsafety.Block(domsafety.ReasonKeywordPrefix + kw), nil
		}
	}

	for _, re := range j.patterns {
		if re.MatchString(lower) {
			j.logger.Warn("Content blocked by pattern", zap.String("pattern", re.String()))
			return domsafety.Block(domsafety.ReasonPattern), nil
		}
	}

	if n := j.countProfanity(lower); n > domsafety.ProfanityThreshold {
		j.logger.Warn("Content blocked by profanity", zap.Int("occurrences", n))
		return domsafety.Block(domsafety.ReasonProfanity), nil
	}

	return domsafety.Allow(), nil
}

func (j *Judge) countProfanity(lower string) int {
	n := 0
	for _, w := range j.profanity {
		n += strings.Count(lower, w)
	}
	return n
}

// AddKeyword forbids keyword. Returns false if it was already forbidden or blank.
func (j *Judge) AddKeyword(keyword string) bool {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return false
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if slices.Contains(j.keywords, kw) {
		return false
	}
	j.keywords = append(j.keywords, kw)
	return true
}

// RemoveKeyword stops forbidding keyword. Returns false if it was not forbidden.
func (j *Judge) RemoveKeyword(keyword string) bool {
	kw := strings.ToLower(strings.TrimSpace(keyword))

	j.mu.Lock()
	defer j.mu.Unlock()
	i := slices.Index(j.keywords, kw)
	if i < 0 {
		return false
	}
	j.keywords = slices.Delete(j.keywords, i, i+1)
	return true
}

// Keywords returns a copy of the forbidden keywords in match order.
func (j *Judge) Keywords() []string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return slices.Clone(j.keywords)
}
