package intent

import (
	"strings"
)

const (
	// RecognitionThreshold is the minimum confidence at which a caller may act
	// on a classified intent. Below it the request is treated as unrecognized.
	RecognitionThreshold = 0.3

	patternWeight     = 0.7
	contextWeight     = 0.3
	exactMatchBonus   = 0.5
	shortQueryTokens  = 3
	shortQueryPenalty = 0.8
)

// Result is the outcome of classifying a single input
type Result struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Score      float64 `json:"score"`
	Tokens     int     `json:"tokens"`
}

// Recognized reports whether the result clears the given confidence threshold
func (r Result) Recognized(threshold float64) bool {
	return r.Confidence >= threshold
}

// Classifier scores text against a fixed intent pattern table. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	order    []Intent
	patterns map[Intent]Pattern
}

// NewClassifier creates a classifier over the given patterns. A nil map uses
// DefaultPatterns. Intents are evaluated in All() order; intents outside the
// fixed set are ignored.
func NewClassifier(patterns map[Intent]Pattern) *Classifier {
	if patterns == nil {
		patterns = DefaultPatterns()
	}

	c := &Classifier{
		order:    make([]Intent, 0, len(patterns)),
		patterns: make(map[Intent]Pattern, len(patterns)),
	}
	for _, i := range All() {
		p, ok := patterns[i]
		if !ok {
			continue
		}
		c.order = append(c.order, i)
		c.patterns[i] = Pattern{
			Triggers: lowerAll(p.Triggers),
			Context:  lowerAll(p.Context),
		}
	}
	return c
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// Classify returns the best-scoring intent for text. Input that matches no
// pattern yields Help with zero confidence.
func (c *Classifier) Classify(text string) Result {
	lower := strings.ToLower(text)
	trimmed := strings.TrimSpace(lower)
	tokens := len(strings.Fields(lower))

	best := Help
	bestScore := 0.0
	for _, i := range c.order {
		score := c.score(c.patterns[i], lower, trimmed, tokens)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}

	if bestScore <= 0 {
		return Result{Intent: Help, Tokens: tokens}
	}

	return Result{
		Intent:     best,
		Confidence: confidence(bestScore, tokens),
		Score:      bestScore,
		Tokens:     tokens,
	}
}

// Scores returns the total score of every intent for text, in All() order.
// Intents with a zero score are omitted.
func (c *Classifier) Scores(text string) map[Intent]float64 {
	lower := strings.ToLower(text)
	trimmed := strings.TrimSpace(lower)
	tokens := len(strings.Fields(lower))

	scores := make(map[Intent]float64)
	for _, i := range c.order {
		if s := c.score(c.patterns[i], lower, trimmed, tokens); s > 0 {
			scores[i] = s
		}
	}
	return scores
}

func (c *Classifier) score(p Pattern, lower, trimmed string, tokens int) float64 {
	patternScore := 0.0
	for _, trigger := range p.Triggers {
		if strings.Contains(lower, trigger) {
			patternScore++
			if trigger == trimmed {
				patternScore += exactMatchBonus
			}
		}
	}

	contextScore := 0.0
	for _, word := range p.Context {
		if strings.Contains(lower, word) {
			contextScore++
		}
	}

	total := patternScore*patternWeight + contextScore*contextWeight
	if tokens < shortQueryTokens {
		total *= shortQueryPenalty
	}
	return total
}

func confidence(score float64, tokens int) float64 {
	denom := tokens
	if denom < 1 {
		denom = 1
	}
	conf := score / float64(denom)
	if conf > 1.0 {
		return 1.0
	}
	return conf
}
