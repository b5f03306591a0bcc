package intent

import (
	"strings"
)

// Urgency is a coarse measure of how time-sensitive a request is
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Complexity is a coarse measure of how involved a request is
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

var urgencyTerms = []struct {
	level Urgency
	terms []string
}{
	{UrgencyHigh, []string{"immediate", "urgent", "asap", "emergency", "critical"}},
	{UrgencyMedium, []string{"soon", "quickly", "priority", "important"}},
	{UrgencyLow, []string{"whenever", "flexible", "no rush", "take time"}},
}

// DetectUrgency returns the first urgency level, checked high to low, whose
// terms appear in text. Text with no urgency terms is low urgency.
func DetectUrgency(text string) Urgency {
	lower := strings.ToLower(text)
	for _, level := range urgencyTerms {
		for _, term := range level.terms {
			if strings.Contains(lower, term) {
				return level.level
			}
		}
	}
	return UrgencyLow
}

var technicalTerms = map[string]struct{}{
	"compliance": {}, "regulation": {}, "requirement": {}, "jurisdiction": {},
	"incorporation": {}, "dissolution": {}, "amendment": {},
}

var subordinators = map[string]struct{}{
	"because": {}, "although": {}, "unless": {}, "whereas": {},
	"since": {}, "while": {}, "if": {}, "when": {},
}

// AssessComplexity counts four indicators (more than two sentences, a
// technical term, a subordinate clause, more than one question) and maps the
// count to a complexity level.
func AssessComplexity(text string) Complexity {
	indicators := 0
	if countSentences(text) > 2 {
		indicators++
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && r != '\''
	})
	if containsAny(words, technicalTerms) {
		indicators++
	}
	if containsAny(words, subordinators) {
		indicators++
	}
	if strings.Count(text, "?") > 1 {
		indicators++
	}

	switch {
	case indicators <= 1:
		return ComplexitySimple
	case indicators == 2:
		return ComplexityModerate
	default:
		return ComplexityComplex
	}
}

func countSentences(text string) int {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	n := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

func containsAny(words []string, set map[string]struct{}) bool {
	for _, w := range words {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}
