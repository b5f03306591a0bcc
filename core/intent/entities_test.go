package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEntities(t *testing.T) {
	e := ExtractEntities("I want to form in New York or DE, fee $1,250.00 and 5% by 2025-01-15 or 3/1/2025")

	assert.Equal(t, []string{"NY", "DE"}, e.States)
	assert.Equal(t, []string{"$1,250.00"}, e.Money)
	assert.Equal(t, []string{"5%"}, e.Percentages)
	assert.Equal(t, []string{"2025-01-15", "3/1/2025"}, e.Dates)
	assert.False(t, e.IsEmpty())
}

func TestExtractEntities_States(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"lowercase words are not codes", "i live in or near me", nil},
		{"code inside word", "ALSO NOTE", nil},
		{"longest name wins", "west virginia please", []string{"WV"}},
		{"name and code dedupe", "Texas, TX", []string{"TX"}},
		{"order of appearance", "CA then nevada", []string{"CA", "NV"}},
		{"kansas inside arkansas", "arkansas", []string{"AR"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractEntities(tt.input).States)
		})
	}
}

func TestPrimaryState(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"name beats leading OK", "OK, let's go with Texas", "TX"},
		{"name beats earlier code", "DE or maybe Nevada", "NV"},
		{"unambiguous code", "let's do DE", "DE"},
		{"ambiguous code skipped", "OK sounds good", ""},
		{"ambiguous code alone", "OR", "OR"},
		{"ambiguous code then plain code", "OK, CA", "CA"},
		{"nothing", "not sure yet", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PrimaryState(tt.input))
		})
	}
}

func TestExtractEntities_Empty(t *testing.T) {
	assert.True(t, ExtractEntities("nothing to see here").IsEmpty())
}

func TestDetectUrgency(t *testing.T) {
	assert.Equal(t, UrgencyHigh, DetectUrgency("I need this ASAP"))
	assert.Equal(t, UrgencyMedium, DetectUrgency("soon please"))
	assert.Equal(t, UrgencyLow, DetectUrgency("no rush"))
	assert.Equal(t, UrgencyLow, DetectUrgency("hello"))
	assert.Equal(t, UrgencyHigh, DetectUrgency("urgent but no rush"))
}

func TestAssessComplexity(t *testing.T) {
	assert.Equal(t, ComplexitySimple, AssessComplexity("hi"))
	assert.Equal(t, ComplexityModerate, AssessComplexity("What is the compliance requirement if I move?"))
	assert.Equal(t, ComplexityComplex, AssessComplexity("What about compliance? And jurisdiction? Because I moved."))
}

func TestStateName(t *testing.T) {
	name, ok := StateName("nh")
	assert.True(t, ok)
	assert.Equal(t, "New Hampshire", name)

	_, ok = StateName("XX")
	assert.False(t, ok)
}
