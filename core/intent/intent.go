// Package intent classifies free-text user requests about LLC formation into a
// fixed set of intents using weighted trigger-phrase and context-word matching.
package intent

// Intent represents the classified category of a user request
type Intent string

const (
	Formation     Intent = "formation"
	Consultation  Intent = "consultation"
	Information   Intent = "information"
	Clarification Intent = "clarification"
	Comparison    Intent = "comparison"
	Cost          Intent = "cost"
	Timeline      Intent = "timeline"
	Requirements  Intent = "requirements"
	Help          Intent = "help"
)

// All returns every intent in enumeration order. Classification ties are
// broken in favour of the intent that appears first here.
func All() []Intent {
	return []Intent{
		Formation,
		Consultation,
		Information,
		Clarification,
		Comparison,
		Cost,
		Timeline,
		Requirements,
		Help,
	}
}

// IsValid reports whether i is one of the fixed intents
func (i Intent) IsValid() bool {
	for _, known := range All() {
		if known == i {
			return true
		}
	}
	return false
}

func (i Intent) String() string {
	return string(i)
}

// Pattern holds the trigger phrases and context words configured for an intent.
// Both are matched as lowercase substrings.
type Pattern struct {
	Triggers []string
	Context  []string
}

// DefaultPatterns returns the built-in pattern table
func DefaultPatterns() map[Intent]Pattern {
	return map[Intent]Pattern{
		Formation: {
			Triggers: []string{
				"how do i form", "how to form", "want to form", "need to form",
				"start an llc", "create an llc", "establish an llc", "set up an llc",
				"register an llc", "incorporate", "formation", "begin",
			},
			Context: []string{"llc", "business", "company", "corporation"},
		},
		Consultation: {
			Triggers: []string{
				"help me with", "need advice", "guide me", "assist me",
				"recommend", "suggestion", "what should i", "how should i",
			},
			Context: []string{"expert", "professional", "advisor", "consultant"},
		},
		Information: {
			Triggers: []string{
				"tell me about", "what is", "how do", "explain",
				"information on", "details about", "learn about", "understand",
			},
			Context: []string{"process", "steps", "requirements", "procedure"},
		},
		Clarification: {
			Triggers: []string{
				"what do you mean", "dont understand", "don't understand",
				"confused about", "unclear", "clarify", "explain again",
			},
		},
		Comparison: {
			Triggers: []string{
				"compare", "difference between", "versus", "vs",
				"better option", "advantages", "disadvantages", "which is better",
			},
			Context: []string{"types", "options", "alternatives", "choices"},
		},
		Cost: {
			Triggers: []string{
				"how much", "cost to", "price of", "fee for",
				"expenses", "charges", "pricing", "payment",
			},
			Context: []string{"filing", "registration", "maintenance", "setup"},
		},
		Timeline: {
			Triggers: []string{
				"how long", "time to", "duration of", "timeline for",
				"when can i", "schedule for", "process time", "waiting period",
			},
			Context: []string{"complete", "finish", "approval", "formation"},
		},
		Requirements: {
			Triggers: []string{
				"what do i need", "requirements for", "necessary for",
				"required to", "must have", "prerequisites", "mandatory",
			},
			Context: []string{"document", "file", "submit", "form"},
		},
		Help: {
			Triggers: []string{
				"help", "assist", "support", "guide", "stuck with",
				"having trouble", "not sure how", "confused about",
			},
		},
	}
}
