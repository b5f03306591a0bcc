// Package conversation implements the LLC formation conversation flow: a fixed
// ordered table of stages, the per-session ConversationState, dispatch to the
// agent responsible for the current stage, required-information gating of
// stage advancement, reserved global commands, and reply synthesis.
package conversation

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Stage is a named step in the conversation sequence
type Stage int

const (
	StageInitial Stage = iota
	StageBusinessInfo
	StageIndustrySelection
	StageStateSelection
	StageRequirements
	StageDocumentation
	StageReview
	StageFiling
	StageComplete
)

var stageNames = map[Stage]string{
	StageInitial:           "INITIAL",
	StageBusinessInfo:      "BUSINESS_INFO",
	StageIndustrySelection: "INDUSTRY_SELECTION",
	StageStateSelection:    "STATE_SELECTION",
	StageRequirements:      "REQUIREMENTS",
	StageDocumentation:     "DOCUMENTATION",
	StageReview:            "REVIEW",
	StageFiling:            "FILING",
	StageComplete:          "COMPLETE",
}

// AllStages returns the nine stages in declaration order
func AllStages() []Stage {
	return []Stage{
		StageInitial,
		StageBusinessInfo,
		StageIndustrySelection,
		StageStateSelection,
		StageRequirements,
		StageDocumentation,
		StageReview,
		StageFiling,
		StageComplete,
	}
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Title returns the human-readable stage name, e.g. "Business Info"
func (s Stage) Title() string {
	words := strings.ReplaceAll(strings.ToLower(s.String()), "_", " ")
	return cases.Title(language.English).String(words)
}

// IsValid reports whether s is one of the fixed stages
func (s Stage) IsValid() bool {
	_, ok := stageNames[s]
	return ok
}

// ParseStage resolves a stage by its upper snake case name (case-insensitive)
func ParseStage(name string) (Stage, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for s, n := range stageNames {
		if n == upper {
			return s, true
		}
	}
	return StageInitial, false
}

func (s Stage) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid stage %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	parsed, ok := ParseStage(string(text))
	if !ok {
		return fmt.Errorf("unknown stage %q", string(text))
	}
	*s = parsed
	return nil
}
