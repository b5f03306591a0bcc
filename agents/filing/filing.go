// Package filing implements the filing specialist, the last agent in the
// flow. It confirms submission of the formation documents to the state.
package filing

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/adalundhe/llcguide/core/capability"
	"github.com/adalundhe/llcguide/core/conversation"
	"github.com/adalundhe/llcguide/core/intent"
)

// Name is the registry key of the filing specialist
const Name = conversation.AgentFilingSpecialist

// Config holds configuration for the filing specialist
type Config struct {
	Capabilities capability.Set
	Logger       *slog.Logger // Optional, uses slog.Default() if nil
}

// Specialist is the filing specialist agent
type Specialist struct {
	caps   capability.Set
	logger *slog.Logger
}

// New creates a filing specialist
func New(cfg Config) *Specialist {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Specialist{
		caps:   cfg.Capabilities,
		logger: cfg.Logger.With("agent", Name),
	}
}

var (
	submitPattern   = regexp.MustCompile(`(?i)\b(?:submit(?:ted)?|file it|filed|file now|go ahead|send it|proceed)\b`)
	negationPattern = regexp.MustCompile(`(?i)\b(?:not|don't|dont|do not|wait|hold)\b`)
)

// Process records filing_complete once the user asks to submit.
func (s *Specialist) Process(ctx context.Context, input string, info conversation.Info) (*conversation.AgentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	expedite := intent.DetectUrgency(input) == intent.UrgencyHigh

	if submitPattern.MatchString(input) && !negationPattern.MatchString(input) {
		s.logger.Info("filing submitted", "state", info.String("state"), "expedited", expedite)
		var b strings.Builder
		b.WriteString("Your filing for " + subject(info) + " has been submitted to " + agency(info) + ". ")
		if expedite {
			b.WriteString("I've flagged it for expedited processing. ")
		}
		b.WriteString("Congratulations! Once the state approves it, remember to request an EIN from the IRS.")

		return &conversation.AgentResponse{
			Message:       b.String(),
			CollectedInfo: conversation.Info{"filing_complete": true},
		}, nil
	}

	var b strings.Builder
	b.WriteString("I'll help you with the filing process. Let's review your documents and submit them to " +
		agency(info) + ".")
	if expedite {
		b.WriteString(" Since you're in a hurry, most states offer expedited processing for an additional fee.")
	}
	if s.caps.Has(capability.DataLookup) {
		b.WriteString(" I can also check current processing times before you submit.")
	}

	actions := []string{"Submit Filing", "Review Documents"}
	if expedite {
		actions = append(actions, "Expedited Filing")
	}
	return &conversation.AgentResponse{
		Message: b.String(),
		Actions: conversation.Actions(actions...),
	}, nil
}

func subject(info conversation.Info) string {
	if name := info.String("business_name"); name != "" {
		return name
	}
	return "your LLC"
}

func agency(info conversation.Info) string {
	if name, ok := intent.StateName(info.String("state")); ok {
		return "the " + name + " filing office"
	}
	return "the state filing office"
}
