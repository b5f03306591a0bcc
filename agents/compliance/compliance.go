// Package compliance implements the compliance specialist, which settles
// which licenses and permits the business needs.
package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/adalundhe/llcguide/core/capability"
	"github.com/adalundhe/llcguide/core/conversation"
	"github.com/adalundhe/llcguide/core/intent"
)

// Name is the registry key of the compliance specialist
const Name = conversation.AgentComplianceSpecialist

// Values recorded for the licenses and permits facts
const (
	Required    = "required"
	NotRequired = "not required"
)

// Config holds configuration for the compliance specialist
type Config struct {
	Capabilities capability.Set
	Logger       *slog.Logger // Optional, uses slog.Default() if nil
}

// Specialist is the compliance specialist agent
type Specialist struct {
	caps   capability.Set
	logger *slog.Logger
}

// New creates a compliance specialist
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
	clauseSplit     = regexp.MustCompile(`(?i)[.,;!?]|\bbut\b|\bhowever\b`)
	licensePattern  = regexp.MustCompile(`(?i)\blicen[cs]e`)
	permitPattern   = regexp.MustCompile(`(?i)\bpermit`)
	negationPattern = regexp.MustCompile(`(?i)\b(?:no|not|don't|dont|do not|doesn't|without|none|never)\b`)
	neitherPattern  = regexp.MustCompile(`(?i)\b(?:neither|nothing (?:is )?(?:required|needed))\b`)
)

// bareNegativePattern matches a reply that is only a negative. It answers
// every question still open.
var bareNegativePattern = regexp.MustCompile(`(?i)^\s*(?:no|nope|nah|none|nothing|not really)(?:[\s,]+(?:no|none|nope|thanks?|needed|required|at all))*[\s.!]*$`)

var complianceKeys = []string{"licenses", "permits"}

// regulatedIndustries need a state board license regardless of location
var regulatedIndustries = map[string]string{
	"healthcare":   "your state's medical or health licensing board",
	"real_estate":  "the state Real Estate Commission",
	"food_service": "the local health department",
	"construction": "the state contractor licensing board",
}

// Process records license and permit answers and asks about whatever is
// still unknown.
func (s *Specialist) Process(ctx context.Context, input string, info conversation.Info) (*conversation.AgentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found := classifyAnswers(input)
	if len(found) == 0 && bareNegativePattern.MatchString(input) {
		for _, key := range info.Missing(complianceKeys) {
			found[key] = NotRequired
		}
	}
	known := info.Clone()
	known.Merge(found)

	if len(found) > 0 {
		s.logger.Debug("recorded compliance answers", "keys", found.Keys())
	}

	missing := known.Missing(complianceKeys)
	if len(missing) == 0 {
		return &conversation.AgentResponse{
			Message: fmt.Sprintf(
				"Thanks! Licenses: %s. Permits: %s. Your compliance requirements are recorded, "+
					"so let's prepare your formation documents.",
				known.String("licenses"), known.String("permits"),
			),
			CollectedInfo: found,
		}, nil
	}

	return &conversation.AgentResponse{
		Message:       s.prompt(missing, known),
		Actions:       conversation.Actions("Review Licenses", "Check Permits"),
		CollectedInfo: found,
	}, nil
}

func (s *Specialist) prompt(missing []string, known conversation.Info) string {
	var b strings.Builder
	b.WriteString("I'll help ensure your LLC meets all compliance requirements. ")

	if s.caps.Has(capability.DataLookup) && known.Has("state") {
		fmt.Fprintf(&b, "I can look up the licenses and permits required for a %s business in %s. ",
			industryLabel(known.String("industry")), stateLabel(known.String("state")))
	} else {
		b.WriteString("Let's review the necessary licenses and permits. ")
	}

	if board, ok := regulatedIndustries[known.String("industry")]; ok {
		fmt.Fprintf(&b, "Businesses in your industry usually need a license from %s. ", board)
	}
	if known.String("business_type") == "professional" {
		b.WriteString("Professional practices may also need to form a Professional LLC. ")
	}

	fmt.Fprintf(&b, "Does your business need any %s?", strings.Join(missing, " or "))
	return b.String()
}

// classifyAnswers inspects each clause of input on its own so that "no
// license, but we need a permit" records both answers correctly.
func classifyAnswers(input string) conversation.Info {
	found := conversation.Info{}
	if neitherPattern.MatchString(input) {
		found["licenses"] = NotRequired
		found["permits"] = NotRequired
		return found
	}

	for _, clause := range clauseSplit.Split(input, -1) {
		answer := Required
		if negationPattern.MatchString(clause) {
			answer = NotRequired
		}
		if licensePattern.MatchString(clause) {
			found["licenses"] = answer
		}
		if permitPattern.MatchString(clause) {
			found["permits"] = answer
		}
	}
	return found
}

func industryLabel(industry string) string {
	if industry == "" {
		return "new"
	}
	return strings.ReplaceAll(industry, "_", " ")
}

func stateLabel(code string) string {
	if name, ok := intent.StateName(code); ok {
		return name
	}
	return code
}
