// Package legal implements the legal advisor agent. It settles the state of
// formation and later runs the legal review before filing.
package legal

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/adalundhe/llcguide/core/capability"
	"github.com/adalundhe/llcguide/core/conversation"
	"github.com/adalundhe/llcguide/core/intent"
)

// Name is the registry key of the legal advisor
const Name = conversation.AgentLegalAdvisor

// Config holds configuration for the legal advisor
type Config struct {
	Capabilities capability.Set
	Logger       *slog.Logger // Optional, uses slog.Default() if nil
}

// Advisor is the legal advisor agent
type Advisor struct {
	caps   capability.Set
	logger *slog.Logger
}

// New creates a legal advisor
func New(cfg Config) *Advisor {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Advisor{
		caps:   cfg.Capabilities,
		logger: cfg.Logger.With("agent", Name),
	}
}

var (
	approvalPattern  = regexp.MustCompile(`(?i)\b(?:approve[d]?|looks? good|confirm(?:ed)?|all good|sign off|ready to file|yes)\b`)
	negationPattern  = regexp.MustCompile(`(?i)\b(?:not|don't|dont|isn't|no)\b`)
	agreementPattern = regexp.MustCompile(`(?i)\boperating agreement\b`)
)

// Process handles both stages the advisor owns. Without a state on record it
// asks for one; afterwards it walks the user through the legal review.
func (a *Advisor) Process(ctx context.Context, input string, info conversation.Info) (*conversation.AgentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found := conversation.Info{}
	mentioned := firstState(input)

	if !info.Has("state") {
		if mentioned == "" {
			return a.askState(), nil
		}
		found["state"] = mentioned
		a.logger.Debug("state selected", "state", mentioned)
		return &conversation.AgentResponse{
			Message:       stateSelected(mentioned, info),
			CollectedInfo: found,
		}, nil
	}

	if mentioned != "" && mentioned != info.String("state") {
		found["state"] = mentioned
		a.logger.Debug("state changed", "from", info.String("state"), "to", mentioned)
		return &conversation.AgentResponse{
			Message:       "I've updated your state of formation to " + displayState(mentioned) + ". " + reviewPrompt,
			Actions:       conversation.Actions(reviewActions...),
			CollectedInfo: found,
		}, nil
	}

	if approvalPattern.MatchString(input) && !negationPattern.MatchString(input) {
		found["review_complete"] = true
		a.logger.Debug("review approved")
		return &conversation.AgentResponse{
			Message: "Great! I have reviewed all legal aspects of your LLC formation. " +
				"You're ready to proceed with the filing process.",
			CollectedInfo: found,
		}, nil
	}

	if agreementPattern.MatchString(input) {
		return a.operatingAgreement(), nil
	}
	return a.complianceCheck(info), nil
}

const reviewPrompt = "When everything looks right, tell me you approve and we'll move on to filing."

var reviewActions = []string{"Approve", "Review Operating Agreement"}

func (a *Advisor) askState() *conversation.AgentResponse {
	if a.caps.Has(capability.AdvancedNLP) {
		return &conversation.AgentResponse{
			Message: "I'll analyze the legal requirements for your LLC. " +
				"Which state are you planning to form your LLC in?",
			Actions: conversation.Actions("Select State", "Compare States"),
		}
	}
	return &conversation.AgentResponse{
		Message: "Please select the state where you'd like to form your LLC. " +
			"I'll provide you with the basic requirements.",
		Actions: conversation.Actions("Select State", "View State List"),
	}
}

func (a *Advisor) operatingAgreement() *conversation.AgentResponse {
	if a.caps.Has(capability.DocumentProcessing) {
		return &conversation.AgentResponse{
			Message: "I can help you create a customized Operating Agreement " +
				"based on your specific needs and state requirements. " +
				"Would you like to use a standard template or create a custom one?",
			Actions: conversation.Actions("Standard Template", "Custom Agreement"),
		}
	}
	return &conversation.AgentResponse{
		Message: "I can provide you with a basic Operating Agreement template. Would you like to proceed?",
		Actions: conversation.Actions("Use Template", "Skip For Now"),
	}
}

func (a *Advisor) complianceCheck(info conversation.Info) *conversation.AgentResponse {
	var b strings.Builder
	if a.caps.Has(capability.AdvancedNLP) {
		b.WriteString("I'll perform a comprehensive compliance check for your LLC formation. " +
			"This will ensure you meet all state requirements and regulations.")
	} else {
		b.WriteString("Let's review a basic compliance checklist for your LLC formation. " +
			"This will help ensure you're meeting the main requirements.")
	}

	if missing := info.Missing(reviewChecklist); len(missing) > 0 {
		b.WriteString(" Still open: " + strings.Join(missing, ", ") + ".")
	}
	b.WriteString(" " + reviewPrompt)

	return &conversation.AgentResponse{
		Message: b.String(),
		Actions: conversation.Actions(reviewActions...),
	}
}

// reviewChecklist lists the facts a legal review expects to see on record
var reviewChecklist = []string{
	"business_name", "business_type", "industry", "state",
	"licenses", "permits", "articles", "operating_agreement",
}

func stateSelected(code string, info conversation.Info) string {
	msg := displayState(code) + " it is. I'll check the legal requirements for forming your LLC there."
	if name := info.String("business_name"); name != "" {
		msg += " Next we'll confirm the licenses and permits " + name + " needs."
	}
	return msg
}

func firstState(input string) string {
	return intent.PrimaryState(input)
}

func displayState(code string) string {
	if name, ok := intent.StateName(code); ok {
		return name
	}
	return code
}
