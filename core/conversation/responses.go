package conversation

import (
	"github.com/adalundhe/llcguide/core/intent"
)

// Response is the reply payload for one turn
type Response struct {
	Message    string   `json:"message"`
	Actions    []Action `json:"actions,omitempty"`
	NextStage  string   `json:"next_stage,omitempty"`
	DelegateTo string   `json:"delegate_to,omitempty"`
	Context    Info     `json:"context,omitempty"`
	Visual     *Visual  `json:"visual,omitempty"`

	// CollectedInfo holds what the agent extracted from this turn's input
	CollectedInfo Info `json:"collected_info,omitempty"`
}

// Visual carries presentation hints for a client
type Visual struct {
	Progress *Progress `json:"progress,omitempty"`
}

// Progress describes where the session sits in the stage list
type Progress struct {
	Stages  []string `json:"stages"`
	Current int      `json:"current"`
	Total   int      `json:"total"`
}

const (
	clarifyMessage = "I'm not quite sure what you're asking. Could you rephrase that? " +
		"Or type 'help' to see what I can help you with."

	defaultIntentMessage = "I'm here to help you form your LLC! You can ask me about:\n\n" +
		"• Formation process and requirements\n" +
		"• Costs and timeline\n" +
		"• State-specific information\n" +
		"• Document preparation\n\n" +
		"What would you like to know?"
)

var defaultIntentActions = []string{"Formation Process", "Ask Question"}

type cannedReply struct {
	message string
	actions []string
}

var intentReplies = map[intent.Intent]cannedReply{
	intent.Formation: {
		message: "I'll guide you through forming your LLC! The process involves several steps:\n\n" +
			"1. Choose a business name\n" +
			"2. Select your state of formation\n" +
			"3. Appoint a registered agent\n" +
			"4. File Articles of Organization\n" +
			"5. Create an Operating Agreement\n" +
			"6. Get an EIN\n\n" +
			"Would you like to start with choosing your business name?",
		actions: []string{"Choose Business Name", "Learn More First"},
	},
	intent.Consultation: {
		message: "I'd be happy to help you with your LLC formation! " +
			"What specific aspect would you like to discuss?\n\n" +
			"• Business structure and planning\n" +
			"• State selection and requirements\n" +
			"• Document preparation\n" +
			"• Filing procedures",
		actions: []string{"Discuss Business Structure", "Review Requirements"},
	},
	intent.Information: {
		message: "An LLC (Limited Liability Company) is a flexible business structure " +
			"that combines the liability protection of a corporation with the tax " +
			"benefits of a partnership.\n\n" +
			"Would you like to learn more about:\n" +
			"• LLC benefits and features\n" +
			"• Formation requirements\n" +
			"• Costs and timeline\n" +
			"• Ongoing responsibilities",
		actions: []string{"LLC Benefits", "Formation Requirements"},
	},
	intent.Clarification: {
		message: "Let me clarify that for you. What specific part would you like me to explain? " +
			"I can help you understand any aspect of LLC formation.",
		actions: []string{"Get Help", "Start Over"},
	},
	intent.Comparison: {
		message: "Let me help you compare your options. LLCs offer several advantages:\n\n" +
			"• Limited liability protection\n" +
			"• Flexible tax options\n" +
			"• Simple management structure\n" +
			"• Less paperwork than corporations\n\n" +
			"Would you like to compare LLCs with other business structures?",
		actions: []string{"Compare Structures", "LLC Advantages"},
	},
	intent.Cost: {
		message: "The cost of forming an LLC varies by state. Typical expenses include:\n\n" +
			"• State filing fees ($50-$500)\n" +
			"• Registered agent fees ($100-$300/year)\n" +
			"• Operating Agreement preparation\n" +
			"• Business licenses and permits\n\n" +
			"Would you like to know the specific costs for your state?",
		actions: []string{"State-Specific Costs", "Optional Services"},
	},
	intent.Timeline: {
		message: "The timeline for forming an LLC typically looks like this:\n\n" +
			"• Name availability check: 1-2 days\n" +
			"• Document preparation: 1-3 days\n" +
			"• State filing: 5-10 business days\n" +
			"• EIN registration: 1-2 days\n\n" +
			"Some states offer expedited processing for an additional fee.",
		actions: []string{"Expedited Options", "Start Formation"},
	},
	intent.Requirements: {
		message: "To form an LLC, you'll need:\n\n" +
			"• A unique business name\n" +
			"• A registered agent\n" +
			"• Articles of Organization\n" +
			"• Operating Agreement\n" +
			"• EIN (for tax purposes)\n\n" +
			"Would you like me to explain any of these requirements?",
		actions: []string{"Explain Requirements", "Start Formation"},
	},
}

// intentResponse answers a turn that no agent handled. Results below the
// recognition threshold get the clarification prompt; recognised intents
// without a canned reply (help) get the generic default.
func intentResponse(result intent.Result, threshold float64) *Response {
	if !result.Recognized(threshold) {
		return &Response{Message: clarifyMessage}
	}

	reply, ok := intentReplies[result.Intent]
	if !ok {
		return &Response{Message: defaultIntentMessage, Actions: Actions(defaultIntentActions...)}
	}
	return &Response{Message: reply.message, Actions: Actions(reply.actions...)}
}

// transitionResponse reports a stage change caused by an agent result
func transitionResponse(agent *AgentResponse, next Stage, delegate string, info Info) *Response {
	return &Response{
		Message:       agent.Message,
		NextStage:     next.String(),
		DelegateTo:    delegate,
		Context:       info.Clone(),
		CollectedInfo: turnInfo(agent.CollectedInfo),
	}
}

// passThroughResponse relays an agent result that did not change the stage
func passThroughResponse(agent *AgentResponse) *Response {
	return &Response{
		Message:       agent.Message,
		Actions:       append([]Action(nil), agent.Actions...),
		CollectedInfo: turnInfo(agent.CollectedInfo),
	}
}

func turnInfo(collected Info) Info {
	if len(collected) == 0 {
		return nil
	}
	return collected.Clone()
}
