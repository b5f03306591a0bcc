package conversation

import (
	"context"
)

// Action is a suggested follow-up the user can pick
type Action struct {
	Text string `json:"text"`
}

// Actions builds an action list from labels
func Actions(labels ...string) []Action {
	if len(labels) == 0 {
		return nil
	}
	out := make([]Action, len(labels))
	for i, l := range labels {
		out[i] = Action{Text: l}
	}
	return out
}

// AgentResponse is what an agent returns for one request. CollectedInfo is
// merged key-wise into the session's collected information.
type AgentResponse struct {
	Message       string   `json:"message"`
	Actions       []Action `json:"actions,omitempty"`
	CollectedInfo Info     `json:"collected_info,omitempty"`
}

// Agent is a stateless responder for one or more stages. Implementations must
// not retain per-session state between calls.
type Agent interface {
	Process(ctx context.Context, input string, info Info) (*AgentResponse, error)
}

// AgentFunc adapts a function to the Agent interface
type AgentFunc func(ctx context.Context, input string, info Info) (*AgentResponse, error)

func (f AgentFunc) Process(ctx context.Context, input string, info Info) (*AgentResponse, error) {
	return f(ctx, input, info)
}

// AgentRegistry resolves agents by their flow-table name
type AgentRegistry interface {
	Get(name string) (Agent, bool)
}
