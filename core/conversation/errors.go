package conversation

import (
	"errors"
	"fmt"
)

var (
	// ErrStageNotFound means a stage is missing from the flow table
	ErrStageNotFound = errors.New("stage not found in flow table")

	// ErrAgentNotRegistered means the flow table names an agent the registry lacks
	ErrAgentNotRegistered = errors.New("agent not registered")

	// ErrAgentTimeout means an agent did not answer within the configured bound
	ErrAgentTimeout = errors.New("agent timed out")

	// ErrNilState is returned when ProcessInput is called without a state
	ErrNilState = errors.New("conversation state is nil")
)

// AgentError wraps a failure raised while an agent processed a request
type AgentError struct {
	Agent string
	Stage Stage
	Err   error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent %s failed at stage %s: %v", e.Agent, e.Stage, e.Err)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}
