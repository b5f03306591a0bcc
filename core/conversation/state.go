package conversation

import (
	"time"

	"github.com/adalundhe/llcguide/core/intent"
)

// Role identifies who authored a history message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation history
type Message struct {
	ID      string    `json:"id"`
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	Stage   Stage     `json:"stage"`
	Time    time.Time `json:"time"`
}

// State is the conversation state owned by a single session. Its fields can
// only be changed by the Engine's transitions: stage advancement, the global
// commands, and merging of agent-collected information.
type State struct {
	stage        Stage
	info         Info
	currentAgent string
	lastIntent   intent.Intent
	history      []Message
}

// NewState returns a state at the start of the conversation
func NewState() *State {
	return &State{
		stage: StageInitial,
		info:  make(Info),
	}
}

// Stage returns the current stage
func (s *State) Stage() Stage {
	return s.stage
}

// CurrentAgent returns the agent responsible for the current stage, or ""
func (s *State) CurrentAgent() string {
	return s.currentAgent
}

// LastIntent returns the most recently classified intent, or ""
func (s *State) LastIntent() intent.Intent {
	return s.lastIntent
}

// Info returns a copy of the collected information
func (s *State) Info() Info {
	return s.info.Clone()
}

// Has reports whether key has been collected
func (s *State) Has(key string) bool {
	return s.info.Has(key)
}

// History returns a copy of the message history
func (s *State) History() []Message {
	return append([]Message(nil), s.history...)
}

func (s *State) reset() {
	s.stage = StageInitial
	s.info = make(Info)
	s.currentAgent = ""
	s.lastIntent = ""
	s.history = nil
}

func (s *State) moveTo(stage Stage, agent string) {
	s.stage = stage
	s.currentAgent = agent
}

func (s *State) record(messages ...Message) {
	s.history = append(s.history, messages...)
}

// Snapshot is an exported, serialisable copy of a State
type Snapshot struct {
	Stage         Stage         `json:"stage"`
	StageTitle    string        `json:"stage_title"`
	CurrentAgent  string        `json:"current_agent,omitempty"`
	LastIntent    intent.Intent `json:"last_intent,omitempty"`
	CollectedInfo Info          `json:"collected_info"`
	History       []Message     `json:"history"`
}

// Snapshot returns a copy of the state for reporting
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Stage:         s.stage,
		StageTitle:    s.stage.Title(),
		CurrentAgent:  s.currentAgent,
		LastIntent:    s.lastIntent,
		CollectedInfo: s.info.Clone(),
		History:       s.History(),
	}
}
