package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adalundhe/llcguide/core/intent"
	"github.com/google/uuid"
)

// Classifier maps free text to an intent
type Classifier interface {
	Classify(text string) intent.Result
}

// Config holds the collaborators of an Engine
type Config struct {
	Flow       *FlowTable    // Optional, uses DefaultFlowTable() if nil
	Registry   AgentRegistry // Required
	Classifier Classifier    // Optional, uses intent.NewClassifier(nil) if nil

	// RecognitionThreshold is the minimum intent confidence acted upon.
	// Zero uses intent.RecognitionThreshold.
	RecognitionThreshold float64

	// AgentTimeout bounds each agent call. Zero waits indefinitely.
	AgentTimeout time.Duration

	Logger *slog.Logger     // Optional, uses slog.Default() if nil
	Clock  func() time.Time // Optional, uses time.Now if nil
}

// Engine runs conversation turns. It holds only immutable configuration, so
// one Engine serves every session; each session owns its State.
type Engine struct {
	flow       *FlowTable
	dispatcher *Dispatcher
	classifier Classifier
	threshold  float64
	logger     *slog.Logger
	now        func() time.Time
}

// NewEngine validates cfg and builds an Engine
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Registry == nil {
		return nil, errors.New("conversation engine: agent registry is required")
	}
	if cfg.Flow == nil {
		cfg.Flow = DefaultFlowTable()
	}
	if cfg.Classifier == nil {
		cfg.Classifier = intent.NewClassifier(nil)
	}
	if cfg.RecognitionThreshold <= 0 {
		cfg.RecognitionThreshold = intent.RecognitionThreshold
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	for _, name := range cfg.Flow.AgentNames() {
		if _, ok := cfg.Registry.Get(name); !ok {
			return nil, fmt.Errorf("conversation engine: %w: %s", ErrAgentNotRegistered, name)
		}
	}

	return &Engine{
		flow: cfg.Flow,
		dispatcher: NewDispatcher(cfg.Flow, cfg.Registry, DispatcherConfig{
			Timeout: cfg.AgentTimeout,
			Logger:  cfg.Logger,
		}),
		classifier: cfg.Classifier,
		threshold:  cfg.RecognitionThreshold,
		logger:     cfg.Logger,
		now:        cfg.Clock,
	}, nil
}

// Flow returns the engine's stage table
func (e *Engine) Flow() *FlowTable {
	return e.flow
}

// ProcessInput runs one turn against st. extra is caller-supplied context
// merged into the collected information before anything else happens.
//
// A turn either completes and commits every change to st, or fails and
// leaves st exactly as it was.
func (e *Engine) ProcessInput(ctx context.Context, st *State, input string, extra Info) (*Response, error) {
	if st == nil {
		return nil, ErrNilState
	}

	working := st.info.Clone()
	working.Merge(extra)

	if cmd, ok := MatchCommand(input); ok {
		return e.runCommand(st, cmd, input, working)
	}

	result := e.classifier.Classify(input)

	entry, err := e.flow.Lookup(st.stage)
	if err != nil {
		return nil, fmt.Errorf("process input: %w", err)
	}

	agentResp, err := e.dispatcher.Dispatch(ctx, st.stage, input, working)
	if err != nil {
		return nil, fmt.Errorf("process input: %w", err)
	}

	var resp *Response
	if agentResp != nil {
		working.Merge(agentResp.CollectedInfo)
	}

	next, delegate, moved, err := e.advance(entry, working)
	if err != nil {
		return nil, fmt.Errorf("process input: %w", err)
	}

	switch {
	case agentResp != nil && moved:
		resp = transitionResponse(agentResp, next, delegate, working)
	case agentResp != nil:
		resp = passThroughResponse(agentResp)
	default:
		resp = intentResponse(result, e.threshold)
		if moved {
			resp.NextStage = next.String()
			resp.DelegateTo = delegate
		}
	}

	from := st.stage
	st.info = working
	st.lastIntent = result.Intent
	if moved {
		st.moveTo(next, delegate)
		e.logger.Info("stage advanced",
			"from", from.String(),
			"to", next.String(),
			"agent", delegate,
		)
	}
	st.record(e.message(RoleUser, input, from), e.message(RoleAssistant, resp.Message, st.stage))

	return resp, nil
}

// advance applies the stage advancement rule to entry. It reports the next
// stage and its agent when every required key is present and the entry is not
// terminal.
func (e *Engine) advance(entry FlowEntry, info Info) (Stage, string, bool, error) {
	next, ok := entry.NextStage()
	if !ok || !CanAdvance(entry, info) {
		return entry.Stage, "", false, nil
	}

	nextEntry, err := e.flow.Lookup(next)
	if err != nil {
		return entry.Stage, "", false, err
	}
	return next, nextEntry.Agent, true, nil
}

func (e *Engine) runCommand(st *State, cmd Command, input string, working Info) (*Response, error) {
	e.logger.Debug("global command", "command", string(cmd), "stage", st.stage.String())

	from := st.stage
	var (
		resp *Response
		err  error
	)

	switch cmd {
	case CommandHelp:
		resp = e.helpResponse()
	case CommandStatus:
		resp, err = e.statusResponse(st.stage, working)
	case CommandRestart:
		st.reset()
		return &Response{Message: restartMessage}, nil
	case CommandBack:
		resp, err = e.backResponse(st, working)
	default:
		return nil, fmt.Errorf("process input: unknown command %q", cmd)
	}
	if err != nil {
		return nil, fmt.Errorf("process input: %w", err)
	}

	st.info = working
	st.record(e.message(RoleUser, input, from), e.message(RoleAssistant, resp.Message, st.stage))
	return resp, nil
}

func (e *Engine) message(role Role, content string, stage Stage) Message {
	return Message{
		ID:      uuid.NewString(),
		Role:    role,
		Content: content,
		Stage:   stage,
		Time:    e.now(),
	}
}
