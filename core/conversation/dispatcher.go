package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DispatcherConfig configures a Dispatcher
type DispatcherConfig struct {
	// Timeout bounds a single agent call. Zero waits indefinitely.
	Timeout time.Duration

	Logger *slog.Logger // Optional, uses slog.Default() if nil
}

// Dispatcher forwards a turn to the agent responsible for a stage. It issues
// at most one agent call per turn.
type Dispatcher struct {
	flow     *FlowTable
	registry AgentRegistry
	timeout  time.Duration
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over a flow table and agent registry
func NewDispatcher(flow *FlowTable, registry AgentRegistry, cfg DispatcherConfig) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Dispatcher{
		flow:     flow,
		registry: registry,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
	}
}

// Dispatch invokes the agent assigned to stage with the user input and a copy
// of the collected information. It returns (nil, nil) when the stage has no
// agent. Agent failures come back as *AgentError.
func (d *Dispatcher) Dispatch(ctx context.Context, stage Stage, input string, info Info) (*AgentResponse, error) {
	entry, err := d.flow.Lookup(stage)
	if err != nil {
		return nil, err
	}
	if !entry.HasAgent() {
		return nil, nil
	}

	agent, ok := d.registry.Get(entry.Agent)
	if !ok || agent == nil {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotRegistered, entry.Agent)
	}

	d.logger.Debug("dispatching to agent", "stage", stage.String(), "agent", entry.Agent)

	start := time.Now()
	resp, err := d.invoke(ctx, agent, input, info.Clone())
	if err != nil {
		d.logger.Warn("agent failed",
			"stage", stage.String(),
			"agent", entry.Agent,
			"elapsed", time.Since(start),
			"error", err,
		)
		return nil, &AgentError{Agent: entry.Agent, Stage: stage, Err: err}
	}

	if resp == nil {
		resp = &AgentResponse{}
	}
	return resp, nil
}

type agentOutcome struct {
	resp *AgentResponse
	err  error
}

func (d *Dispatcher) invoke(ctx context.Context, agent Agent, input string, info Info) (*AgentResponse, error) {
	if d.timeout <= 0 {
		out := safeProcess(ctx, agent, input, info)
		return out.resp, out.err
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan agentOutcome, 1)
	go func() {
		done <- safeProcess(ctx, agent, input, info)
	}()

	select {
	case out := <-done:
		return out.resp, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrAgentTimeout
		}
		return nil, ctx.Err()
	}
}

func safeProcess(ctx context.Context, agent Agent, input string, info Info) (out agentOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = agentOutcome{err: fmt.Errorf("agent panic: %v", r)}
		}
	}()
	resp, err := agent.Process(ctx, input, info)
	return agentOutcome{resp: resp, err: err}
}

// CanAdvance reports whether every key the entry requires is present in info.
// Presence is the test, not truthiness.
func CanAdvance(entry FlowEntry, info Info) bool {
	for _, key := range entry.RequiredInfo {
		if !info.Has(key) {
			return false
		}
	}
	return true
}
