package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adalundhe/llcguide/core/intent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapRegistry map[string]Agent

func (r mapRegistry) Get(name string) (Agent, bool) {
	a, ok := r[name]
	return a, ok
}

// countingAgent echoes a fixed message and returns whatever collect yields
type countingAgent struct {
	calls   atomic.Int32
	message string
	actions []Action
	collect func(input string, info Info) Info
}

func (a *countingAgent) Process(_ context.Context, input string, info Info) (*AgentResponse, error) {
	a.calls.Add(1)
	resp := &AgentResponse{Message: a.message, Actions: a.actions}
	if a.collect != nil {
		resp.CollectedInfo = a.collect(input, info)
	}
	return resp, nil
}

func newRegistry(overrides map[string]Agent) mapRegistry {
	reg := mapRegistry{}
	for _, name := range DefaultFlowTable().AgentNames() {
		reg[name] = &countingAgent{message: name + " reply", actions: Actions("Next")}
	}
	for name, a := range overrides {
		reg[name] = a
	}
	return reg
}

func newTestEngine(t *testing.T, reg AgentRegistry, timeout time.Duration) *Engine {
	t.Helper()
	e, err := NewEngine(Config{
		Registry:     reg,
		AgentTimeout: timeout,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return e
}

// toBusinessInfo leaves INITIAL with a neutral first message
func toBusinessInfo(t *testing.T, e *Engine, st *State) {
	t.Helper()
	resp, err := e.ProcessInput(context.Background(), st, "hi there", nil)
	require.NoError(t, err)
	require.Equal(t, StageBusinessInfo, st.Stage())
	require.Equal(t, "BUSINESS_INFO", resp.NextStage)
}

func TestEngine_EndToEndBusinessInfo(t *testing.T) {
	consultant := &countingAgent{message: "Tell me about your business."}
	e := newTestEngine(t, newRegistry(map[string]Agent{AgentBusinessConsultant: consultant}), 0)
	st := NewState()

	resp, err := e.ProcessInput(context.Background(), st, "hi there", nil)
	require.NoError(t, err)
	assert.Equal(t, clarifyMessage, resp.Message)
	assert.Equal(t, "BUSINESS_INFO", resp.NextStage)
	assert.Equal(t, AgentBusinessConsultant, resp.DelegateTo)
	assert.Equal(t, StageBusinessInfo, st.Stage())
	assert.Equal(t, AgentBusinessConsultant, st.CurrentAgent())
	assert.Zero(t, consultant.calls.Load())

	resp, err = e.ProcessInput(context.Background(), st, "my company details",
		Info{"business_name": "Acme", "business_type": "service"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), consultant.calls.Load())
	assert.Equal(t, StageIndustrySelection, st.Stage())
	assert.Equal(t, AgentBusinessConsultant, st.CurrentAgent())
	assert.Equal(t, "Tell me about your business.", resp.Message)
	assert.Equal(t, "INDUSTRY_SELECTION", resp.NextStage)
	assert.Equal(t, AgentBusinessConsultant, resp.DelegateTo)
	assert.Equal(t, "Acme", resp.Context.String("business_name"))
	assert.Len(t, st.History(), 4)
}

func TestEngine_AgentCollectedInfoAdvances(t *testing.T) {
	consultant := &countingAgent{
		message: "Noted.",
		collect: func(input string, info Info) Info {
			if info.Has("business_name") && !info.Has("industry") {
				return Info{"industry": "technology"}
			}
			return Info{"business_name": "Acme", "business_type": "online"}
		},
	}
	e := newTestEngine(t, newRegistry(map[string]Agent{AgentBusinessConsultant: consultant}), 0)
	st := NewState()
	toBusinessInfo(t, e, st)

	_, err := e.ProcessInput(context.Background(), st, "we sell online", nil)
	require.NoError(t, err)
	assert.Equal(t, StageIndustrySelection, st.Stage())

	resp, err := e.ProcessInput(context.Background(), st, "software", nil)
	require.NoError(t, err)
	assert.Equal(t, Info{"industry": "technology"}, resp.CollectedInfo)
	assert.Equal(t, StageStateSelection, st.Stage())
	assert.Equal(t, AgentLegalAdvisor, st.CurrentAgent())
	assert.Equal(t, "technology", st.Info().String("industry"))
}

func TestEngine_PassThroughWithoutTransition(t *testing.T) {
	consultant := &countingAgent{message: "What type of business?", actions: Actions("Service", "Product")}
	e := newTestEngine(t, newRegistry(map[string]Agent{AgentBusinessConsultant: consultant}), 0)
	st := NewState()
	toBusinessInfo(t, e, st)

	resp, err := e.ProcessInput(context.Background(), st, "it's called Acme", Info{"business_name": "Acme"})
	require.NoError(t, err)

	assert.Equal(t, &Response{Message: "What type of business?", Actions: Actions("Service", "Product")}, resp)
	assert.Equal(t, StageBusinessInfo, st.Stage())
	assert.True(t, st.Has("business_name"))
}

func TestEngine_PassThroughCarriesCollectedInfo(t *testing.T) {
	consultant := &countingAgent{
		message: "And what type of business is it?",
		collect: func(string, Info) Info { return Info{"business_name": "Acme"} },
	}
	e := newTestEngine(t, newRegistry(map[string]Agent{AgentBusinessConsultant: consultant}), 0)
	st := NewState()
	toBusinessInfo(t, e, st)

	resp, err := e.ProcessInput(context.Background(), st, "it's called Acme", nil)
	require.NoError(t, err)

	assert.Equal(t, StageBusinessInfo, st.Stage())
	assert.Empty(t, resp.NextStage)
	assert.Equal(t, Info{"business_name": "Acme"}, resp.CollectedInfo)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"collected_info":{"business_name":"Acme"}`)
}

func TestEngine_GlobalCommandPriority(t *testing.T) {
	consultant := &countingAgent{message: "consultant"}
	e := newTestEngine(t, newRegistry(map[string]Agent{AgentBusinessConsultant: consultant}), 0)
	st := NewState()
	toBusinessInfo(t, e, st)

	resp, err := e.ProcessInput(context.Background(), st, "please help me, I want to file", nil)
	require.NoError(t, err)

	assert.Equal(t, helpMessage, resp.Message)
	assert.Zero(t, consultant.calls.Load())
	assert.Equal(t, StageBusinessInfo, st.Stage())
}

func TestEngine_Restart(t *testing.T) {
	e := newTestEngine(t, newRegistry(nil), 0)
	st := NewState()
	toBusinessInfo(t, e, st)

	_, err := e.ProcessInput(context.Background(), st, "details", Info{"business_name": "Acme", "business_type": "llc"})
	require.NoError(t, err)
	require.Equal(t, StageIndustrySelection, st.Stage())

	resp, err := e.ProcessInput(context.Background(), st, "restart", Info{"extra": "dropped"})
	require.NoError(t, err)

	assert.Equal(t, restartMessage, resp.Message)
	assert.Equal(t, StageInitial, st.Stage())
	assert.Empty(t, st.Info())
	assert.False(t, st.Has("business_name"))
	assert.Empty(t, st.History())
	assert.Empty(t, st.CurrentAgent())
	assert.Empty(t, st.LastIntent())
}

func TestEngine_BackAtBeginning(t *testing.T) {
	e := newTestEngine(t, newRegistry(nil), 0)
	st := NewState()

	resp, err := e.ProcessInput(context.Background(), st, "back", nil)
	require.NoError(t, err)

	assert.Equal(t, atBeginningMessage, resp.Message)
	assert.Equal(t, StageInitial, st.Stage())
	assert.Empty(t, st.CurrentAgent())
	assert.Empty(t, resp.DelegateTo)
}

func TestEngine_BackIsPositional(t *testing.T) {
	e := newTestEngine(t, newRegistry(nil), 0)
	st := NewState()
	toBusinessInfo(t, e, st)

	_, err := e.ProcessInput(context.Background(), st, "details", Info{
		"business_name": "Acme", "business_type": "service", "industry": "retail",
	})
	require.NoError(t, err)
	require.Equal(t, StageIndustrySelection, st.Stage())

	_, err = e.ProcessInput(context.Background(), st, "more", nil)
	require.NoError(t, err)
	require.Equal(t, StageStateSelection, st.Stage())

	resp, err := e.ProcessInput(context.Background(), st, "go back", nil)
	require.NoError(t, err)
	assert.Equal(t, StageIndustrySelection, st.Stage())
	assert.Equal(t, AgentBusinessConsultant, st.CurrentAgent())
	assert.Equal(t, AgentBusinessConsultant, resp.DelegateTo)
	assert.Contains(t, resp.Message, "Industry Selection")
	assert.Equal(t, "retail", resp.Context.String("industry"))

	_, err = e.ProcessInput(context.Background(), st, "back", nil)
	require.NoError(t, err)
	_, err = e.ProcessInput(context.Background(), st, "back", nil)
	require.NoError(t, err)
	assert.Equal(t, StageInitial, st.Stage())
	assert.Empty(t, st.CurrentAgent())
	assert.True(t, st.Has("industry"), "back keeps collected info")
}

func TestEngine_StatusIsIdempotent(t *testing.T) {
	e := newTestEngine(t, newRegistry(nil), 0)
	st := NewState()

	first, err := e.ProcessInput(context.Background(), st, "status", Info{"business_name": "Acme"})
	require.NoError(t, err)
	second, err := e.ProcessInput(context.Background(), st, "status", nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first.Message, "Initial stage")
	assert.Contains(t, first.Message, "We've collected 1 out of 10")
	require.NotNil(t, first.Visual)
	require.NotNil(t, first.Visual.Progress)
	assert.Equal(t, 0, first.Visual.Progress.Current)
	assert.Equal(t, 9, first.Visual.Progress.Total)
	assert.Equal(t, "COMPLETE", first.Visual.Progress.Stages[8])
	assert.Len(t, st.History(), 4)
}

func TestEngine_AgentFailureLeavesStateUntouched(t *testing.T) {
	boom := errors.New("upstream unavailable")
	failing := AgentFunc(func(context.Context, string, Info) (*AgentResponse, error) {
		return nil, boom
	})
	e := newTestEngine(t, newRegistry(map[string]Agent{AgentBusinessConsultant: failing}), 0)
	st := NewState()
	toBusinessInfo(t, e, st)
	before := st.Snapshot()

	_, err := e.ProcessInput(context.Background(), st, "details",
		Info{"business_name": "Acme", "business_type": "service"})
	require.Error(t, err)

	var agentErr *AgentError
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, AgentBusinessConsultant, agentErr.Agent)
	assert.Equal(t, StageBusinessInfo, agentErr.Stage)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, before, st.Snapshot())
	assert.False(t, st.Has("business_name"))
}

func TestEngine_AgentPanicBecomesError(t *testing.T) {
	panicky := AgentFunc(func(context.Context, string, Info) (*AgentResponse, error) {
		panic("nil map")
	})
	e := newTestEngine(t, newRegistry(map[string]Agent{AgentBusinessConsultant: panicky}), 0)
	st := NewState()
	toBusinessInfo(t, e, st)

	_, err := e.ProcessInput(context.Background(), st, "details", nil)
	var agentErr *AgentError
	require.ErrorAs(t, err, &agentErr)
	assert.ErrorContains(t, err, "agent panic")
}

func TestEngine_AgentTimeout(t *testing.T) {
	hung := AgentFunc(func(ctx context.Context, _ string, _ Info) (*AgentResponse, error) {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return &AgentResponse{Message: "late"}, nil
	})
	e := newTestEngine(t, newRegistry(map[string]Agent{AgentBusinessConsultant: hung}), 20*time.Millisecond)
	st := NewState()
	toBusinessInfo(t, e, st)

	_, err := e.ProcessInput(context.Background(), st, "details", nil)
	assert.ErrorIs(t, err, ErrAgentTimeout)
	assert.Equal(t, StageBusinessInfo, st.Stage())
}

func TestEngine_IntentFallback(t *testing.T) {
	e := newTestEngine(t, newRegistry(nil), 0)
	st := NewState()

	resp, err := e.ProcessInput(context.Background(), st, "compare llc options", nil)
	require.NoError(t, err)

	assert.Equal(t, intentReplies[intent.Comparison].message, resp.Message)
	assert.Equal(t, Actions("Compare Structures", "LLC Advantages"), resp.Actions)
	assert.Equal(t, intent.Comparison, st.LastIntent())
}

func TestIntentResponse(t *testing.T) {
	low := intentResponse(intent.Result{Intent: intent.Cost, Confidence: 0.29}, intent.RecognitionThreshold)
	assert.Equal(t, clarifyMessage, low.Message)
	assert.Empty(t, low.Actions)

	cost := intentResponse(intent.Result{Intent: intent.Cost, Confidence: 0.3}, intent.RecognitionThreshold)
	assert.Equal(t, intentReplies[intent.Cost].message, cost.Message)
	assert.Equal(t, Actions("State-Specific Costs", "Optional Services"), cost.Actions)

	help := intentResponse(intent.Result{Intent: intent.Help, Confidence: 0.84}, intent.RecognitionThreshold)
	assert.Equal(t, defaultIntentMessage, help.Message)
	assert.Equal(t, Actions("Formation Process", "Ask Question"), help.Actions)
}

func TestEngine_StageLookupMissIsFatal(t *testing.T) {
	table, err := NewFlowTable(FlowEntry{Stage: StageComplete, Terminal: true})
	require.NoError(t, err)
	e, err := NewEngine(Config{
		Flow:     table,
		Registry: mapRegistry{},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	st := NewState()
	_, err = e.ProcessInput(context.Background(), st, "hello", Info{"k": "v"})
	assert.ErrorIs(t, err, ErrStageNotFound)
	assert.False(t, st.Has("k"))
	assert.Empty(t, st.History())
}

func TestEngine_CompleteIsTerminal(t *testing.T) {
	table, err := NewFlowTable(FlowEntry{Stage: StageInitial, Next: StageComplete}, FlowEntry{Stage: StageComplete, Terminal: true})
	require.NoError(t, err)
	e, err := NewEngine(Config{
		Flow:     table,
		Registry: mapRegistry{},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	st := NewState()
	for i := 0; i < 3; i++ {
		_, err := e.ProcessInput(context.Background(), st, "hello", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, StageComplete, st.Stage())
	assert.Empty(t, st.CurrentAgent())
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(Config{})
	assert.Error(t, err)

	_, err = NewEngine(Config{Registry: mapRegistry{}})
	assert.ErrorIs(t, err, ErrAgentNotRegistered)
}

func TestEngine_NilState(t *testing.T) {
	e := newTestEngine(t, newRegistry(nil), 0)
	_, err := e.ProcessInput(context.Background(), nil, "hi", nil)
	assert.ErrorIs(t, err, ErrNilState)
}

func TestEngine_InvariantsAcrossTurns(t *testing.T) {
	collector := &countingAgent{
		message: "ok",
		collect: func(input string, _ Info) Info { return Info{input: ""} },
	}
	reg := mapRegistry{}
	for _, name := range DefaultFlowTable().AgentNames() {
		reg[name] = collector
	}
	e := newTestEngine(t, reg, 0)
	st := NewState()

	inputs := []string{
		"hi", "business_name", "business_type", "industry", "back", "industry",
		"state", "status", "licenses", "permits", "articles", "operating_agreement",
		"back", "back", "review_complete", "filing_complete", "anything", "restart", "hi",
	}
	for _, in := range inputs {
		_, err := e.ProcessInput(context.Background(), st, in, nil)
		require.NoError(t, err, in)

		assert.True(t, st.Stage().IsValid())
		entry, err := e.Flow().Lookup(st.Stage())
		require.NoError(t, err)
		if st.CurrentAgent() != "" {
			assert.Equal(t, entry.Agent, st.CurrentAgent(), "after %q", in)
		}
	}
	assert.Equal(t, StageBusinessInfo, st.Stage())
}
