package conversation

import (
	"fmt"
)

// FlowEntry describes one stage of the conversation: the facts it must
// collect, the agent that handles it, and the stage that follows it.
type FlowEntry struct {
	Stage        Stage
	Next         Stage
	Terminal     bool // no next stage
	RequiredInfo []string
	Agent        string // empty when no agent is assigned
}

// NextStage returns the following stage, or false for a terminal entry
func (e FlowEntry) NextStage() (Stage, bool) {
	if e.Terminal {
		return e.Stage, false
	}
	return e.Next, true
}

// HasAgent reports whether a delegated agent is assigned to the stage
func (e FlowEntry) HasAgent() bool {
	return e.Agent != ""
}

func (e FlowEntry) clone() FlowEntry {
	out := e
	out.RequiredInfo = append([]string(nil), e.RequiredInfo...)
	return out
}

// FlowTable is the fixed, ordered stage table. It has no mutators; lookups
// return copies.
type FlowTable struct {
	order   []Stage
	entries map[Stage]FlowEntry
	index   map[Stage]int
}

// Agent names used by the default flow table
const (
	AgentBusinessConsultant   = "business_consultant"
	AgentLegalAdvisor         = "legal_advisor"
	AgentComplianceSpecialist = "compliance_specialist"
	AgentDocumentSpecialist   = "document_specialist"
	AgentFilingSpecialist     = "filing_specialist"
)

// DefaultFlowTable returns the LLC formation flow
func DefaultFlowTable() *FlowTable {
	table, err := NewFlowTable(
		FlowEntry{Stage: StageInitial, Next: StageBusinessInfo},
		FlowEntry{
			Stage:        StageBusinessInfo,
			Next:         StageIndustrySelection,
			RequiredInfo: []string{"business_name", "business_type"},
			Agent:        AgentBusinessConsultant,
		},
		FlowEntry{
			Stage:        StageIndustrySelection,
			Next:         StageStateSelection,
			RequiredInfo: []string{"industry"},
			Agent:        AgentBusinessConsultant,
		},
		FlowEntry{
			Stage:        StageStateSelection,
			Next:         StageRequirements,
			RequiredInfo: []string{"state"},
			Agent:        AgentLegalAdvisor,
		},
		FlowEntry{
			Stage:        StageRequirements,
			Next:         StageDocumentation,
			RequiredInfo: []string{"licenses", "permits"},
			Agent:        AgentComplianceSpecialist,
		},
		FlowEntry{
			Stage:        StageDocumentation,
			Next:         StageReview,
			RequiredInfo: []string{"articles", "operating_agreement"},
			Agent:        AgentDocumentSpecialist,
		},
		FlowEntry{
			Stage:        StageReview,
			Next:         StageFiling,
			RequiredInfo: []string{"review_complete"},
			Agent:        AgentLegalAdvisor,
		},
		FlowEntry{
			Stage:        StageFiling,
			Next:         StageComplete,
			RequiredInfo: []string{"filing_complete"},
			Agent:        AgentFilingSpecialist,
		},
		FlowEntry{Stage: StageComplete, Terminal: true},
	)
	if err != nil {
		panic(fmt.Sprintf("default flow table: %v", err))
	}
	return table
}

// NewFlowTable builds a table from entries in definition order. Every stage
// may appear once and every non-terminal Next must name a stage in the table.
func NewFlowTable(entries ...FlowEntry) (*FlowTable, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("flow table: no entries")
	}

	t := &FlowTable{
		order:   make([]Stage, 0, len(entries)),
		entries: make(map[Stage]FlowEntry, len(entries)),
		index:   make(map[Stage]int, len(entries)),
	}

	for _, e := range entries {
		if !e.Stage.IsValid() {
			return nil, fmt.Errorf("flow table: invalid stage %d", int(e.Stage))
		}
		if _, dup := t.entries[e.Stage]; dup {
			return nil, fmt.Errorf("flow table: duplicate stage %s", e.Stage)
		}
		t.index[e.Stage] = len(t.order)
		t.order = append(t.order, e.Stage)
		t.entries[e.Stage] = e.clone()
	}

	for _, e := range t.entries {
		if e.Terminal {
			continue
		}
		if _, ok := t.entries[e.Next]; !ok {
			return nil, fmt.Errorf("flow table: %s points to missing stage %s", e.Stage, e.Next)
		}
	}

	return t, nil
}

// Lookup returns the entry for stage. A miss means the table and the state
// disagree and is reported as ErrStageNotFound.
func (t *FlowTable) Lookup(stage Stage) (FlowEntry, error) {
	e, ok := t.entries[stage]
	if !ok {
		return FlowEntry{}, fmt.Errorf("%w: %s", ErrStageNotFound, stage)
	}
	return e.clone(), nil
}

// Stages returns the stages in table-definition order
func (t *FlowTable) Stages() []Stage {
	return append([]Stage(nil), t.order...)
}

// First returns the first stage in table order
func (t *FlowTable) First() Stage {
	return t.order[0]
}

// Index returns the position of stage in table order
func (t *FlowTable) Index(stage Stage) (int, error) {
	i, ok := t.index[stage]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrStageNotFound, stage)
	}
	return i, nil
}

// Previous returns the stage immediately before stage in table order. The
// boolean is false when stage is the first one.
func (t *FlowTable) Previous(stage Stage) (Stage, bool, error) {
	i, err := t.Index(stage)
	if err != nil {
		return stage, false, err
	}
	if i == 0 {
		return stage, false, nil
	}
	return t.order[i-1], true, nil
}

// TotalRequired is the number of required keys across the whole table
func (t *FlowTable) TotalRequired() int {
	total := 0
	for _, e := range t.entries {
		total += len(e.RequiredInfo)
	}
	return total
}

// AgentNames returns the distinct agent names referenced by the table
func (t *FlowTable) AgentNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, s := range t.order {
		name := t.entries[s].Agent
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
