package definition

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/project-flogo/workflow/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	util.RegisterModelValidator("test", &dummyModelValidator{})
}

type dummyModelValidator struct {
}

func (d *dummyModelValidator) SupportsJoin(joinType string) bool {
	return joinType != "or"
}

func (d *dummyModelValidator) SupportsSplit(splitType string) bool {
	return true
}

const defReview = `
{
  "id": "review",
  "name": "Review",
  "attributes": [
    { "name": "x", "type": "int", "value": 5 }
  ],
  "conditions": [
    { "id": "start", "type": "input" },
    { "id": "end", "type": "output" }
  ],
  "tasks": [
    { "id": "A", "split": "xor", "cancels": ["C"] },
    { "id": "B", "timer": { "trigger": "onExecuting", "ticks": 3, "interval": "1s", "action": "cancel" } },
    { "id": "C", "multiInstance": { "minimum": 2, "maximum": "4", "threshold": 3, "creation": "dynamic", "cancelRemaining": true } },
    { "id": "D", "join": "or", "timer": { "expiry": "2030-01-02T03:04:05Z", "flow": "end" } }
  ],
  "flows": [
    { "from": "start", "to": "A" },
    { "from": "A", "to": "C", "default": true, "ordering": 2 },
    { "from": "A", "to": "B", "predicate": "x > 10", "ordering": 1 },
    { "from": "B", "to": "D" },
    { "from": "C", "to": "D" },
    { "from": "D", "to": "end" }
  ]
}
`

func TestNewDefinitionFromJSON(t *testing.T) {
	rep := &DefinitionRep{}
	require.NoError(t, json.Unmarshal([]byte(defReview), rep))

	def, err := NewDefinition(rep)
	require.NoError(t, err)

	assert.Equal(t, "review", def.ID())
	assert.EqualValues(t, 5, def.Attrs()["x"])
	assert.Equal(t, "start", def.InputCondition().ID())
	assert.Equal(t, "end", def.OutputCondition().ID())

	a := def.GetTask("A")
	require.NotNil(t, a)
	assert.Equal(t, SplitXor, a.SplitType())
	assert.Equal(t, JoinXor, a.JoinType())
	assert.Equal(t, []string{"C"}, a.CancellationSet())

	// outputs are sorted by ordering
	require.Len(t, a.Outputs(), 2)
	assert.Equal(t, ImplicitConditionID("A", "B"), a.Outputs()[0].Target().ID())
	assert.Equal(t, "x > 10", a.Outputs()[0].Predicate())
	assert.True(t, a.Outputs()[1].IsDefault())

	b := def.GetTask("B")
	require.NotNil(t, b.Timer())
	assert.Equal(t, TriggerOnExecuting, b.Timer().Trigger)
	assert.Equal(t, TimeoutCancel, b.Timer().Action)
	assert.True(t, b.Timer().IsRelative())
	armed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, armed.Add(3*time.Second), b.Timer().Deadline(armed))

	c := def.GetTask("C")
	require.True(t, c.IsMultiInstance())
	assert.Equal(t, MultiInstanceConfig{Minimum: 2, Maximum: 4, Threshold: 3, Creation: CreationDynamic, CancelRemaining: true}, *c.MultiInstance())

	d := def.GetTask("D")
	assert.Equal(t, JoinOr, d.JoinType())
	assert.False(t, d.Timer().IsRelative())
	assert.Equal(t, time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC), d.Timer().Deadline(armed))
	assert.Equal(t, "end", d.Timer().Flow)
}

func TestImplicitConditions(t *testing.T) {
	rep := &DefinitionRep{}
	require.NoError(t, json.Unmarshal([]byte(defReview), rep))
	def, err := NewDefinition(rep)
	require.NoError(t, err)

	cond := def.GetCondition(ImplicitConditionID("B", "D"))
	require.NotNil(t, cond)
	assert.True(t, cond.Implicit())
	assert.Equal(t, ConditionIntermediate, cond.Kind())
	require.Len(t, cond.Inputs(), 1)
	require.Len(t, cond.Outputs(), 1)
	assert.Equal(t, "B", cond.Inputs()[0].Source().ID())
	assert.Equal(t, "D", cond.Outputs()[0].Target().ID())

	// 2 explicit + A_B, A_C, B_D, C_D
	assert.Len(t, def.Conditions(), 6)
	assert.Len(t, def.Elements(), 10)
}

func TestOrJoinUpstream(t *testing.T) {
	rep := &DefinitionRep{}
	require.NoError(t, json.Unmarshal([]byte(defReview), rep))
	def, err := NewDefinition(rep)
	require.NoError(t, err)

	d := def.GetTask("D")
	up := d.Upstream(ImplicitConditionID("B", "D"))
	require.NotNil(t, up)

	assert.True(t, up.HasTask("B"))
	assert.True(t, up.HasTask("A"))
	assert.False(t, up.HasTask("C"))
	assert.False(t, up.HasTask("D"))
	assert.True(t, up.HasCondition("start"))
	assert.True(t, up.HasCondition(ImplicitConditionID("A", "B")))
	assert.False(t, up.HasCondition(ImplicitConditionID("A", "C")))

	assert.Nil(t, def.GetTask("A").Upstream("start"))
}

func TestOrJoinUpstreamExcludesJoin(t *testing.T) {
	// the walk stops at the join, conditions behind it stay in the region
	rep := &DefinitionRep{
		ID:         "loop",
		Conditions: []*ConditionRep{{ID: "i", Type: "input"}, {ID: "o", Type: "output"}},
		Tasks:      []*TaskRep{{ID: "A"}, {ID: "J", Join: "or", Split: "xor"}},
		Flows: []*FlowRep{
			{From: "i", To: "A"}, {From: "A", To: "J"},
			{From: "J", To: "A", Predicate: "again"}, {From: "J", To: "o", Default: true},
		},
	}
	def, err := NewDefinition(rep)
	require.NoError(t, err)

	up := def.GetTask("J").Upstream(ImplicitConditionID("A", "J"))
	require.NotNil(t, up)
	assert.False(t, up.HasTask("J"))
	assert.True(t, up.HasCondition(ImplicitConditionID("J", "A")), "a token on c{J_A} reaches c{A_J} through A")
	assert.True(t, up.HasTask("A"))
	assert.True(t, up.HasCondition("i"))
}

func TestNewDefinitionErrors(t *testing.T) {
	tests := []struct {
		name string
		rep  *DefinitionRep
	}{
		{"missing id", &DefinitionRep{}},
		{"unknown model", &DefinitionRep{ID: "x", ModelID: "nope"}},
		{"duplicate id", &DefinitionRep{ID: "x", Conditions: []*ConditionRep{{ID: "a"}}, Tasks: []*TaskRep{{ID: "a"}}}},
		{"bad join", &DefinitionRep{ID: "x", Tasks: []*TaskRep{{ID: "a", Join: "nand"}}}},
		{"unsupported by model", &DefinitionRep{ID: "x", ModelID: "test", Tasks: []*TaskRep{{ID: "a", Join: "or"}}}},
		{"bad interval", &DefinitionRep{ID: "x", Tasks: []*TaskRep{{ID: "a", Timer: &TimerRep{Ticks: 1, Interval: "soon"}}}}},
		{"bad bound", &DefinitionRep{ID: "x", Tasks: []*TaskRep{{ID: "a", MultiInstance: &MultiInstanceRep{Minimum: "two", Maximum: 2}}}}},
		{"unknown target", &DefinitionRep{ID: "x", Tasks: []*TaskRep{{ID: "a"}}, Flows: []*FlowRep{{From: "a", To: "b"}}}},
		{"condition to condition", &DefinitionRep{ID: "x", Conditions: []*ConditionRep{{ID: "a"}, {ID: "b"}}, Flows: []*FlowRep{{From: "a", To: "b"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDefinition(tt.rep)
			assert.Error(t, err)
		})
	}
}

func TestExpiryEpochMillis(t *testing.T) {
	def, err := NewDefinition(&DefinitionRep{
		ID:    "x",
		Tasks: []*TaskRep{{ID: "a", Timer: &TimerRep{Expiry: float64(1700000000000)}}},
	})
	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), def.GetTask("a").Timer().Expiry)
}

func TestOutputTo(t *testing.T) {
	rep := &DefinitionRep{}
	require.NoError(t, json.Unmarshal([]byte(defReview), rep))
	def, err := NewDefinition(rep)
	require.NoError(t, err)

	a := def.GetTask("A")
	byTask := a.OutputTo("B")
	require.NotNil(t, byTask)
	assert.Same(t, byTask, a.OutputTo(ImplicitConditionID("A", "B")))
	assert.Same(t, def.GetTask("D").Outputs()[0], def.GetTask("D").OutputTo("end"))
	assert.Nil(t, a.OutputTo("D"))
}
