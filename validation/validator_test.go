package validation

import (
	"errors"
	"testing"

	"github.com/project-flogo/workflow/definition"
	"github.com/project-flogo/workflow/model"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDef(t *testing.T, rep *definition.DefinitionRep) *definition.Definition {
	t.Helper()
	def, err := definition.NewDefinition(rep)
	require.NoError(t, err)
	return def
}

func sequenceRep() *definition.DefinitionRep {
	return &definition.DefinitionRep{
		ID:         "seq",
		Conditions: []*definition.ConditionRep{{ID: "i", Type: "input"}, {ID: "o", Type: "output"}},
		Tasks:      []*definition.TaskRep{{ID: "A"}, {ID: "B"}},
		Flows: []*definition.FlowRep{
			{From: "i", To: "A"}, {From: "A", To: "B"}, {From: "B", To: "o"},
		},
	}
}

func kinds(findings []*Finding) []Kind {
	var ks []Kind
	for _, f := range findings {
		ks = append(ks, f.Kind)
	}
	return ks
}

func TestValidateSound(t *testing.T) {
	report := Validate(newDef(t, sequenceRep()))

	assert.Empty(t, report.Findings)
	assert.False(t, report.HasCritical())
	assert.NoError(t, report.Err())
}

func TestValidateGolden(t *testing.T) {
	def := newDef(t, &definition.DefinitionRep{
		ID:         "golden",
		Conditions: []*definition.ConditionRep{{ID: "i", Type: "input"}, {ID: "o", Type: "output"}},
		Tasks: []*definition.TaskRep{
			{ID: "A"}, {ID: "B", Split: "xor"}, {ID: "D"}, {ID: "X"},
		},
		Flows: []*definition.FlowRep{
			{From: "i", To: "A"},
			{From: "A", To: "B"},
			{From: "A", To: "D"},
			{From: "B", To: "A", Predicate: "again", Ordering: 1},
			{From: "B", To: "o", Default: true, Ordering: 2},
			{From: "X", To: "o"},
		},
	})

	report := Validate(def)
	require.True(t, report.HasCritical())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "orphan_deadend_loop", []byte(report.String()))
}

func TestValidateDeterministic(t *testing.T) {
	def := newDef(t, &definition.DefinitionRep{
		ID:         "twice",
		Conditions: []*definition.ConditionRep{{ID: "i", Type: "input"}, {ID: "o", Type: "output"}, {ID: "o2", Type: "output"}},
		Tasks:      []*definition.TaskRep{{ID: "A", Split: "xor"}, {ID: "B"}, {ID: "C", Join: "or"}},
		Flows: []*definition.FlowRep{
			{From: "i", To: "A"}, {From: "A", To: "B"}, {From: "A", To: "C"},
			{From: "B", To: "C"}, {From: "C", To: "A"}, {From: "C", To: "o"},
		},
	})

	first := Validate(def)
	second := Validate(def)
	assert.Equal(t, first, second)
	assert.Equal(t, first.String(), second.String())
}

func TestValidateBoundaryConditions(t *testing.T) {
	rep := sequenceRep()
	rep.Conditions = append(rep.Conditions, &definition.ConditionRep{ID: "i2", Type: "input"})
	rep.Flows = append(rep.Flows, &definition.FlowRep{From: "i2", To: "B"}, &definition.FlowRep{From: "B", To: "i"})

	report := Validate(newDef(t, rep))
	critical := kinds(report.Critical())
	assert.Contains(t, critical, KindInputCondition)
	assert.Contains(t, critical, KindInputHasIncoming)

	err := report.Err()
	assert.True(t, errors.Is(err, model.ErrSpecViolation))
}

func TestValidateXorPredicates(t *testing.T) {
	def := newDef(t, &definition.DefinitionRep{
		ID:         "xor",
		Conditions: []*definition.ConditionRep{{ID: "i", Type: "input"}, {ID: "o", Type: "output"}},
		Tasks:      []*definition.TaskRep{{ID: "A", Split: "xor"}, {ID: "B"}, {ID: "C"}},
		Flows: []*definition.FlowRep{
			{From: "i", To: "A"},
			{From: "A", To: "B"},
			{From: "A", To: "C"},
			{From: "B", To: "o"}, {From: "C", To: "o"},
		},
	})

	report := Validate(def)
	assert.Equal(t, []Kind{KindXorSplitPredicate}, kinds(report.Findings))
	assert.Equal(t, []string{"A"}, report.Findings[0].Elements)
}

func TestValidateDuplicateDefault(t *testing.T) {
	def := newDef(t, &definition.DefinitionRep{
		ID:         "dflt",
		Conditions: []*definition.ConditionRep{{ID: "i", Type: "input"}, {ID: "o", Type: "output"}},
		Tasks:      []*definition.TaskRep{{ID: "A", Split: "or"}, {ID: "B"}, {ID: "C"}},
		Flows: []*definition.FlowRep{
			{From: "i", To: "A"},
			{From: "A", To: "B", Default: true},
			{From: "A", To: "C", Default: true},
			{From: "B", To: "o"}, {From: "C", To: "o"},
		},
	})

	assert.Equal(t, []Kind{KindDuplicateDefault}, kinds(Validate(def).Findings))
}

func TestValidateTerminalElement(t *testing.T) {
	rep := sequenceRep()
	rep.Tasks = append(rep.Tasks, &definition.TaskRep{ID: "Abort", Terminal: true})
	rep.Flows = append(rep.Flows, &definition.FlowRep{From: "A", To: "Abort"})

	assert.Empty(t, Validate(newDef(t, rep)).Findings)

	rep.Tasks[2].Terminal = false
	assert.Equal(t, []Kind{KindDeadEnd}, kinds(Validate(newDef(t, rep)).Findings))
}

func TestValidateTaskConfigs(t *testing.T) {
	rep := sequenceRep()
	rep.Tasks[0].CancellationSet = []string{"nope"}
	rep.Tasks[0].MultiInstance = &definition.MultiInstanceRep{Minimum: 3, Maximum: 2, Threshold: 5}
	rep.Tasks[1].Timer = &definition.TimerRep{Ticks: 1, Interval: "1s", Expiry: "2030-01-01T00:00:00Z", Flow: "A"}

	report := Validate(newDef(t, rep))
	assert.Equal(t, []Kind{KindMultiInstanceBound, KindMultiInstanceBound, KindTimeoutFlow, KindTimerConfig, KindUnknownReference}, kinds(report.Findings))
}

func TestValidateTimer(t *testing.T) {
	rep := sequenceRep()
	rep.Tasks[0].Timer = &definition.TimerRep{Ticks: 2, Interval: "1m", Flow: "B"}
	assert.Empty(t, Validate(newDef(t, rep)).Findings)

	rep.Tasks[0].Timer = &definition.TimerRep{Flow: "o"}
	report := Validate(newDef(t, rep))
	assert.Equal(t, []Kind{KindTimeoutFlow, KindTimerConfig}, kinds(report.Findings))

	// a timed out instance completes into its activation
	rep.Tasks[0].Timer = &definition.TimerRep{Ticks: 2, Interval: "1m", Flow: "B"}
	rep.Tasks[0].MultiInstance = &definition.MultiInstanceRep{Minimum: 1, Maximum: 2, Threshold: 1}
	report = Validate(newDef(t, rep))
	require.Len(t, report.Findings, 1)
	assert.Equal(t, KindTimeoutFlow, report.Findings[0].Kind)
	assert.Equal(t, []string{"A"}, report.Findings[0].Elements)
}

func TestValidateOrJoinInCycle(t *testing.T) {
	def := newDef(t, &definition.DefinitionRep{
		ID:         "orloop",
		Conditions: []*definition.ConditionRep{{ID: "i", Type: "input"}, {ID: "o", Type: "output"}},
		Tasks:      []*definition.TaskRep{{ID: "A", Join: "or"}, {ID: "B", Join: "and", Split: "xor"}},
		Flows: []*definition.FlowRep{
			{From: "i", To: "A"}, {From: "A", To: "B"},
			{From: "B", To: "A", Predicate: "again"}, {From: "B", To: "o", Default: true},
		},
	})

	report := Validate(def)
	assert.False(t, report.HasCritical())
	assert.Equal(t, []Kind{KindOrJoinInCycle}, kinds(report.Warnings()))
}

func TestTarjanSCC(t *testing.T) {
	def := newDef(t, sequenceRep())
	sccs := tarjanSCC(def)

	// acyclic: every element is its own component
	assert.Len(t, sccs, len(def.Elements()))
	for _, scc := range sccs {
		assert.Len(t, scc, 1)
	}
}
