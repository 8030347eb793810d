package state

import (
	"testing"
	"time"

	"github.com/project-flogo/workflow/model"
	"github.com/project-flogo/workflow/state/change"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func createTestSteps() []*Step {
	s0 := &Step{
		Id:     0,
		CaseId: "case",
		CaseChanges: &change.Case{
			NewCase: true,
			SpecID:  "spec",
			Status:  int(model.CaseStatusRunning),
			Attrs:   map[string]interface{}{"x": 5},
			Marking: map[string]int{"i": 1},
		},
		StartTime: t0,
		EndTime:   t0,
	}
	s1 := &Step{
		Id:          1,
		CaseId:      "case",
		CaseChanges: &change.Case{Marking: map[string]int{"i": 1}},
		Instances: map[string]*change.Instance{
			"B#1": {ChgType: change.Add, Seq: 1, TaskID: "B", Index: 1, Status: int(model.TaskStatusEnabled)},
			"A#1": {ChgType: change.Add, Seq: 0, TaskID: "A", Index: 1, Status: int(model.TaskStatusEnabled)},
		},
		Timers:    map[string]*change.Timer{"A#1": {ChgType: change.Add, TaskID: "A", Deadline: t0.Add(time.Minute)}},
		StartTime: t0.Add(time.Second),
		EndTime:   t0.Add(time.Second),
	}
	s2 := &Step{
		Id:     2,
		CaseId: "case",
		CaseChanges: &change.Case{
			Status:  int(model.CaseStatusCompleted),
			Attrs:   map[string]interface{}{"y": "done"},
			Marking: map[string]int{"i": 0, "o": 1},
		},
		Instances: map[string]*change.Instance{
			"A#1": {ChgType: change.Update, Status: int(model.TaskStatusCompleted), Output: map[string]interface{}{"y": "done"}},
			"B#1": {ChgType: change.Update, Status: int(model.TaskStatusCancelled), Reason: "withdrawn"},
		},
		Timers:    map[string]*change.Timer{"A#1": {ChgType: change.Delete}},
		StartTime: t0.Add(2 * time.Second),
		EndTime:   t0.Add(3 * time.Second),
	}

	return []*Step{s0, s1, s2}
}

func TestStepsToSnapshot(t *testing.T) {
	steps := createTestSteps()

	snapshot := StepsToSnapshot("case", steps)
	assert.Equal(t, "spec", snapshot.SpecId)
	assert.Equal(t, model.CaseStatusCompleted, snapshot.Status)
	assert.Equal(t, map[string]int{"o": 1}, snapshot.Marking)
	assert.Equal(t, map[string]interface{}{"x": 5, "y": "done"}, snapshot.Variables)
	assert.Empty(t, snapshot.Timers)
	assert.Equal(t, t0, snapshot.Created)
	assert.Equal(t, t0.Add(3*time.Second), snapshot.Updated)

	require.Len(t, snapshot.Instances, 2)
	assert.Equal(t, "A#1", snapshot.Instances[0].Id)
	assert.Equal(t, model.TaskStatusCompleted, snapshot.Instances[0].Status)
	assert.Equal(t, "withdrawn", snapshot.Instance("B#1").Reason)
	assert.Empty(t, snapshot.Live())
}

func TestStepsToSnapshotPartial(t *testing.T) {
	snapshot := StepsToSnapshot("case", createTestSteps()[:2])

	assert.Equal(t, model.CaseStatusRunning, snapshot.Status)
	assert.Len(t, snapshot.Live(), 2)
	require.Len(t, snapshot.Timers, 1)
	assert.Equal(t, "A#1", snapshot.Timers[0].InstanceId)
	assert.Len(t, snapshot.InstancesOf("B"), 1)
}
