package instance

import (
	"testing"
	"time"

	"github.com/project-flogo/workflow/definition"
	"github.com/project-flogo/workflow/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// timedDef: i -> A (timer) -> o
func timedDef(t *testing.T, timer *definition.TimerRep) *definition.Definition {
	return newDef(t, &definition.DefinitionRep{
		ID:         "timed",
		Conditions: []*definition.ConditionRep{{ID: "i", Type: "input"}, {ID: "o", Type: "output"}},
		Tasks:      []*definition.TaskRep{{ID: "A", Timer: timer}},
		Flows:      []*definition.FlowRep{{From: "i", To: "A"}, {From: "A", To: "o"}},
	})
}

// timedChoiceDef: i -> A (xor, timer: predicate -> B, default -> C) -> {B, C} -> o
func timedChoiceDef(t *testing.T, predicate string, timer *definition.TimerRep) *definition.Definition {
	return newDef(t, &definition.DefinitionRep{
		ID:         "timed-choice",
		Conditions: []*definition.ConditionRep{{ID: "i", Type: "input"}, {ID: "o", Type: "output"}},
		Tasks:      []*definition.TaskRep{{ID: "A", Split: "xor", Timer: timer}, {ID: "B"}, {ID: "C"}},
		Flows: []*definition.FlowRep{
			{From: "i", To: "A"},
			{From: "A", To: "B", Predicate: predicate, Ordering: 1},
			{From: "A", To: "C", Default: true, Ordering: 2},
			{From: "B", To: "o"},
			{From: "C", To: "o"},
		},
	})
}

func TestTimerOnExecutingNotArmedWhileEnabled(t *testing.T) {
	c, vc := newCase(t, timedDef(t, &definition.TimerRep{Trigger: "onExecuting", Ticks: 1, Interval: "1m"}), nil)
	start(t, c)

	_, armed := c.NextDeadline()
	assert.False(t, armed)

	_, err := c.CancelTask("A#1", "")
	require.NoError(t, err)

	vc.AdvanceBy(2 * time.Minute)
	out, err := c.ProcessTimers(vc.Now())
	require.NoError(t, err)
	assert.Empty(t, eventsOf(out, model.EventTimerExpired))
	assert.Empty(t, c.Snapshot().Timers)
}

func TestTimerOnExecutingFires(t *testing.T) {
	c, _ := newCase(t, timedDef(t, &definition.TimerRep{Trigger: "onExecuting", Ticks: 1, Interval: "1m"}), nil)
	start(t, c)

	_, err := c.StartTask("A#1")
	require.NoError(t, err)

	deadline, armed := c.NextDeadline()
	require.True(t, armed)
	assert.Equal(t, epoch.Add(time.Minute), deadline)

	out, err := c.ProcessTimers(epoch.Add(30 * time.Second))
	require.NoError(t, err)
	assert.Empty(t, out.Events)

	out, err = c.ProcessTimers(deadline)
	require.NoError(t, err)
	assert.Equal(t, []model.EventKind{
		model.EventTimerExpired, model.EventInstanceCompleted, model.EventCaseCompleted,
	}, model.Kinds(out.Events))
	assert.Equal(t, "onExecuting", out.Events[0].Reason)
	assert.Equal(t, model.CaseStatusCompleted, c.Status())

	out, err = c.ProcessTimers(deadline.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, out.Events, "a timer fires at most once")
}

func TestTimerCancelAction(t *testing.T) {
	c, _ := newCase(t, timedDef(t, &definition.TimerRep{Ticks: 10, Interval: "1s", Action: "cancel"}), nil)
	start(t, c)

	deadline, armed := c.NextDeadline()
	require.True(t, armed)
	assert.Equal(t, epoch.Add(10*time.Second), deadline)

	// an onEnabled timer stays armed once the instance executes
	_, err := c.StartTask("A#1")
	require.NoError(t, err)

	out, err := c.ProcessTimers(deadline)
	require.NoError(t, err)
	assert.Equal(t, []model.EventKind{
		model.EventTimerExpired, model.EventInstanceCancelled, model.EventCaseStalled,
	}, model.Kinds(out.Events))
	assert.Equal(t, ReasonTimeout, c.Instance("A#1").Reason())
	assert.Equal(t, model.TaskStatusCancelled, c.Instance("A#1").Status())
}

func TestTimerCompletedInstanceDisarms(t *testing.T) {
	c, _ := newCase(t, timedDef(t, &definition.TimerRep{Ticks: 1, Interval: "1m"}), nil)
	start(t, c)
	require.Len(t, c.Snapshot().Timers, 1)

	complete(t, c, "A#1", nil)
	assert.Empty(t, c.Snapshot().Timers)
	_, armed := c.NextDeadline()
	assert.False(t, armed)
}

func TestTimerTimeoutFlow(t *testing.T) {
	def := timedChoiceDef(t, "approved", &definition.TimerRep{Ticks: 5, Interval: "1s", Flow: "B"})
	c, _ := newCase(t, def, map[string]interface{}{"approved": false})
	start(t, c)

	out, err := c.ProcessTimers(epoch.Add(5 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, []model.EventKind{
		model.EventTimerExpired, model.EventTaskFired, model.EventInstanceCompleted, model.EventTaskEnabled,
	}, model.Kinds(out.Events))
	assert.Equal(t, []string{"B#1"}, liveIDs(c), "the timeout flow overrides the split")
}

func TestTimerTimedOutPredicate(t *testing.T) {
	def := timedChoiceDef(t, "timedOut", &definition.TimerRep{Expiry: "2030-01-01T09:00:00Z"})
	c, _ := newCase(t, def, nil)
	start(t, c)

	deadline, armed := c.NextDeadline()
	require.True(t, armed)
	assert.Equal(t, time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC), deadline.UTC())

	_, err := c.ProcessTimers(deadline)
	require.NoError(t, err)
	assert.Equal(t, []string{"B#1"}, liveIDs(c))
	assert.NotContains(t, c.Snapshot().Variables, "timedOut")

	// without a timeout the default flow is taken
	c, _ = newCase(t, def, nil)
	start(t, c)
	complete(t, c, "A#1", nil)
	assert.Equal(t, []string{"C#1"}, liveIDs(c))
}

func TestTimerHeldWhileSuspended(t *testing.T) {
	c, vc := newCase(t, timedDef(t, &definition.TimerRep{Ticks: 1, Interval: "1m"}), nil)
	start(t, c)

	_, err := c.Suspend()
	require.NoError(t, err)
	_, armed := c.NextDeadline()
	assert.False(t, armed)

	vc.AdvanceBy(5 * time.Minute)
	out, err := c.ProcessTimers(vc.Now())
	require.NoError(t, err)
	assert.Empty(t, out.Events)
	assert.Equal(t, model.TaskStatusEnabled, c.Instance("A#1").Status())

	out, err = c.Resume()
	require.NoError(t, err)
	assert.Equal(t, []model.EventKind{
		model.EventCaseResumed, model.EventTimerExpired,
		model.EventTaskFired, model.EventInstanceCompleted, model.EventCaseCompleted,
	}, model.Kinds(out.Events))
}
