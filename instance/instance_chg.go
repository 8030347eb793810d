package instance

import (
	"time"

	"github.com/project-flogo/workflow/model"
	"github.com/project-flogo/workflow/state"
	"github.com/project-flogo/workflow/state/change"
	"github.com/project-flogo/workflow/util"
)

// ChangeTracker is used to track all changes applied to a case by one command
type ChangeTracker struct {
	caseID string
	stepID int

	caseChg     *change.Case
	instChanges map[string]*change.Instance
	actChanges  map[string]*change.Activation
	tmrChanges  map[string]*change.Timer
	events      []string
}

// NewChangeTracker creates a ChangeTracker for the specified case
func NewChangeTracker(caseID string) *ChangeTracker {
	return &ChangeTracker{caseID: caseID}
}

func (ct *ChangeTracker) getCaseChange() *change.Case {
	if ct.caseChg == nil {
		ct.caseChg = &change.Case{}
	}
	return ct.caseChg
}

// CaseCreated is called to track the creation of a case
func (ct *ChangeTracker) CaseCreated(c *Case) {
	cc := ct.getCaseChange()
	cc.NewCase = true
	cc.SpecID = c.def.ID()
	cc.Status = int(c.status)
	for name, value := range c.vars {
		ct.AttrChange(name, value)
	}
}

// SetStatus is called to track a status change of the case
func (ct *ChangeTracker) SetStatus(status model.CaseStatus) {
	ct.getCaseChange().Status = int(status)
}

// AttrChange is called to track a change of a case variable
func (ct *ChangeTracker) AttrChange(name string, value interface{}) {
	cc := ct.getCaseChange()
	if cc.Attrs == nil {
		cc.Attrs = make(map[string]interface{})
	}
	cc.Attrs[name] = util.DeepCopy(value)
}

// MarkingChange is called to track the new token count of a condition
func (ct *ChangeTracker) MarkingChange(condID string, tokens int) {
	cc := ct.getCaseChange()
	if cc.Marking == nil {
		cc.Marking = make(map[string]int)
	}
	cc.Marking[condID] = tokens
}

// TaskInstChange is called to track the addition or an update of a task instance
func (ct *ChangeTracker) TaskInstChange(chgType change.Type, ti *TaskInst) {
	if ct.instChanges == nil {
		ct.instChanges = make(map[string]*change.Instance)
	}

	if prev, exists := ct.instChanges[ti.id]; exists && prev.ChgType == change.Add {
		// an instance added in this step stays an addition
		chgType = change.Add
	}

	chg := &change.Instance{
		ChgType: chgType,
		Seq:     ti.seq,
		TaskID:  ti.task.ID(),
		Index:   ti.index,
		Status:  int(ti.status),
		Input:   util.DeepCopyMap(ti.input),
		Output:  util.DeepCopyMap(ti.output),
		Reason:  ti.reason,
	}
	if ti.activation != nil {
		chg.ActivationID = ti.activation.id
	}
	ct.instChanges[ti.id] = chg
}

// ActivationChange is called to track the addition or an update of a multi-instance activation
func (ct *ChangeTracker) ActivationChange(chgType change.Type, a *Activation) {
	if ct.actChanges == nil {
		ct.actChanges = make(map[string]*change.Activation)
	}

	if prev, exists := ct.actChanges[a.id]; exists && prev.ChgType == change.Add {
		chgType = change.Add
	}

	ct.actChanges[a.id] = &change.Activation{
		ChgType:   chgType,
		TaskID:    a.task.ID(),
		Status:    int(a.status),
		Threshold: a.threshold,
		Completed: a.completed,
	}
}

// TimerArmed is called to track the arming of the timer of a task instance
func (ct *ChangeTracker) TimerArmed(instanceID, taskID string, deadline time.Time) {
	if ct.tmrChanges == nil {
		ct.tmrChanges = make(map[string]*change.Timer)
	}
	ct.tmrChanges[instanceID] = &change.Timer{ChgType: change.Add, TaskID: taskID, Deadline: deadline}
}

// TimerDisarmed is called to track the removal of the timer of a task instance
func (ct *ChangeTracker) TimerDisarmed(instanceID string) {
	if ct.tmrChanges == nil {
		ct.tmrChanges = make(map[string]*change.Timer)
	}
	if prev, exists := ct.tmrChanges[instanceID]; exists && prev.ChgType == change.Add {
		delete(ct.tmrChanges, instanceID)
		return
	}
	ct.tmrChanges[instanceID] = &change.Timer{ChgType: change.Delete}
}

// EventPosted is called to track an event emitted by the case
func (ct *ChangeTracker) EventPosted(kind model.EventKind) {
	ct.events = append(ct.events, string(kind))
}

// ExtractStep returns the changes tracked since the last extraction as a Step.
// If reset is true, tracking starts over with the next step.
func (ct *ChangeTracker) ExtractStep(reset bool) *state.Step {
	step := &state.Step{
		Id:          ct.stepID,
		CaseId:      ct.caseID,
		CaseChanges: ct.caseChg,
		Instances:   ct.instChanges,
		Activations: ct.actChanges,
		Timers:      ct.tmrChanges,
		Events:      ct.events,
	}

	if reset {
		ct.stepID++
		ct.caseChg = nil
		ct.instChanges = nil
		ct.actChanges = nil
		ct.tmrChanges = nil
		ct.events = nil
	}

	return step
}
