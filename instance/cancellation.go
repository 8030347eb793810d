package instance

import (
	"sort"

	"github.com/project-flogo/workflow/definition"
	"github.com/project-flogo/workflow/model"
	"github.com/project-flogo/workflow/state"
	"github.com/project-flogo/workflow/state/change"
)

// cancelRegion cancels the elements of a cancellation set as one atomic step:
// the region is computed from the current state, then every live instance of a
// region task is cancelled and every region condition is emptied. Instances
// accepted by exclude are left untouched.
func (c *Case) cancelRegion(trigger string, ids []string, reason string, exclude func(*TaskInst) bool) {
	tasks := make(map[string]bool)
	var conds []string

	for _, id := range ids {
		switch e := c.def.GetElement(id).(type) {
		case *definition.Condition:
			if c.marking[e.ID()] > 0 {
				conds = append(conds, e.ID())
			}
		case *definition.Task:
			tasks[e.ID()] = true
		default:
			c.logger.Warnf("Cancellation set of '%s' references unknown element '%s'", trigger, id)
		}
	}

	insts := c.liveInstances(func(ti *TaskInst) bool {
		return tasks[ti.task.ID()] && (exclude == nil || !exclude(ti))
	})

	c.applyCancellation(trigger, reason, conds, insts)

	for _, act := range c.activations {
		if !tasks[act.task.ID()] {
			continue
		}
		if act.status.AcceptsInstances() || (act.status == model.ActivationClosing && act.live() == 0) {
			act.status = model.ActivationClosed
			c.changes.ActivationChange(change.Update, act)
		}
	}
}

// applyCancellation cancels the specified instances, then empties the specified
// conditions, and records both as one cancellation
func (c *Case) applyCancellation(trigger, reason string, conds []string, insts []*TaskInst) {
	if len(conds) == 0 && len(insts) == 0 {
		return
	}

	record := &state.Cancellation{Trigger: trigger, Reason: reason, At: c.clock.Now()}

	for _, ti := range insts {
		c.cancelInstance(ti, reason)
		record.Instances = append(record.Instances, ti.id)
	}
	for _, id := range conds {
		c.setTokens(id, 0)
		record.Conditions = append(record.Conditions, id)
	}

	sort.Strings(record.Instances)
	sort.Strings(record.Conditions)
	c.cancellations = append(c.cancellations, record)

	elements := append(append([]string(nil), record.Conditions...), record.Instances...)
	ev := c.emit(model.EventRegionCancelled, nil, reason, elements...)
	ev.TaskID = trigger

	if c.logger.DebugEnabled() {
		c.logger.Debugf("Cancelled region of '%s': conditions=%v instances=%v", trigger, record.Conditions, record.Instances)
	}
}

// cancelTask cancels a single live instance
func (c *Case) cancelTask(ti *TaskInst, reason string) error {
	c.cancelInstance(ti, reason)

	if ti.isMultiInstance() {
		return c.checkActivation(ti.activation)
	}
	return nil
}

// cancelInstance cancels a live instance. The marking is left alone: the task
// of a cancelled Enabled instance is suppressed until one of its input
// conditions changes, so other tasks sharing those tokens keep them.
func (c *Case) cancelInstance(ti *TaskInst, reason string) {
	if ti.status == model.TaskStatusEnabled && !ti.isMultiInstance() {
		c.suppressed[ti.task.ID()] = true
	}

	ti.status = model.TaskStatusCancelled
	ti.reason = reason
	ti.endedAt = c.clock.Now()
	if !ti.isMultiInstance() {
		delete(c.current, ti.task.ID())
	}

	c.changes.TaskInstChange(change.Update, ti)
	c.disarmTimer(ti)
	c.emit(model.EventInstanceCancelled, ti, reason)
}

// releaseSuppressed lifts the suppression of the tasks consuming from a condition
func (c *Case) releaseSuppressed(condID string) {
	if len(c.suppressed) == 0 {
		return
	}
	cond, ok := c.def.GetElement(condID).(*definition.Condition)
	if !ok {
		return
	}
	for _, flow := range cond.Outputs() {
		delete(c.suppressed, flow.Target().ID())
	}
}

func (c *Case) cancelCase(reason string) {
	if reason == "" {
		reason = ReasonCancelled
	}

	var conds []string
	for _, cond := range c.def.Conditions() {
		if c.marking[cond.ID()] > 0 {
			conds = append(conds, cond.ID())
		}
	}

	c.applyCancellation("case", reason, conds, c.liveInstances(nil))
	c.closeActivations()
	c.clearTimers()

	c.setStatus(model.CaseStatusCancelled)
	c.emit(model.EventCaseCancelled, nil, reason)
	c.logger.Infof("Case cancelled: %s", reason)
}

// liveInstances returns the live instances accepted by filter, in creation order
func (c *Case) liveInstances(filter func(*TaskInst) bool) []*TaskInst {
	var insts []*TaskInst
	for _, ti := range c.instances {
		if ti.status.IsLive() && (filter == nil || filter(ti)) {
			insts = append(insts, ti)
		}
	}
	return insts
}
