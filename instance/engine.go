package instance

import (
	"errors"

	"github.com/project-flogo/workflow/definition"
	"github.com/project-flogo/workflow/model"
	"github.com/project-flogo/workflow/model/simple"
	"github.com/project-flogo/workflow/state"
	"github.com/project-flogo/workflow/state/change"
	"github.com/project-flogo/workflow/util"
)

const (
	ReasonCancelled = "cancelled"
	ReasonWithdrawn = "withdrawn"
	ReasonTimeout   = "timeout"
	ReasonThreshold = "threshold reached"
)

// settle enables the tasks whose join became ready, then checks whether the case
// completed or stalled
func (c *Case) settle() error {
	if err := c.sweep(); err != nil {
		return err
	}

	if c.status != model.CaseStatusRunning {
		return nil
	}

	if c.outputMarked() {
		c.completeCase()
		return nil
	}

	c.checkStalled()
	return nil
}

// sweep evaluates the joins of every task, in definition order, until no
// instance is enabled or withdrawn anymore
func (c *Case) sweep() error {
	tasks := c.def.Tasks()

	for round := 0; round <= len(tasks)+1; round++ {
		changed := false
		for _, task := range tasks {
			ch, err := c.sweepTask(task)
			if err != nil {
				return err
			}
			changed = changed || ch
		}
		if !changed {
			return nil
		}
	}

	c.logger.Warnf("Enablement did not stabilize after %d rounds", len(tasks)+2)
	return nil
}

func (c *Case) sweepTask(task *definition.Task) (bool, error) {
	if len(task.Inputs()) == 0 {
		return false, nil
	}

	jb := c.pm.GetJoinBehavior(task.JoinType())
	ctx := &joinContext{c: c, task: task}
	ready := jb.Ready(ctx)

	if task.IsMultiInstance() {
		if ready && c.openActivation(task.ID()) == nil {
			return true, c.fireActivation(task, jb.Consume(ctx))
		}
		return false, nil
	}

	cur := c.current[task.ID()]
	switch {
	case cur == nil && ready && !c.suppressed[task.ID()]:
		c.enableInstance(task, nil, nil)
		return true, nil
	case cur != nil && cur.status == model.TaskStatusEnabled && !ready:
		c.withdraw(cur)
		return true, nil
	}
	return false, nil
}

func (c *Case) enableInstance(task *definition.Task, act *Activation, input map[string]interface{}) *TaskInst {
	c.counters[task.ID()]++
	index := c.counters[task.ID()]

	ti := &TaskInst{
		id:         instanceID(task.ID(), index),
		seq:        len(c.instances),
		index:      index,
		task:       task,
		activation: act,
		status:     model.TaskStatusEnabled,
		input:      input,
		enabledAt:  c.clock.Now(),
	}

	c.instances = append(c.instances, ti)
	c.byID[ti.id] = ti
	if act != nil {
		act.instances = append(act.instances, ti)
	} else {
		c.current[task.ID()] = ti
	}
	c.stalled = false

	c.changes.TaskInstChange(change.Add, ti)
	if tc := task.Timer(); tc != nil && tc.Trigger == definition.TriggerOnEnabled {
		c.armTimer(ti)
	}
	c.emit(model.EventTaskEnabled, ti, "")

	return ti
}

func (c *Case) startInstance(ti *TaskInst) error {
	if !ti.isMultiInstance() {
		jb := c.pm.GetJoinBehavior(ti.task.JoinType())
		ctx := &joinContext{c: c, task: ti.task}
		if !jb.Ready(ctx) {
			return c.newError(model.CodeInvalidState, ti.task.ID(), "instance '%s' is no longer enabled", ti.id)
		}
		if err := c.consumeAll(jb.Consume(ctx)); err != nil {
			return err
		}
	}

	ti.status = model.TaskStatusExecuting
	ti.startedAt = c.clock.Now()
	c.changes.TaskInstChange(change.Update, ti)

	if tc := ti.task.Timer(); tc != nil && tc.Trigger == definition.TriggerOnExecuting {
		c.armTimer(ti)
	}
	c.emit(model.EventTaskFired, ti, "")
	return nil
}

// completeInstance completes a live instance. A non-nil timeout holds the timer
// configuration of an instance completed by its deadline.
func (c *Case) completeInstance(ti *TaskInst, outputs map[string]interface{}, timeout *definition.TimerConfig) error {
	if ti.status == model.TaskStatusEnabled {
		if err := c.startInstance(ti); err != nil {
			return err
		}
	}

	ti.status = model.TaskStatusCompleted
	ti.output = util.DeepCopyMap(outputs)
	ti.endedAt = c.clock.Now()
	c.changes.TaskInstChange(change.Update, ti)
	c.disarmTimer(ti)
	c.emit(model.EventInstanceCompleted, ti, "")

	if ti.isMultiInstance() {
		return c.instanceDone(ti)
	}

	delete(c.current, ti.task.ID())
	c.mergeVars(ti.output)

	return c.continueTask(ti.task, func(other *TaskInst) bool { return other == ti }, timeout)
}

// continueTask applies the cancellation set of a task that finished, then routes
// its split and produces the tokens of the chosen flows
func (c *Case) continueTask(task *definition.Task, exclude func(*TaskInst) bool, timeout *definition.TimerConfig) error {
	if len(task.CancellationSet()) > 0 {
		c.cancelRegion(task.ID(), task.CancellationSet(), "cancelled by "+task.ID(), exclude)
	}

	flows, err := c.route(task, timeout)
	if err != nil {
		return err
	}

	for _, flow := range flows {
		c.produce(flow.Target().ID())
	}
	return nil
}

func (c *Case) route(task *definition.Task, timeout *definition.TimerConfig) ([]*definition.Flow, error) {
	if timeout != nil && timeout.Flow != "" {
		flow := task.OutputTo(timeout.Flow)
		if flow == nil {
			return nil, c.newError(model.CodeNoMatchingFlow, task.ID(), "timeout flow '%s' is not an outgoing flow", timeout.Flow)
		}
		return []*definition.Flow{flow}, nil
	}

	vars := c.readVars()
	if timeout != nil {
		vars["timedOut"] = true
	}

	sb := c.pm.GetSplitBehavior(task.SplitType())
	flows, err := sb.Route(&splitContext{c: c, task: task, vars: vars})
	if err != nil {
		var ee *model.EngineError
		if errors.As(err, &ee) && ee.CaseID == "" {
			err = ee.WithCase(c.id)
		}
		return nil, err
	}

	if c.logger.DebugEnabled() {
		for _, flow := range flows {
			c.logger.Debugf("Task '%s' routed to '%s'", task.ID(), flow.Target().ID())
		}
	}
	return flows, nil
}

func (c *Case) withdraw(ti *TaskInst) {
	ti.status = model.TaskStatusCancelled
	ti.reason = ReasonWithdrawn
	ti.endedAt = c.clock.Now()
	delete(c.current, ti.task.ID())
	c.changes.TaskInstChange(change.Update, ti)
	c.disarmTimer(ti)
	c.emit(model.EventInstanceCancelled, ti, ReasonWithdrawn)
}

func (c *Case) outputMarked() bool {
	out := c.def.OutputCondition()
	return out != nil && c.marking[out.ID()] > 0
}

func (c *Case) produce(condID string) {
	c.setTokens(condID, c.marking[condID]+1)
}

func (c *Case) consume(condID string) error {
	n := c.marking[condID]
	if n <= 0 {
		return c.newError(model.CodeNegativeToken, condID, "condition '%s' has no token to consume", condID)
	}
	c.setTokens(condID, n-1)
	return nil
}

func (c *Case) consumeAll(condIDs []string) error {
	for _, id := range condIDs {
		if err := c.consume(id); err != nil {
			return err
		}
	}
	return nil
}

func (c *Case) setTokens(condID string, tokens int) {
	if tokens == 0 {
		delete(c.marking, condID)
	} else {
		c.marking[condID] = tokens
	}
	c.releaseSuppressed(condID)
	c.stalled = false
	c.changes.MarkingChange(condID, tokens)
}

func (c *Case) mergeVars(vars map[string]interface{}) {
	for name, value := range vars {
		c.vars[name] = value
		c.changes.AttrChange(name, value)
	}
}

// readVars returns a shallow copy of the case variables for collaborators to read
func (c *Case) readVars() map[string]interface{} {
	vars := make(map[string]interface{}, len(c.vars)+1)
	for name, value := range c.vars {
		vars[name] = value
	}
	return vars
}

func (c *Case) completeCase() {
	out := c.def.OutputCondition().ID()

	var conds []string
	for _, cond := range c.def.Conditions() {
		if cond.ID() != out && c.marking[cond.ID()] > 0 {
			conds = append(conds, cond.ID())
		}
	}
	c.applyCancellation("case", "case completed", conds, c.liveInstances(nil))
	c.closeActivations()
	c.clearTimers()

	c.setStatus(model.CaseStatusCompleted)
	c.emit(model.EventCaseCompleted, nil, "")
	c.logger.Infof("Case completed")
}

func (c *Case) fail(err error) {
	c.failure = err

	var elementID string
	var ee *model.EngineError
	if errors.As(err, &ee) {
		elementID = ee.ElementID
	}
	c.diagnostics = append(c.diagnostics, &state.Diagnostic{
		Code:      model.CodeOf(err),
		ElementId: elementID,
		Message:   err.Error(),
		At:        c.clock.Now(),
	})

	c.clearTimers()
	c.setStatus(model.CaseStatusFailed)
	c.emit(model.EventCaseFailed, nil, err.Error())
	c.logger.Errorf("Case failed: %v", err)
}

// checkStalled records why a running case whose output condition is unmarked
// has no work left. It reports once until the case changes again.
func (c *Case) checkStalled() {
	for _, ti := range c.instances {
		if ti.status.IsLive() {
			return
		}
	}
	for _, act := range c.activations {
		if act.canGrow() {
			return
		}
	}

	if c.stalled {
		return
	}
	c.stalled = true

	now := c.clock.Now()
	var diags []*state.Diagnostic

	for _, task := range c.def.Tasks() {
		if task.JoinType() != definition.JoinOr || len(task.Inputs()) == 0 {
			continue
		}
		if simple.Starved(&joinContext{c: c, task: task}) {
			continue
		}
		diags = append(diags, &state.Diagnostic{
			Code:      model.CodeOrJoinStarvation,
			ElementId: task.ID(),
			Message:   "or-join waits for tokens that can no longer arrive",
			At:        now,
		})
	}

	if len(diags) == 0 {
		diags = append(diags, &state.Diagnostic{
			Code:    model.CodeDeadlock,
			Message: "no task can be enabled and the output condition is not marked",
			At:      now,
		})
	}

	c.diagnostics = append(c.diagnostics, diags...)

	var elements []string
	for _, d := range diags {
		if d.ElementId != "" {
			elements = append(elements, d.ElementId)
		}
	}
	c.emit(model.EventCaseStalled, nil, string(diags[0].Code), elements...)
	c.logger.Warnf("Case stalled: %s", diags[0].Message)
}
