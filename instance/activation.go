package instance

import (
	"fmt"

	"github.com/project-flogo/workflow/definition"
	"github.com/project-flogo/workflow/model"
	"github.com/project-flogo/workflow/state"
	"github.com/project-flogo/workflow/state/change"
	"github.com/project-flogo/workflow/util"
)

// Activation is one firing of a multi-instance task. It owns the instances
// created for that firing and decides when the continuation fires.
type Activation struct {
	id        string
	task      *definition.Task
	status    model.ActivationStatus
	threshold int
	completed int
	instances []*TaskInst
	late      []map[string]interface{}
}

func (a *Activation) ID() string {
	return a.id
}

func (a *Activation) Task() *definition.Task {
	return a.task
}

func (a *Activation) Status() model.ActivationStatus {
	return a.status
}

// Threshold returns the number of completed instances that fires the continuation
func (a *Activation) Threshold() int {
	return a.threshold
}

// Completed returns the number of instances completed before the activation closed
func (a *Activation) Completed() int {
	return a.completed
}

func (a *Activation) live() int {
	n := 0
	for _, ti := range a.instances {
		if ti.status.IsLive() {
			n++
		}
	}
	return n
}

// canGrow returns true if instances can still be added to the activation
func (a *Activation) canGrow() bool {
	mi := a.task.MultiInstance()
	return a.status.AcceptsInstances() && mi.Creation == definition.CreationDynamic && len(a.instances) < mi.Maximum
}

func (a *Activation) snapshot() *state.Activation {
	s := &state.Activation{
		Id:        a.id,
		TaskId:    a.task.ID(),
		Status:    a.status,
		Threshold: a.threshold,
		Completed: a.completed,
		Instances: make([]string, 0, len(a.instances)),
	}
	for _, ti := range a.instances {
		s.Instances = append(s.Instances, ti.id)
	}
	for _, out := range a.late {
		s.Late = append(s.Late, util.DeepCopyMap(out))
	}
	return s
}

// openActivation returns the activation of the task that still accepts instances
func (c *Case) openActivation(taskID string) *Activation {
	for _, act := range c.activations {
		if act.task.ID() == taskID && act.status.AcceptsInstances() {
			return act
		}
	}
	return nil
}

func (c *Case) openActivationOf(taskID string) (*Activation, error) {
	task := c.def.GetTask(taskID)
	if task == nil {
		return nil, c.newError(model.CodeUnknownTask, taskID, "unknown task '%s'", taskID)
	}
	if !task.IsMultiInstance() {
		return nil, c.newError(model.CodeInvalidArgument, taskID, "task '%s' is not a multi-instance task", taskID)
	}

	act := c.openActivation(taskID)
	if act == nil {
		return nil, c.newError(model.CodeMultiInstanceClosed, taskID, "task '%s' has no open activation", taskID)
	}
	return act, nil
}

func (c *Case) growableActivation(taskID string) (*Activation, error) {
	act, err := c.openActivationOf(taskID)
	if err != nil {
		return nil, err
	}

	mi := act.task.MultiInstance()
	if mi.Creation != definition.CreationDynamic {
		return nil, c.newError(model.CodeInvalidArgument, taskID, "task '%s' does not allow dynamic instance creation", taskID)
	}
	if len(act.instances) >= mi.Maximum {
		return nil, c.newError(model.CodeInvalidArgument, taskID, "task '%s' already has the maximum of %d instances", taskID, mi.Maximum)
	}
	return act, nil
}

// fireActivation consumes the join tokens of a multi-instance task and creates
// the instances of a new activation
func (c *Case) fireActivation(task *definition.Task, consume []string) error {
	if err := c.consumeAll(consume); err != nil {
		return err
	}

	mi := task.MultiInstance()

	items, err := c.split(task)
	if err != nil {
		return err
	}

	count := mi.Minimum
	if mi.Creation == definition.CreationStatic && len(items) > count {
		count = min(len(items), mi.Maximum)
	}

	n := 1
	for _, other := range c.activations {
		if other.task == task {
			n++
		}
	}

	act := &Activation{
		id:        fmt.Sprintf("%s@%d", task.ID(), n),
		task:      task,
		status:    model.ActivationOpen,
		threshold: mi.Threshold,
	}
	c.activations = append(c.activations, act)
	c.changes.ActivationChange(change.Add, act)

	if c.logger.DebugEnabled() {
		c.logger.Debugf("Task '%s' fired activation '%s' with %d instances", task.ID(), act.id, count)
	}

	for i := 0; i < count; i++ {
		var input map[string]interface{}
		if i < len(items) {
			input = util.DeepCopyMap(items[i])
		}
		c.enableInstance(task, act, input)
	}

	return nil
}

// instanceDone updates the activation of a multi-instance instance that completed or was cancelled
func (c *Case) instanceDone(ti *TaskInst) error {
	act := ti.activation

	if ti.status == model.TaskStatusCompleted {
		if act.status.AcceptsInstances() {
			act.completed++
			act.status = model.ActivationPartiallyComplete
			c.changes.ActivationChange(change.Update, act)
		} else {
			act.late = append(act.late, ti.output)
			if c.logger.DebugEnabled() {
				c.logger.Debugf("Instance '%s' completed after activation '%s' closed", ti.id, act.id)
			}
		}
	}

	return c.checkActivation(act)
}

func (c *Case) checkActivation(act *Activation) error {
	if act.status.AcceptsInstances() {
		if act.completed >= act.threshold || (act.live() == 0 && !act.canGrow()) {
			return c.closeActivation(act)
		}
		return nil
	}

	if act.status == model.ActivationClosing && act.live() == 0 {
		act.status = model.ActivationClosed
		c.changes.ActivationChange(change.Update, act)
	}
	return nil
}

// closeActivation fires the continuation of an activation: the outputs of the
// completed instances are joined into the case, the remaining instances are
// cancelled if configured, then the task continues like an ordinary one
func (c *Case) closeActivation(act *Activation) error {
	task := act.task

	act.status = model.ActivationClosing
	c.changes.ActivationChange(change.Update, act)

	if act.completed == 0 {
		// nothing to continue with
		c.logger.Warnf("Activation '%s' closed without completed instances", act.id)
		act.status = model.ActivationClosed
		c.changes.ActivationChange(change.Update, act)
		return nil
	}

	ev := c.emit(model.EventThresholdReached, nil, "", act.id)
	ev.TaskID = task.ID()

	outputs := make([]map[string]interface{}, 0, act.completed)
	for _, ti := range act.instances {
		if ti.status == model.TaskStatusCompleted {
			outputs = append(outputs, ti.output)
		}
	}

	joined, err := c.join(task, outputs)
	if err != nil {
		return err
	}
	c.mergeVars(util.DeepCopyMap(joined))

	if task.MultiInstance().CancelRemaining {
		var remaining []*TaskInst
		for _, ti := range act.instances {
			if ti.status.IsLive() {
				remaining = append(remaining, ti)
			}
		}
		c.applyCancellation(task.ID(), ReasonThreshold, nil, remaining)
	}

	if act.live() == 0 {
		act.status = model.ActivationClosed
		c.changes.ActivationChange(change.Update, act)
	}

	own := func(ti *TaskInst) bool { return ti.activation == act }
	return c.continueTask(task, own, nil)
}

// closeActivations closes every activation without continuation
func (c *Case) closeActivations() {
	for _, act := range c.activations {
		if act.status != model.ActivationClosed {
			act.status = model.ActivationClosed
			c.changes.ActivationChange(change.Update, act)
		}
	}
}
