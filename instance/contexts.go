package instance

import (
	"github.com/project-flogo/core/support"
	"github.com/project-flogo/core/support/log"
	"github.com/project-flogo/workflow/definition"
	"github.com/project-flogo/workflow/model"
)

// joinContext exposes the marking of a case to the join behavior of a task
type joinContext struct {
	c    *Case
	task *definition.Task
}

func (jc *joinContext) Task() *definition.Task {
	return jc.task
}

func (jc *joinContext) Tokens(condID string) int {
	return jc.c.marking[condID]
}

func (jc *joinContext) Pending(condID string) bool {
	return jc.c.canStillBeMarked(jc.task, condID)
}

func (jc *joinContext) Logger() log.Logger {
	return jc.c.logger
}

// splitContext evaluates the outgoing flows of a completing task against a view of the case variables
type splitContext struct {
	c    *Case
	task *definition.Task
	vars map[string]interface{}
}

func (sc *splitContext) Task() *definition.Task {
	return sc.task
}

func (sc *splitContext) Evaluate(flow *definition.Flow) (bool, error) {
	if flow.Predicate() == "" {
		return true, nil
	}
	return sc.c.evaluate(sc.task, flow.Predicate(), sc.vars)
}

func (sc *splitContext) Logger() log.Logger {
	return sc.c.logger
}

// canStillBeMarked returns true if the specified input condition of an Or-join
// can still receive a token: a condition of its upstream region is marked, or
// an upstream task has work in progress.
func (c *Case) canStillBeMarked(join *definition.Task, condID string) bool {
	up := join.Upstream(condID)
	if up == nil {
		return false
	}

	for id := range up.Conditions {
		if c.marking[id] > 0 && c.consumable(id) {
			return true
		}
	}

	for _, ti := range c.instances {
		if !ti.status.IsLive() || !up.HasTask(ti.task.ID()) {
			continue
		}
		if ti.activation == nil || ti.activation.status.AcceptsInstances() {
			return true
		}
	}

	for _, act := range c.activations {
		if act.status.AcceptsInstances() && up.HasTask(act.task.ID()) {
			return true
		}
	}

	return false
}

// consumable returns true if a task that is not suppressed consumes from the condition
func (c *Case) consumable(condID string) bool {
	cond, ok := c.def.GetElement(condID).(*definition.Condition)
	if !ok {
		return false
	}
	for _, flow := range cond.Outputs() {
		if !c.suppressed[flow.Target().ID()] {
			return true
		}
	}
	return false
}

func (c *Case) evaluate(task *definition.Task, expr string, vars map[string]interface{}) (result bool, err error) {
	if c.evaluator == nil {
		return false, c.newError(model.CodeEvaluatorFailure, task.ID(), "no predicate evaluator configured")
	}

	defer func() {
		if err != nil && model.CodeOf(err) == "" {
			err = model.NewError(model.CodeEvaluatorFailure, "predicate '%s'", expr).WithCase(c.id).WithElement(task.ID()).Wrap(err)
		}
	}()
	defer support.HandlePanic("PredicateEvaluator", &err)

	return c.evaluator.Evaluate(expr, vars)
}

func (c *Case) split(task *definition.Task) (items []map[string]interface{}, err error) {
	if c.splitter == nil {
		return nil, nil
	}

	defer func() {
		if err != nil && model.CodeOf(err) == "" {
			err = model.NewError(model.CodeEvaluatorFailure, "splitting function failed").WithCase(c.id).WithElement(task.ID()).Wrap(err)
		}
	}()
	defer support.HandlePanic("SplittingFunction", &err)

	return c.splitter(task, c.readVars())
}

func (c *Case) join(task *definition.Task, outputs []map[string]interface{}) (joined map[string]interface{}, err error) {
	defer func() {
		if err != nil && model.CodeOf(err) == "" {
			err = model.NewError(model.CodeEvaluatorFailure, "joining function failed").WithCase(c.id).WithElement(task.ID()).Wrap(err)
		}
	}()
	defer support.HandlePanic("JoiningFunction", &err)

	return c.joiner(task, outputs)
}
