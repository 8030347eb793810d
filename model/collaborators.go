package model

import (
	"github.com/project-flogo/workflow/definition"
)

// PredicateEvaluator resolves a flow predicate against the case variables.
// The engine only consumes the boolean result.
type PredicateEvaluator interface {
	Evaluate(expr string, vars map[string]interface{}) (bool, error)
}

// PredicateFunc is an adapter to allow the use of ordinary functions as PredicateEvaluators
type PredicateFunc func(expr string, vars map[string]interface{}) (bool, error)

func (f PredicateFunc) Evaluate(expr string, vars map[string]interface{}) (bool, error) {
	return f(expr, vars)
}

// SplittingFunction produces the per-instance input data for the instances of a
// multi-instance activation. Each element of the result seeds one instance.
type SplittingFunction func(task *definition.Task, vars map[string]interface{}) ([]map[string]interface{}, error)

// JoiningFunction folds the outputs of the completed instances of a multi-instance
// activation, in instance creation order, into variables merged into the case.
type JoiningFunction func(task *definition.Task, outputs []map[string]interface{}) (map[string]interface{}, error)

// DefaultJoiningFunction stores the ordered list of instance outputs under the task id
func DefaultJoiningFunction(task *definition.Task, outputs []map[string]interface{}) (map[string]interface{}, error) {
	list := make([]interface{}, len(outputs))
	for i, out := range outputs {
		list[i] = out
	}
	return map[string]interface{}{task.ID(): list}, nil
}
