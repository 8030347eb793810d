package simple

import (
	"github.com/project-flogo/workflow/definition"
	"github.com/project-flogo/workflow/model"
)

// AndSplit implements model.SplitBehavior, every outgoing flow receives a token
type AndSplit struct {
}

// Route implements model.SplitBehavior.Route
func (s *AndSplit) Route(ctx model.SplitContext) ([]*definition.Flow, error) {
	return ctx.Task().Outputs(), nil
}

// XorSplit implements model.SplitBehavior. Predicates are evaluated in ordering
// order; the first true flow is taken, else the default flow.
type XorSplit struct {
}

// Route implements model.SplitBehavior.Route
func (s *XorSplit) Route(ctx model.SplitContext) ([]*definition.Flow, error) {
	logger := ctx.Logger()
	task := ctx.Task()

	if len(task.Outputs()) == 0 {
		return nil, nil
	}

	var defaultFlow *definition.Flow

	for _, flow := range task.Outputs() {
		if flow.IsDefault() {
			if defaultFlow == nil {
				defaultFlow = flow
			}
			continue
		}

		follow, err := ctx.Evaluate(flow)
		if err != nil {
			return nil, err
		}

		if logger.DebugEnabled() {
			logger.Debugf("Task '%s': flow to '%s' evaluated to %t", task.ID(), flow.Target().ID(), follow)
		}

		if follow {
			return []*definition.Flow{flow}, nil
		}
	}

	if defaultFlow != nil {
		if logger.DebugEnabled() {
			logger.Debugf("Task '%s': following default flow to '%s'", task.ID(), defaultFlow.Target().ID())
		}
		return []*definition.Flow{defaultFlow}, nil
	}

	return nil, model.NewError(model.CodeNoMatchingFlow, "no predicate of the xor-split matched and there is no default flow").WithElement(task.ID())
}

// OrSplit implements model.SplitBehavior. Every flow with a true predicate is
// taken, the default flow only when none matched.
type OrSplit struct {
}

// Route implements model.SplitBehavior.Route
func (s *OrSplit) Route(ctx model.SplitContext) ([]*definition.Flow, error) {
	task := ctx.Task()

	if len(task.Outputs()) == 0 {
		return nil, nil
	}

	var defaultFlow *definition.Flow
	var routed []*definition.Flow

	for _, flow := range task.Outputs() {
		if flow.IsDefault() {
			if defaultFlow == nil {
				defaultFlow = flow
			}
			continue
		}

		follow, err := ctx.Evaluate(flow)
		if err != nil {
			return nil, err
		}
		if follow {
			routed = append(routed, flow)
		}
	}

	if len(routed) > 0 {
		return routed, nil
	}

	if defaultFlow != nil {
		return []*definition.Flow{defaultFlow}, nil
	}

	return nil, model.NewError(model.CodeNoMatchingFlow, "no predicate of the or-split matched and there is no default flow").WithElement(task.ID())
}
