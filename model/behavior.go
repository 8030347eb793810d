package model

import (
	"github.com/project-flogo/core/support/log"
	"github.com/project-flogo/workflow/definition"
)

// JoinContext is the view of a case that a JoinBehavior is evaluated against
type JoinContext interface {

	// Task returns the task whose join is being evaluated
	Task() *definition.Task

	// Tokens returns the number of tokens on the specified input condition
	Tokens(condID string) int

	// Pending returns true if a token can still arrive on the specified
	// unmarked input condition, ie. its upstream region still holds a token
	// or a live task instance
	Pending(condID string) bool

	Logger() log.Logger
}

// JoinBehavior is the enablement behavior of a task's join.
type JoinBehavior interface {

	// Ready returns true if the join is satisfied by the current marking
	Ready(ctx JoinContext) bool

	// Consume returns the input conditions to take one token from when the
	// task fires. Only called when Ready returned true.
	Consume(ctx JoinContext) []string
}

// SplitContext is the view of a case that a SplitBehavior is evaluated against
type SplitContext interface {

	// Task returns the task whose split is being evaluated
	Task() *definition.Task

	// Evaluate resolves the predicate of an outgoing flow against the case variables.
	// A flow without a predicate evaluates to true.
	Evaluate(flow *definition.Flow) (bool, error)

	Logger() log.Logger
}

// SplitBehavior is the routing behavior of a task's split.
type SplitBehavior interface {

	// Route returns the outgoing flows that receive a token when the task completes.
	// It returns an ErrNoMatchingFlow error when no flow can be taken.
	Route(ctx SplitContext) ([]*definition.Flow, error)
}
