package simple

import (
	"github.com/project-flogo/workflow/definition"
	"github.com/project-flogo/workflow/model"
)

const (
	ModelName = "workflow-simple"
)

func init() {
	model.Register(New())
}

// New creates the process model with the standard And/Xor/Or join and split behaviors
func New() *model.ProcessModel {
	m := model.New(ModelName)
	m.RegisterJoinBehavior(definition.JoinAnd, &AndJoin{})
	m.RegisterJoinBehavior(definition.JoinXor, &XorJoin{})
	m.RegisterJoinBehavior(definition.JoinOr, &OrJoin{})
	m.RegisterSplitBehavior(definition.SplitAnd, &AndSplit{})
	m.RegisterSplitBehavior(definition.SplitXor, &XorSplit{})
	m.RegisterSplitBehavior(definition.SplitOr, &OrSplit{})

	return m
}
