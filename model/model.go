package model

import (
	"github.com/project-flogo/workflow/definition"
)

// ProcessModel is a named set of join and split behaviors, looked up by the
// join and split types of a task
type ProcessModel struct {
	name           string
	joinBehaviors  map[definition.JoinType]JoinBehavior
	splitBehaviors map[definition.SplitType]SplitBehavior
}

// New creates a new ProcessModel with no behaviors registered
func New(name string) *ProcessModel {
	return &ProcessModel{
		name:           name,
		joinBehaviors:  make(map[definition.JoinType]JoinBehavior),
		splitBehaviors: make(map[definition.SplitType]SplitBehavior),
	}
}

// Name returns the name of the ProcessModel
func (pm *ProcessModel) Name() string {
	return pm.name
}

// RegisterJoinBehavior registers the JoinBehavior used for the specified join type
func (pm *ProcessModel) RegisterJoinBehavior(joinType definition.JoinType, behavior JoinBehavior) {
	pm.joinBehaviors[joinType] = behavior
}

// RegisterSplitBehavior registers the SplitBehavior used for the specified split type
func (pm *ProcessModel) RegisterSplitBehavior(splitType definition.SplitType, behavior SplitBehavior) {
	pm.splitBehaviors[splitType] = behavior
}

// GetJoinBehavior returns the JoinBehavior for the specified join type
func (pm *ProcessModel) GetJoinBehavior(joinType definition.JoinType) JoinBehavior {
	return pm.joinBehaviors[joinType]
}

// GetSplitBehavior returns the SplitBehavior for the specified split type
func (pm *ProcessModel) GetSplitBehavior(splitType definition.SplitType) SplitBehavior {
	return pm.splitBehaviors[splitType]
}

// SupportsJoin implements util.ModelValidator.SupportsJoin
func (pm *ProcessModel) SupportsJoin(joinType string) bool {
	jt, err := definition.ToJoinType(joinType)
	if err != nil {
		return false
	}
	_, exists := pm.joinBehaviors[jt]
	return exists
}

// SupportsSplit implements util.ModelValidator.SupportsSplit
func (pm *ProcessModel) SupportsSplit(splitType string) bool {
	st, err := definition.ToSplitType(splitType)
	if err != nil {
		return false
	}
	_, exists := pm.splitBehaviors[st]
	return exists
}
