package workflow

import (
	"context"
	"sync"

	"github.com/project-flogo/core/action"
	"github.com/project-flogo/core/app/resource"
	"github.com/project-flogo/core/data/metadata"
	"github.com/project-flogo/core/support/log"
	"github.com/project-flogo/workflow/support"
)

const ActionRef = "github.com/project-flogo/workflow"

func init() {
	action.Register(&CaseAction{}, &ActionFactory{})
	resource.RegisterLoader(support.ResTypeSpecification, specManager)
}

// specifications loaded as app resources, shared by every CaseAction
var specManager = support.NewProcessManager(nil)

var (
	actionMd       = action.ToMetadata(&ActionSettings{})
	actionExecutor *Executor
	executorOnce   sync.Once
)

// ActionSettings are the settings of a CaseAction
type ActionSettings struct {
	SpecURI string `md:"specURI,required"`
}

// ActionFactory creates CaseActions, all running their cases on one executor
type ActionFactory struct {
}

func (f *ActionFactory) Initialize(ctx action.InitContext) error {
	executorOnce.Do(func() {
		actionExecutor = NewExecutor(
			WithProcessManager(specManager),
			WithLogger(log.ChildLogger(log.RootLogger(), "workflow-action")),
		)
	})
	return nil
}

func (f *ActionFactory) New(config *action.Config) (action.Action, error) {
	settings := &ActionSettings{}
	err := metadata.MapToStruct(config.Settings, settings, true)
	if err != nil {
		return nil, err
	}

	return &CaseAction{specURI: settings.SpecURI}, nil
}

// CaseAction creates and starts a case of its specification for every run.
// The run inputs become the case variables; the output holds the case id.
type CaseAction struct {
	specURI string
}

func (a *CaseAction) Metadata() *action.Metadata {
	return actionMd
}

func (a *CaseAction) IOMetadata() *metadata.IOMetadata {
	return &metadata.IOMetadata{Input: nil, Output: nil}
}

// Run implements action.SyncAction.Run
func (a *CaseAction) Run(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
	caseID, err := actionExecutor.CreateCase(a.specURI, inputs)
	if err != nil {
		return nil, err
	}

	if err = actionExecutor.StartCase(caseID); err != nil {
		return nil, err
	}

	return map[string]interface{}{"caseId": caseID}, nil
}
