package instance

import (
	"fmt"
	"time"

	"github.com/project-flogo/workflow/definition"
	"github.com/project-flogo/workflow/model"
	"github.com/project-flogo/workflow/state"
	"github.com/project-flogo/workflow/util"
)

// TaskInst is one execution of a task within a case. Instances are never
// removed from their case, terminal instances are kept for audit.
type TaskInst struct {
	id         string
	seq        int
	index      int
	task       *definition.Task
	activation *Activation

	status model.TaskStatus
	input  map[string]interface{}
	output map[string]interface{}
	reason string

	enabledAt time.Time
	startedAt time.Time
	endedAt   time.Time
}

func instanceID(taskID string, index int) string {
	return fmt.Sprintf("%s#%d", taskID, index)
}

// ID returns the id of the task instance, unique within its case
func (ti *TaskInst) ID() string {
	return ti.id
}

// Task returns the task this is an instance of
func (ti *TaskInst) Task() *definition.Task {
	return ti.task
}

// Index returns the 1-based index of the instance among the instances of its task
func (ti *TaskInst) Index() int {
	return ti.index
}

func (ti *TaskInst) Status() model.TaskStatus {
	return ti.status
}

// Activation returns the multi-instance activation the instance belongs to, nil
// for an instance of an ordinary task
func (ti *TaskInst) Activation() *Activation {
	return ti.activation
}

func (ti *TaskInst) Input() map[string]interface{} {
	return ti.input
}

func (ti *TaskInst) Output() map[string]interface{} {
	return ti.output
}

// Reason returns why the instance was cancelled
func (ti *TaskInst) Reason() string {
	return ti.reason
}

func (ti *TaskInst) isMultiInstance() bool {
	return ti.activation != nil
}

func (ti *TaskInst) snapshot() *state.TaskInstance {
	s := &state.TaskInstance{
		Id:        ti.id,
		TaskId:    ti.task.ID(),
		Index:     ti.index,
		Status:    ti.status,
		Input:     util.DeepCopyMap(ti.input),
		Output:    util.DeepCopyMap(ti.output),
		Reason:    ti.reason,
		EnabledAt: ti.enabledAt,
		StartedAt: ti.startedAt,
		EndedAt:   ti.endedAt,
	}
	if ti.activation != nil {
		s.ActivationId = ti.activation.id
	}
	return s
}
