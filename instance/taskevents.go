package instance

import (
	"time"

	coreevent "github.com/project-flogo/core/engine/event"
	"github.com/project-flogo/workflow/model"
	"github.com/project-flogo/workflow/support/event"
)

type taskEvent struct {
	time                        time.Time
	output                      map[string]interface{}
	status                      event.Status
	caseID, taskID, instID, rsn string
}

// Returns case ID
func (te *taskEvent) CaseID() string {
	return te.caseID
}

// Returns task ID
func (te *taskEvent) TaskID() string {
	return te.taskID
}

// Returns task instance id
func (te *taskEvent) InstanceID() string {
	return te.instID
}

// Returns task status
func (te *taskEvent) TaskStatus() event.Status {
	return te.status
}

// Returns event time
func (te *taskEvent) Time() time.Time {
	return te.time
}

// Returns output data for completed instance
func (te *taskEvent) TaskOutput() map[string]interface{} {
	return te.output
}

// Returns why the instance was cancelled
func (te *taskEvent) Reason() string {
	return te.rsn
}

func postTaskEvent(c *Case, kind model.EventKind, ti *TaskInst) {

	if ti != nil && coreevent.HasListener(event.TaskEventType) {
		te := &taskEvent{}
		te.time = c.clock.Now()
		te.caseID = c.id
		te.taskID = ti.task.ID()
		te.instID = ti.id
		te.status = convertTaskEvent(kind)
		te.rsn = ti.reason
		if ti.status == model.TaskStatusCompleted {
			te.output = ti.output
		}
		coreevent.Post(event.TaskEventType, te)
	}
}

func convertTaskEvent(kind model.EventKind) event.Status {
	switch kind {
	case model.EventTaskEnabled:
		return event.ENABLED
	case model.EventTaskFired:
		return event.EXECUTING
	case model.EventInstanceCompleted:
		return event.COMPLETED
	case model.EventInstanceCancelled:
		return event.CANCELLED
	case model.EventTimerExpired:
		return event.EXPIRED
	}
	return event.UNKNOWN
}
