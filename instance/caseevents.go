package instance

import (
	"time"

	coreevent "github.com/project-flogo/core/engine/event"
	"github.com/project-flogo/workflow/model"
	"github.com/project-flogo/workflow/support/event"
	"github.com/project-flogo/workflow/util"
)

type caseEvent struct {
	time           time.Time
	err            error
	vars           map[string]interface{}
	status         event.Status
	caseID, specID string
}

// Returns case ID
func (ce *caseEvent) CaseID() string {
	return ce.caseID
}

// Returns the id of the specification the case runs
func (ce *caseEvent) SpecID() string {
	return ce.specID
}

// Returns event time
func (ce *caseEvent) Time() time.Time {
	return ce.time
}

// Returns current case status
func (ce *caseEvent) CaseStatus() event.Status {
	return ce.status
}

// Returns the case variables
func (ce *caseEvent) Variables() map[string]interface{} {
	return ce.vars
}

// Returns error for failed case
func (ce *caseEvent) CaseError() error {
	return ce.err
}

func postCaseEvent(c *Case, kind model.EventKind) {

	status := convertCaseEvent(kind)
	if status == event.UNKNOWN {
		return
	}

	if coreevent.HasListener(event.CaseEventType) {
		ce := &caseEvent{}
		ce.time = c.clock.Now()
		ce.caseID = c.id
		ce.specID = c.def.ID()
		ce.status = status
		ce.vars = util.DeepCopyMap(c.vars)
		if ce.status == event.FAILED {
			ce.err = c.failure
		}
		coreevent.Post(event.CaseEventType, ce)
	}
}

func convertCaseEvent(kind model.EventKind) event.Status {
	switch kind {
	case model.EventCaseStarted:
		return event.STARTED
	case model.EventCaseSuspended:
		return event.SUSPENDED
	case model.EventCaseResumed:
		return event.RESUMED
	case model.EventCaseStalled:
		return event.STALLED
	case model.EventCaseCompleted:
		return event.COMPLETED
	case model.EventCaseCancelled:
		return event.CANCELLED
	case model.EventCaseFailed:
		return event.FAILED
	}
	return event.UNKNOWN
}
