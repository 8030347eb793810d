package event

import (
	"time"
)

type Status string

const (
	CREATED   = "Created"
	STARTED   = "Started"
	SUSPENDED = "Suspended"
	RESUMED   = "Resumed"
	STALLED   = "Stalled"
	COMPLETED = "Completed"
	CANCELLED = "Cancelled"
	FAILED    = "Failed"
	ENABLED   = "Enabled"
	EXECUTING = "Executing"
	EXPIRED   = "Expired"
	UNKNOWN   = "Unknown"
)

const CaseEventType = "workflow.caseevent"
const TaskEventType = "workflow.taskevent"

// CaseEvent provides access to case lifecycle details
type CaseEvent interface {
	// Returns case ID
	CaseID() string
	// Returns the id of the specification the case runs
	SpecID() string
	// Returns event time
	Time() time.Time
	// Returns current case status
	CaseStatus() Status
	// Returns the case variables
	Variables() map[string]interface{}
	// Returns the failure of a failed case
	CaseError() error
}

// TaskEvent provides access to task instance execution details
type TaskEvent interface {
	// Returns case ID
	CaseID() string
	// Returns task ID
	TaskID() string
	// Returns task instance ID
	InstanceID() string
	// Returns task instance status
	TaskStatus() Status
	// Returns event time
	Time() time.Time
	// Returns the output of a completed instance
	TaskOutput() map[string]interface{}
	// Returns why an instance was cancelled
	Reason() string
}
