package model

type CaseStatus int
type TaskStatus int
type ActivationStatus int

const (
	// CaseStatusCreated indicates that the Case has been created but not started
	CaseStatusCreated CaseStatus = 0

	// CaseStatusRunning indicates that the Case is running
	CaseStatusRunning CaseStatus = 100

	// CaseStatusSuspended indicates that the Case has been suspended
	CaseStatusSuspended CaseStatus = 200

	// CaseStatusCompleted indicates that the Case reached its output condition
	CaseStatusCompleted CaseStatus = 500

	// CaseStatusCancelled indicates that the Case has been cancelled
	CaseStatusCancelled CaseStatus = 600

	// CaseStatusFailed indicates that the Case has failed and is frozen
	CaseStatusFailed CaseStatus = 700

	// TaskStatusNotEnabled indicates that the task instance is not enabled
	TaskStatusNotEnabled TaskStatus = 0

	// TaskStatusEnabled indicates that the task instance is enabled but not started
	TaskStatusEnabled TaskStatus = 10

	// TaskStatusExecuting indicates that the task instance has fired and is executing
	TaskStatusExecuting TaskStatus = 20

	// TaskStatusCompleted indicates that the task instance completed
	TaskStatusCompleted TaskStatus = 40

	// TaskStatusCancelled indicates that the task instance was cancelled or withdrawn
	TaskStatusCancelled TaskStatus = 50

	// TaskStatusFailed indicates that the task instance failed
	TaskStatusFailed TaskStatus = 100

	// ActivationOpen indicates that no instance of the activation has completed yet
	ActivationOpen ActivationStatus = 0

	// ActivationPartiallyComplete indicates that some, but not enough, instances completed
	ActivationPartiallyComplete ActivationStatus = 1

	// ActivationClosing indicates that the threshold was reached and continuation fired
	ActivationClosing ActivationStatus = 2

	// ActivationClosed indicates that no instance of the activation is live anymore
	ActivationClosed ActivationStatus = 3
)

// IsTerminal returns true if the case can no longer change
func (s CaseStatus) IsTerminal() bool {
	return s == CaseStatusCompleted || s == CaseStatusCancelled || s == CaseStatusFailed
}

func (s CaseStatus) String() string {
	switch s {
	case CaseStatusCreated:
		return "Created"
	case CaseStatusRunning:
		return "Running"
	case CaseStatusSuspended:
		return "Suspended"
	case CaseStatusCompleted:
		return "Completed"
	case CaseStatusCancelled:
		return "Cancelled"
	case CaseStatusFailed:
		return "Failed"
	}
	return "Unknown"
}

// IsTerminal returns true if the task instance reached a final state
func (s TaskStatus) IsTerminal() bool {
	return s >= TaskStatusCompleted
}

// IsLive returns true if the task instance is enabled or executing
func (s TaskStatus) IsLive() bool {
	return s == TaskStatusEnabled || s == TaskStatusExecuting
}

func (s TaskStatus) String() string {
	switch s {
	case TaskStatusNotEnabled:
		return "NotEnabled"
	case TaskStatusEnabled:
		return "Enabled"
	case TaskStatusExecuting:
		return "Executing"
	case TaskStatusCompleted:
		return "Completed"
	case TaskStatusCancelled:
		return "Cancelled"
	case TaskStatusFailed:
		return "Failed"
	}
	return "Unknown"
}

// AcceptsInstances returns true if instances can still be added or the threshold changed
func (s ActivationStatus) AcceptsInstances() bool {
	return s == ActivationOpen || s == ActivationPartiallyComplete
}

func (s ActivationStatus) String() string {
	switch s {
	case ActivationOpen:
		return "Open"
	case ActivationPartiallyComplete:
		return "PartiallyComplete"
	case ActivationClosing:
		return "Closing"
	case ActivationClosed:
		return "Closed"
	}
	return "Unknown"
}
