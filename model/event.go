package model

import "time"

// EventKind enumerates the observable transitions of a case
type EventKind string

const (
	EventCaseStarted   EventKind = "CaseStarted"
	EventCaseCompleted EventKind = "CaseCompleted"
	EventCaseCancelled EventKind = "CaseCancelled"
	EventCaseFailed    EventKind = "CaseFailed"
	EventCaseSuspended EventKind = "CaseSuspended"
	EventCaseResumed   EventKind = "CaseResumed"

	// EventCaseStalled is emitted when a running case has no live work left
	// while its output condition is still unmarked
	EventCaseStalled EventKind = "CaseStalled"

	EventTaskEnabled       EventKind = "TaskEnabled"
	EventTaskFired         EventKind = "TaskFired"
	EventInstanceCompleted EventKind = "InstanceCompleted"
	EventInstanceCancelled EventKind = "InstanceCancelled"
	EventRegionCancelled   EventKind = "RegionCancelled"
	EventTimerExpired      EventKind = "TimerExpired"

	// EventThresholdReached is emitted once per multi-instance activation,
	// when its continuation fires
	EventThresholdReached EventKind = "ThresholdReached"
)

// Event is an observable transition forwarded to telemetry and persistence collaborators
type Event struct {
	ID         string    `json:"id"`
	Kind       EventKind `json:"kind"`
	CaseID     string    `json:"caseId"`
	TaskID     string    `json:"taskId,omitempty"`
	InstanceID string    `json:"instanceId,omitempty"`
	Elements   []string  `json:"elements,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Time       time.Time `json:"time"`
}

// Kinds returns the kinds of the specified events, in order
func Kinds(events []*Event) []EventKind {
	kinds := make([]EventKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}
