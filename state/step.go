package state

import (
	"time"

	"github.com/project-flogo/workflow/state/change"
)

// Step holds the changes applied to a case by one transition
type Step struct {
	Id          int                           `json:"id"`
	CaseId      string                        `json:"caseId"`
	CaseChanges *change.Case                  `json:"caseChanges,omitempty"`
	Instances   map[string]*change.Instance   `json:"instances,omitempty"`
	Activations map[string]*change.Activation `json:"activations,omitempty"`
	Timers      map[string]*change.Timer      `json:"timers,omitempty"`
	Events      []string                      `json:"events,omitempty"`
	StartTime   time.Time                     `json:"starttime"`
	EndTime     time.Time                     `json:"endtime"`
}

// Empty returns true if the step carries no change
func (s *Step) Empty() bool {
	return s.CaseChanges == nil && len(s.Instances) == 0 && len(s.Activations) == 0 && len(s.Timers) == 0
}
