package state

import (
	"time"
)

// CaseState is the summary of a case recorded when it starts and when it ends
type CaseState struct {
	CaseId    string    `json:"case_id"`
	SpecId    string    `json:"spec_id"`
	SpecName  string    `json:"spec_name"`
	Status    int       `json:"status"`
	Error     string    `json:"error,omitempty"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}
