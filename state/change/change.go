package change

import "time"

// Type denotes the type of change for an object in a case
type Type int

const (
	// Add denotes an addition
	Add Type = iota
	// Update denotes an update
	Update
	// Delete denotes a deletion
	Delete
)

// Case holds the case level changes of a step
type Case struct {
	NewCase bool                   `json:"newCase,omitempty"`
	SpecID  string                 `json:"specId,omitempty"`
	Status  int                    `json:"status,omitempty"`
	Attrs   map[string]interface{} `json:"attrs,omitempty"`
	// Marking holds the new token count of every condition that changed
	Marking map[string]int `json:"marking,omitempty"`
}

// Instance is a change of a task instance
type Instance struct {
	ChgType      Type                   `json:"change"`
	Seq          int                    `json:"seq,omitempty"`
	TaskID       string                 `json:"taskId,omitempty"`
	ActivationID string                 `json:"activationId,omitempty"`
	Index        int                    `json:"index,omitempty"`
	Status       int                    `json:"status,omitempty"`
	Input        map[string]interface{} `json:"input,omitempty"`
	Output       map[string]interface{} `json:"output,omitempty"`
	Reason       string                 `json:"reason,omitempty"`
}

// Activation is a change of a multi-instance activation
type Activation struct {
	ChgType   Type   `json:"change"`
	TaskID    string `json:"taskId,omitempty"`
	Status    int    `json:"status,omitempty"`
	Threshold int    `json:"threshold,omitempty"`
	Completed int    `json:"completed,omitempty"`
}

// Timer is a change of an armed timer, keyed by task instance
type Timer struct {
	ChgType  Type      `json:"change"`
	TaskID   string    `json:"taskId,omitempty"`
	Deadline time.Time `json:"deadline,omitempty"`
}
