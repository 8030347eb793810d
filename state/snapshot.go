package state

import (
	"time"

	"github.com/project-flogo/workflow/model"
)

// CaseSnapshot is a read-only copy of the state of a case
type CaseSnapshot struct {
	Id     string           `json:"id"`
	SpecId string           `json:"specId"`
	Status model.CaseStatus `json:"status"`

	Marking   map[string]int         `json:"marking"`
	Variables map[string]interface{} `json:"variables,omitempty"`

	Instances     []*TaskInstance `json:"instances,omitempty"`
	Activations   []*Activation   `json:"activations,omitempty"`
	Timers        []*Timer        `json:"timers,omitempty"`
	Cancellations []*Cancellation `json:"cancellations,omitempty"`
	Diagnostics   []*Diagnostic   `json:"diagnostics,omitempty"`

	Error   string    `json:"error,omitempty"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// TaskInstance is the state of one execution of a task
type TaskInstance struct {
	Id           string                 `json:"id"`
	TaskId       string                 `json:"taskId"`
	ActivationId string                 `json:"activationId,omitempty"`
	Index        int                    `json:"index"`
	Status       model.TaskStatus       `json:"status"`
	Input        map[string]interface{} `json:"input,omitempty"`
	Output       map[string]interface{} `json:"output,omitempty"`
	Reason       string                 `json:"reason,omitempty"`
	EnabledAt    time.Time              `json:"enabledAt,omitempty"`
	StartedAt    time.Time              `json:"startedAt,omitempty"`
	EndedAt      time.Time              `json:"endedAt,omitempty"`
}

// Activation is the state of a multi-instance activation
type Activation struct {
	Id        string                 `json:"id"`
	TaskId    string                 `json:"taskId"`
	Status    model.ActivationStatus `json:"status"`
	Threshold int                    `json:"threshold"`
	Completed int                    `json:"completed"`
	Instances []string               `json:"instances"`
	// Late holds the outputs of instances completed after the activation closed
	Late []map[string]interface{} `json:"late,omitempty"`
}

// Timer is an armed deadline of a task instance
type Timer struct {
	InstanceId string    `json:"instanceId"`
	TaskId     string    `json:"taskId"`
	Trigger    string    `json:"trigger"`
	Deadline   time.Time `json:"deadline"`
}

// Cancellation records one atomically applied cancellation region
type Cancellation struct {
	Trigger    string    `json:"trigger"`
	Reason     string    `json:"reason,omitempty"`
	Conditions []string  `json:"conditions,omitempty"`
	Instances  []string  `json:"instances,omitempty"`
	At         time.Time `json:"at"`
}

// Diagnostic describes why a case cannot progress
type Diagnostic struct {
	Code      model.ErrorCode `json:"code"`
	ElementId string          `json:"elementId,omitempty"`
	Message   string          `json:"message"`
	At        time.Time       `json:"at"`
}

// Instance returns the task instance with the specified id
func (s *CaseSnapshot) Instance(id string) *TaskInstance {
	for _, ti := range s.Instances {
		if ti.Id == id {
			return ti
		}
	}
	return nil
}

// InstancesOf returns the instances of the specified task, in creation order
func (s *CaseSnapshot) InstancesOf(taskId string) []*TaskInstance {
	var instances []*TaskInstance
	for _, ti := range s.Instances {
		if ti.TaskId == taskId {
			instances = append(instances, ti)
		}
	}
	return instances
}

// Live returns the instances that are Enabled or Executing
func (s *CaseSnapshot) Live() []*TaskInstance {
	var instances []*TaskInstance
	for _, ti := range s.Instances {
		if ti.Status.IsLive() {
			instances = append(instances, ti)
		}
	}
	return instances
}

// ActivationOf returns the latest activation of the specified multi-instance task
func (s *CaseSnapshot) ActivationOf(taskId string) *Activation {
	var found *Activation
	for _, a := range s.Activations {
		if a.TaskId == taskId {
			found = a
		}
	}
	return found
}
