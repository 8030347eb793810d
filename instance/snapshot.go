package instance

import (
	"github.com/project-flogo/workflow/state"
	"github.com/project-flogo/workflow/util"
)

// Snapshot returns a read-only copy of the state of the case. Mutating the
// snapshot never affects the case.
func (c *Case) Snapshot() *state.CaseSnapshot {
	cs := &state.CaseSnapshot{
		Id:        c.id,
		SpecId:    c.def.ID(),
		Status:    c.status,
		Marking:   make(map[string]int, len(c.marking)),
		Variables: util.DeepCopyMap(c.vars),
		Created:   c.created,
		Updated:   c.updated,
	}

	for id, tokens := range c.marking {
		cs.Marking[id] = tokens
	}

	if len(c.instances) > 0 {
		cs.Instances = make([]*state.TaskInstance, 0, len(c.instances))
		for _, ti := range c.instances {
			cs.Instances = append(cs.Instances, ti.snapshot())
		}
	}

	for _, act := range c.activations {
		cs.Activations = append(cs.Activations, act.snapshot())
	}

	for _, e := range c.timers.Entries() {
		cs.Timers = append(cs.Timers, &state.Timer{
			InstanceId: e.InstanceID,
			TaskId:     e.TaskID,
			Trigger:    e.Trigger.String(),
			Deadline:   e.Deadline,
		})
	}

	for _, r := range c.cancellations {
		cp := *r
		cp.Conditions = append([]string(nil), r.Conditions...)
		cp.Instances = append([]string(nil), r.Instances...)
		cs.Cancellations = append(cs.Cancellations, &cp)
	}

	for _, d := range c.diagnostics {
		cp := *d
		cs.Diagnostics = append(cs.Diagnostics, &cp)
	}

	if c.failure != nil {
		cs.Error = c.failure.Error()
	}

	return cs
}

// State returns the summary of the case handed to recorders
func (c *Case) State() *state.CaseState {
	cs := &state.CaseState{
		CaseId:    c.id,
		SpecId:    c.def.ID(),
		SpecName:  c.def.Name(),
		Status:    int(c.status),
		StartTime: c.created,
	}
	if c.status.IsTerminal() {
		cs.EndTime = c.updated
	}
	if c.failure != nil {
		cs.Error = c.failure.Error()
	}
	return cs
}
