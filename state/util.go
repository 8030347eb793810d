package state

import (
	"sort"

	"github.com/project-flogo/workflow/model"
	"github.com/project-flogo/workflow/state/change"
)

// StepsToSnapshot rebuilds the state of a case by replaying its recorded steps in order
func StepsToSnapshot(caseId string, steps []*Step) *CaseSnapshot {

	cs := &CaseSnapshot{Id: caseId, Marking: make(map[string]int)}

	instances := make(map[string]*TaskInstance)
	activations := make(map[string]*Activation)
	timers := make(map[string]*Timer)

	for _, step := range steps {
		if step.CaseChanges != nil {
			UpdateCase(cs, step.CaseChanges)
		}
		if cs.Created.IsZero() {
			cs.Created = step.StartTime
		}
		cs.Updated = step.EndTime

		for _, id := range sortedKeys(step.Instances) {
			UpdateInstance(cs, instances, id, step.Instances[id])
		}
		for _, id := range sortedKeys(step.Activations) {
			UpdateActivation(cs, activations, id, step.Activations[id])
		}
		for id, chg := range step.Timers {
			switch chg.ChgType {
			case change.Delete:
				delete(timers, id)
			default:
				timers[id] = &Timer{InstanceId: id, TaskId: chg.TaskID, Deadline: chg.Deadline}
			}
		}
	}

	seq := creationOrder(steps)
	sort.SliceStable(cs.Instances, func(i, j int) bool {
		return seq[cs.Instances[i].Id] < seq[cs.Instances[j].Id]
	})
	for _, ti := range cs.Instances {
		if a, ok := activations[ti.ActivationId]; ok {
			a.Instances = append(a.Instances, ti.Id)
		}
	}

	for _, t := range timers {
		cs.Timers = append(cs.Timers, t)
	}
	sort.Slice(cs.Timers, func(i, j int) bool {
		return cs.Timers[i].Deadline.Before(cs.Timers[j].Deadline)
	})

	return cs
}

// UpdateCase applies case level changes to a snapshot
func UpdateCase(cs *CaseSnapshot, chg *change.Case) {
	if chg.NewCase {
		cs.SpecId = chg.SpecID
	}
	if chg.Status != 0 || chg.NewCase {
		cs.Status = model.CaseStatus(chg.Status)
	}
	if len(chg.Attrs) > 0 {
		if cs.Variables == nil {
			cs.Variables = make(map[string]interface{}, len(chg.Attrs))
		}
		for name, value := range chg.Attrs {
			cs.Variables[name] = value
		}
	}
	for condId, tokens := range chg.Marking {
		if tokens == 0 {
			delete(cs.Marking, condId)
		} else {
			cs.Marking[condId] = tokens
		}
	}
}

// UpdateInstance applies a task instance change to a snapshot
func UpdateInstance(cs *CaseSnapshot, instances map[string]*TaskInstance, id string, chg *change.Instance) {
	ti, exists := instances[id]
	if !exists {
		ti = &TaskInstance{Id: id}
		instances[id] = ti
		cs.Instances = append(cs.Instances, ti)
	}

	if chg.TaskID != "" {
		ti.TaskId = chg.TaskID
	}
	if chg.ActivationID != "" {
		ti.ActivationId = chg.ActivationID
	}
	if chg.ChgType == change.Add {
		ti.Index = chg.Index
		ti.Input = chg.Input
	}
	if chg.Status != 0 {
		ti.Status = model.TaskStatus(chg.Status)
	}
	if chg.Output != nil {
		ti.Output = chg.Output
	}
	if chg.Reason != "" {
		ti.Reason = chg.Reason
	}
}

// UpdateActivation applies a multi-instance activation change to a snapshot
func UpdateActivation(cs *CaseSnapshot, activations map[string]*Activation, id string, chg *change.Activation) {
	a, exists := activations[id]
	if !exists {
		a = &Activation{Id: id, TaskId: chg.TaskID}
		activations[id] = a
		cs.Activations = append(cs.Activations, a)
	}
	a.Status = model.ActivationStatus(chg.Status)
	a.Threshold = chg.Threshold
	a.Completed = chg.Completed
}

func creationOrder(steps []*Step) map[string]int {
	seq := make(map[string]int)
	for _, step := range steps {
		for id, chg := range step.Instances {
			if chg.ChgType == change.Add {
				seq[id] = chg.Seq
			}
		}
	}
	return seq
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
