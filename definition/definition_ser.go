package definition

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/project-flogo/core/data"
	"github.com/project-flogo/core/data/coerce"
	"github.com/project-flogo/core/support"
	"github.com/project-flogo/core/support/log"
	"github.com/project-flogo/workflow/util"
)

var logger = log.ChildLogger(log.RootLogger(), "workflow-definition")

// DefinitionRep is a serializable representation of a process Definition
type DefinitionRep struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	ModelID string `json:"model,omitempty"`

	Attributes []*data.Attribute `json:"attributes,omitempty"`

	Conditions []*ConditionRep `json:"conditions"`
	Tasks      []*TaskRep      `json:"tasks"`
	Flows      []*FlowRep      `json:"flows"`
}

// ConditionRep is a serializable representation of a condition
type ConditionRep struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
	Terminal bool   `json:"terminal,omitempty"`
}

// TaskRep is a serializable representation of a task
type TaskRep struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Join     string `json:"join,omitempty"`
	Split    string `json:"split,omitempty"`
	Terminal bool   `json:"terminal,omitempty"`

	MultiInstance   *MultiInstanceRep `json:"multiInstance,omitempty"`
	Timer           *TimerRep         `json:"timer,omitempty"`
	CancellationSet []string          `json:"cancels,omitempty"`
}

// MultiInstanceRep is a serializable representation of a multi-instance configuration.
// Bounds are resolved values, numbers or numeric strings.
type MultiInstanceRep struct {
	Minimum         interface{} `json:"minimum"`
	Maximum         interface{} `json:"maximum"`
	Threshold       interface{} `json:"threshold"`
	Creation        string      `json:"creation,omitempty"`
	CancelRemaining bool        `json:"cancelRemaining,omitempty"`
}

// TimerRep is a serializable representation of a timer configuration
type TimerRep struct {
	Trigger  string `json:"trigger,omitempty"`
	Ticks    int64  `json:"ticks,omitempty"`
	Interval string `json:"interval,omitempty"`
	// Expiry is either an RFC3339 timestamp or epoch milliseconds
	Expiry interface{} `json:"expiry,omitempty"`
	Action string      `json:"action,omitempty"`
	Flow   string      `json:"flow,omitempty"`
}

// FlowRep is a serializable representation of a flow
type FlowRep struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Predicate string `json:"predicate,omitempty"`
	Ordering  int    `json:"ordering,omitempty"`
	Default   bool   `json:"default,omitempty"`
}

// ImplicitConditionID returns the id of the condition generated for a task to task flow
func ImplicitConditionID(fromTask, toTask string) string {
	return "c{" + fromTask + "_" + toTask + "}"
}

// NewDefinition creates a process Definition from a serializable
// definition representation
func NewDefinition(rep *DefinitionRep) (def *Definition, err error) {

	defer support.HandlePanic("NewDefinition", &err)

	if rep.ID == "" {
		return nil, errors.New("definition id not specified")
	}

	def = &Definition{}
	def.id = rep.ID
	def.name = rep.Name
	def.modelID = rep.ModelID

	if len(rep.Attributes) > 0 {
		def.attrs = make(map[string]interface{}, len(rep.Attributes))
		for _, attr := range rep.Attributes {
			def.attrs[attr.Name()] = attr.Value()
		}
	}

	validator := util.GetModelValidator(rep.ModelID)
	if validator == nil && rep.ModelID != "" {
		return nil, fmt.Errorf("unsupported process model '%s'", rep.ModelID)
	}

	def.conditions = make(map[string]*Condition)
	def.tasks = make(map[string]*Task)

	for _, condRep := range rep.Conditions {
		cond, err := createCondition(condRep)
		if err != nil {
			return nil, err
		}
		if def.GetElement(cond.id) != nil {
			return nil, fmt.Errorf("duplicate element id '%s'", cond.id)
		}
		def.conditions[cond.id] = cond
		def.condOrder = append(def.condOrder, cond)
	}

	for _, taskRep := range rep.Tasks {
		task, err := createTask(taskRep)
		if err != nil {
			return nil, err
		}
		if def.GetElement(task.id) != nil {
			return nil, fmt.Errorf("duplicate element id '%s'", task.id)
		}
		if validator != nil && !(validator.SupportsJoin(task.join.String()) && validator.SupportsSplit(task.split.String())) {
			return nil, fmt.Errorf("task '%s': model '%s' does not support %s-join/%s-split", task.id, rep.ModelID, task.join, task.split)
		}
		def.tasks[task.id] = task
		def.taskOrder = append(def.taskOrder, task)
	}

	for _, flowRep := range rep.Flows {
		if err := def.createFlow(flowRep); err != nil {
			return nil, err
		}
	}

	for _, task := range def.taskOrder {
		sort.SliceStable(task.outputs, func(i, j int) bool {
			return task.outputs[i].ordering < task.outputs[j].ordering
		})
		if task.join == JoinOr {
			task.upstream = computeUpstream(task)
		}
	}

	return def, nil
}

func createCondition(rep *ConditionRep) (*Condition, error) {
	if rep.ID == "" {
		return nil, errors.New("condition id not specified")
	}

	cond := &Condition{id: rep.ID, name: rep.Name, terminal: rep.Terminal}

	switch strings.ToLower(rep.Type) {
	case "", "intermediate", "condition":
		cond.kind = ConditionIntermediate
	case "input", "start":
		cond.kind = ConditionInput
	case "output", "end":
		cond.kind = ConditionOutput
	default:
		return nil, fmt.Errorf("condition '%s': unsupported type '%s'", rep.ID, rep.Type)
	}

	return cond, nil
}

func createTask(rep *TaskRep) (*Task, error) {
	if rep.ID == "" {
		return nil, errors.New("task id not specified")
	}

	task := &Task{id: rep.ID, name: rep.Name, terminal: rep.Terminal}
	if task.name == "" {
		task.name = rep.ID
	}

	var err error
	task.join, err = ToJoinType(rep.Join)
	if err != nil {
		return nil, fmt.Errorf("task '%s': %s", rep.ID, err.Error())
	}
	task.split, err = ToSplitType(rep.Split)
	if err != nil {
		return nil, fmt.Errorf("task '%s': %s", rep.ID, err.Error())
	}

	if rep.MultiInstance != nil {
		task.mi, err = createMultiInstanceConfig(rep.MultiInstance)
		if err != nil {
			return nil, fmt.Errorf("task '%s': %s", rep.ID, err.Error())
		}
	}

	if rep.Timer != nil {
		task.timer, err = createTimerConfig(rep.Timer)
		if err != nil {
			return nil, fmt.Errorf("task '%s': %s", rep.ID, err.Error())
		}
	}

	if len(rep.CancellationSet) > 0 {
		task.cancellationSet = append([]string(nil), rep.CancellationSet...)
	}

	return task, nil
}

// ToJoinType converts a join type name, "" defaults to Xor
func ToJoinType(s string) (JoinType, error) {
	switch strings.ToLower(s) {
	case "", "xor":
		return JoinXor, nil
	case "and":
		return JoinAnd, nil
	case "or":
		return JoinOr, nil
	}
	return JoinXor, fmt.Errorf("unsupported join type '%s'", s)
}

// ToSplitType converts a split type name, "" defaults to And
func ToSplitType(s string) (SplitType, error) {
	switch strings.ToLower(s) {
	case "", "and":
		return SplitAnd, nil
	case "xor":
		return SplitXor, nil
	case "or":
		return SplitOr, nil
	}
	return SplitAnd, fmt.Errorf("unsupported split type '%s'", s)
}

func createMultiInstanceConfig(rep *MultiInstanceRep) (*MultiInstanceConfig, error) {
	cfg := &MultiInstanceConfig{CancelRemaining: rep.CancelRemaining}

	var err error
	if cfg.Minimum, err = coerce.ToInt(rep.Minimum); err != nil {
		return nil, fmt.Errorf("invalid multi-instance minimum: %s", err.Error())
	}
	if cfg.Maximum, err = coerce.ToInt(rep.Maximum); err != nil {
		return nil, fmt.Errorf("invalid multi-instance maximum: %s", err.Error())
	}
	if rep.Threshold == nil {
		cfg.Threshold = cfg.Maximum
	} else if cfg.Threshold, err = coerce.ToInt(rep.Threshold); err != nil {
		return nil, fmt.Errorf("invalid multi-instance threshold: %s", err.Error())
	}

	switch strings.ToLower(rep.Creation) {
	case "", "static":
		cfg.Creation = CreationStatic
	case "dynamic":
		cfg.Creation = CreationDynamic
	default:
		return nil, fmt.Errorf("unsupported creation mode '%s'", rep.Creation)
	}

	return cfg, nil
}

func createTimerConfig(rep *TimerRep) (*TimerConfig, error) {
	cfg := &TimerConfig{Ticks: rep.Ticks, Flow: rep.Flow}

	switch strings.ToLower(rep.Trigger) {
	case "", "onenabled", "enabled":
		cfg.Trigger = TriggerOnEnabled
	case "onexecuting", "executing":
		cfg.Trigger = TriggerOnExecuting
	default:
		return nil, fmt.Errorf("unsupported timer trigger '%s'", rep.Trigger)
	}

	switch strings.ToLower(rep.Action) {
	case "", "complete":
		cfg.Action = TimeoutComplete
	case "cancel":
		cfg.Action = TimeoutCancel
	default:
		return nil, fmt.Errorf("unsupported timeout action '%s'", rep.Action)
	}

	if rep.Interval != "" {
		interval, err := time.ParseDuration(rep.Interval)
		if err != nil {
			return nil, fmt.Errorf("invalid timer interval: %s", err.Error())
		}
		cfg.Interval = interval
	}

	if rep.Expiry != nil {
		expiry, err := toExpiry(rep.Expiry)
		if err != nil {
			return nil, fmt.Errorf("invalid timer expiry: %s", err.Error())
		}
		cfg.Expiry = expiry
	}

	return cfg, nil
}

func toExpiry(val interface{}) (time.Time, error) {
	if s, ok := val.(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, nil
		}
	}
	millis, err := coerce.ToInt64(val)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(millis).UTC(), nil
}

func (d *Definition) createFlow(rep *FlowRep) error {

	from := d.GetElement(rep.From)
	if from == nil {
		return fmt.Errorf("flow[%s->%s]: source '%s' not found", rep.From, rep.To, rep.From)
	}
	to := d.GetElement(rep.To)
	if to == nil {
		return fmt.Errorf("flow[%s->%s]: target '%s' not found", rep.From, rep.To, rep.To)
	}

	switch src := from.(type) {
	case *Condition:
		task, ok := to.(*Task)
		if !ok {
			return fmt.Errorf("flow[%s->%s]: condition to condition flows are not supported", rep.From, rep.To)
		}
		if rep.Predicate != "" || rep.Default {
			logger.Warnf("Flow [%s->%s]: predicate ignored on a condition to task flow", rep.From, rep.To)
		}
		d.link(src, task, &FlowRep{})
	case *Task:
		switch tgt := to.(type) {
		case *Condition:
			d.link(src, tgt, rep)
		case *Task:
			// tokens only live on conditions, so a task to task flow gets one in between
			condID := ImplicitConditionID(src.id, tgt.id)
			cond := d.conditions[condID]
			if cond == nil {
				cond = &Condition{id: condID, name: condID, kind: ConditionIntermediate, implicit: true}
				d.conditions[condID] = cond
				d.condOrder = append(d.condOrder, cond)
			}
			d.link(src, cond, rep)
			d.link(cond, tgt, &FlowRep{})
		}
	}

	return nil
}

func (d *Definition) link(from, to Element, rep *FlowRep) {
	flow := &Flow{
		id:        len(d.flows),
		source:    from,
		target:    to,
		predicate: rep.Predicate,
		ordering:  rep.Ordering,
		isDefault: rep.Default,
	}
	d.flows = append(d.flows, flow)

	switch e := from.(type) {
	case *Condition:
		e.outputs = append(e.outputs, flow)
	case *Task:
		e.outputs = append(e.outputs, flow)
	}
	switch e := to.(type) {
	case *Condition:
		e.inputs = append(e.inputs, flow)
	case *Task:
		e.inputs = append(e.inputs, flow)
	}
}

// computeUpstream walks backward from every input condition of an Or-join,
// never passing through the join itself
func computeUpstream(join *Task) map[string]*Upstream {
	upstream := make(map[string]*Upstream, len(join.inputs))

	for _, in := range join.inputs {
		start := in.source.(*Condition)
		up := &Upstream{Conditions: make(map[string]struct{}), Tasks: make(map[string]struct{})}

		stack := []Element{start}
		for len(stack) > 0 {
			e := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			switch n := e.(type) {
			case *Condition:
				if up.HasCondition(n.id) {
					continue
				}
				up.Conditions[n.id] = struct{}{}
			case *Task:
				if n == join || up.HasTask(n.id) {
					continue
				}
				up.Tasks[n.id] = struct{}{}
			}
			for _, f := range e.Inputs() {
				stack = append(stack, f.source)
			}
		}

		upstream[start.id] = up
	}

	return upstream
}
