package definition

import (
	"fmt"
	"time"
)

// Definition is the object that describes a process specification: its
// conditions, tasks and the flows between them. A Definition is immutable
// once created by NewDefinition.
type Definition struct {
	id      string
	name    string
	modelID string

	attrs map[string]interface{}

	conditions map[string]*Condition
	tasks      map[string]*Task

	// definition order, used wherever iteration must be deterministic
	condOrder []*Condition
	taskOrder []*Task
	flows     []*Flow
}

// ID returns the id of the specification
func (d *Definition) ID() string {
	return d.id
}

// Name returns the name of the specification
func (d *Definition) Name() string {
	return d.name
}

// ModelID returns the ID of the process model the definition uses
func (d *Definition) ModelID() string {
	return d.modelID
}

// Attrs returns the default case variables
func (d *Definition) Attrs() map[string]interface{} {
	return d.attrs
}

// InputCondition returns the first input condition of the net
func (d *Definition) InputCondition() *Condition {
	for _, c := range d.condOrder {
		if c.kind == ConditionInput {
			return c
		}
	}
	return nil
}

// OutputCondition returns the first output condition of the net
func (d *Definition) OutputCondition() *Condition {
	for _, c := range d.condOrder {
		if c.kind == ConditionOutput {
			return c
		}
	}
	return nil
}

// GetTask returns the task with the specified ID
func (d *Definition) GetTask(taskID string) *Task {
	return d.tasks[taskID]
}

// GetCondition returns the condition with the specified ID
func (d *Definition) GetCondition(condID string) *Condition {
	return d.conditions[condID]
}

// GetElement returns the task or condition with the specified ID
func (d *Definition) GetElement(id string) Element {
	if t, ok := d.tasks[id]; ok {
		return t
	}
	if c, ok := d.conditions[id]; ok {
		return c
	}
	return nil
}

// Tasks returns the tasks in definition order
func (d *Definition) Tasks() []*Task {
	return d.taskOrder
}

// Conditions returns the conditions in definition order, implicit conditions last
func (d *Definition) Conditions() []*Condition {
	return d.condOrder
}

// Elements returns all conditions followed by all tasks
func (d *Definition) Elements() []Element {
	elements := make([]Element, 0, len(d.condOrder)+len(d.taskOrder))
	for _, c := range d.condOrder {
		elements = append(elements, c)
	}
	for _, t := range d.taskOrder {
		elements = append(elements, t)
	}
	return elements
}

// Flows returns all flows in creation order
func (d *Definition) Flows() []*Flow {
	return d.flows
}

// Element is a node of the process graph, either a Condition or a Task
type Element interface {
	ID() string
	Inputs() []*Flow
	Outputs() []*Flow
	// Terminal is true if the element is an explicit termination point
	Terminal() bool
}

////////////////////////////////////////////////////////////////////////////
// Condition

// ConditionKind is an enum for possible condition kinds
type ConditionKind int

const (
	ConditionIntermediate ConditionKind = iota
	ConditionInput
	ConditionOutput
)

func (k ConditionKind) String() string {
	switch k {
	case ConditionInput:
		return "input"
	case ConditionOutput:
		return "output"
	}
	return "intermediate"
}

// Condition is a place of the net. Tokens only ever live on conditions.
type Condition struct {
	id       string
	name     string
	kind     ConditionKind
	implicit bool
	terminal bool

	inputs  []*Flow
	outputs []*Flow
}

// ID gets the id of the condition
func (c *Condition) ID() string {
	return c.id
}

// Name gets the name of the condition
func (c *Condition) Name() string {
	return c.name
}

// Kind gets the kind of the condition
func (c *Condition) Kind() ConditionKind {
	return c.kind
}

// Implicit returns true if the condition was generated for a task to task flow
func (c *Condition) Implicit() bool {
	return c.implicit
}

func (c *Condition) Terminal() bool {
	return c.terminal
}

// Inputs returns the flows coming from tasks into this condition
func (c *Condition) Inputs() []*Flow {
	return c.inputs
}

// Outputs returns the flows going from this condition to tasks
func (c *Condition) Outputs() []*Flow {
	return c.outputs
}

func (c *Condition) String() string {
	return fmt.Sprintf("Condition[%s]", c.id)
}

////////////////////////////////////////////////////////////////////////////
// Task

// JoinType is an enum for the join semantics of a task
type JoinType int

const (
	JoinXor JoinType = iota
	JoinAnd
	JoinOr
)

func (j JoinType) String() string {
	switch j {
	case JoinAnd:
		return "and"
	case JoinOr:
		return "or"
	}
	return "xor"
}

// SplitType is an enum for the split semantics of a task
type SplitType int

const (
	SplitAnd SplitType = iota
	SplitXor
	SplitOr
)

func (s SplitType) String() string {
	switch s {
	case SplitXor:
		return "xor"
	case SplitOr:
		return "or"
	}
	return "and"
}

// Task is a transition of the net
type Task struct {
	id       string
	name     string
	join     JoinType
	split    SplitType
	terminal bool

	mi              *MultiInstanceConfig
	timer           *TimerConfig
	cancellationSet []string

	inputs  []*Flow
	outputs []*Flow

	// only set for Or-joins, keyed by input condition id
	upstream map[string]*Upstream
}

// ID gets the id of the task
func (t *Task) ID() string {
	return t.id
}

// Name gets the name of the task
func (t *Task) Name() string {
	return t.name
}

// JoinType gets the join semantics of the task
func (t *Task) JoinType() JoinType {
	return t.join
}

// SplitType gets the split semantics of the task
func (t *Task) SplitType() SplitType {
	return t.split
}

func (t *Task) Terminal() bool {
	return t.terminal
}

// MultiInstance returns the multi-instance configuration, nil for ordinary tasks
func (t *Task) MultiInstance() *MultiInstanceConfig {
	return t.mi
}

// IsMultiInstance returns true if the task runs multiple instances per activation
func (t *Task) IsMultiInstance() bool {
	return t.mi != nil
}

// Timer returns the timer configuration, nil if the task has no timer
func (t *Task) Timer() *TimerConfig {
	return t.timer
}

// CancellationSet returns the ids of the elements cancelled when the task completes
func (t *Task) CancellationSet() []string {
	return t.cancellationSet
}

// Inputs returns the flows from the task's input conditions
func (t *Task) Inputs() []*Flow {
	return t.inputs
}

// Outputs returns the flows to the task's output conditions, sorted by ordering
func (t *Task) Outputs() []*Flow {
	return t.outputs
}

// OutputTo returns the outgoing flow leading to the specified element. For a task
// to task flow the target may be named by the downstream task or by the implicit condition.
func (t *Task) OutputTo(id string) *Flow {
	for _, flow := range t.outputs {
		if flow.target.ID() == id {
			return flow
		}
		if cond, ok := flow.target.(*Condition); ok && cond.implicit && cond.ID() == ImplicitConditionID(t.id, id) {
			return flow
		}
	}
	return nil
}

// Upstream returns the static backward-reachable region of an Or-join input condition
func (t *Task) Upstream(condID string) *Upstream {
	if t.upstream == nil {
		return nil
	}
	return t.upstream[condID]
}

func (t *Task) String() string {
	return fmt.Sprintf("Task[%s] '%s'", t.id, t.name)
}

////////////////////////////////////////////////////////////////////////////
// Flow

// Flow is a directed edge between a condition and a task
type Flow struct {
	id        int
	source    Element
	target    Element
	predicate string
	ordering  int
	isDefault bool
}

// ID gets the id of the flow
func (f *Flow) ID() int {
	return f.id
}

// Source returns the element the flow is coming from
func (f *Flow) Source() Element {
	return f.source
}

// Target returns the element the flow is going to
func (f *Flow) Target() Element {
	return f.target
}

// Predicate returns the predicate expression reference, "" if there is none
func (f *Flow) Predicate() string {
	return f.predicate
}

// Ordering returns the evaluation order of the flow within its split
func (f *Flow) Ordering() int {
	return f.ordering
}

// IsDefault returns true if the flow is taken when no predicate of the split matches
func (f *Flow) IsDefault() bool {
	return f.isDefault
}

func (f *Flow) String() string {
	return fmt.Sprintf("Flow[%d] - [from:%s, to:%s]", f.id, f.source.ID(), f.target.ID())
}

////////////////////////////////////////////////////////////////////////////
// Multiple instances & timers

// CreationMode is an enum for the instance creation modes of multi-instance tasks
type CreationMode int

const (
	CreationStatic CreationMode = iota
	CreationDynamic
)

func (m CreationMode) String() string {
	if m == CreationDynamic {
		return "dynamic"
	}
	return "static"
}

// MultiInstanceConfig holds the resolved bounds of a multi-instance task
type MultiInstanceConfig struct {
	Minimum         int
	Maximum         int
	Threshold       int
	Creation        CreationMode
	CancelRemaining bool
}

// TimerTrigger is an enum for the instant at which a task timer is armed
type TimerTrigger int

const (
	TriggerOnEnabled TimerTrigger = iota
	TriggerOnExecuting
)

func (t TimerTrigger) String() string {
	if t == TriggerOnExecuting {
		return "onExecuting"
	}
	return "onEnabled"
}

// TimeoutAction is an enum for what happens to an instance whose timer expires
type TimeoutAction int

const (
	TimeoutComplete TimeoutAction = iota
	TimeoutCancel
)

// TimerConfig describes the deadline of a task instance. Exactly one of
// Ticks/Interval or Expiry is set.
type TimerConfig struct {
	Trigger  TimerTrigger
	Ticks    int64
	Interval time.Duration
	Expiry   time.Time

	Action TimeoutAction
	// Flow optionally names the outgoing flow target taken on timeout
	Flow string
}

// IsRelative returns true if the deadline is relative to the arming instant
func (tc *TimerConfig) IsRelative() bool {
	return tc.Expiry.IsZero()
}

// Deadline returns the absolute deadline for a timer armed at the specified time
func (tc *TimerConfig) Deadline(armedAt time.Time) time.Time {
	if !tc.IsRelative() {
		return tc.Expiry
	}
	return armedAt.Add(time.Duration(tc.Ticks) * tc.Interval)
}

// Upstream is the set of elements from which a condition can still receive a
// token without passing through the join task consuming it.
type Upstream struct {
	Conditions map[string]struct{}
	Tasks      map[string]struct{}
}

// HasCondition returns true if the condition belongs to the upstream region
func (u *Upstream) HasCondition(id string) bool {
	_, ok := u.Conditions[id]
	return ok
}

// HasTask returns true if the task belongs to the upstream region
func (u *Upstream) HasTask(id string) bool {
	_, ok := u.Tasks[id]
	return ok
}
