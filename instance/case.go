package instance

import (
	"time"

	"github.com/google/uuid"
	"github.com/project-flogo/core/support/log"
	"github.com/project-flogo/workflow/clock"
	"github.com/project-flogo/workflow/definition"
	"github.com/project-flogo/workflow/model"
	"github.com/project-flogo/workflow/state"
	"github.com/project-flogo/workflow/state/change"
	"github.com/project-flogo/workflow/timer"
	"github.com/project-flogo/workflow/util"
)

// Config holds the collaborators of a case
type Config struct {
	Clock     clock.Clock
	Evaluator model.PredicateEvaluator
	Splitter  model.SplittingFunction
	Joiner    model.JoiningFunction
	Recorder  state.Recorder
	Mode      state.RecordingMode
	Logger    log.Logger
}

// OutcomeStatus tells whether a command changed the case
type OutcomeStatus int

const (
	// OutcomeApplied indicates that the command was applied
	OutcomeApplied OutcomeStatus = iota
	// OutcomeAlreadyTerminal indicates a benign no-op against a finished task instance
	OutcomeAlreadyTerminal
)

func (s OutcomeStatus) String() string {
	if s == OutcomeAlreadyTerminal {
		return "AlreadyTerminal"
	}
	return "Applied"
}

// Outcome is the result of a command applied to a case
type Outcome struct {
	Status OutcomeStatus
	// InstanceID is set by commands that address or create a task instance
	InstanceID string
	// Events holds the events emitted while applying the command, in order
	Events []*model.Event
}

// Case is a running instance of a specification. A Case is not safe for
// concurrent use, its owner serializes the commands applied to it.
type Case struct {
	id     string
	def    *definition.Definition
	pm     *model.ProcessModel
	status model.CaseStatus

	marking map[string]int
	vars    map[string]interface{}

	instances   []*TaskInst
	byID        map[string]*TaskInst
	current     map[string]*TaskInst
	counters    map[string]int
	activations []*Activation

	// tasks whose Enabled instance was cancelled, not enabled again until an
	// input condition changes
	suppressed map[string]bool

	timers        *timer.Scheduler
	cancellations []*state.Cancellation
	diagnostics   []*state.Diagnostic
	failure       error
	stalled       bool

	clock     clock.Clock
	evaluator model.PredicateEvaluator
	splitter  model.SplittingFunction
	joiner    model.JoiningFunction

	changes  *ChangeTracker
	recorder state.Recorder
	mode     state.RecordingMode
	logger   log.Logger

	emitted []*model.Event
	created time.Time
	updated time.Time
}

// New creates a Case of the specified definition. The process model defaults to
// the model named by the definition.
func New(id string, def *definition.Definition, pm *model.ProcessModel, vars map[string]interface{}, cfg Config) (*Case, error) {
	if pm == nil {
		var err error
		pm, err = model.Get(def.ModelID())
		if err != nil {
			return nil, model.ErrUnknownSpecification.Wrap(err).WithCase(id)
		}
	}

	c := &Case{
		id:         id,
		def:        def,
		pm:         pm,
		status:     model.CaseStatusCreated,
		marking:    make(map[string]int),
		vars:       make(map[string]interface{}),
		byID:       make(map[string]*TaskInst),
		current:    make(map[string]*TaskInst),
		counters:   make(map[string]int),
		suppressed: make(map[string]bool),
		timers:     timer.NewScheduler(),
		clock:      cfg.Clock,
		evaluator:  cfg.Evaluator,
		splitter:   cfg.Splitter,
		joiner:     cfg.Joiner,
		recorder:   cfg.Recorder,
		mode:       cfg.Mode,
	}

	if c.clock == nil {
		c.clock = clock.RealClock{}
	}
	if c.joiner == nil {
		c.joiner = model.DefaultJoiningFunction
	}
	if c.recorder == nil {
		c.mode = state.RecordingModeOff
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.ChildLogger(log.RootLogger(), "workflow")
	}
	c.logger = log.ChildLoggerWithFields(logger, log.FieldString("specId", def.ID()), log.FieldString("caseId", id))

	for name, value := range def.Attrs() {
		c.vars[name] = util.DeepCopy(value)
	}
	for name, value := range vars {
		c.vars[name] = util.DeepCopy(value)
	}

	c.created = c.clock.Now()
	c.updated = c.created

	c.changes = NewChangeTracker(id)
	c.changes.CaseCreated(c)

	return c, nil
}

func (c *Case) ID() string {
	return c.id
}

// Definition returns the specification the case runs
func (c *Case) Definition() *definition.Definition {
	return c.def
}

func (c *Case) Status() model.CaseStatus {
	return c.status
}

// Failure returns the error that moved the case to Failed
func (c *Case) Failure() error {
	return c.failure
}

// Tokens returns the number of tokens in the specified condition
func (c *Case) Tokens(condID string) int {
	return c.marking[condID]
}

// Instance returns the task instance with the specified id
func (c *Case) Instance(instanceID string) *TaskInst {
	return c.byID[instanceID]
}

// Instances returns every task instance of the case, in creation order
func (c *Case) Instances() []*TaskInst {
	return c.instances
}

// Start marks the input condition and runs the case until it settles
func (c *Case) Start() (*Outcome, error) {
	if c.status != model.CaseStatusCreated {
		return nil, c.newError(model.CodeInvalidState, "", "case has already been started")
	}

	in := c.def.InputCondition()
	if in == nil {
		return nil, c.newError(model.CodeSpecViolation, "", "specification has no input condition")
	}

	c.recordStart()

	return c.apply(func() error {
		c.setStatus(model.CaseStatusRunning)
		c.emit(model.EventCaseStarted, nil, "")
		c.produce(in.ID())
		return nil
	})
}

// StartTask moves an Enabled instance to Executing, consuming the tokens of its join
func (c *Case) StartTask(instanceID string) (*Outcome, error) {
	ti, err := c.liveInstance(instanceID)
	if err != nil {
		return nil, err
	}
	if ti == nil {
		return c.terminalOutcome(instanceID), nil
	}

	if ti.status == model.TaskStatusExecuting {
		return nil, c.newError(model.CodeInvalidState, ti.task.ID(), "instance '%s' is already executing", instanceID)
	}

	out, err := c.apply(func() error {
		return c.startInstance(ti)
	})
	if out != nil {
		out.InstanceID = instanceID
	}
	return out, err
}

// CompleteTask completes a live instance with the specified outputs. An Enabled
// instance is started first.
func (c *Case) CompleteTask(instanceID string, outputs map[string]interface{}) (*Outcome, error) {
	ti, err := c.liveInstance(instanceID)
	if err != nil {
		return nil, err
	}
	if ti == nil {
		return c.terminalOutcome(instanceID), nil
	}

	out, err := c.apply(func() error {
		return c.completeInstance(ti, outputs, nil)
	})
	if out != nil {
		out.InstanceID = instanceID
	}
	return out, err
}

// CancelTask cancels a live instance. The tokens an Enabled instance would
// have consumed stay in place and its task is not enabled again by them.
func (c *Case) CancelTask(instanceID string, reason string) (*Outcome, error) {
	ti, err := c.liveInstance(instanceID)
	if err != nil {
		return nil, err
	}
	if ti == nil {
		return c.terminalOutcome(instanceID), nil
	}

	out, err := c.apply(func() error {
		if reason == "" {
			reason = ReasonCancelled
		}
		return c.cancelTask(ti, reason)
	})
	if out != nil {
		out.InstanceID = instanceID
	}
	return out, err
}

// Cancel cancels every live instance, clears the marking and moves the case to Cancelled
func (c *Case) Cancel(reason string) (*Outcome, error) {
	if c.status.IsTerminal() {
		return nil, c.newError(model.CodeInvalidState, "", "case is %s", c.status)
	}

	return c.apply(func() error {
		c.cancelCase(reason)
		return nil
	})
}

// Suspend holds a running case, commands and timers are rejected until it is resumed
func (c *Case) Suspend() (*Outcome, error) {
	if err := c.checkRunning(); err != nil {
		return nil, err
	}

	return c.apply(func() error {
		c.setStatus(model.CaseStatusSuspended)
		c.emit(model.EventCaseSuspended, nil, "")
		return nil
	})
}

// Resume resumes a suspended case, timers that expired while it was suspended fire now
func (c *Case) Resume() (*Outcome, error) {
	if c.status != model.CaseStatusSuspended {
		return nil, c.newError(model.CodeInvalidState, "", "case is %s", c.status)
	}

	return c.apply(func() error {
		c.setStatus(model.CaseStatusRunning)
		c.emit(model.EventCaseResumed, nil, "")
		return c.fireTimers(c.clock.Now())
	})
}

// AddInstance adds an instance to the open activation of a dynamic multi-instance task
func (c *Case) AddInstance(taskID string, input map[string]interface{}) (*Outcome, error) {
	if err := c.checkRunning(); err != nil {
		return nil, err
	}

	act, err := c.growableActivation(taskID)
	if err != nil {
		return nil, err
	}

	var ti *TaskInst
	out, err := c.apply(func() error {
		ti = c.enableInstance(act.task, act, util.DeepCopyMap(input))
		return nil
	})
	if out != nil && ti != nil {
		out.InstanceID = ti.id
	}
	return out, err
}

// UpdateThreshold changes the completion threshold of the open activation of a multi-instance task
func (c *Case) UpdateThreshold(taskID string, threshold int) (*Outcome, error) {
	if err := c.checkRunning(); err != nil {
		return nil, err
	}

	act, err := c.openActivationOf(taskID)
	if err != nil {
		return nil, err
	}

	if threshold < 1 || threshold > act.task.MultiInstance().Maximum {
		return nil, c.newError(model.CodeInvalidArgument, taskID, "threshold %d is outside [1, %d]", threshold, act.task.MultiInstance().Maximum)
	}

	return c.apply(func() error {
		act.threshold = threshold
		c.changes.ActivationChange(change.Update, act)
		return c.checkActivation(act)
	})
}

// ProcessTimers fires the timers whose deadline is not after now. It is a
// no-op unless the case is running.
func (c *Case) ProcessTimers(now time.Time) (*Outcome, error) {
	if c.status != model.CaseStatusRunning {
		return &Outcome{Status: OutcomeApplied}, nil
	}

	return c.apply(func() error {
		return c.fireTimers(now)
	})
}

// NextDeadline returns the earliest armed deadline of a running case
func (c *Case) NextDeadline() (time.Time, bool) {
	if c.status != model.CaseStatusRunning {
		return time.Time{}, false
	}
	return c.timers.Next()
}

// CurrentStep returns the changes tracked since the last recorded step
func (c *Case) CurrentStep(reset bool) *state.Step {
	return c.changes.ExtractStep(reset)
}

func (c *Case) apply(cmd func() error) (*Outcome, error) {
	start := c.clock.Now()
	wasTerminal := c.status.IsTerminal()
	c.emitted = nil

	err := cmd()
	if err == nil && c.status == model.CaseStatusRunning {
		err = c.settle()
	}
	if err != nil {
		if model.IsFatal(err) {
			c.fail(err)
		} else {
			c.logger.Warnf("Command failed: %v", err)
		}
	}

	c.updated = c.clock.Now()
	c.recordState(start)
	if !wasTerminal && c.status.IsTerminal() {
		c.recordDone()
	}

	out := &Outcome{Status: OutcomeApplied, Events: c.emitted}
	c.emitted = nil
	return out, err
}

// liveInstance returns the addressed instance if it is live. A nil instance
// with a nil error means it already reached a final state.
func (c *Case) liveInstance(instanceID string) (*TaskInst, error) {
	ti, ok := c.byID[instanceID]
	if !ok {
		return nil, c.newError(model.CodeUnknownInstance, "", "unknown task instance '%s'", instanceID)
	}

	if ti.status.IsTerminal() {
		if c.logger.DebugEnabled() {
			c.logger.Debugf("Ignoring command for instance '%s', it is already %s", instanceID, ti.status)
		}
		return nil, nil
	}

	if err := c.checkRunning(); err != nil {
		return nil, err
	}
	return ti, nil
}

func (c *Case) terminalOutcome(instanceID string) *Outcome {
	return &Outcome{Status: OutcomeAlreadyTerminal, InstanceID: instanceID}
}

func (c *Case) checkRunning() error {
	switch c.status {
	case model.CaseStatusRunning:
		return nil
	case model.CaseStatusCreated:
		return c.newError(model.CodeInvalidState, "", "case has not been started")
	default:
		return c.newError(model.CodeInvalidState, "", "case is %s", c.status)
	}
}

func (c *Case) newError(code model.ErrorCode, elementID string, format string, args ...interface{}) *model.EngineError {
	return model.NewError(code, format, args...).WithCase(c.id).WithElement(elementID)
}

func (c *Case) setStatus(status model.CaseStatus) {
	c.status = status
	c.changes.SetStatus(status)
}

func (c *Case) emit(kind model.EventKind, ti *TaskInst, reason string, elements ...string) *model.Event {
	ev := &model.Event{
		ID:       newEventID(),
		Kind:     kind,
		CaseID:   c.id,
		Elements: elements,
		Reason:   reason,
		Time:     c.clock.Now(),
	}
	if ti != nil {
		ev.TaskID = ti.task.ID()
		ev.InstanceID = ti.id
	}

	c.emitted = append(c.emitted, ev)
	c.changes.EventPosted(kind)

	if c.logger.DebugEnabled() {
		c.logger.Debugf("Event %s task=%s instance=%s %v", kind, ev.TaskID, ev.InstanceID, elements)
	}

	if ti != nil {
		postTaskEvent(c, kind, ti)
	} else {
		postCaseEvent(c, kind)
	}

	return ev
}

func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
