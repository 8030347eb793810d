package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/project-flogo/core/support"
	"github.com/project-flogo/core/support/log"
	"github.com/project-flogo/workflow/clock"
	"github.com/project-flogo/workflow/definition"
	"github.com/project-flogo/workflow/instance"
	"github.com/project-flogo/workflow/model"
	"github.com/project-flogo/workflow/model/simple"
	"github.com/project-flogo/workflow/state"
	"github.com/project-flogo/workflow/state/sqlrecorder"
	wfsupport "github.com/project-flogo/workflow/support"
	"github.com/project-flogo/workflow/validation"
	"golang.org/x/sync/errgroup"
)

// Outcome is the result of a command applied to a case
type Outcome = instance.Outcome

var registerDefaultModel sync.Once

// Executor runs cases. Each case is owned by a goroutine that applies the
// commands and timer expiries of the case one at a time, in arrival order.
// Cases share no state and run in parallel.
type Executor struct {
	settings  Settings
	clock     clock.Clock
	evaluator model.PredicateEvaluator
	splitter  model.SplittingFunction
	joiner    model.JoiningFunction
	recorder  state.Recorder
	logger    log.Logger
	manager   *wfsupport.ProcessManager
	onEvent   func(*model.Event)

	// closed with the executor when it opened the recorder
	ownedRecorder *sqlrecorder.Recorder

	idGenerator *support.Generator

	mu     sync.RWMutex
	cases  map[string]*caseActor
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewExecutor creates an Executor. Settings default to SettingsFromEnv.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{cases: make(map[string]*caseActor)}

	settings, err := SettingsFromEnv()
	if err != nil {
		log.RootLogger().Warnf("Ignoring invalid workflow settings: %v", err)
		settings = DefaultSettings()
	}
	e.settings = settings

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = log.ChildLogger(log.RootLogger(), "workflow-executor")
	}
	if e.clock == nil {
		e.clock = clock.RealClock{}
	}
	if e.manager == nil {
		e.manager = wfsupport.NewProcessManager(nil)
	}
	if e.settings.MailboxSize <= 0 {
		e.settings.MailboxSize = DefaultMailboxSize
	}
	e.initEvaluator()
	e.initRecorder()

	registerDefaultModel.Do(func() {
		if model.Default() != nil {
			return
		}
		m, err := model.Get(simple.ModelName)
		if err == nil {
			err = model.RegisterDefault(m)
		}
		if err != nil {
			e.logger.Errorf("Unable to register default process model: %v", err)
		}
	})

	e.idGenerator, err = support.NewGenerator()
	if err != nil {
		e.logger.Warnf("Unable to create case id generator: %v", err)
	}

	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.group, e.ctx = errgroup.WithContext(e.ctx)

	return e
}

func (e *Executor) initEvaluator() {
	if e.evaluator == nil {
		evaluator, err := wfsupport.NewEvaluator(e.settings.ExprLang)
		if err != nil {
			e.logger.Warnf("%v, using '%s'", err, wfsupport.LangExpr)
			evaluator = wfsupport.NewExprEvaluator()
		}
		e.evaluator = evaluator
	}
}

// caseEvaluator returns the evaluator of a new case, wrapped in a circuit
// breaker of its own when one is configured
func (e *Executor) caseEvaluator(caseID string) model.PredicateEvaluator {
	if e.settings.Breaker == nil {
		return e.evaluator
	}

	settings := *e.settings.Breaker
	if settings.Name == "" {
		settings.Name = "predicate-evaluator"
	}
	settings.Name += "/" + caseID
	return wfsupport.NewBreakerEvaluator(e.evaluator, settings)
}

func (e *Executor) initRecorder() {
	if e.recorder != nil || e.settings.RecordingMode == state.RecordingModeOff || e.settings.RecordDSN == "" {
		return
	}

	r, err := sqlrecorder.Open(e.settings.RecordDSN)
	if err != nil {
		e.logger.Errorf("Unable to open recorder, recording disabled: %v", err)
		return
	}
	e.recorder = r
	e.ownedRecorder = r
}

// LoadSpecification validates the definition and makes it available to CreateCase.
// A definition with critical findings is rejected with a SpecViolation error.
func (e *Executor) LoadSpecification(def *definition.Definition) (*validation.Report, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	return e.manager.Register(def)
}

// CreateCase creates a case of a loaded specification; specID may also be a uri
// resolved by the process manager. The case is started by StartCase.
func (e *Executor) CreateCase(specID string, vars map[string]interface{}) (string, error) {
	if err := e.checkOpen(); err != nil {
		return "", err
	}

	spec, err := e.manager.GetSpecification(specID)
	if err != nil {
		if model.CodeOf(err) == "" {
			err = model.NewError(model.CodeUnknownSpecification, "unable to load specification '%s'", specID).Wrap(err)
		}
		return "", err
	}

	caseID := e.nextCaseID()

	mode := e.settings.RecordingMode
	if e.recorder == nil {
		mode = state.RecordingModeOff
	}

	c, err := instance.New(caseID, spec.Definition, nil, vars, instance.Config{
		Clock:     e.clock,
		Evaluator: e.caseEvaluator(caseID),
		Splitter:  e.splitter,
		Joiner:    e.joiner,
		Recorder:  e.recorder,
		Mode:      mode,
		Logger:    e.logger,
	})
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return "", errClosed()
	}
	if e.settings.MaxCases > 0 && len(e.cases) >= e.settings.MaxCases {
		return "", model.NewError(model.CodeInvalidState, "executor holds the maximum of %d cases", e.settings.MaxCases)
	}

	a := newCaseActor(c, e.clock, e.settings.MailboxSize, e.onEvent, e.logger)
	e.cases[caseID] = a
	e.group.Go(func() error {
		return a.run(e.ctx)
	})

	e.logger.Infof("Created case '%s' of specification '%s'", caseID, spec.Definition.ID())
	return caseID, nil
}

func (e *Executor) StartCase(caseID string) error {
	_, err := e.send(caseID, func(c *instance.Case) (*Outcome, error) {
		return c.Start()
	})
	return err
}

// StartTask moves an Enabled instance to Executing, consuming the tokens of its join
func (e *Executor) StartTask(caseID, instanceID string) (*Outcome, error) {
	return e.send(caseID, func(c *instance.Case) (*Outcome, error) {
		return c.StartTask(instanceID)
	})
}

// CompleteTask completes a live instance with the specified outputs. A terminal
// instance yields an AlreadyTerminal outcome and no error.
func (e *Executor) CompleteTask(caseID, instanceID string, outputs map[string]interface{}) (*Outcome, error) {
	return e.send(caseID, func(c *instance.Case) (*Outcome, error) {
		return c.CompleteTask(instanceID, outputs)
	})
}

func (e *Executor) CancelTask(caseID, instanceID, reason string) error {
	_, err := e.send(caseID, func(c *instance.Case) (*Outcome, error) {
		return c.CancelTask(instanceID, reason)
	})
	return err
}

func (e *Executor) CancelCase(caseID, reason string) error {
	_, err := e.send(caseID, func(c *instance.Case) (*Outcome, error) {
		return c.Cancel(reason)
	})
	return err
}

func (e *Executor) SuspendCase(caseID string) error {
	_, err := e.send(caseID, func(c *instance.Case) (*Outcome, error) {
		return c.Suspend()
	})
	return err
}

// ResumeCase resumes a suspended case, firing the timers that came due in the meantime
func (e *Executor) ResumeCase(caseID string) error {
	_, err := e.send(caseID, func(c *instance.Case) (*Outcome, error) {
		return c.Resume()
	})
	return err
}

// AddMultiInstance adds an instance to the open activation of a dynamic multi-instance task
func (e *Executor) AddMultiInstance(caseID, taskID string, vars map[string]interface{}) (string, error) {
	out, err := e.send(caseID, func(c *instance.Case) (*Outcome, error) {
		return c.AddInstance(taskID, vars)
	})
	if err != nil {
		return "", err
	}
	return out.InstanceID, nil
}

func (e *Executor) UpdateThreshold(caseID, taskID string, threshold int) error {
	_, err := e.send(caseID, func(c *instance.Case) (*Outcome, error) {
		return c.UpdateThreshold(taskID, threshold)
	})
	return err
}

// ProcessTimers fires the expired timers of a case now. Cases also process
// their timers on their own when the next deadline passes.
func (e *Executor) ProcessTimers(caseID string) (*Outcome, error) {
	return e.send(caseID, func(c *instance.Case) (*Outcome, error) {
		return c.ProcessTimers(e.clock.Now())
	})
}

// Snapshot returns a read-only copy of the state of a case
func (e *Executor) Snapshot(caseID string) (*state.CaseSnapshot, error) {
	var snapshot *state.CaseSnapshot
	_, err := e.send(caseID, func(c *instance.Case) (*Outcome, error) {
		snapshot = c.Snapshot()
		return nil, nil
	})
	return snapshot, err
}

// Cases returns the ids of the cases held by the executor
func (e *Executor) Cases() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := make([]string, 0, len(e.cases))
	for id := range e.cases {
		ids = append(ids, id)
	}
	return ids
}

// RemoveCase releases a terminal case
func (e *Executor) RemoveCase(caseID string) error {
	var terminal bool
	_, err := e.send(caseID, func(c *instance.Case) (*Outcome, error) {
		terminal = c.Status().IsTerminal()
		return nil, nil
	})
	if err != nil {
		return err
	}
	if !terminal {
		return model.NewError(model.CodeInvalidState, "case is not terminal").WithCase(caseID)
	}

	e.mu.Lock()
	a, exists := e.cases[caseID]
	delete(e.cases, caseID)
	e.mu.Unlock()

	if exists {
		a.stop()
	}
	return nil
}

// Close stops every case goroutine. Commands sent afterwards fail with ExecutorClosed.
func (e *Executor) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	err := e.group.Wait()

	if e.ownedRecorder != nil {
		err = errors.Join(err, e.ownedRecorder.Close())
	}
	return err
}

func (e *Executor) send(caseID string, fn func(c *instance.Case) (*Outcome, error)) (*Outcome, error) {
	a, err := e.actor(caseID)
	if err != nil {
		return nil, err
	}

	cmd := &command{fn: fn, reply: make(chan result, 1)}

	select {
	case a.mailbox <- cmd:
	case <-a.done:
		return nil, errClosed()
	case <-e.ctx.Done():
		return nil, errClosed()
	}

	select {
	case r := <-cmd.reply:
		return r.out, r.err
	case <-e.ctx.Done():
		return nil, errClosed()
	}
}

func (e *Executor) actor(caseID string) (*caseActor, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, errClosed()
	}
	a, exists := e.cases[caseID]
	if !exists {
		return nil, model.NewError(model.CodeUnknownCase, "unknown case '%s'", caseID)
	}
	return a, nil
}

func (e *Executor) checkOpen() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return errClosed()
	}
	return nil
}

func (e *Executor) nextCaseID() string {
	if e.idGenerator != nil {
		return e.idGenerator.NextAsString()
	}
	return uuid.NewString()
}

func errClosed() error {
	return model.NewError(model.CodeExecutorClosed, "executor closed")
}
