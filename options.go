package workflow

import (
	"github.com/project-flogo/core/support/log"
	"github.com/project-flogo/workflow/clock"
	"github.com/project-flogo/workflow/model"
	"github.com/project-flogo/workflow/state"
	"github.com/project-flogo/workflow/support"
)

// Option configures an Executor
type Option func(*Executor)

// WithClock sets the time source used for timers
func WithClock(c clock.Clock) Option {
	return func(e *Executor) {
		e.clock = c
	}
}

// WithEvaluator sets the evaluator of split predicates
func WithEvaluator(evaluator model.PredicateEvaluator) Option {
	return func(e *Executor) {
		e.evaluator = evaluator
	}
}

// WithJoiningFunction sets the function folding the outputs of multi-instance activations
func WithJoiningFunction(joiner model.JoiningFunction) Option {
	return func(e *Executor) {
		e.joiner = joiner
	}
}

// WithSplittingFunction sets the function producing the inputs of multi-instance activations
func WithSplittingFunction(splitter model.SplittingFunction) Option {
	return func(e *Executor) {
		e.splitter = splitter
	}
}

// WithRecorder sets the recorder of case steps and snapshots
func WithRecorder(recorder state.Recorder) Option {
	return func(e *Executor) {
		e.recorder = recorder
	}
}

func WithLogger(logger log.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

func WithSettings(settings Settings) Option {
	return func(e *Executor) {
		e.settings = settings
	}
}

// WithProcessManager shares a process manager, and the specifications it holds, between executors
func WithProcessManager(manager *support.ProcessManager) Option {
	return func(e *Executor) {
		e.manager = manager
	}
}

// WithEventHandler sets a function receiving every event emitted by the cases, in
// order per case. It is called from the case goroutine and must not call back into the executor.
func WithEventHandler(handler func(*model.Event)) Option {
	return func(e *Executor) {
		e.onEvent = handler
	}
}
