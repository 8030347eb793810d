package support

import (
	"errors"
	"time"

	"github.com/project-flogo/workflow/model"
	"github.com/sony/gobreaker/v2"
)

// BreakerSettings configures the circuit breaker placed around a predicate evaluator
type BreakerSettings struct {
	Name string `yaml:"name"`
	// MaxRequests is the number of trial evaluations allowed while half-open
	MaxRequests uint32 `yaml:"maxRequests"`
	// Interval is the cyclic period after which failure counts are cleared while closed
	Interval time.Duration `yaml:"interval"`
	// Timeout is how long the breaker stays open before trying again
	Timeout time.Duration `yaml:"timeout"`
	// ConsecutiveFailures trips the breaker
	ConsecutiveFailures uint32 `yaml:"consecutiveFailures"`
}

// BreakerEvaluator guards a remote or otherwise failure-prone evaluator: once
// it keeps failing, evaluations fail fast with gobreaker.ErrOpenState until
// the breaker timeout elapses. An ExpressionError is a fault of the predicate,
// not of the evaluator, and does not count as a failure.
type BreakerEvaluator struct {
	delegate model.PredicateEvaluator
	cb       *gobreaker.CircuitBreaker[bool]
}

func NewBreakerEvaluator(delegate model.PredicateEvaluator, settings BreakerSettings) *BreakerEvaluator {
	if settings.Name == "" {
		settings.Name = "predicate-evaluator"
	}
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = 5
	}

	failures := settings.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:         settings.Name,
		MaxRequests:  settings.MaxRequests,
		Interval:     settings.Interval,
		Timeout:      settings.Timeout,
		IsSuccessful: isEvaluatorHealthy,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnf("Circuit breaker '%s' changed from %s to %s", name, from.String(), to.String())
		},
	})

	return &BreakerEvaluator{delegate: delegate, cb: cb}
}

func isEvaluatorHealthy(err error) bool {
	var exprErr *ExpressionError
	return err == nil || errors.As(err, &exprErr)
}

func (b *BreakerEvaluator) Evaluate(expr string, vars map[string]interface{}) (bool, error) {
	return b.cb.Execute(func() (bool, error) {
		return b.delegate.Evaluate(expr, vars)
	})
}

// State returns the current state of the breaker
func (b *BreakerEvaluator) State() gobreaker.State {
	return b.cb.State()
}
