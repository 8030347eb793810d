package model

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes engine errors
type ErrorCode string

const (
	// CodeSpecViolation indicates a structural soundness failure of a specification
	CodeSpecViolation ErrorCode = "SpecViolation"

	// CodeNoMatchingFlow indicates an exhausted Xor/Or split
	CodeNoMatchingFlow ErrorCode = "NoMatchingFlow"

	// CodeOrJoinStarvation indicates an Or-join that can no longer receive a token
	CodeOrJoinStarvation ErrorCode = "OrJoinStarvation"

	// CodeDeadlock indicates a running case with no enabled work and an unmarked output condition
	CodeDeadlock ErrorCode = "Deadlock"

	// CodeMultiInstanceClosed indicates a late add or threshold change on a closing activation
	CodeMultiInstanceClosed ErrorCode = "MultiInstanceClosed"

	// CodeAlreadyTerminal indicates a duplicate or late event against a finished instance
	CodeAlreadyTerminal ErrorCode = "AlreadyTerminal"

	// CodeNegativeToken indicates that a token count would have dropped below zero
	CodeNegativeToken ErrorCode = "NegativeTokenInvariantViolated"

	CodeUnknownSpecification ErrorCode = "UnknownSpecification"
	CodeUnknownCase          ErrorCode = "UnknownCase"
	CodeUnknownInstance      ErrorCode = "UnknownInstance"
	CodeUnknownTask          ErrorCode = "UnknownTask"
	CodeInvalidState         ErrorCode = "InvalidState"
	CodeInvalidArgument      ErrorCode = "InvalidArgument"
	CodeEvaluatorFailure     ErrorCode = "EvaluatorFailure"
	CodeExecutorClosed       ErrorCode = "ExecutorClosed"
)

var (
	ErrSpecViolation        = &EngineError{Code: CodeSpecViolation}
	ErrNoMatchingFlow       = &EngineError{Code: CodeNoMatchingFlow}
	ErrOrJoinStarvation     = &EngineError{Code: CodeOrJoinStarvation}
	ErrMultiInstanceClosed  = &EngineError{Code: CodeMultiInstanceClosed}
	ErrAlreadyTerminal      = &EngineError{Code: CodeAlreadyTerminal}
	ErrNegativeToken        = &EngineError{Code: CodeNegativeToken}
	ErrUnknownSpecification = &EngineError{Code: CodeUnknownSpecification}
	ErrUnknownCase          = &EngineError{Code: CodeUnknownCase}
	ErrUnknownInstance      = &EngineError{Code: CodeUnknownInstance}
	ErrUnknownTask          = &EngineError{Code: CodeUnknownTask}
	ErrInvalidState         = &EngineError{Code: CodeInvalidState}
	ErrInvalidArgument      = &EngineError{Code: CodeInvalidArgument}
	ErrEvaluatorFailure     = &EngineError{Code: CodeEvaluatorFailure}
	ErrExecutorClosed       = &EngineError{Code: CodeExecutorClosed}
)

// EngineError is an error raised while loading a specification or executing a case.
// Errors compare equal under errors.Is when their codes match.
type EngineError struct {
	Code      ErrorCode
	Message   string
	CaseID    string
	ElementID string
	Err       error
}

// NewError creates an EngineError with the specified code and formatted message
func NewError(code ErrorCode, format string, args ...interface{}) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCase returns a copy of the error scoped to the specified case
func (e *EngineError) WithCase(caseID string) *EngineError {
	c := *e
	c.CaseID = caseID
	return &c
}

// WithElement returns a copy of the error scoped to the specified element
func (e *EngineError) WithElement(elementID string) *EngineError {
	c := *e
	c.ElementID = elementID
	return &c
}

// Wrap returns a copy of the error wrapping the specified cause
func (e *EngineError) Wrap(err error) *EngineError {
	c := *e
	c.Err = err
	return &c
}

func (e *EngineError) Error() string {
	msg := string(e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.CaseID != "" {
		msg += fmt.Sprintf(" (case=%s", e.CaseID)
		if e.ElementID != "" {
			msg += fmt.Sprintf(", element=%s", e.ElementID)
		}
		msg += ")"
	} else if e.ElementID != "" {
		msg += fmt.Sprintf(" (element=%s)", e.ElementID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is matches any EngineError carrying the same code
func (e *EngineError) Is(target error) bool {
	var t *EngineError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// CodeOf returns the code of the EngineError in err's chain, or "" if there is none
func CodeOf(err error) ErrorCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// IsFatal returns true if the error moves the affected case to Failed
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case CodeNoMatchingFlow, CodeNegativeToken, CodeEvaluatorFailure:
		return true
	}
	return false
}

// IsRecoverable returns true if the caller may ignore or retry the failed command
func IsRecoverable(err error) bool {
	switch CodeOf(err) {
	case CodeAlreadyTerminal, CodeMultiInstanceClosed:
		return true
	}
	return false
}
