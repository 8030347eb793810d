package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngineErrorIs(t *testing.T) {
	err := NewError(CodeNoMatchingFlow, "no flow from '%s'", "A").WithCase("case-1").WithElement("A")

	assert.True(t, errors.Is(err, ErrNoMatchingFlow))
	assert.False(t, errors.Is(err, ErrOrJoinStarvation))
	assert.Equal(t, "NoMatchingFlow: no flow from 'A' (case=case-1, element=A)", err.Error())

	wrapped := fmt.Errorf("complete task: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNoMatchingFlow))
	assert.Equal(t, CodeNoMatchingFlow, CodeOf(wrapped))
	assert.True(t, IsFatal(wrapped))
	assert.False(t, IsRecoverable(wrapped))
}

func TestEngineErrorWrap(t *testing.T) {
	cause := errors.New("boom")
	err := ErrEvaluatorFailure.Wrap(cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrEvaluatorFailure))
	assert.Nil(t, ErrEvaluatorFailure.Err, "sentinel must not be mutated")
	assert.Equal(t, ErrorCode(""), CodeOf(cause))
}

func TestRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(ErrAlreadyTerminal))
	assert.True(t, IsRecoverable(ErrMultiInstanceClosed))
	assert.False(t, IsRecoverable(ErrInvalidState))
}

func TestStatus(t *testing.T) {
	assert.True(t, TaskStatusCancelled.IsTerminal())
	assert.False(t, TaskStatusExecuting.IsTerminal())
	assert.True(t, TaskStatusEnabled.IsLive())
	assert.True(t, CaseStatusFailed.IsTerminal())
	assert.False(t, CaseStatusSuspended.IsTerminal())
	assert.True(t, ActivationPartiallyComplete.AcceptsInstances())
	assert.False(t, ActivationClosing.AcceptsInstances())
}
