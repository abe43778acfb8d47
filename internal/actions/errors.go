package actions

import (
	"errors"
	"fmt"
)

var (
	// ErrActionNotFound is returned when no action exists for an id.
	ErrActionNotFound = errors.New("Action not found")
	// ErrUnsupportedActionType is returned for types without a handler.
	ErrUnsupportedActionType = errors.New("Unsupported action type")
	// ErrInvalidAction is returned when an action's details do not match its type.
	ErrInvalidAction = errors.New("invalid action")
	// ErrInvalidTransition is returned when a status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalidBatch is returned when a batch request fails validation.
	ErrInvalidBatch = errors.New("invalid batch request")
	// ErrBatchNotFound is returned when no batch record exists for an id.
	ErrBatchNotFound = errors.New("batch not found")
)

// ExecutionError wraps a handler-level failure for one action.
type ExecutionError struct {
	ActionID string
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execute action %s: %v", e.ActionID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
