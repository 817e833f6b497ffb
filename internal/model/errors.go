package model

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while building or exploring
// states.
//
// Runtime errors include:
//   - Unknown address: a send or initial envelope names an actor that was
//     never added (configuration error, fatal)
//   - Action disabled: the action is not enabled in the given state
//   - Transition panic: an actor handler panicked
//   - Predicate panic: a property condition panicked
//   - Nondeterministic: re-running a transition produced a different state
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// StateHash identifies the state the error was raised in, if any.
	StateHash string

	// Action renders the action being applied, if any.
	Action string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownAddress indicates a destination outside the configured actors.
	ErrCodeUnknownAddress RuntimeErrorCode = "UNKNOWN_ADDRESS"

	// ErrCodeActionDisabled indicates an action that is not enabled in the state.
	ErrCodeActionDisabled RuntimeErrorCode = "ACTION_DISABLED"

	// ErrCodeTransitionPanic indicates an actor handler panicked.
	ErrCodeTransitionPanic RuntimeErrorCode = "TRANSITION_PANIC"

	// ErrCodePredicatePanic indicates a property condition panicked.
	ErrCodePredicatePanic RuntimeErrorCode = "PREDICATE_PANIC"

	// ErrCodeNondeterministic indicates a transition produced different
	// successors for the same input.
	ErrCodeNondeterministic RuntimeErrorCode = "NONDETERMINISTIC"

	// ErrCodeDecode indicates an encoded state or action could not be decoded.
	ErrCodeDecode RuntimeErrorCode = "DECODE_FAILED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Action != "" {
		msg += fmt.Sprintf(" (action=%s)", e.Action)
	}
	if e.StateHash != "" {
		msg += fmt.Sprintf(" (state=%s)", shortHash(e.StateHash))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is a RuntimeError with the given code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsConfigError returns true if the error reflects a misconfigured model
// rather than a property of the explored system.
func IsConfigError(err error) bool {
	return HasCode(err, ErrCodeUnknownAddress)
}

// IsActionDisabled returns true if the error is an action-disabled error.
func IsActionDisabled(err error) bool {
	return HasCode(err, ErrCodeActionDisabled)
}

func newUnknownAddressError(addr int, actors int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeUnknownAddress,
		Message: fmt.Sprintf("address %d is not configured (model has %d actors)", addr, actors),
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
