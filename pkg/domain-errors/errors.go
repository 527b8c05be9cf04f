// Package domainerrors provides code-carrying errors for the circulation
// engine. Services attach a stable machine-readable code to every failure so
// callers can distinguish validation problems (fix the input) from conflicts
// (retry) from policy vetoes (do not retry) without parsing messages.
//
// Stores never return these directly; they return pkg/platform/sentinel
// errors which services translate at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is the closed set of failure kinds surfaced by the engine.
type Code string

const (
	// CodeValidation marks bad input: a due date not in the future, a
	// duplicate barcode, a missing field.
	CodeValidation Code = "validation"
	// CodeInvalidInput marks malformed primitive input (unparseable IDs).
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound marks an unknown copy, loan, item, or user.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a lost concurrent state-transition race. Retryable.
	CodeConflict Code = "conflict"
	// CodeInvalidTransition marks a state change that is illegal from the
	// entity's current state (returning a copy that is not loaned, marking
	// a lost copy lost again).
	CodeInvalidTransition Code = "invalid_transition"
	// CodeRestrictedUser marks a loan vetoed by the restriction policy.
	CodeRestrictedUser Code = "restricted_user"
	// CodeLoanNotActive marks an operation requiring an active loan.
	CodeLoanNotActive Code = "loan_not_active"
	// CodeCopyUnavailable marks an issue attempt against a copy that is not
	// available for lending.
	CodeCopyUnavailable Code = "copy_unavailable"
	// CodeInvariantViolation marks a broken model invariant detected by an
	// entity constructor or transition guard. Services usually translate it
	// into CodeValidation or CodeInvalidTransition before it reaches a
	// caller.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal marks propagated storage or infrastructure failures.
	CodeInternal Code = "internal"
)

// Error is a domain error with a stable code and a human-readable message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is/As chains.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code carried by err, or CodeInternal when err carries
// no domain code at all.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the message carried by err, or its plain Error() text.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
