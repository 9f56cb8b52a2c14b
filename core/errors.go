package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ConflictError indicates that the requested write collides with existing
// state. Conflicts carries the colliding entities so callers can render an
// actionable message (which lessons overlap, whose attempt already exists).
type ConflictError struct {
	Err       error
	Conflicts interface{}
}

func NewConflictError(err error, conflicts interface{}) error {
	return &ConflictError{err, conflicts}
}

func (err ConflictError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ForbiddenError indicates the actor lacks the role or ownership
// relationship required by the operation.
type ForbiddenError struct {
	Reason string
}

func NewForbiddenError(reason string) error {
	return &ForbiddenError{reason}
}

func (err ForbiddenError) Error() string { return err.Reason }

// InvalidStateError indicates an operation attempted outside its legal
// state-machine window (exam not open, attempt already submitted, time limit
// exceeded). Not retryable with the same arguments.
type InvalidStateError struct {
	Reason string
}

func NewInvalidStateError(reason string) error {
	return &InvalidStateError{reason}
}

func (err InvalidStateError) Error() string { return err.Reason }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
