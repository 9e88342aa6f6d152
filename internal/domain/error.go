package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound          = errors.New("session not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrPayloadTooLarge   = errors.New("payload too large")
	ErrEngineUnavailable = errors.New("workflow engine unavailable")
	ErrInvalidTransition = errors.New("invalid session status transition")
)

// FieldError is a validation failure that names the offending field.
// It unwraps to ErrInvalidArgument so callers can match with errors.Is.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrInvalidArgument }

func NewFieldError(field, reason string) *FieldError {
	return &FieldError{Field: field, Reason: reason}
}
