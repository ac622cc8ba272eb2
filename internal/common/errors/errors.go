// Package errors provides the tagged error taxonomy for the marketplace core.
//
// Callers get explicit error kinds instead of sentinel strings: authentication
// and authorization failures, validation failures, and not-found conditions are
// each a distinct kind so the HTTP boundary can map them deterministically.
// Remote-dependency failures (the text-generation endpoint) never surface
// through this package; the scorer and comparator absorb them into fallbacks.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an application error.
type Kind string

const (
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindForbidden       Kind = "FORBIDDEN"
	KindValidation      Kind = "VALIDATION_FAILED"
	KindNotFound        Kind = "NOT_FOUND"
	KindInternal        Kind = "INTERNAL"
)

// AppError is a structured application error with a stable kind.
type AppError struct {
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	wrapped   error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("AppError[%s]: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.wrapped
}

// NewUnauthenticatedError creates the error for an unresolvable principal.
func NewUnauthenticatedError() *AppError {
	return &AppError{
		Kind:      KindUnauthenticated,
		Message:   "Unauthenticated",
		Timestamp: time.Now().UTC(),
	}
}

// NewForbiddenError creates the error for a principal acting on a resource it
// does not own.
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Kind:      KindForbidden,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError creates a bad-input / business-rule error. These are
// raised before any I/O and never retried.
func NewValidationError(message string) *AppError {
	return &AppError{
		Kind:      KindValidation,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError creates the error for a resource id that does not resolve.
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Kind:      KindNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected failure. The wrapped error stays
// server-side; the surfaced message carries no internal detail.
func NewInternalError(err error) *AppError {
	return &AppError{
		Kind:      KindInternal,
		Message:   "Internal server error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
		wrapped:   err,
	}
}

// KindOf returns the kind of err, or KindInternal for any error that is not an
// AppError.
func KindOf(err error) Kind {
	var app *AppError
	if errors.As(err, &app) {
		return app.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
