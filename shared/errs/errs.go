package errs

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies a failure so callers can decide how to react without
// matching on message strings.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindNotFound     Kind = "not_found"
	KindUpstream     Kind = "upstream"
	KindCompensation Kind = "compensation"
)

// Error is a failure carrying a kind and an HTTP-equivalent status code.
// It wraps an optional cause so pkg/errors annotations survive.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the cause for errors.Is / errors.As chains
func (e *Error) Unwrap() error {
	return e.cause
}

// Validation creates a validation error (bad request, never retried)
func Validation(format string, args ...interface{}) *Error {
	return &Error{
		Kind:       KindValidation,
		StatusCode: http.StatusBadRequest,
		Message:    fmt.Sprintf(format, args...),
	}
}

// Conflict creates a conflict error (precondition not met, e.g. insufficient stock)
func Conflict(format string, args ...interface{}) *Error {
	return &Error{
		Kind:       KindConflict,
		StatusCode: http.StatusConflict,
		Message:    fmt.Sprintf(format, args...),
	}
}

// NotFound creates a not-found error for a missing row
func NotFound(format string, args ...interface{}) *Error {
	return &Error{
		Kind:       KindNotFound,
		StatusCode: http.StatusNotFound,
		Message:    fmt.Sprintf(format, args...),
	}
}

// Upstream creates an upstream error for a failed or timed out collaborator call
func Upstream(cause error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:       KindUpstream,
		StatusCode: http.StatusBadGateway,
		Message:    fmt.Sprintf(format, args...),
		cause:      cause,
	}
}

// UpstreamStatus creates an upstream error preserving the status code the
// collaborator answered with.
func UpstreamStatus(statusCode int, format string, args ...interface{}) *Error {
	return &Error{
		Kind:       KindUpstream,
		StatusCode: statusCode,
		Message:    fmt.Sprintf(format, args...),
	}
}

// Compensation creates an error for a failed compensate call. It never
// replaces the error that triggered the rollback.
func Compensation(cause error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:       KindCompensation,
		StatusCode: http.StatusInternalServerError,
		Message:    fmt.Sprintf(format, args...),
		cause:      cause,
	}
}

// KindOf returns the kind of err, or KindUpstream if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// StatusCode maps err to an HTTP status code, defaulting to 500.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
