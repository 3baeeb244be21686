// Package apperror defines the application's domain error taxonomy.
//
// Services return these errors; the HTTP layer maps them to status codes
// with errors.Is/errors.As. Keeping the taxonomy here (not in the handler
// package) means the service layer never imports net/http.
package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors. Wrapped by AppError (and anything the services add on
// top with %w), so errors.Is finds them anywhere in the chain.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError is a domain error with a human-readable message and an optional
// offending field. Error() returns the message; Unwrap() exposes the
// sentinel so errors.Is works through any further wrapping.
type AppError struct {
	Err     error  // one of the sentinels above
	Message string // human-readable description
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports that a resource does not exist.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// ValidationFailed reports a single-field validation failure.
// For multi-field failures use Fields instead.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports that a resource already exists or clashes with another.
func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden reports that the caller lacks permission for the target
// resource. HTTP handlers map this to 403.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized reports that the caller is not (validly) authenticated.
// HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Fields is a validation failure carrying one message per offending field,
// so forms can render each error inline next to its input.
//
// It is a named map type with methods — errors.As(err, &fields) extracts it
// from a wrapped chain, and Unwrap ties it to ErrValidation so the generic
// errors.Is(err, ErrValidation) check also matches.
type Fields map[string]string

// Error joins the per-field messages in a stable (sorted) order.
func (f Fields) Error() string {
	if len(f) == 0 {
		return ErrValidation.Error()
	}
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, f[name]))
	}
	return strings.Join(parts, "; ")
}

func (f Fields) Unwrap() error {
	return ErrValidation
}

// Set records a message for a field. The first message per field wins —
// "title is required" should not be buried by a follow-on length check.
func (f Fields) Set(field, message string) {
	if _, ok := f[field]; !ok {
		f[field] = message
	}
}

// OrNil returns the Fields as an error, or nil when no field failed.
// A non-nil interface holding an empty map would still count as an error,
// hence the explicit length check.
func (f Fields) OrNil() error {
	if len(f) == 0 {
		return nil
	}
	return f
}
