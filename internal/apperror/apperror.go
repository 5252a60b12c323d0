// Package apperror defines the domain errors shared by every layer.
//
// Services return these errors; handlers translate them into HTTP status
// codes (see handler/response.go). Nothing in here knows about HTTP.
package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError for missing or bad credentials.
// HTTP handlers map this to 401 Unauthorized.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// ValidationErrors collects one message per offending field, so a form can
// show every problem next to its input at once instead of one per submit.
type ValidationErrors map[string]string

// Add records msg for field. The first message for a field wins.
func (v ValidationErrors) Add(field, msg string) {
	if _, exists := v[field]; !exists {
		v[field] = msg
	}
}

// Err returns nil when nothing was recorded, or an *AppError wrapping
// ErrValidation whose message lists every field in a stable order.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, v[f])
	}
	return &AppError{
		Err:     &fieldErrors{fields: v},
		Message: strings.Join(msgs, "; "),
		Field:   fields[0],
	}
}

// fieldErrors carries the per-field map through the error chain and still
// matches ErrValidation with errors.Is.
type fieldErrors struct {
	fields ValidationErrors
}

func (f *fieldErrors) Error() string { return ErrValidation.Error() }
func (f *fieldErrors) Unwrap() error { return ErrValidation }

// Fields extracts the per-field messages from err. A single-field
// ValidationFailed error yields a one-entry map. Returns nil when err is
// not a validation error.
func Fields(err error) map[string]string {
	var fe *fieldErrors
	if errors.As(err, &fe) {
		return fe.fields
	}
	var appErr *AppError
	if errors.As(err, &appErr) && errors.Is(err, ErrValidation) && appErr.Field != "" {
		return map[string]string{appErr.Field: appErr.Message}
	}
	return nil
}
