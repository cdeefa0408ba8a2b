package apperrors

import (
	"errors"
	"fmt"
)

// Error kinds. Every error surfaced by the ledger wraps exactly one of these.
var (
	// ErrValidationFailed marks malformed or missing input. Never retried.
	ErrValidationFailed = errors.New("validation failed")
	// ErrResourceNotFound marks a reference to an unknown student, program or fee.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrConflict is mapped to 409 but no ledger operation raises it yet.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized marks a missing or rejected session token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrPermissionDenied marks a valid session whose role may not perform the action.
	ErrPermissionDenied = errors.New("permission denied")
)

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Field   string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// NewValidationError reports bad input on a single field.
func NewValidationError(field, message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
		Field:   field,
	}
}

// NewNotFoundError reports a stale or unknown reference.
func NewNotFoundError(resource string, id interface{}) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: fmt.Sprintf("%s %v not found", resource, id),
		Details: map[string]interface{}{"resource": resource, "id": id},
	}
}

// NewUnauthorizedError creates an error for a missing or invalid session
func NewUnauthorizedError(message string) error {
	return &CustomError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// NewPermissionDeniedError reports a role that may not perform an action
func NewPermissionDeniedError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidationFailed)
}

// IsNotFound reports whether err is an unknown-reference failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound)
}

// IsConflict reports whether err is a conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// FieldOf returns the offending field of a validation error, if any.
func FieldOf(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Field
	}
	return ""
}

// Kind returns a short label for metrics and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsValidation(err):
		return "validation"
	case IsNotFound(err):
		return "not_found"
	case IsConflict(err):
		return "conflict"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrPermissionDenied):
		return "forbidden"
	default:
		return "internal"
	}
}
