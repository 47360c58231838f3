package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when an entity fails validation. It is
	// usually wrapped in a ValidationError carrying the offending field.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrUnauthenticated is returned when an operation requires an
	// authenticated caller and none is present.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned when the authenticated caller is not
	// permitted to perform the operation.
	ErrForbidden = errors.New("operation not permitted")
)

// ValidationError reports a single failed field. The API layer turns each
// one into a 422 error object whose source.pointer names the field.
type ValidationError struct {
	// Field is the JSON:API field name that failed (e.g. "title").
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped sentinel to support errors.Is.
func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrValidation
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ValidationErrors collects the failed fields of one entity so a request
// can report every problem at once.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	msg := ve[0].Error()
	if len(ve) > 1 {
		msg = fmt.Sprintf("%s (and %d more)", msg, len(ve)-1)
	}
	return msg
}

// Unwrap lets errors.Is(err, ErrValidation) match the collection.
func (ve ValidationErrors) Unwrap() error {
	return ErrValidation
}
