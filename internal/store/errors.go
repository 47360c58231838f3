package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested resource does not exist,
	// including a filtered-out singular lookup. This is a normal outcome,
	// not a fault.
	ErrNotFound = errors.New("resource not found")

	// ErrRelatedNotFound is returned when a relationship operation
	// references a target resource that does not exist.
	ErrRelatedNotFound = fmt.Errorf("%w: relationship target", ErrNotFound)

	// ErrDuplicate is returned when an operation would violate a
	// uniqueness constraint (e.g. a user email or tag name already taken).
	ErrDuplicate = errors.New("resource already exists")

	// ErrInvalidEntity is returned when a resource fails validation before
	// being stored. The wrapped error carries the per-field details.
	ErrInvalidEntity = errors.New("invalid resource")

	// ErrUnsupportedRelationship is returned when a relationship write is
	// attempted against a relationship the schema does not declare, or a
	// to-one write against a to-many relationship (and vice versa).
	ErrUnsupportedRelationship = errors.New("unsupported relationship operation")

	// ErrStoreFailure wraps an opaque data-store failure. It surfaces to
	// clients as a single 500-class error with no internal detail.
	ErrStoreFailure = errors.New("data store failure")

	// ErrTransactionFailed is returned when a transaction fails to begin
	// or commit.
	ErrTransactionFailed = errors.New("transaction failed")
)

// IsNotFound reports whether err is any kind of not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Failure wraps an underlying driver error as an opaque store failure,
// preserving the cause for logs only.
func Failure(operation string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreFailure, operation, err)
}
