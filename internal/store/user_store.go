package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/keelson/folio-api/internal/domain"
)

// UserStore is the credential-aware view of user persistence used by the
// authentication service. The resource-facing Repository never reads or
// writes password hashes; this interface does.
type UserStore interface {
	// Create saves a new user including the password hash.
	// Returns ErrDuplicate if the email is already registered.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	// Returns ErrNotFound if no user exists with the given ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email address.
	// Returns ErrNotFound if no user exists with the given email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
