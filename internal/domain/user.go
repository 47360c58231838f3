package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TypeUsers is the resource type name for users.
const TypeUsers = "users"

// User is an author account. HashedPassword is never exposed as an
// attribute; it exists only for the auth service.
type User struct {
	ID             uuid.UUID
	Name           string
	Email          string
	HashedPassword string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewUser creates a user with a fresh ID and timestamps. The password must
// already be hashed by the auth service.
func NewUser(name, email, hashedPassword string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:             uuid.New(),
		Name:           name,
		Email:          email,
		HashedPassword: hashedPassword,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// Validate checks the user's fields.
func (u *User) Validate() error {
	var errs ValidationErrors
	if u.ID == uuid.Nil {
		errs = append(errs, NewValidationError("id", "cannot be empty"))
	}
	if u.Name == "" {
		errs = append(errs, NewValidationError("name", "cannot be empty"))
	}
	if !strings.Contains(u.Email, "@") {
		errs = append(errs, &ValidationError{Field: "email", Message: "must be a valid email address", Err: ErrInvalidEmail})
	}
	if errs != nil {
		return errs
	}
	return nil
}

// ResourceType implements schema.Resource.
func (u *User) ResourceType() string { return TypeUsers }

// ResourceID implements schema.Resource.
func (u *User) ResourceID() string { return u.ID.String() }

// Attribute implements schema.Resource.
func (u *User) Attribute(name string) (interface{}, bool) {
	switch name {
	case "name":
		return u.Name, true
	case "email":
		return u.Email, true
	case "created-at":
		return u.CreatedAt.UTC().Format(time.RFC3339), true
	default:
		return nil, false
	}
}
