package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/keelson/folio-api/internal/domain"
)

// Action names an operation an authorizer can rule on.
type Action string

// Actions consulted by the request pipeline.
const (
	ActionList   Action = "list"
	ActionGet    Action = "get"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Authorizer decides whether a caller may perform an action on a resource
// type. Implementations return domain.ErrUnauthenticated when a caller is
// required but absent, domain.ErrForbidden when the caller is denied, and
// nil to allow.
type Authorizer interface {
	Authorize(ctx context.Context, userID *uuid.UUID, action Action, resourceType string) error
}

// WriteGuard allows all reads and requires an authenticated caller for
// writes. It is the default policy wired at startup.
type WriteGuard struct{}

var _ Authorizer = (*WriteGuard)(nil)

// NewWriteGuard creates the default authorization policy.
func NewWriteGuard() *WriteGuard {
	return &WriteGuard{}
}

// Authorize implements Authorizer.
func (g *WriteGuard) Authorize(ctx context.Context, userID *uuid.UUID, action Action, resourceType string) error {
	switch action {
	case ActionList, ActionGet:
		return nil
	default:
		if userID == nil {
			return domain.ErrUnauthenticated
		}
		return nil
	}
}

// AllowAll permits every action. Used in tests and for deployments that
// front the API with their own access control.
type AllowAll struct{}

var _ Authorizer = (*AllowAll)(nil)

// Authorize implements Authorizer.
func (AllowAll) Authorize(ctx context.Context, userID *uuid.UUID, action Action, resourceType string) error {
	return nil
}
