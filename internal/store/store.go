package store

import (
	"context"
	"database/sql"

	"github.com/keelson/folio-api/internal/jsonapi"
	"github.com/keelson/folio-api/internal/query"
	"github.com/keelson/folio-api/internal/schema"
	"github.com/keelson/folio-api/internal/serializer"
)

// DBTX is the subset of database/sql the stores use, satisfied by both
// *sql.DB and *sql.Tx so store methods can run inside or outside a
// transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// ListResult is the outcome of a collection query: the page of resources in
// their final order plus the unpaginated total for pagination links.
type ListResult struct {
	Resources []schema.Resource
	Total     int64
}

// Repository is the persistence contract one resource type is served
// through. Write methods receive parsed resource objects (already
// structurally validated by the document parser) and apply application
// validation before touching storage.
type Repository interface {
	// Schema returns the resource schema the repository serves.
	Schema() *schema.Schema

	// List runs the validated parameter set against the store: filters,
	// multi-key sort with id tie-break, and pagination.
	List(ctx context.Context, params *query.Params) (*ListResult, error)

	// FindByID returns one resource or ErrNotFound.
	FindByID(ctx context.Context, id string) (schema.Resource, error)

	// Create persists a new resource from the parsed document and returns
	// the stored entity.
	Create(ctx context.Context, res *jsonapi.ResourceObject) (schema.Resource, error)

	// Update applies the document's attributes and relationships to an
	// existing resource. Absent fields are left untouched.
	Update(ctx context.Context, id string, res *jsonapi.ResourceObject) (schema.Resource, error)

	// Delete removes the resource, soft-deleting when the schema declares
	// a deleted-at column.
	Delete(ctx context.Context, id string) error

	// SetRelationship replaces a relationship's targets wholesale (sync
	// semantics): targets absent from refs are detached. For a to-one
	// relationship refs holds zero or one identifier.
	SetRelationship(ctx context.Context, id, relationship string, refs []jsonapi.ResourceIdentifier) error

	// AddToRelationship attaches targets to a to-many relationship,
	// ignoring targets already attached.
	AddToRelationship(ctx context.Context, id, relationship string, refs []jsonapi.ResourceIdentifier) error

	// RemoveFromRelationship detaches targets from a to-many
	// relationship, ignoring targets not attached.
	RemoveFromRelationship(ctx context.Context, id, relationship string, refs []jsonapi.ResourceIdentifier) error

	// LoadGraph eagerly loads every relationship on the include paths
	// (batched per level, no per-resource queries) plus always-linkage
	// relationships, and returns the loaded graph for serialization.
	LoadGraph(ctx context.Context, primaries []schema.Resource, includes [][]string) (serializer.Graph, error)
}
