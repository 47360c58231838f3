package postgres

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/keelson/folio-api/internal/domain"
	"github.com/keelson/folio-api/internal/schema"
	"github.com/keelson/folio-api/internal/store"
)

// Store owns the database handle and hands out one repository per
// registered resource type.
type Store struct {
	db       *sql.DB
	registry *schema.Registry
	logger   *slog.Logger
	mappers  map[string]entityMapper
}

// NewStore creates the PostgreSQL store. The registry must already be
// populated and validated.
func NewStore(db *sql.DB, registry *schema.Registry, logger *slog.Logger) *Store {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil for Store")
	}
	if registry == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("registry cannot be nil for Store")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		db:       db,
		registry: registry,
		logger:   logger.With(slog.String("component", "postgres_store")),
		mappers: map[string]entityMapper{
			domain.TypePosts:    postMapper{},
			domain.TypeUsers:    userMapper{},
			domain.TypeComments: commentMapper{},
			domain.TypeTags:     tagMapper{},
		},
	}
}

// Repository returns the repository serving the given resource type.
func (s *Store) Repository(resourceType string) (store.Repository, bool) {
	sch, ok := s.registry.Lookup(resourceType)
	if !ok {
		return nil, false
	}
	mapper, ok := s.mappers[resourceType]
	if !ok {
		return nil, false
	}
	return &repository{store: s, sch: sch, mapper: mapper}, true
}

// mapped resolves a resource type to its schema and mapper.
func (s *Store) mapped(resourceType string) (*schema.Schema, entityMapper, error) {
	sch, ok := s.registry.Lookup(resourceType)
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown type %q", store.ErrUnsupportedRelationship, resourceType)
	}
	mapper, ok := s.mappers[resourceType]
	if !ok {
		return nil, nil, fmt.Errorf("%w: unmapped type %q", store.ErrUnsupportedRelationship, resourceType)
	}
	return sch, mapper, nil
}
