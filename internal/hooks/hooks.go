// Package hooks lets applications attach behavior to resource write
// operations without modifying the request pipeline. A Registry is built
// at startup and injected into the API handlers; there is no global
// registration.
//
// Before hooks run inside the operation and may veto it by returning an
// error, which the pipeline translates like any other failure. After
// hooks run once the write has committed; their errors are logged and do
// not affect the response.
package hooks

import (
	"context"

	"github.com/keelson/folio-api/internal/jsonapi"
	"github.com/keelson/folio-api/internal/schema"
)

// BeforeWriteFunc runs before a create or update is applied. The document
// is the parsed client payload; hooks may mutate it.
type BeforeWriteFunc func(ctx context.Context, doc *jsonapi.ResourceObject) error

// AfterWriteFunc runs after a create or update has committed, with the
// stored resource.
type AfterWriteFunc func(ctx context.Context, res schema.Resource) error

// BeforeDeleteFunc runs before a delete is applied.
type BeforeDeleteFunc func(ctx context.Context, res schema.Resource) error

type hookSet struct {
	beforeCreate []BeforeWriteFunc
	afterCreate  []AfterWriteFunc
	beforeUpdate []BeforeWriteFunc
	afterUpdate  []AfterWriteFunc
	beforeDelete []BeforeDeleteFunc
}

// Registry holds hooks keyed by resource type. The zero value is not
// usable; call NewRegistry.
type Registry struct {
	sets map[string]*hookSet
}

// NewRegistry creates an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{sets: make(map[string]*hookSet)}
}

func (r *Registry) set(resourceType string) *hookSet {
	s, ok := r.sets[resourceType]
	if !ok {
		s = &hookSet{}
		r.sets[resourceType] = s
	}
	return s
}

// OnBeforeCreate registers fn to run before resources of the given type
// are created.
func (r *Registry) OnBeforeCreate(resourceType string, fn BeforeWriteFunc) {
	s := r.set(resourceType)
	s.beforeCreate = append(s.beforeCreate, fn)
}

// OnAfterCreate registers fn to run after resources of the given type
// are created.
func (r *Registry) OnAfterCreate(resourceType string, fn AfterWriteFunc) {
	s := r.set(resourceType)
	s.afterCreate = append(s.afterCreate, fn)
}

// OnBeforeUpdate registers fn to run before resources of the given type
// are updated.
func (r *Registry) OnBeforeUpdate(resourceType string, fn BeforeWriteFunc) {
	s := r.set(resourceType)
	s.beforeUpdate = append(s.beforeUpdate, fn)
}

// OnAfterUpdate registers fn to run after resources of the given type
// are updated.
func (r *Registry) OnAfterUpdate(resourceType string, fn AfterWriteFunc) {
	s := r.set(resourceType)
	s.afterUpdate = append(s.afterUpdate, fn)
}

// OnBeforeDelete registers fn to run before resources of the given type
// are deleted.
func (r *Registry) OnBeforeDelete(resourceType string, fn BeforeDeleteFunc) {
	s := r.set(resourceType)
	s.beforeDelete = append(s.beforeDelete, fn)
}

// RunBeforeCreate runs the before-create hooks in registration order,
// stopping at the first error.
func (r *Registry) RunBeforeCreate(ctx context.Context, resourceType string, doc *jsonapi.ResourceObject) error {
	if s, ok := r.sets[resourceType]; ok {
		for _, fn := range s.beforeCreate {
			if err := fn(ctx, doc); err != nil {
				return err
			}
		}
	}
	return nil
}

// RunAfterCreate runs the after-create hooks in registration order,
// collecting nothing; the first error is returned for logging.
func (r *Registry) RunAfterCreate(ctx context.Context, res schema.Resource) error {
	if s, ok := r.sets[res.ResourceType()]; ok {
		for _, fn := range s.afterCreate {
			if err := fn(ctx, res); err != nil {
				return err
			}
		}
	}
	return nil
}

// RunBeforeUpdate runs the before-update hooks in registration order,
// stopping at the first error.
func (r *Registry) RunBeforeUpdate(ctx context.Context, resourceType string, doc *jsonapi.ResourceObject) error {
	if s, ok := r.sets[resourceType]; ok {
		for _, fn := range s.beforeUpdate {
			if err := fn(ctx, doc); err != nil {
				return err
			}
		}
	}
	return nil
}

// RunAfterUpdate runs the after-update hooks in registration order; the
// first error is returned for logging.
func (r *Registry) RunAfterUpdate(ctx context.Context, res schema.Resource) error {
	if s, ok := r.sets[res.ResourceType()]; ok {
		for _, fn := range s.afterUpdate {
			if err := fn(ctx, res); err != nil {
				return err
			}
		}
	}
	return nil
}

// RunBeforeDelete runs the before-delete hooks in registration order,
// stopping at the first error.
func (r *Registry) RunBeforeDelete(ctx context.Context, res schema.Resource) error {
	if s, ok := r.sets[res.ResourceType()]; ok {
		for _, fn := range s.beforeDelete {
			if err := fn(ctx, res); err != nil {
				return err
			}
		}
	}
	return nil
}
