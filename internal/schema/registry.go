package schema

import (
	"errors"
	"fmt"
	"sort"
)

// Registry validation errors.
var (
	// ErrDuplicateType is returned when a resource type is registered twice.
	ErrDuplicateType = errors.New("resource type already registered")

	// ErrReservedField is returned when a schema declares a field named
	// "type" or "id".
	ErrReservedField = errors.New("field name is reserved")

	// ErrDuplicateField is returned when a field name is used by more than
	// one attribute or relationship of the same schema.
	ErrDuplicateField = errors.New("duplicate field name")

	// ErrUnknownType is returned when a relationship targets a resource
	// type that was never registered.
	ErrUnknownType = errors.New("unknown resource type")
)

// Registry maps resource type names to schemas. Register all schemas at
// bootstrap, call Validate once, and treat the registry as read-only from
// then on.
type Registry struct {
	schemas map[string]*Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*Schema)}
}

// Register adds a schema, enforcing the field-name invariants: no field
// named "type" or "id", and one flat namespace across attributes and
// relationships.
func (r *Registry) Register(s *Schema) error {
	if s.Type == "" {
		return fmt.Errorf("schema has no resource type")
	}
	if _, ok := r.schemas[s.Type]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateType, s.Type)
	}

	seen := make(map[string]bool, len(s.Attributes)+len(s.Relationships))
	check := func(name string) error {
		if name == "type" || name == "id" {
			return fmt.Errorf("%w: %s.%s", ErrReservedField, s.Type, name)
		}
		if seen[name] {
			return fmt.Errorf("%w: %s.%s", ErrDuplicateField, s.Type, name)
		}
		seen[name] = true
		return nil
	}
	for _, a := range s.Attributes {
		if err := check(a.Name); err != nil {
			return err
		}
	}
	for _, rel := range s.Relationships {
		if err := check(rel.Name); err != nil {
			return err
		}
	}

	r.schemas[s.Type] = s
	return nil
}

// Validate checks cross-schema integrity: every relationship must target a
// registered resource type. Call after all schemas are registered.
func (r *Registry) Validate() error {
	for _, s := range r.schemas {
		for _, rel := range s.Relationships {
			if _, ok := r.schemas[rel.Type]; !ok {
				return fmt.Errorf("%w: %s.%s targets %q", ErrUnknownType, s.Type, rel.Name, rel.Type)
			}
		}
	}
	return nil
}

// Lookup returns the schema for a resource type.
func (r *Registry) Lookup(resourceType string) (*Schema, bool) {
	s, ok := r.schemas[resourceType]
	return s, ok
}

// Types returns the registered resource type names in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.schemas))
	for t := range r.schemas {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
