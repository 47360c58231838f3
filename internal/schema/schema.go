package schema

// Kind identifies how a field's values are encoded on the wire. The query
// validator uses it to reject filter values the backing column cannot
// parse, before they reach the database.
type Kind int

const (
	// KindString accepts any value (the zero value).
	KindString Kind = iota

	// KindTime requires RFC 3339 timestamps.
	KindTime

	// KindUUID requires canonical UUID strings.
	KindUUID
)

// Attribute declares a single attribute field of a resource type.
type Attribute struct {
	// Name is the JSON:API field name (dash-cased, e.g. "published-at").
	Name string

	// Column is the backing database column.
	Column string

	// Kind constrains the values filter[<name>] accepts.
	Kind Kind

	// Sortable and Filterable gate which query parameters may reference
	// the field. Undeclared fields are rejected by the query validator.
	Sortable   bool
	Filterable bool
}

// Relationship declares a relationship field of a resource type, including
// the storage mapping the query builder needs for eager loading and
// relationship writes.
type Relationship struct {
	// Name is the JSON:API field name.
	Name string

	// Type is the related resource type.
	Type string

	// ToMany selects between to-one and to-many linkage.
	ToMany bool

	// AlwaysLinkage forces relationship data to be emitted even when the
	// relationship is not on an include path. Off by default: linkage is
	// shown only when include-requested.
	AlwaysLinkage bool

	// Filterable permits filter[<name>] against the relationship's
	// foreign key.
	Filterable bool

	// LocalColumn is the foreign key column on this resource's table
	// (to-one only).
	LocalColumn string

	// ForeignColumn is the foreign key column on the related resource's
	// table pointing back at this resource (to-many has-many only).
	ForeignColumn string

	// JoinTable, JoinLocalColumn, and JoinRelatedColumn describe a
	// many-to-many join table (to-many only, mutually exclusive with
	// ForeignColumn).
	JoinTable         string
	JoinLocalColumn   string
	JoinRelatedColumn string
}

// Schema declares one resource type: its field list, its declared query
// capabilities, and its storage mapping. A Schema is immutable after
// registration.
type Schema struct {
	// Type is the resource type name (pluralized, e.g. "posts").
	Type string

	// Table and IDColumn locate the backing rows.
	Table    string
	IDColumn string

	// IDKind constrains the values filter[id] accepts. Relationship
	// filters inherit the IDKind of the related type.
	IDKind Kind

	// DeletedAtColumn enables soft deletion when non-empty: deletes set
	// the column instead of removing the row, and reads exclude rows
	// where it is set.
	DeletedAtColumn string

	Attributes    []Attribute
	Relationships []Relationship

	// MaxIncludeDepth caps include paths rooted at this type. Zero means
	// the server-wide default applies.
	MaxIncludeDepth int

	// DefaultPageSize and MaxPageSize override the server-wide pagination
	// bounds when non-zero.
	DefaultPageSize int
	MaxPageSize     int
}

// Attribute returns the named attribute declaration.
func (s *Schema) Attribute(name string) (*Attribute, bool) {
	for i := range s.Attributes {
		if s.Attributes[i].Name == name {
			return &s.Attributes[i], true
		}
	}
	return nil, false
}

// Relationship returns the named relationship declaration.
func (s *Schema) Relationship(name string) (*Relationship, bool) {
	for i := range s.Relationships {
		if s.Relationships[i].Name == name {
			return &s.Relationships[i], true
		}
	}
	return nil, false
}

// HasField reports whether name is a declared attribute or relationship.
func (s *Schema) HasField(name string) bool {
	if _, ok := s.Attribute(name); ok {
		return true
	}
	_, ok := s.Relationship(name)
	return ok
}

// Sortable reports whether the named field may appear in sort. The id field
// is always sortable; it is also the implicit tie-break key.
func (s *Schema) Sortable(name string) bool {
	if name == "id" {
		return true
	}
	a, ok := s.Attribute(name)
	return ok && a.Sortable
}

// Filterable reports whether filter[name] is accepted. The id field is
// always filterable; a filterable relationship filters on its foreign key.
func (s *Schema) Filterable(name string) bool {
	if name == "id" {
		return true
	}
	if a, ok := s.Attribute(name); ok {
		return a.Filterable
	}
	if r, ok := s.Relationship(name); ok {
		return r.Filterable
	}
	return false
}

// SortColumn resolves a sortable field name to its backing column.
func (s *Schema) SortColumn(name string) (string, bool) {
	if name == "id" {
		return s.IDColumn, true
	}
	a, ok := s.Attribute(name)
	if !ok || !a.Sortable {
		return "", false
	}
	return a.Column, true
}

// FilterColumn resolves a filterable field name to its backing column.
func (s *Schema) FilterColumn(name string) (string, bool) {
	if name == "id" {
		return s.IDColumn, true
	}
	if a, ok := s.Attribute(name); ok && a.Filterable {
		return a.Column, true
	}
	if r, ok := s.Relationship(name); ok && r.Filterable && r.LocalColumn != "" {
		return r.LocalColumn, true
	}
	return "", false
}
