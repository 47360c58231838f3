package query

// SortField is one sort key with its direction. A leading "-" on the query
// token selects descending order.
type SortField struct {
	Name       string
	Descending bool
}

// Page is the validated pagination request (page-number strategy).
type Page struct {
	Number int
	Size   int
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Params is a validated, typed query parameter set.
type Params struct {
	// Includes holds the requested include paths, each split on dots.
	Includes [][]string

	// Fields holds the sparse fieldsets per resource type. A type absent
	// from the map is unrestricted; a type mapped to an empty slice emits
	// no fields at all.
	Fields map[string][]string

	// Filters maps filterable field names to their requested values.
	// Multiple values form a set membership predicate.
	Filters map[string][]string

	// Sorts holds the requested ordering, most significant key first. The
	// query builder appends an id tie-break so pagination is
	// deterministic.
	Sorts []SortField

	// Page is the validated pagination request.
	Page Page
}

// EmptyParams returns a parameter set with no includes, fieldsets,
// filters, or sorting, used when serializing write responses.
func EmptyParams() *Params {
	return &Params{}
}

// FieldsFor returns the sparse fieldset for a type. restricted is false
// when the client did not constrain the type.
func (p *Params) FieldsFor(resourceType string) (fields []string, restricted bool) {
	if p == nil || p.Fields == nil {
		return nil, false
	}
	fields, restricted = p.Fields[resourceType]
	return fields, restricted
}

// FieldVisible reports whether a field of the given type survives the
// sparse fieldset selection.
func (p *Params) FieldVisible(resourceType, field string) bool {
	fields, restricted := p.FieldsFor(resourceType)
	if !restricted {
		return true
	}
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}

// Included reports whether the given relationship path prefix is on any
// requested include path.
func (p *Params) Included(path ...string) bool {
	if p == nil {
		return false
	}
	for _, inc := range p.Includes {
		if len(inc) < len(path) {
			continue
		}
		match := true
		for i, seg := range path {
			if inc[i] != seg {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// SingularFilter reports whether the filters pin the primary key to exactly
// one value. Such a request may legally resolve to a single resource or
// null even on a collection endpoint.
func (p *Params) SingularFilter() (string, bool) {
	if p == nil {
		return "", false
	}
	ids, ok := p.Filters["id"]
	if !ok || len(ids) != 1 {
		return "", false
	}
	return ids[0], true
}
