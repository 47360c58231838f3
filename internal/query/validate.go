package query

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keelson/folio-api/internal/jsonapi"
	"github.com/keelson/folio-api/internal/schema"
)

// Bounds carries the server-wide pagination and include limits. The page
// size cap is configuration, not a protocol constant; it must be supplied
// by the caller.
type Bounds struct {
	DefaultPageSize int
	MaxPageSize     int
	MaxIncludeDepth int
}

// Validator validates raw query strings against resource schemas.
type Validator struct {
	registry *schema.Registry
	bounds   Bounds
}

// NewValidator creates a validator. The registry and positive bounds are
// required.
func NewValidator(registry *schema.Registry, bounds Bounds) *Validator {
	if registry == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("registry cannot be nil for Validator")
	}
	if bounds.DefaultPageSize <= 0 || bounds.MaxPageSize <= 0 || bounds.MaxIncludeDepth <= 0 {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("validator bounds must be positive")
	}
	return &Validator{registry: registry, bounds: bounds}
}

// Validate checks every recognized parameter against the target schema and
// returns a typed parameter set, or one error per invalid parameter. The
// parameter set always carries a concrete page so downstream pagination is
// deterministic even for clients that sent none.
func (v *Validator) Validate(sch *schema.Schema, values url.Values) (*Params, jsonapi.ErrorList) {
	params := &Params{
		Filters: make(map[string][]string),
		Page:    Page{Number: 1, Size: v.defaultPageSize(sch)},
	}
	var errs jsonapi.ErrorList

	for key, raw := range values {
		switch {
		case key == "include":
			errs = append(errs, v.parseInclude(sch, raw, params)...)
		case key == "sort":
			errs = append(errs, v.parseSort(sch, raw, params)...)
		case strings.HasPrefix(key, "fields[") && strings.HasSuffix(key, "]"):
			typ := key[len("fields[") : len(key)-1]
			errs = append(errs, v.parseFields(key, typ, raw, params)...)
		case strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]"):
			field := key[len("filter[") : len(key)-1]
			errs = append(errs, v.parseFilter(sch, key, field, raw, params)...)
		case key == "page[number]" || key == "page[size]":
			errs = append(errs, v.parsePage(sch, key, raw, params)...)
		default:
			errs = append(errs, queryError(key, "unknown query parameter %q", key))
		}
	}

	if errs != nil {
		return nil, errs
	}
	return params, nil
}

func (v *Validator) defaultPageSize(sch *schema.Schema) int {
	if sch.DefaultPageSize > 0 {
		return sch.DefaultPageSize
	}
	return v.bounds.DefaultPageSize
}

func (v *Validator) maxPageSize(sch *schema.Schema) int {
	if sch.MaxPageSize > 0 {
		return sch.MaxPageSize
	}
	return v.bounds.MaxPageSize
}

func (v *Validator) maxIncludeDepth(sch *schema.Schema) int {
	if sch.MaxIncludeDepth > 0 {
		return sch.MaxIncludeDepth
	}
	return v.bounds.MaxIncludeDepth
}

// parseInclude validates each dot path segment by segment, walking the
// relationship graph from the target schema.
func (v *Validator) parseInclude(sch *schema.Schema, raw []string, params *Params) jsonapi.ErrorList {
	var errs jsonapi.ErrorList
	maxDepth := v.maxIncludeDepth(sch)

	for _, path := range splitCSV(raw) {
		segments := strings.Split(path, ".")
		if len(segments) > maxDepth {
			errs = append(errs, queryError("include",
				"include path %q exceeds the maximum depth of %d", path, maxDepth))
			continue
		}

		current := sch
		valid := true
		for _, seg := range segments {
			rel, ok := current.Relationship(seg)
			if !ok {
				errs = append(errs, queryError("include",
					"%q is not a relationship of %q", seg, current.Type))
				valid = false
				break
			}
			next, ok := v.registry.Lookup(rel.Type)
			if !ok {
				errs = append(errs, queryError("include",
					"include path %q references unknown type %q", path, rel.Type))
				valid = false
				break
			}
			current = next
		}
		if valid {
			params.Includes = append(params.Includes, segments)
		}
	}
	return errs
}

func (v *Validator) parseSort(sch *schema.Schema, raw []string, params *Params) jsonapi.ErrorList {
	var errs jsonapi.ErrorList
	for _, token := range splitCSV(raw) {
		field := token
		descending := false
		if strings.HasPrefix(token, "-") {
			field = token[1:]
			descending = true
		}
		if !sch.Sortable(field) {
			errs = append(errs, queryError("sort",
				"%q is not a sortable field of %q", field, sch.Type))
			continue
		}
		params.Sorts = append(params.Sorts, SortField{Name: field, Descending: descending})
	}
	return errs
}

func (v *Validator) parseFields(param, typ string, raw []string, params *Params) jsonapi.ErrorList {
	target, ok := v.registry.Lookup(typ)
	if !ok {
		return jsonapi.ErrorList{queryError(param, "unknown resource type %q", typ)}
	}

	var errs jsonapi.ErrorList
	fields := []string{}
	for _, name := range splitCSV(raw) {
		if !target.HasField(name) {
			errs = append(errs, queryError(param,
				"%q is not a field of %q", name, typ))
			continue
		}
		fields = append(fields, name)
	}
	if errs != nil {
		return errs
	}

	if params.Fields == nil {
		params.Fields = make(map[string][]string)
	}
	params.Fields[typ] = fields
	return nil
}

func (v *Validator) parseFilter(sch *schema.Schema, param, field string, raw []string, params *Params) jsonapi.ErrorList {
	if !sch.Filterable(field) {
		return jsonapi.ErrorList{queryError(param,
			"%q is not a filterable field of %q", field, sch.Type)}
	}

	kind := v.filterKind(sch, field)
	var errs jsonapi.ErrorList
	values := splitCSV(raw)
	for _, value := range values {
		if !validFilterValue(kind, value) {
			errs = append(errs, queryError(param,
				"%q is not a valid value for %q", value, field))
		}
	}
	if errs != nil {
		return errs
	}

	params.Filters[field] = append(params.Filters[field], values...)
	return nil
}

// filterKind resolves the value kind a filter field accepts. A relationship
// filter matches against the related type's primary key.
func (v *Validator) filterKind(sch *schema.Schema, field string) schema.Kind {
	if field == "id" {
		return sch.IDKind
	}
	if a, ok := sch.Attribute(field); ok {
		return a.Kind
	}
	if r, ok := sch.Relationship(field); ok {
		if related, ok := v.registry.Lookup(r.Type); ok {
			return related.IDKind
		}
	}
	return schema.KindString
}

func validFilterValue(kind schema.Kind, value string) bool {
	switch kind {
	case schema.KindUUID:
		_, err := uuid.Parse(value)
		return err == nil
	case schema.KindTime:
		_, err := time.Parse(time.RFC3339, value)
		return err == nil
	default:
		return true
	}
}

func (v *Validator) parsePage(sch *schema.Schema, key string, raw []string, params *Params) jsonapi.ErrorList {
	if len(raw) != 1 {
		return jsonapi.ErrorList{queryError(key, "parameter given more than once")}
	}
	n, err := strconv.Atoi(raw[0])
	if err != nil || n < 1 {
		return jsonapi.ErrorList{queryError(key, "must be a positive integer, got %q", raw[0])}
	}

	switch key {
	case "page[number]":
		params.Page.Number = n
	case "page[size]":
		if max := v.maxPageSize(sch); n > max {
			return jsonapi.ErrorList{queryError(key,
				"page size %d exceeds the maximum of %d", n, max)}
		}
		params.Page.Size = n
	}
	return nil
}

// splitCSV flattens repeated parameter values and splits each on commas,
// dropping empty tokens.
func splitCSV(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, token := range strings.Split(v, ",") {
			token = strings.TrimSpace(token)
			if token != "" {
				out = append(out, token)
			}
		}
	}
	return out
}

// queryError builds a 400 query-parameter error carrying source.parameter.
func queryError(param, format string, args ...interface{}) *jsonapi.ErrorObject {
	return jsonapi.NewError(http.StatusBadRequest, "Invalid query parameter",
		fmt.Sprintf(format, args...)).
		WithCode("invalid_query_parameter").
		WithParameter(param)
}
