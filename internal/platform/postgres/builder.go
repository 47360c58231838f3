package postgres

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/keelson/folio-api/internal/query"
	"github.com/keelson/folio-api/internal/schema"
)

// selectBuilder assembles parameterized SELECT statements from a schema and
// a validated parameter set. Only validated parameters ever reach it, so
// every identifier it interpolates comes from the schema, never from the
// client.
type selectBuilder struct {
	sch  *schema.Schema
	args []interface{}
}

func newSelectBuilder(sch *schema.Schema) *selectBuilder {
	return &selectBuilder{sch: sch}
}

// placeholder appends an argument and returns its $n placeholder.
func (b *selectBuilder) placeholder(v interface{}) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// where builds the WHERE clause from the filters and the soft-delete rule.
// Filter fields are processed in sorted order so the generated SQL is
// deterministic.
func (b *selectBuilder) where(params *query.Params) (string, error) {
	var clauses []string

	if b.sch.DeletedAtColumn != "" {
		clauses = append(clauses, b.sch.DeletedAtColumn+" IS NULL")
	}

	if params != nil {
		fields := make([]string, 0, len(params.Filters))
		for f := range params.Filters {
			fields = append(fields, f)
		}
		sort.Strings(fields)

		for _, field := range fields {
			col, ok := b.sch.FilterColumn(field)
			if !ok {
				return "", fmt.Errorf("field %q is not filterable on %q", field, b.sch.Type)
			}
			values := params.Filters[field]
			switch len(values) {
			case 0:
				continue
			case 1:
				clauses = append(clauses, col+" = "+b.placeholder(values[0]))
			default:
				phs := make([]string, 0, len(values))
				for _, v := range values {
					phs = append(phs, b.placeholder(v))
				}
				clauses = append(clauses, col+" IN ("+strings.Join(phs, ", ")+")")
			}
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), nil
}

// orderBy builds the ORDER BY clause: the requested sort keys in order,
// tie-broken by the primary key unless the client already sorted on it.
// The tie-break makes pagination deterministic.
func (b *selectBuilder) orderBy(params *query.Params) (string, error) {
	var keys []string
	sortedOnID := false

	if params != nil {
		for _, s := range params.Sorts {
			col, ok := b.sch.SortColumn(s.Name)
			if !ok {
				return "", fmt.Errorf("field %q is not sortable on %q", s.Name, b.sch.Type)
			}
			if s.Name == "id" {
				sortedOnID = true
			}
			dir := " ASC"
			if s.Descending {
				dir = " DESC"
			}
			keys = append(keys, col+dir)
		}
	}

	if !sortedOnID {
		keys = append(keys, b.sch.IDColumn+" ASC")
	}
	return " ORDER BY " + strings.Join(keys, ", "), nil
}

// buildList assembles the paginated collection query.
func buildList(sch *schema.Schema, columns []string, params *query.Params) (string, []interface{}, error) {
	b := newSelectBuilder(sch)

	where, err := b.where(params)
	if err != nil {
		return "", nil, err
	}
	order, err := b.orderBy(params)
	if err != nil {
		return "", nil, err
	}

	sql := "SELECT " + strings.Join(columns, ", ") + " FROM " + sch.Table + where + order
	if params != nil && params.Page.Size > 0 {
		sql += " LIMIT " + b.placeholder(params.Page.Size) +
			" OFFSET " + b.placeholder(params.Page.Offset())
	}
	return sql, b.args, nil
}

// buildCount assembles the unpaginated total query matching buildList's
// predicate.
func buildCount(sch *schema.Schema, params *query.Params) (string, []interface{}, error) {
	b := newSelectBuilder(sch)
	where, err := b.where(params)
	if err != nil {
		return "", nil, err
	}
	return "SELECT COUNT(*) FROM " + sch.Table + where, b.args, nil
}

// buildGet assembles the single-resource lookup.
func buildGet(sch *schema.Schema, columns []string) string {
	sql := "SELECT " + strings.Join(columns, ", ") + " FROM " + sch.Table +
		" WHERE " + sch.IDColumn + " = $1"
	if sch.DeletedAtColumn != "" {
		sql += " AND " + sch.DeletedAtColumn + " IS NULL"
	}
	return sql
}
