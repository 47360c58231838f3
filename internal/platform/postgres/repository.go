package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/keelson/folio-api/internal/domain"
	"github.com/keelson/folio-api/internal/jsonapi"
	"github.com/keelson/folio-api/internal/query"
	"github.com/keelson/folio-api/internal/schema"
	"github.com/keelson/folio-api/internal/serializer"
	"github.com/keelson/folio-api/internal/store"
)

// repository implements store.Repository for one resource type, driven
// entirely by the schema and the type's entity mapper.
type repository struct {
	store  *Store
	sch    *schema.Schema
	mapper entityMapper
}

var _ store.Repository = (*repository)(nil)

// Schema implements store.Repository.
func (r *repository) Schema() *schema.Schema { return r.sch }

// List implements store.Repository. The parameter set has already been
// validated; translation failures here indicate a programming error and
// surface as store failures.
func (r *repository) List(ctx context.Context, params *query.Params) (*store.ListResult, error) {
	listSQL, listArgs, err := buildList(r.sch, r.mapper.columns(), params)
	if err != nil {
		return nil, store.Failure("build list query", err)
	}

	rows, err := r.store.db.QueryContext(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, mapError("list "+r.sch.Type, err)
	}
	defer func() { _ = rows.Close() }()

	var resources []schema.Resource
	for rows.Next() {
		dests, build := r.mapper.scanTarget()
		if err := rows.Scan(dests...); err != nil {
			return nil, store.Failure("scan "+r.sch.Type, err)
		}
		res, err := build()
		if err != nil {
			return nil, store.Failure("build "+r.sch.Type, err)
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Failure("iterate "+r.sch.Type, err)
	}

	countSQL, countArgs, err := buildCount(r.sch, params)
	if err != nil {
		return nil, store.Failure("build count query", err)
	}
	var total int64
	if err := r.store.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, mapError("count "+r.sch.Type, err)
	}

	return &store.ListResult{Resources: resources, Total: total}, nil
}

// FindByID implements store.Repository.
func (r *repository) FindByID(ctx context.Context, id string) (schema.Resource, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, store.ErrNotFound
	}
	return r.findByID(ctx, r.store.db, id)
}

func (r *repository) findByID(ctx context.Context, db store.DBTX, id string) (schema.Resource, error) {
	row := db.QueryRowContext(ctx, buildGet(r.sch, r.mapper.columns()), id)
	dests, build := r.mapper.scanTarget()
	if err := row.Scan(dests...); err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, mapError("get "+r.sch.Type, err)
	}
	res, err := build()
	if err != nil {
		return nil, store.Failure("build "+r.sch.Type, err)
	}
	return res, nil
}

// Create implements store.Repository. The row insert and any to-many
// relationship linkage from the document commit atomically.
func (r *repository) Create(ctx context.Context, doc *jsonapi.ResourceObject) (schema.Resource, error) {
	if err := r.checkFields(doc); err != nil {
		return nil, err
	}

	res, err := r.mapper.bindCreate(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	cols := r.mapper.columns()
	insertSQL := "INSERT INTO " + r.sch.Table + " (" + strings.Join(cols, ", ") + ")" +
		" VALUES (" + placeholders(1, len(cols)) + ")"

	err = store.RunInTransaction(ctx, r.store.db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertSQL, r.mapper.values(res)...); err != nil {
			return mapError("insert "+r.sch.Type, err)
		}
		return r.applyToManyRelationships(ctx, tx, res.ResourceID(), doc)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Update implements store.Repository. Fields absent from the document keep
// their stored values.
func (r *repository) Update(ctx context.Context, id string, doc *jsonapi.ResourceObject) (schema.Resource, error) {
	if err := r.checkFields(doc); err != nil {
		return nil, err
	}

	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := r.mapper.bindUpdate(existing, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	cols := r.mapper.columns()
	assignments := make([]string, 0, len(cols))
	for i, col := range cols {
		assignments = append(assignments, col+" = $"+strconv.Itoa(i+1))
	}
	updateSQL := "UPDATE " + r.sch.Table + " SET " + strings.Join(assignments, ", ") +
		" WHERE " + r.sch.IDColumn + " = $" + strconv.Itoa(len(cols)+1)

	args := append(r.mapper.values(res), id)
	err = store.RunInTransaction(ctx, r.store.db, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, updateSQL, args...)
		if err != nil {
			return mapError("update "+r.sch.Type, err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return store.ErrNotFound
		}
		return r.applyToManyRelationships(ctx, tx, id, doc)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Delete implements store.Repository, soft-deleting when the schema
// declares a deleted-at column.
func (r *repository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return store.ErrNotFound
	}

	var deleteSQL string
	if r.sch.DeletedAtColumn != "" {
		deleteSQL = "UPDATE " + r.sch.Table + " SET " + r.sch.DeletedAtColumn + " = NOW()" +
			" WHERE " + r.sch.IDColumn + " = $1 AND " + r.sch.DeletedAtColumn + " IS NULL"
	} else {
		deleteSQL = "DELETE FROM " + r.sch.Table + " WHERE " + r.sch.IDColumn + " = $1"
	}

	result, err := r.store.db.ExecContext(ctx, deleteSQL, id)
	if err != nil {
		return mapError("delete "+r.sch.Type, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetRelationship implements store.Repository with full-replacement (sync)
// semantics. To-one relationships rewrite the foreign key; many-to-many
// relationships rewrite the join table rows atomically. Foreign-key
// has-many relationships reject full replacement.
func (r *repository) SetRelationship(ctx context.Context, id, relationship string, refs []jsonapi.ResourceIdentifier) error {
	rel, ok := r.sch.Relationship(relationship)
	if !ok {
		return store.ErrUnsupportedRelationship
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}

	switch {
	case rel.LocalColumn != "":
		return r.setToOne(ctx, rel, id, refs)
	case rel.JoinTable != "":
		return store.RunInTransaction(ctx, r.store.db, func(ctx context.Context, tx *sql.Tx) error {
			return r.syncJoinTable(ctx, tx, rel, id, refs)
		})
	default:
		return store.ErrUnsupportedRelationship
	}
}

// AddToRelationship implements store.Repository for to-many join-table
// relationships; already-attached targets are ignored.
func (r *repository) AddToRelationship(ctx context.Context, id, relationship string, refs []jsonapi.ResourceIdentifier) error {
	rel, ok := r.sch.Relationship(relationship)
	if !ok || rel.JoinTable == "" {
		return store.ErrUnsupportedRelationship
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}

	return store.RunInTransaction(ctx, r.store.db, func(ctx context.Context, tx *sql.Tx) error {
		insertSQL := "INSERT INTO " + rel.JoinTable + " (" + rel.JoinLocalColumn + ", " + rel.JoinRelatedColumn + ")" +
			" VALUES ($1, $2) ON CONFLICT DO NOTHING"
		for _, ref := range dedupe(refs) {
			if _, err := tx.ExecContext(ctx, insertSQL, id, ref.ID); err != nil {
				return mapError("attach "+relationship, err)
			}
		}
		return nil
	})
}

// RemoveFromRelationship implements store.Repository for to-many
// join-table relationships; targets not attached are ignored.
func (r *repository) RemoveFromRelationship(ctx context.Context, id, relationship string, refs []jsonapi.ResourceIdentifier) error {
	rel, ok := r.sch.Relationship(relationship)
	if !ok || rel.JoinTable == "" {
		return store.ErrUnsupportedRelationship
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	if len(refs) == 0 {
		return nil
	}

	ids := make([]interface{}, 0, len(refs)+1)
	ids = append(ids, id)
	for _, ref := range dedupe(refs) {
		ids = append(ids, ref.ID)
	}

	deleteSQL := "DELETE FROM " + rel.JoinTable +
		" WHERE " + rel.JoinLocalColumn + " = $1" +
		" AND " + rel.JoinRelatedColumn + " IN (" + placeholders(2, len(ids)-1) + ")"
	if _, err := r.store.db.ExecContext(ctx, deleteSQL, ids...); err != nil {
		return mapError("detach "+relationship, err)
	}
	return nil
}

// LoadGraph implements store.Repository.
func (r *repository) LoadGraph(ctx context.Context, primaries []schema.Resource, includes [][]string) (serializer.Graph, error) {
	return r.store.loadGraph(ctx, r.sch, primaries, includes)
}

// setToOne rewrites the foreign key column. The referential constraint
// turns a dangling target into ErrRelatedNotFound.
func (r *repository) setToOne(ctx context.Context, rel *schema.Relationship, id string, refs []jsonapi.ResourceIdentifier) error {
	var target interface{}
	if len(refs) > 0 {
		if _, err := uuid.Parse(refs[0].ID); err != nil {
			return store.ErrRelatedNotFound
		}
		target = refs[0].ID
	}

	updateSQL := "UPDATE " + r.sch.Table + " SET " + rel.LocalColumn + " = $1" +
		" WHERE " + r.sch.IDColumn + " = $2"
	result, err := r.store.db.ExecContext(ctx, updateSQL, target, id)
	if err != nil {
		return mapError("set "+rel.Name, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// syncJoinTable replaces the join rows for one parent: verify every target
// exists, delete the old rows, insert the new set in request order.
func (r *repository) syncJoinTable(ctx context.Context, tx *sql.Tx, rel *schema.Relationship, id string, refs []jsonapi.ResourceIdentifier) error {
	refs = dedupe(refs)

	relSchema, _, err := r.store.mapped(rel.Type)
	if err != nil {
		return err
	}

	if len(refs) > 0 {
		ids := make([]interface{}, 0, len(refs))
		for _, ref := range refs {
			if _, err := uuid.Parse(ref.ID); err != nil {
				return store.ErrRelatedNotFound
			}
			ids = append(ids, ref.ID)
		}
		countSQL := "SELECT COUNT(*) FROM " + relSchema.Table +
			" WHERE " + relSchema.IDColumn + " IN (" + placeholders(1, len(ids)) + ")"
		var n int
		if err := tx.QueryRowContext(ctx, countSQL, ids...).Scan(&n); err != nil {
			return mapError("verify "+rel.Name, err)
		}
		if n != len(refs) {
			return store.ErrRelatedNotFound
		}
	}

	deleteSQL := "DELETE FROM " + rel.JoinTable + " WHERE " + rel.JoinLocalColumn + " = $1"
	if _, err := tx.ExecContext(ctx, deleteSQL, id); err != nil {
		return mapError("sync "+rel.Name, err)
	}

	insertSQL := "INSERT INTO " + rel.JoinTable + " (" + rel.JoinLocalColumn + ", " + rel.JoinRelatedColumn + ")" +
		" VALUES ($1, $2)"
	for _, ref := range refs {
		if _, err := tx.ExecContext(ctx, insertSQL, id, ref.ID); err != nil {
			return mapError("sync "+rel.Name, err)
		}
	}
	return nil
}

// applyToManyRelationships syncs any to-many linkage carried by a create
// or update document.
func (r *repository) applyToManyRelationships(ctx context.Context, tx *sql.Tx, id string, doc *jsonapi.ResourceObject) error {
	for name, relObj := range doc.Relationships {
		rel, ok := r.sch.Relationship(name)
		if !ok || !rel.ToMany || relObj.Data == nil {
			continue
		}
		if rel.JoinTable == "" {
			return store.ErrUnsupportedRelationship
		}
		if err := r.syncJoinTable(ctx, tx, rel, id, relObj.Data.Many); err != nil {
			return err
		}
	}
	return nil
}

// checkFields rejects document fields the schema does not declare,
// reporting every unknown field at once in a stable order.
func (r *repository) checkFields(doc *jsonapi.ResourceObject) error {
	attrNames := make([]string, 0, len(doc.Attributes))
	for name := range doc.Attributes {
		attrNames = append(attrNames, name)
	}
	sort.Strings(attrNames)

	relNames := make([]string, 0, len(doc.Relationships))
	for name := range doc.Relationships {
		relNames = append(relNames, name)
	}
	sort.Strings(relNames)

	var errs domain.ValidationErrors
	for _, name := range attrNames {
		if _, ok := r.sch.Attribute(name); !ok {
			errs = append(errs, domain.NewValidationError(name, "is not a known attribute"))
		}
	}
	for _, name := range relNames {
		if _, ok := r.sch.Relationship(name); !ok {
			errs = append(errs, domain.NewValidationError(name, "is not a known relationship"))
		}
	}
	if errs != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, errs)
	}
	return nil
}

// dedupe removes duplicate identifiers preserving first-seen order, which
// defines the canonical response order for relationship sync.
func dedupe(refs []jsonapi.ResourceIdentifier) []jsonapi.ResourceIdentifier {
	seen := make(map[string]bool, len(refs))
	out := make([]jsonapi.ResourceIdentifier, 0, len(refs))
	for _, ref := range refs {
		key := ref.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ref)
	}
	return out
}
