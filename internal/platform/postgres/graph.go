package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/keelson/folio-api/internal/schema"
	"github.com/keelson/folio-api/internal/store"
)

// graph is the loaded relationship data for one request. Keys are
// "type:id" of the parent resource.
type graph struct {
	related map[string]map[string][]schema.Resource
}

func newGraph() *graph {
	return &graph{related: make(map[string]map[string][]schema.Resource)}
}

func (g *graph) set(parent schema.Resource, relationship string, resources []schema.Resource) {
	key := parent.ResourceType() + ":" + parent.ResourceID()
	rels, ok := g.related[key]
	if !ok {
		rels = make(map[string][]schema.Resource)
		g.related[key] = rels
	}
	rels[relationship] = resources
}

// Related implements serializer.Graph.
func (g *graph) Related(parent schema.Resource, relationship string) ([]schema.Resource, bool) {
	rels, ok := g.related[parent.ResourceType()+":"+parent.ResourceID()]
	if !ok {
		return nil, false
	}
	resources, ok := rels[relationship]
	return resources, ok
}

// loadGraph walks the include paths breadth-wise from the primary
// resources, issuing one batched query per (level, relationship) instead of
// one per resource. Always-linkage relationships of the primary type are
// loaded too so their data can be emitted without a client include.
func (s *Store) loadGraph(ctx context.Context, sch *schema.Schema, primaries []schema.Resource, includes [][]string) (*graph, error) {
	g := newGraph()
	if len(primaries) == 0 {
		return g, nil
	}

	for i := range sch.Relationships {
		rel := &sch.Relationships[i]
		if !rel.AlwaysLinkage {
			continue
		}
		if _, err := s.loadLevel(ctx, g, sch, primaries, rel); err != nil {
			return nil, err
		}
	}

	for _, path := range includes {
		level := primaries
		levelSchema := sch
		for _, seg := range path {
			rel, ok := levelSchema.Relationship(seg)
			if !ok {
				return nil, store.ErrUnsupportedRelationship
			}
			next, err := s.loadLevel(ctx, g, levelSchema, level, rel)
			if err != nil {
				return nil, err
			}
			nextSchema, ok := s.registry.Lookup(rel.Type)
			if !ok {
				return nil, store.ErrUnsupportedRelationship
			}
			level = next
			levelSchema = nextSchema
		}
	}
	return g, nil
}

// loadLevel loads one relationship for every parent in the level with a
// single query, records the results in the graph, and returns the distinct
// related resources for the next level.
func (s *Store) loadLevel(ctx context.Context, g *graph, parentSchema *schema.Schema, parents []schema.Resource, rel *schema.Relationship) ([]schema.Resource, error) {
	// Parents whose relationship is already loaded (include paths sharing
	// a prefix, e.g. "author" and "author.posts") are not re-queried, but
	// their children still feed the next level.
	var pending []schema.Resource
	for _, p := range parents {
		if _, ok := g.Related(p, rel.Name); !ok {
			pending = append(pending, p)
		}
	}

	if len(pending) > 0 {
		var err error
		switch {
		case rel.LocalColumn != "":
			err = s.loadToOne(ctx, g, pending, rel)
		case rel.JoinTable != "":
			err = s.loadManyToMany(ctx, g, pending, rel)
		case rel.ForeignColumn != "":
			err = s.loadHasMany(ctx, g, pending, rel)
		default:
			err = store.ErrUnsupportedRelationship
		}
		if err != nil {
			return nil, err
		}
	}

	var next []schema.Resource
	seen := make(map[string]bool)
	for _, p := range parents {
		related, _ := g.Related(p, rel.Name)
		for _, r := range related {
			if !seen[r.ResourceID()] {
				seen[r.ResourceID()] = true
				next = append(next, r)
			}
		}
	}
	return next, nil
}

// loadToOne resolves a foreign-key relationship with one IN query over the
// related table.
func (s *Store) loadToOne(ctx context.Context, g *graph, parents []schema.Resource, rel *schema.Relationship) error {
	relSchema, mapper, err := s.mapped(rel.Type)
	if err != nil {
		return err
	}

	ids := make([]interface{}, 0, len(parents))
	seen := make(map[string]bool)
	for _, p := range parents {
		ref, ok := p.(schema.ToOneRef)
		if !ok {
			return store.ErrUnsupportedRelationship
		}
		id, ok := ref.RelatedID(rel.Name)
		if !ok || id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	byID := make(map[string]schema.Resource)
	if len(ids) > 0 {
		sql := "SELECT " + strings.Join(mapper.columns(), ", ") + " FROM " + relSchema.Table +
			" WHERE " + relSchema.IDColumn + " IN (" + placeholders(1, len(ids)) + ")"
		if relSchema.DeletedAtColumn != "" {
			sql += " AND " + relSchema.DeletedAtColumn + " IS NULL"
		}

		rows, err := s.db.QueryContext(ctx, sql, ids...)
		if err != nil {
			return mapError("load to-one "+rel.Name, err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			dests, build := mapper.scanTarget()
			if err := rows.Scan(dests...); err != nil {
				return store.Failure("scan "+rel.Type, err)
			}
			res, err := build()
			if err != nil {
				return store.Failure("build "+rel.Type, err)
			}
			byID[res.ResourceID()] = res
		}
		if err := rows.Err(); err != nil {
			return store.Failure("iterate "+rel.Type, err)
		}
	}

	for _, p := range parents {
		ref := p.(schema.ToOneRef)
		id, _ := ref.RelatedID(rel.Name)
		if res, ok := byID[id]; ok {
			g.set(p, rel.Name, []schema.Resource{res})
		} else {
			g.set(p, rel.Name, nil)
		}
	}
	return nil
}

// loadHasMany resolves a foreign-key has-many with one IN query over the
// related table, grouping rows by their foreign key.
func (s *Store) loadHasMany(ctx context.Context, g *graph, parents []schema.Resource, rel *schema.Relationship) error {
	relSchema, mapper, err := s.mapped(rel.Type)
	if err != nil {
		return err
	}

	// The related schema's to-one relationship backed by the same column
	// tells us how to read each row's parent id.
	inverse := ""
	for _, r := range relSchema.Relationships {
		if r.LocalColumn == rel.ForeignColumn {
			inverse = r.Name
			break
		}
	}
	if inverse == "" {
		return store.ErrUnsupportedRelationship
	}

	ids := make([]interface{}, 0, len(parents))
	for _, p := range parents {
		ids = append(ids, p.ResourceID())
	}

	sql := "SELECT " + strings.Join(mapper.columns(), ", ") + " FROM " + relSchema.Table +
		" WHERE " + rel.ForeignColumn + " IN (" + placeholders(1, len(ids)) + ")"
	if relSchema.DeletedAtColumn != "" {
		sql += " AND " + relSchema.DeletedAtColumn + " IS NULL"
	}
	sql += " ORDER BY " + relSchema.IDColumn + " ASC"

	rows, err := s.db.QueryContext(ctx, sql, ids...)
	if err != nil {
		return mapError("load has-many "+rel.Name, err)
	}
	defer func() { _ = rows.Close() }()

	byParent := make(map[string][]schema.Resource)
	for rows.Next() {
		dests, build := mapper.scanTarget()
		if err := rows.Scan(dests...); err != nil {
			return store.Failure("scan "+rel.Type, err)
		}
		res, err := build()
		if err != nil {
			return store.Failure("build "+rel.Type, err)
		}
		ref, ok := res.(schema.ToOneRef)
		if !ok {
			return store.ErrUnsupportedRelationship
		}
		parentID, _ := ref.RelatedID(inverse)
		byParent[parentID] = append(byParent[parentID], res)
	}
	if err := rows.Err(); err != nil {
		return store.Failure("iterate "+rel.Type, err)
	}

	for _, p := range parents {
		g.set(p, rel.Name, byParent[p.ResourceID()])
	}
	return nil
}

// loadManyToMany resolves a join-table relationship with one query joining
// the related table, scanning the join key alongside each row.
func (s *Store) loadManyToMany(ctx context.Context, g *graph, parents []schema.Resource, rel *schema.Relationship) error {
	relSchema, mapper, err := s.mapped(rel.Type)
	if err != nil {
		return err
	}

	ids := make([]interface{}, 0, len(parents))
	for _, p := range parents {
		ids = append(ids, p.ResourceID())
	}

	cols := mapper.columns()
	qualified := make([]string, 0, len(cols))
	for _, c := range cols {
		qualified = append(qualified, "t."+c)
	}

	sql := "SELECT jt." + rel.JoinLocalColumn + ", " + strings.Join(qualified, ", ") +
		" FROM " + relSchema.Table + " t" +
		" JOIN " + rel.JoinTable + " jt ON jt." + rel.JoinRelatedColumn + " = t." + relSchema.IDColumn +
		" WHERE jt." + rel.JoinLocalColumn + " IN (" + placeholders(1, len(ids)) + ")" +
		" ORDER BY jt." + rel.JoinLocalColumn + ", t." + relSchema.IDColumn + " ASC"

	rows, err := s.db.QueryContext(ctx, sql, ids...)
	if err != nil {
		return mapError("load many-to-many "+rel.Name, err)
	}
	defer func() { _ = rows.Close() }()

	byParent := make(map[string][]schema.Resource)
	for rows.Next() {
		var parentID string
		dests, build := mapper.scanTarget()
		if err := rows.Scan(append([]interface{}{&parentID}, dests...)...); err != nil {
			return store.Failure("scan "+rel.Type, err)
		}
		res, err := build()
		if err != nil {
			return store.Failure("build "+rel.Type, err)
		}
		byParent[parentID] = append(byParent[parentID], res)
	}
	if err := rows.Err(); err != nil {
		return store.Failure("iterate "+rel.Type, err)
	}

	for _, p := range parents {
		g.set(p, rel.Name, byParent[p.ResourceID()])
	}
	return nil
}

// placeholders renders "$start, $start+1, …" for n arguments.
func placeholders(start, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("$")
		b.WriteString(strconv.Itoa(start + i))
	}
	return b.String()
}
