package mocks

import (
	"context"
	"fmt"
	"sort"

	"github.com/keelson/folio-api/internal/jsonapi"
	"github.com/keelson/folio-api/internal/query"
	"github.com/keelson/folio-api/internal/schema"
	"github.com/keelson/folio-api/internal/serializer"
	"github.com/keelson/folio-api/internal/store"
)

// Provider is an in-memory api.RepositoryProvider.
type Provider struct {
	repos map[string]*Repository
}

// NewProvider creates an empty provider.
func NewProvider() *Provider {
	return &Provider{repos: make(map[string]*Repository)}
}

// Add registers a repository under its schema's type.
func (p *Provider) Add(repo *Repository) {
	repo.provider = p
	p.repos[repo.sch.Type] = repo
}

// Repository implements api.RepositoryProvider.
func (p *Provider) Repository(resourceType string) (store.Repository, bool) {
	repo, ok := p.repos[resourceType]
	if !ok {
		return nil, false
	}
	return repo, true
}

// Repository is an in-memory store.Repository. Tests seed it with
// resources and relationship linkage; Create and Update delegate entity
// construction to the BuildFn and PatchFn callbacks.
type Repository struct {
	sch      *schema.Schema
	provider *Provider

	resources map[string]schema.Resource
	order     []string
	rels      map[string]map[string][]jsonapi.ResourceIdentifier

	// BuildFn constructs a resource from a create document.
	BuildFn func(doc *jsonapi.ResourceObject) (schema.Resource, error)

	// PatchFn applies an update document to an existing resource.
	PatchFn func(res schema.Resource, doc *jsonapi.ResourceObject) (schema.Resource, error)

	// Err, when set, is returned by every operation.
	Err error
}

var _ store.Repository = (*Repository)(nil)

// NewRepository creates an empty in-memory repository for the schema.
func NewRepository(sch *schema.Schema) *Repository {
	return &Repository{
		sch:       sch,
		resources: make(map[string]schema.Resource),
		rels:      make(map[string]map[string][]jsonapi.ResourceIdentifier),
	}
}

// Seed stores a resource directly.
func (m *Repository) Seed(res schema.Resource) {
	id := res.ResourceID()
	if _, ok := m.resources[id]; !ok {
		m.order = append(m.order, id)
	}
	m.resources[id] = res
}

// SeedRelationship records linkage for a resource.
func (m *Repository) SeedRelationship(id, relationship string, refs ...jsonapi.ResourceIdentifier) {
	if m.rels[id] == nil {
		m.rels[id] = make(map[string][]jsonapi.ResourceIdentifier)
	}
	m.rels[id][relationship] = refs
}

// Refs returns the recorded linkage for a resource.
func (m *Repository) Refs(id, relationship string) []jsonapi.ResourceIdentifier {
	return m.rels[id][relationship]
}

// Schema implements store.Repository.
func (m *Repository) Schema() *schema.Schema { return m.sch }

// List implements store.Repository with in-memory filtering, sorting,
// and paging.
func (m *Repository) List(ctx context.Context, params *query.Params) (*store.ListResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	var matched []schema.Resource
	for _, id := range m.order {
		res := m.resources[id]
		if m.matches(res, params) {
			matched = append(matched, res)
		}
	}

	m.sortResources(matched, params)
	total := int64(len(matched))

	if params != nil && params.Page.Size > 0 {
		offset := params.Page.Offset()
		if offset > len(matched) {
			offset = len(matched)
		}
		end := offset + params.Page.Size
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[offset:end]
	}
	return &store.ListResult{Resources: matched, Total: total}, nil
}

func (m *Repository) matches(res schema.Resource, params *query.Params) bool {
	if params == nil {
		return true
	}
	for field, values := range params.Filters {
		var actual string
		if field == "id" {
			actual = res.ResourceID()
		} else if v, ok := res.Attribute(field); ok {
			actual = fmt.Sprint(v)
		} else if ref, ok := res.(schema.ToOneRef); ok {
			if rid, ok := ref.RelatedID(field); ok {
				actual = rid
			}
		}
		found := false
		for _, want := range values {
			if want == actual {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (m *Repository) sortResources(list []schema.Resource, params *query.Params) {
	sort.SliceStable(list, func(i, j int) bool {
		if params != nil {
			for _, sf := range params.Sorts {
				a, b := sortKey(list[i], sf.Name), sortKey(list[j], sf.Name)
				if a == b {
					continue
				}
				if sf.Descending {
					return a > b
				}
				return a < b
			}
		}
		return list[i].ResourceID() < list[j].ResourceID()
	})
}

func sortKey(res schema.Resource, field string) string {
	if field == "id" {
		return res.ResourceID()
	}
	if v, ok := res.Attribute(field); ok {
		return fmt.Sprint(v)
	}
	return ""
}

// FindByID implements store.Repository.
func (m *Repository) FindByID(ctx context.Context, id string) (schema.Resource, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	res, ok := m.resources[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return res, nil
}

// Create implements store.Repository via BuildFn.
func (m *Repository) Create(ctx context.Context, doc *jsonapi.ResourceObject) (schema.Resource, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.BuildFn == nil {
		return nil, store.Failure("create", fmt.Errorf("no BuildFn configured"))
	}
	res, err := m.BuildFn(doc)
	if err != nil {
		return nil, err
	}
	m.Seed(res)
	for name, relObj := range doc.Relationships {
		if relObj.Data == nil {
			continue
		}
		if relObj.Data.ToMany {
			m.SeedRelationship(res.ResourceID(), name, relObj.Data.Many...)
		} else if relObj.Data.One != nil {
			m.SeedRelationship(res.ResourceID(), name, *relObj.Data.One)
		}
	}
	return res, nil
}

// Update implements store.Repository via PatchFn.
func (m *Repository) Update(ctx context.Context, id string, doc *jsonapi.ResourceObject) (schema.Resource, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	existing, ok := m.resources[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if m.PatchFn == nil {
		return nil, store.Failure("update", fmt.Errorf("no PatchFn configured"))
	}
	res, err := m.PatchFn(existing, doc)
	if err != nil {
		return nil, err
	}
	m.resources[id] = res
	return res, nil
}

// Delete implements store.Repository.
func (m *Repository) Delete(ctx context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.resources[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.resources, id)
	delete(m.rels, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// SetRelationship implements store.Repository with sync semantics.
func (m *Repository) SetRelationship(ctx context.Context, id, relationship string, refs []jsonapi.ResourceIdentifier) error {
	if m.Err != nil {
		return m.Err
	}
	rel, ok := m.sch.Relationship(relationship)
	if !ok {
		return store.ErrUnsupportedRelationship
	}
	if rel.ForeignColumn != "" {
		return store.ErrUnsupportedRelationship
	}
	if _, ok := m.resources[id]; !ok {
		return store.ErrNotFound
	}
	m.SeedRelationship(id, relationship, dedupe(refs)...)
	return nil
}

// AddToRelationship implements store.Repository.
func (m *Repository) AddToRelationship(ctx context.Context, id, relationship string, refs []jsonapi.ResourceIdentifier) error {
	if m.Err != nil {
		return m.Err
	}
	rel, ok := m.sch.Relationship(relationship)
	if !ok || rel.JoinTable == "" {
		return store.ErrUnsupportedRelationship
	}
	if _, ok := m.resources[id]; !ok {
		return store.ErrNotFound
	}
	current := m.rels[id][relationship]
	m.SeedRelationship(id, relationship, dedupe(append(current, refs...))...)
	return nil
}

// RemoveFromRelationship implements store.Repository.
func (m *Repository) RemoveFromRelationship(ctx context.Context, id, relationship string, refs []jsonapi.ResourceIdentifier) error {
	if m.Err != nil {
		return m.Err
	}
	rel, ok := m.sch.Relationship(relationship)
	if !ok || rel.JoinTable == "" {
		return store.ErrUnsupportedRelationship
	}
	if _, ok := m.resources[id]; !ok {
		return store.ErrNotFound
	}
	remove := make(map[string]bool, len(refs))
	for _, ref := range refs {
		remove[ref.String()] = true
	}
	var kept []jsonapi.ResourceIdentifier
	for _, ref := range m.rels[id][relationship] {
		if !remove[ref.String()] {
			kept = append(kept, ref)
		}
	}
	m.SeedRelationship(id, relationship, kept...)
	return nil
}

// LoadGraph implements store.Repository by resolving recorded linkage
// through the provider.
func (m *Repository) LoadGraph(ctx context.Context, primaries []schema.Resource, includes [][]string) (serializer.Graph, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &graph{provider: m.provider}, nil
}

// graph resolves relationship linkage lazily from the recorded state.
type graph struct {
	provider *Provider
}

// Related implements serializer.Graph.
func (g *graph) Related(parent schema.Resource, relationship string) ([]schema.Resource, bool) {
	if g.provider == nil {
		return nil, false
	}
	repo, ok := g.provider.repos[parent.ResourceType()]
	if !ok {
		return nil, false
	}

	refs, recorded := repo.rels[parent.ResourceID()][relationship]
	if !recorded {
		// To-one linkage can come from the resource itself.
		if ref, ok := parent.(schema.ToOneRef); ok {
			if rel, found := repo.sch.Relationship(relationship); found && !rel.ToMany {
				if rid, has := ref.RelatedID(relationship); has {
					refs = []jsonapi.ResourceIdentifier{{Type: rel.Type, ID: rid}}
					recorded = true
				}
			}
		}
	}
	if !recorded {
		return nil, false
	}

	out := make([]schema.Resource, 0, len(refs))
	for _, ref := range refs {
		if target, ok := g.provider.repos[ref.Type]; ok {
			if res, ok := target.resources[ref.ID]; ok {
				out = append(out, res)
			}
		}
	}
	return out, true
}

func dedupe(refs []jsonapi.ResourceIdentifier) []jsonapi.ResourceIdentifier {
	seen := make(map[string]bool, len(refs))
	out := make([]jsonapi.ResourceIdentifier, 0, len(refs))
	for _, ref := range refs {
		if seen[ref.String()] {
			continue
		}
		seen[ref.String()] = true
		out = append(out, ref)
	}
	return out
}
