package serializer

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keelson/folio-api/internal/jsonapi"
	"github.com/keelson/folio-api/internal/query"
	"github.com/keelson/folio-api/internal/schema"
)

// testResource is a minimal schema.Resource backed by maps.
type testResource struct {
	typ   string
	id    string
	attrs map[string]interface{}
	refs  map[string]string
}

func (r *testResource) ResourceType() string { return r.typ }
func (r *testResource) ResourceID() string   { return r.id }

func (r *testResource) Attribute(name string) (interface{}, bool) {
	v, ok := r.attrs[name]
	return v, ok
}

func (r *testResource) RelatedID(relationship string) (string, bool) {
	id, ok := r.refs[relationship]
	return id, ok
}

// testGraph maps "type:id" to relationship name to loaded resources.
type testGraph map[string]map[string][]schema.Resource

func (g testGraph) Related(parent schema.Resource, relationship string) ([]schema.Resource, bool) {
	rels, ok := g[parent.ResourceType()+":"+parent.ResourceID()]
	if !ok {
		return nil, false
	}
	related, ok := rels[relationship]
	return related, ok
}

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()

	reg := schema.NewRegistry()
	require.NoError(t, reg.Register(&schema.Schema{
		Type:     "articles",
		Table:    "articles",
		IDColumn: "id",
		Attributes: []schema.Attribute{
			{Name: "title", Column: "title", Sortable: true},
			{Name: "body", Column: "body"},
		},
		Relationships: []schema.Relationship{
			{Name: "author", Type: "people", LocalColumn: "author_id"},
			{Name: "reviews", Type: "reviews", ToMany: true, ForeignColumn: "article_id"},
		},
	}))
	require.NoError(t, reg.Register(&schema.Schema{
		Type:     "people",
		Table:    "people",
		IDColumn: "id",
		Attributes: []schema.Attribute{
			{Name: "name", Column: "name"},
		},
		Relationships: []schema.Relationship{
			{Name: "reviews", Type: "reviews", ToMany: true, ForeignColumn: "author_id"},
		},
	}))
	require.NoError(t, reg.Register(&schema.Schema{
		Type:     "reviews",
		Table:    "reviews",
		IDColumn: "id",
		Attributes: []schema.Attribute{
			{Name: "text", Column: "body"},
		},
		Relationships: []schema.Relationship{
			{Name: "author", Type: "people", AlwaysLinkage: true, LocalColumn: "author_id"},
		},
	}))
	require.NoError(t, reg.Validate())
	return reg
}

func article(id, title string, authorID string) *testResource {
	return &testResource{
		typ:   "articles",
		id:    id,
		attrs: map[string]interface{}{"title": title, "body": "lorem"},
		refs:  map[string]string{"author": authorID},
	}
}

func person(id, name string) *testResource {
	return &testResource{typ: "people", id: id, attrs: map[string]interface{}{"name": name}}
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestSerializerSingle(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	s := New(reg, "https://api.example.com")
	sch, _ := reg.Lookup("articles")

	t.Run("attributes and relationship links without linkage", func(t *testing.T) {
		t.Parallel()

		doc, err := s.Single(sch, article("a1", "First", "p1"), query.EmptyParams(), EmptyGraph(), mustURL(t, "/articles/a1"))
		require.NoError(t, err)

		require.NotNil(t, doc.Data)
		obj := doc.Data.One
		require.NotNil(t, obj)
		assert.Equal(t, "articles", obj.Type)
		assert.Equal(t, "a1", obj.ID)
		assert.Equal(t, "First", obj.Attributes["title"])
		assert.Equal(t, "lorem", obj.Attributes["body"])
		assert.Equal(t, "https://api.example.com/articles/a1", obj.Links["self"])
		assert.Equal(t, "https://api.example.com/articles/a1", doc.Links["self"])
		assert.Equal(t, jsonapi.Version, doc.JSONAPI.Version)

		rel := obj.Relationships["author"]
		require.NotNil(t, rel)
		assert.Nil(t, rel.Data, "linkage is omitted unless requested")
		assert.Equal(t, "https://api.example.com/articles/a1/relationships/author", rel.Links["self"])
		assert.Equal(t, "https://api.example.com/articles/a1/author", rel.Links["related"])
		assert.Empty(t, doc.Included)
	})

	t.Run("nil resource yields null primary data", func(t *testing.T) {
		t.Parallel()

		doc, err := s.Single(sch, nil, query.EmptyParams(), EmptyGraph(), mustURL(t, "/articles?filter[id]=missing"))
		require.NoError(t, err)
		require.NotNil(t, doc.Data)
		assert.False(t, doc.Data.Many)
		assert.Nil(t, doc.Data.One)
	})

	t.Run("sparse fieldset drops attributes and relationships", func(t *testing.T) {
		t.Parallel()

		params := &query.Params{Fields: map[string][]string{"articles": {"title"}}}
		doc, err := s.Single(sch, article("a1", "First", "p1"), params, EmptyGraph(), nil)
		require.NoError(t, err)

		obj := doc.Data.One
		assert.Equal(t, map[string]interface{}{"title": "First"}, obj.Attributes)
		assert.Empty(t, obj.Relationships)
	})

	t.Run("empty fieldset drops every field", func(t *testing.T) {
		t.Parallel()

		params := &query.Params{Fields: map[string][]string{"articles": {}}}
		doc, err := s.Single(sch, article("a1", "First", "p1"), params, EmptyGraph(), nil)
		require.NoError(t, err)

		obj := doc.Data.One
		assert.Empty(t, obj.Attributes)
		assert.Empty(t, obj.Relationships)
		assert.Equal(t, "a1", obj.ID)
	})

	t.Run("include populates linkage and compound document", func(t *testing.T) {
		t.Parallel()

		a := article("a1", "First", "p1")
		g := testGraph{
			"articles:a1": {"author": {person("p1", "Ada")}},
		}
		params := &query.Params{Includes: [][]string{{"author"}}}

		doc, err := s.Single(sch, a, params, g, nil)
		require.NoError(t, err)

		rel := doc.Data.One.Relationships["author"]
		require.NotNil(t, rel.Data)
		require.NotNil(t, rel.Data.One)
		assert.Equal(t, jsonapi.ResourceIdentifier{Type: "people", ID: "p1"}, *rel.Data.One)

		require.Len(t, doc.Included, 1)
		assert.Equal(t, "people", doc.Included[0].Type)
		assert.Equal(t, "p1", doc.Included[0].ID)
		assert.Equal(t, "Ada", doc.Included[0].Attributes["name"])
	})

	t.Run("to-one linkage is null when the reference is unset", func(t *testing.T) {
		t.Parallel()

		a := article("a1", "First", "")
		params := &query.Params{Includes: [][]string{{"author"}}}
		g := testGraph{"articles:a1": {"author": {}}}

		doc, err := s.Single(sch, a, params, g, nil)
		require.NoError(t, err)

		rel := doc.Data.One.Relationships["author"]
		require.NotNil(t, rel.Data)
		assert.Nil(t, rel.Data.One)
		assert.False(t, rel.Data.ToMany)
		assert.Empty(t, doc.Included)
	})

	t.Run("shared resource keeps linkage for every include path", func(t *testing.T) {
		t.Parallel()

		a := article("a1", "First", "p1")
		ada := person("p1", "Ada")
		r1 := &testResource{typ: "reviews", id: "r1", refs: map[string]string{"author": "p1"}}
		r9 := &testResource{typ: "reviews", id: "r9", refs: map[string]string{"author": "p1"}}
		g := testGraph{
			"articles:a1": {"author": {ada}, "reviews": {r1}},
			"reviews:r1":  {"author": {ada}},
			"people:p1":   {"reviews": {r1, r9}},
		}
		params := &query.Params{Includes: [][]string{
			{"author"},
			{"reviews", "author", "reviews"},
		}}

		doc, err := s.Single(sch, a, params, g, nil)
		require.NoError(t, err)

		require.Len(t, doc.Included, 3)
		assert.Equal(t, "p1", doc.Included[0].ID)
		assert.Equal(t, "r1", doc.Included[1].ID)
		assert.Equal(t, "r9", doc.Included[2].ID)

		// The author is reached both directly and through the reviews
		// path; the deeper path's nested include still forces its
		// reviews linkage, so r9 is referenced.
		adaObj := doc.Included[0]
		rel := adaObj.Relationships["reviews"]
		require.NotNil(t, rel)
		require.NotNil(t, rel.Data, "linkage forced by the second include path")
		require.True(t, rel.Data.ToMany)
		require.Len(t, rel.Data.Many, 2)
		assert.Equal(t, "r1", rel.Data.Many[0].ID)
		assert.Equal(t, "r9", rel.Data.Many[1].ID)

		primary := doc.Data.One
		require.NotNil(t, primary.Relationships["author"].Data)
		require.NotNil(t, primary.Relationships["reviews"].Data)
	})

	t.Run("always-linkage relationship resolves from the foreign key", func(t *testing.T) {
		t.Parallel()

		reviewSch, ok := reg.Lookup("reviews")
		require.True(t, ok)
		review := &testResource{
			typ:   "reviews",
			id:    "r1",
			attrs: map[string]interface{}{"text": "fine"},
			refs:  map[string]string{"author": "p2"},
		}

		doc, err := s.Single(reviewSch, review, query.EmptyParams(), EmptyGraph(), nil)
		require.NoError(t, err)

		rel := doc.Data.One.Relationships["author"]
		require.NotNil(t, rel.Data)
		require.NotNil(t, rel.Data.One)
		assert.Equal(t, "p2", rel.Data.One.ID)
	})
}

func TestSerializerCollection(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	s := New(reg, "https://api.example.com")
	sch, _ := reg.Lookup("articles")

	t.Run("included resources are deduplicated and ordered", func(t *testing.T) {
		t.Parallel()

		shared := person("p1", "Ada")
		resources := []schema.Resource{
			article("a1", "First", "p1"),
			article("a2", "Second", "p1"),
			article("a3", "Third", "p9"),
		}
		g := testGraph{
			"articles:a1": {"author": {shared}},
			"articles:a2": {"author": {shared}},
			"articles:a3": {"author": {person("p0", "Grace")}},
		}
		params := &query.Params{Includes: [][]string{{"author"}}}

		doc, err := s.Collection(sch, resources, params, g, nil, nil)
		require.NoError(t, err)

		require.True(t, doc.Data.Many)
		require.Len(t, doc.Data.List, 3)

		require.Len(t, doc.Included, 2)
		assert.Equal(t, "p0", doc.Included[0].ID)
		assert.Equal(t, "p1", doc.Included[1].ID)
	})

	t.Run("empty relationships produce no included entries", func(t *testing.T) {
		t.Parallel()

		a1 := article("a1", "First", "p1")
		a2 := article("a2", "Second", "p1")
		g := testGraph{
			"articles:a1": {"reviews": {}},
			"articles:a2": {"reviews": {}},
		}
		params := &query.Params{Includes: [][]string{{"reviews"}}}

		doc, err := s.Collection(sch, []schema.Resource{a1, a2}, params, g, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, doc.Included)
	})

	t.Run("pagination links rewrite the page parameters", func(t *testing.T) {
		t.Parallel()

		self := mustURL(t, "/articles?page%5Bnumber%5D=2&page%5Bsize%5D=10&sort=title")
		page := &PageInfo{Number: 2, Size: 10, Total: 45}

		doc, err := s.Collection(sch, nil, query.EmptyParams(), EmptyGraph(), self, page)
		require.NoError(t, err)

		assert.Equal(t, int64(45), doc.Meta["total"])

		for name, wantPage := range map[string]string{
			"first": "1",
			"prev":  "1",
			"next":  "3",
			"last":  "5",
		} {
			raw, ok := doc.Links[name]
			require.True(t, ok, "missing link %q", name)
			u, err := url.Parse(raw)
			require.NoError(t, err)
			q := u.Query()
			assert.Equal(t, wantPage, q.Get("page[number]"), "link %q", name)
			assert.Equal(t, "10", q.Get("page[size]"), "link %q", name)
			assert.Equal(t, "title", q.Get("sort"), "link %q preserves other params", name)
		}
	})

	t.Run("first page omits prev and last page omits next", func(t *testing.T) {
		t.Parallel()

		self := mustURL(t, "/articles")

		doc, err := s.Collection(sch, nil, query.EmptyParams(), EmptyGraph(), self, &PageInfo{Number: 1, Size: 10, Total: 5})
		require.NoError(t, err)
		assert.NotContains(t, doc.Links, "prev")
		assert.NotContains(t, doc.Links, "next")
		assert.Contains(t, doc.Links, "first")
		assert.Contains(t, doc.Links, "last")
	})

	t.Run("empty collection still has one page", func(t *testing.T) {
		t.Parallel()

		self := mustURL(t, "/articles")
		doc, err := s.Collection(sch, nil, query.EmptyParams(), EmptyGraph(), self, &PageInfo{Number: 1, Size: 10, Total: 0})
		require.NoError(t, err)

		last, err := url.Parse(doc.Links["last"])
		require.NoError(t, err)
		assert.Equal(t, "1", last.Query().Get("page[number]"))
	})

	t.Run("nil page yields no pagination links or meta", func(t *testing.T) {
		t.Parallel()

		doc, err := s.Collection(sch, nil, query.EmptyParams(), EmptyGraph(), mustURL(t, "/articles"), nil)
		require.NoError(t, err)
		assert.NotContains(t, doc.Links, "first")
		assert.Empty(t, doc.Meta)
	})
}

func TestSerializerRelationship(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	s := New(reg, "")
	sch, _ := reg.Lookup("articles")

	t.Run("to-many linkage from the loaded graph", func(t *testing.T) {
		t.Parallel()

		a := article("a1", "First", "p1")
		g := testGraph{
			"articles:a1": {"reviews": {
				&testResource{typ: "reviews", id: "r2"},
				&testResource{typ: "reviews", id: "r1"},
			}},
		}

		doc, err := s.Relationship(sch, a, "reviews", g)
		require.NoError(t, err)

		assert.Equal(t, "/articles/a1/relationships/reviews", doc.Links["self"])
		assert.Equal(t, "/articles/a1/reviews", doc.Links["related"])

		require.True(t, doc.Data.Many)
		require.Len(t, doc.Data.List, 2)
		assert.Equal(t, "r2", doc.Data.List[0].ID, "graph order is preserved")
		assert.Equal(t, "r1", doc.Data.List[1].ID)
		assert.Empty(t, doc.Data.List[0].Attributes, "linkage carries identifiers only")
	})

	t.Run("to-one linkage falls back to the foreign key", func(t *testing.T) {
		t.Parallel()

		doc, err := s.Relationship(sch, article("a1", "First", "p7"), "author", EmptyGraph())
		require.NoError(t, err)
		require.NotNil(t, doc.Data.One)
		assert.Equal(t, "people", doc.Data.One.Type)
		assert.Equal(t, "p7", doc.Data.One.ID)
	})

	t.Run("empty to-many linkage serializes as an empty list", func(t *testing.T) {
		t.Parallel()

		g := testGraph{"articles:a1": {"reviews": {}}}
		doc, err := s.Relationship(sch, article("a1", "First", "p1"), "reviews", g)
		require.NoError(t, err)
		require.True(t, doc.Data.Many)
		assert.Empty(t, doc.Data.List)
	})

	t.Run("unknown relationship is an error", func(t *testing.T) {
		t.Parallel()

		_, err := s.Relationship(sch, article("a1", "First", "p1"), "publisher", EmptyGraph())
		assert.Error(t, err)
	})

	t.Run("unloaded to-many relationship is an error", func(t *testing.T) {
		t.Parallel()

		_, err := s.Relationship(sch, article("a1", "First", "p1"), "reviews", EmptyGraph())
		assert.Error(t, err)
	})
}
