package serializer

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/keelson/folio-api/internal/jsonapi"
	"github.com/keelson/folio-api/internal/query"
	"github.com/keelson/folio-api/internal/schema"
)

// Graph exposes the relationship values loaded for a request. The query
// builder's eager loader produces one; the serializer only reads it. The
// boolean reports whether the relationship was loaded at all, which is
// distinct from it being loaded and empty.
type Graph interface {
	Related(parent schema.Resource, relationship string) ([]schema.Resource, bool)
}

// emptyGraph is a Graph with nothing loaded.
type emptyGraph struct{}

func (emptyGraph) Related(schema.Resource, string) ([]schema.Resource, bool) {
	return nil, false
}

// EmptyGraph returns a Graph with no loaded relationships, for requests
// without include paths.
func EmptyGraph() Graph { return emptyGraph{} }

// PageInfo carries the pagination state a collection document's links are
// computed from.
type PageInfo struct {
	Number int
	Size   int
	Total  int64
}

// totalPages rounds up; a collection always has at least one (empty) page.
func (p PageInfo) totalPages() int {
	if p.Size <= 0 {
		return 1
	}
	n := int((p.Total + int64(p.Size) - 1) / int64(p.Size))
	if n < 1 {
		n = 1
	}
	return n
}

// Serializer builds JSON:API documents from schema-described resources.
type Serializer struct {
	registry *schema.Registry
	baseURL  string
}

// New creates a Serializer. baseURL prefixes all generated links and may be
// empty for relative links.
func New(registry *schema.Registry, baseURL string) *Serializer {
	if registry == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("registry cannot be nil for Serializer")
	}
	return &Serializer{registry: registry, baseURL: baseURL}
}

// Single serializes one resource (or nil, producing a null primary datum)
// with its compound document.
func (s *Serializer) Single(sch *schema.Schema, r schema.Resource, params *query.Params, g Graph, self *url.URL) (*jsonapi.Document, error) {
	doc := &jsonapi.Document{
		JSONAPI: &jsonapi.VersionObject{Version: jsonapi.Version},
	}
	if self != nil {
		doc.Links = jsonapi.Links{"self": s.href(self)}
	}

	if r == nil {
		doc.Data = jsonapi.SingleData(nil)
		return doc, nil
	}

	objs, included, err := s.compound(sch, []schema.Resource{r}, params, g)
	if err != nil {
		return nil, err
	}
	doc.Data = jsonapi.SingleData(objs[0])
	doc.Included = included
	return doc, nil
}

// Collection serializes an ordered resource list with its compound document
// and pagination links.
func (s *Serializer) Collection(sch *schema.Schema, resources []schema.Resource, params *query.Params, g Graph, self *url.URL, page *PageInfo) (*jsonapi.Document, error) {
	list, included, err := s.compound(sch, resources, params, g)
	if err != nil {
		return nil, err
	}

	doc := &jsonapi.Document{
		Data:    jsonapi.CollectionData(list),
		JSONAPI: &jsonapi.VersionObject{Version: jsonapi.Version},
	}

	if self != nil {
		doc.Links = jsonapi.Links{"self": s.href(self)}
		if page != nil {
			s.addPaginationLinks(doc.Links, self, *page)
		}
	}
	if page != nil {
		doc.Meta = jsonapi.Meta{"total": page.Total}
	}

	doc.Included = included
	return doc, nil
}

// Relationship serializes a relationship endpoint document: linkage only,
// with self and related links.
func (s *Serializer) Relationship(sch *schema.Schema, parent schema.Resource, relName string, g Graph) (*jsonapi.Document, error) {
	rel, ok := sch.Relationship(relName)
	if !ok {
		return nil, fmt.Errorf("schema %q has no relationship %q", sch.Type, relName)
	}

	linkage, err := s.linkage(rel, parent, g, true)
	if err != nil {
		return nil, err
	}

	doc := &jsonapi.Document{
		JSONAPI: &jsonapi.VersionObject{Version: jsonapi.Version},
		Links: jsonapi.Links{
			"self":    s.resourceURL(sch.Type, parent.ResourceID()) + "/relationships/" + relName,
			"related": s.resourceURL(sch.Type, parent.ResourceID()) + "/" + relName,
		},
	}

	if rel.ToMany {
		doc.Data = &jsonapi.PrimaryData{Many: true, List: identifierObjects(linkage.Many)}
		return doc, nil
	}
	if linkage.One == nil {
		doc.Data = jsonapi.SingleData(nil)
		return doc, nil
	}
	doc.Data = jsonapi.SingleData(&jsonapi.ResourceObject{Type: linkage.One.Type, ID: linkage.One.ID})
	return doc, nil
}

// resourceObject builds one resource object. prefixes holds every include
// path position the resource occupies (the nil prefix for primary data);
// a relationship's linkage is emitted when any of those positions extends
// to a requested include path.
func (s *Serializer) resourceObject(sch *schema.Schema, r schema.Resource, params *query.Params, g Graph, prefixes [][]string) (*jsonapi.ResourceObject, error) {
	if len(prefixes) == 0 {
		prefixes = [][]string{nil}
	}

	obj := &jsonapi.ResourceObject{
		Type:  sch.Type,
		ID:    r.ResourceID(),
		Links: jsonapi.Links{"self": s.resourceURL(sch.Type, r.ResourceID())},
	}

	for _, attr := range sch.Attributes {
		if !params.FieldVisible(sch.Type, attr.Name) {
			continue
		}
		v, ok := r.Attribute(attr.Name)
		if !ok {
			continue
		}
		if obj.Attributes == nil {
			obj.Attributes = make(map[string]interface{})
		}
		obj.Attributes[attr.Name] = v
	}

	for i := range sch.Relationships {
		rel := &sch.Relationships[i]
		if !params.FieldVisible(sch.Type, rel.Name) {
			continue
		}

		self := s.resourceURL(sch.Type, r.ResourceID())
		relObj := &jsonapi.Relationship{
			Links: jsonapi.Links{
				"self":    self + "/relationships/" + rel.Name,
				"related": self + "/" + rel.Name,
			},
		}

		emit := rel.AlwaysLinkage
		for _, prefix := range prefixes {
			if emit {
				break
			}
			path := append(append([]string{}, prefix...), rel.Name)
			emit = params.Included(path...)
		}
		if emit {
			linkage, err := s.linkage(rel, r, g, false)
			if err != nil {
				return nil, err
			}
			relObj.Data = linkage
		}

		if obj.Relationships == nil {
			obj.Relationships = make(map[string]*jsonapi.Relationship)
		}
		obj.Relationships[rel.Name] = relObj
	}

	return obj, nil
}

// linkage resolves a relationship's resource linkage from the loaded graph,
// falling back to the entity's own foreign key for to-one relationships.
// When require is set a missing load is an error instead of empty linkage.
func (s *Serializer) linkage(rel *schema.Relationship, parent schema.Resource, g Graph, require bool) (*jsonapi.Linkage, error) {
	if g != nil {
		if related, ok := g.Related(parent, rel.Name); ok {
			if rel.ToMany {
				refs := make([]jsonapi.ResourceIdentifier, 0, len(related))
				for _, res := range related {
					refs = append(refs, jsonapi.ResourceIdentifier{Type: rel.Type, ID: res.ResourceID()})
				}
				return jsonapi.ToManyLinkage(refs), nil
			}
			if len(related) == 0 {
				return jsonapi.ToOneLinkage(nil), nil
			}
			return jsonapi.ToOneLinkage(&jsonapi.ResourceIdentifier{Type: rel.Type, ID: related[0].ResourceID()}), nil
		}
	}

	if !rel.ToMany {
		if ref, ok := parent.(schema.ToOneRef); ok {
			if id, ok := ref.RelatedID(rel.Name); ok {
				if id == "" {
					return jsonapi.ToOneLinkage(nil), nil
				}
				return jsonapi.ToOneLinkage(&jsonapi.ResourceIdentifier{Type: rel.Type, ID: id}), nil
			}
		}
	}

	if require {
		return nil, fmt.Errorf("relationship %q was not loaded", rel.Name)
	}
	if rel.ToMany {
		return jsonapi.ToManyLinkage(nil), nil
	}
	return jsonapi.ToOneLinkage(nil), nil
}

// includeNode tracks one resource reached while serializing a compound
// document, together with every include path prefix it was reached at.
// Linkage for its relationships is decided against all of those prefixes.
type includeNode struct {
	sch      *schema.Schema
	res      schema.Resource
	prefixes [][]string
	seen     map[string]bool
}

func (n *includeNode) addPrefix(path []string) {
	key := strings.Join(path, ".")
	if n.seen[key] {
		return
	}
	n.seen[key] = true
	n.prefixes = append(n.prefixes, append([]string{}, path...))
}

// compound serializes the primary resources and the included set together.
// A resource reachable over several include paths is serialized once with
// linkage for every path, so nothing in included is left unreferenced.
// Primary resources never reappear in included; included is ordered by
// {type,id} so output is stable.
func (s *Serializer) compound(sch *schema.Schema, primaries []schema.Resource, params *query.Params, g Graph) ([]*jsonapi.ResourceObject, []*jsonapi.ResourceObject, error) {
	nodes := make(map[string]*includeNode, len(primaries))
	for _, r := range primaries {
		key := sch.Type + ":" + r.ResourceID()
		if _, ok := nodes[key]; ok {
			continue
		}
		n := &includeNode{sch: sch, res: r, seen: map[string]bool{}}
		n.addPrefix(nil)
		nodes[key] = n
	}

	var includedNodes []*includeNode
	if params != nil {
		for _, path := range params.Includes {
			level := primaries
			levelSchema := sch
			for depth, seg := range path {
				rel, ok := levelSchema.Relationship(seg)
				if !ok {
					return nil, nil, fmt.Errorf("schema %q has no relationship %q", levelSchema.Type, seg)
				}
				nextSchema, ok := s.registry.Lookup(rel.Type)
				if !ok {
					return nil, nil, fmt.Errorf("unknown resource type %q", rel.Type)
				}

				var next []schema.Resource
				for _, parent := range level {
					related, _ := g.Related(parent, seg)
					for _, res := range related {
						next = append(next, res)

						key := rel.Type + ":" + res.ResourceID()
						n, ok := nodes[key]
						if !ok {
							n = &includeNode{sch: nextSchema, res: res, seen: map[string]bool{}}
							nodes[key] = n
							includedNodes = append(includedNodes, n)
						}
						n.addPrefix(path[:depth+1])
					}
				}

				level = next
				levelSchema = nextSchema
			}
		}
	}

	primaryObjs := make([]*jsonapi.ResourceObject, 0, len(primaries))
	for _, r := range primaries {
		n := nodes[sch.Type+":"+r.ResourceID()]
		obj, err := s.resourceObject(sch, r, params, g, n.prefixes)
		if err != nil {
			return nil, nil, err
		}
		primaryObjs = append(primaryObjs, obj)
	}

	if len(includedNodes) == 0 {
		return primaryObjs, nil, nil
	}
	included := make([]*jsonapi.ResourceObject, 0, len(includedNodes))
	for _, n := range includedNodes {
		obj, err := s.resourceObject(n.sch, n.res, params, g, n.prefixes)
		if err != nil {
			return nil, nil, err
		}
		included = append(included, obj)
	}

	sort.Slice(included, func(i, j int) bool {
		if included[i].Type != included[j].Type {
			return included[i].Type < included[j].Type
		}
		return included[i].ID < included[j].ID
	})
	return primaryObjs, included, nil
}

// addPaginationLinks derives first/prev/next/last from the self URL by
// rewriting page[number], preserving every other query parameter.
func (s *Serializer) addPaginationLinks(links jsonapi.Links, self *url.URL, page PageInfo) {
	last := page.totalPages()

	links["first"] = s.pageHref(self, 1, page.Size)
	links["last"] = s.pageHref(self, last, page.Size)
	if page.Number > 1 {
		links["prev"] = s.pageHref(self, page.Number-1, page.Size)
	}
	if page.Number < last {
		links["next"] = s.pageHref(self, page.Number+1, page.Size)
	}
}

func (s *Serializer) pageHref(self *url.URL, number, size int) string {
	u := *self
	q := u.Query()
	q.Set("page[number]", strconv.Itoa(number))
	q.Set("page[size]", strconv.Itoa(size))
	u.RawQuery = q.Encode()
	return s.href(&u)
}

func (s *Serializer) href(u *url.URL) string {
	if u.IsAbs() || s.baseURL == "" {
		return u.String()
	}
	return s.baseURL + u.String()
}

func (s *Serializer) resourceURL(resourceType, id string) string {
	return s.baseURL + "/" + resourceType + "/" + id
}

func identifierObjects(refs []jsonapi.ResourceIdentifier) []*jsonapi.ResourceObject {
	out := make([]*jsonapi.ResourceObject, 0, len(refs))
	for _, ref := range refs {
		out = append(out, &jsonapi.ResourceObject{Type: ref.Type, ID: ref.ID})
	}
	return out
}
