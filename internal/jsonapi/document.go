package jsonapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MediaType is the JSON:API media type. Requests and responses carrying a
// JSON:API document must use it without media type parameters.
const MediaType = "application/vnd.api+json"

// Version identifies the highest version of the JSON:API specification this
// server implements.
const Version = "1.0"

// Meta is a free-form meta object attached to documents, resources,
// relationships, or errors.
type Meta map[string]interface{}

// Links maps link names (self, related, first, prev, next, last) to URLs.
type Links map[string]string

// ResourceIdentifier is the minimal {type, id} reference to a resource.
type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// String returns the canonical "type:id" form, used as a deduplication key
// for compound documents.
func (ri ResourceIdentifier) String() string {
	return ri.Type + ":" + ri.ID
}

// Linkage is the resource linkage of a relationship object. A to-one
// relationship links a single identifier or null; a to-many relationship
// links an ordered list of identifiers.
type Linkage struct {
	// ToMany selects between the two linkage shapes. It is set from the
	// relationship's schema declaration, never inferred from the data alone.
	ToMany bool

	// One holds the to-one target. nil serializes as JSON null.
	One *ResourceIdentifier

	// Many holds the to-many targets in order. An empty (or nil) slice
	// serializes as an empty array, never as null.
	Many []ResourceIdentifier
}

// ToOneLinkage builds a to-one linkage. Pass nil for an empty relationship.
func ToOneLinkage(ref *ResourceIdentifier) *Linkage {
	return &Linkage{One: ref}
}

// ToManyLinkage builds a to-many linkage preserving the given order.
func ToManyLinkage(refs []ResourceIdentifier) *Linkage {
	if refs == nil {
		refs = []ResourceIdentifier{}
	}
	return &Linkage{ToMany: true, Many: refs}
}

// MarshalJSON implements json.Marshaler.
func (l *Linkage) MarshalJSON() ([]byte, error) {
	if l.ToMany {
		if l.Many == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(l.Many)
	}
	if l.One == nil {
		return []byte("null"), nil
	}
	return json.Marshal(l.One)
}

// UnmarshalJSON implements json.Unmarshaler. The linkage shape (null, single
// identifier, or identifier list) is detected from the raw JSON; ToMany is
// set accordingly. Scalars and other shapes are rejected.
func (l *Linkage) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("relationship data must not be empty")
	}

	switch trimmed[0] {
	case 'n':
		if !bytes.Equal(trimmed, []byte("null")) {
			return fmt.Errorf("invalid relationship data")
		}
		l.ToMany = false
		l.One = nil
		l.Many = nil
		return nil
	case '{':
		var ref ResourceIdentifier
		if err := json.Unmarshal(trimmed, &ref); err != nil {
			return fmt.Errorf("invalid resource identifier: %w", err)
		}
		l.ToMany = false
		l.One = &ref
		l.Many = nil
		return nil
	case '[':
		var refs []ResourceIdentifier
		if err := json.Unmarshal(trimmed, &refs); err != nil {
			return fmt.Errorf("invalid resource identifier list: %w", err)
		}
		l.ToMany = true
		l.One = nil
		l.Many = refs
		return nil
	default:
		return fmt.Errorf("relationship data must be an identifier, a list of identifiers, or null")
	}
}

// Relationship is a relationship object. Data is nil (and omitted from the
// wire) unless the relationship was include-requested or its schema forces
// linkage to always be shown.
type Relationship struct {
	Data  *Linkage `json:"data,omitempty"`
	Links Links    `json:"links,omitempty"`
	Meta  Meta     `json:"meta,omitempty"`
}

// ResourceObject is the JSON representation of a single resource. Attributes
// and relationships share one flat field namespace disjoint from "type" and
// "id".
type ResourceObject struct {
	Type          string                     `json:"type"`
	ID            string                     `json:"id,omitempty"`
	Attributes    map[string]interface{}     `json:"attributes,omitempty"`
	Relationships map[string]*Relationship   `json:"relationships,omitempty"`
	Links         Links                      `json:"links,omitempty"`
	Meta          Meta                       `json:"meta,omitempty"`
}

// Identifier returns the resource's {type, id} pair.
func (r *ResourceObject) Identifier() ResourceIdentifier {
	return ResourceIdentifier{Type: r.Type, ID: r.ID}
}

// PrimaryData is the polymorphic top-level data member: a single resource
// object, null, or an ordered list of resource objects.
type PrimaryData struct {
	// Many selects the collection shape. A collection serializes as an
	// array even when empty; a single resource serializes as an object or
	// null.
	Many bool

	One  *ResourceObject
	List []*ResourceObject
}

// SingleData wraps one resource object (or nil for a null primary datum).
func SingleData(r *ResourceObject) *PrimaryData {
	return &PrimaryData{One: r}
}

// CollectionData wraps an ordered list of resource objects.
func CollectionData(list []*ResourceObject) *PrimaryData {
	if list == nil {
		list = []*ResourceObject{}
	}
	return &PrimaryData{Many: true, List: list}
}

// MarshalJSON implements json.Marshaler.
func (d *PrimaryData) MarshalJSON() ([]byte, error) {
	if d.Many {
		if d.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(d.List)
	}
	if d.One == nil {
		return []byte("null"), nil
	}
	return json.Marshal(d.One)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *PrimaryData) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("data must not be empty")
	}

	switch trimmed[0] {
	case 'n':
		if !bytes.Equal(trimmed, []byte("null")) {
			return fmt.Errorf("invalid primary data")
		}
		d.Many = false
		d.One = nil
		d.List = nil
		return nil
	case '{':
		var one ResourceObject
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return err
		}
		d.Many = false
		d.One = &one
		d.List = nil
		return nil
	case '[':
		var list []*ResourceObject
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		d.Many = true
		d.One = nil
		d.List = list
		return nil
	default:
		return fmt.Errorf("data must be a resource object, a list of resource objects, or null")
	}
}

// VersionObject is the top-level jsonapi member.
type VersionObject struct {
	Version string `json:"version,omitempty"`
}

// Document is the top-level JSON:API envelope. Exactly one of Data or Errors
// is present, never both; a meta-only document carries neither but must then
// carry Meta.
type Document struct {
	Data     *PrimaryData      `json:"data,omitempty"`
	Errors   ErrorList         `json:"errors,omitempty"`
	Meta     Meta              `json:"meta,omitempty"`
	JSONAPI  *VersionObject    `json:"jsonapi,omitempty"`
	Links    Links             `json:"links,omitempty"`
	Included []*ResourceObject `json:"included,omitempty"`
}

// NewErrorDocument wraps an error list in a document envelope.
func NewErrorDocument(errs ErrorList) *Document {
	return &Document{Errors: errs}
}
