package jsonapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
)

// Stable error codes emitted by the document parser.
const (
	CodeInvalidJSON       = "invalid_json"
	CodeInvalidDocument   = "invalid_document"
	CodeTypeMismatch      = "type_mismatch"
	CodeInvalidIdentifier = "invalid_identifier"
	CodeFieldNameConflict = "field_name_conflict"
	CodeClientID          = "client_id_unsupported"
)

// ParseOptions controls resource-document parsing for a specific operation.
type ParseOptions struct {
	// ExpectedType is the resource type the endpoint serves. A document
	// whose primary datum carries a different type fails with a 409.
	ExpectedType string

	// RequireID demands a primary datum id (update operations).
	RequireID bool

	// AllowClientID permits a client-generated id on create. When false,
	// a create document carrying an id fails with a 403.
	AllowClientID bool
}

// ParseDocument decodes a raw body into a Document and enforces the
// top-level envelope rules: well-formed JSON, an object at the top level,
// and exactly one of data or errors (a document with neither must carry
// meta). It performs no resource-level validation; use
// ParseResourceDocument for inbound create/update bodies.
func ParseDocument(body []byte) (*Document, ErrorList) {
	if _, errs := parseEnvelope(body); errs != nil {
		return nil, errs
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, ErrorList{invalidDocument("", "malformed document: %v", err)}
	}
	return &doc, nil
}

// ParseResourceDocument validates an inbound create/update body against the
// JSON:API structural rules and the expected resource type. All violations
// are accumulated and returned together; a non-nil error list means the
// request must fail atomically with no partial application.
func ParseResourceDocument(body []byte, opts ParseOptions) (*ResourceObject, ErrorList) {
	members, errs := parseEnvelope(body)
	if errs != nil {
		return nil, errs
	}

	if _, ok := members["errors"]; ok {
		return nil, ErrorList{invalidDocument("/errors", "a request document must not contain errors")}
	}

	rawData, ok := members["data"]
	if !ok {
		return nil, ErrorList{invalidDocument("/data", "a request document must contain a data member")}
	}

	trimmed := bytes.TrimSpace(rawData)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrorList{invalidDocument("/data", "primary data must be a single resource object")}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, ErrorList{invalidDocument("/data", "primary data must be a single resource object")}
	}

	res := &ResourceObject{}
	var list ErrorList

	// type
	typ, err := stringMember(fields, "type")
	switch {
	case err != nil:
		list = append(list, invalidDocument("/data/type", "%v", err))
	case typ == "":
		list = append(list, invalidDocument("/data/type", "resource type is required"))
	case opts.ExpectedType != "" && typ != opts.ExpectedType:
		conflict := NewError(http.StatusConflict, "Unsupported resource type",
			fmt.Sprintf("expected resource type %q, got %q", opts.ExpectedType, typ))
		list = append(list, conflict.WithCode(CodeTypeMismatch).WithPointer("/data/type"))
	default:
		res.Type = typ
	}

	// id
	if rawID, ok := fields["id"]; ok {
		var id string
		if err := json.Unmarshal(rawID, &id); err != nil {
			list = append(list, invalidDocument("/data/id", "resource id must be a string"))
		} else if !opts.RequireID && !opts.AllowClientID {
			forbidden := NewError(http.StatusForbidden, "Client-generated IDs are not supported",
				"this endpoint does not accept a client-generated resource id")
			list = append(list, forbidden.WithCode(CodeClientID).WithPointer("/data/id"))
		} else {
			res.ID = id
		}
	} else if opts.RequireID {
		list = append(list, invalidDocument("/data/id", "resource id is required"))
	}

	// attributes
	attrNames := map[string]bool{}
	if rawAttrs, ok := fields["attributes"]; ok {
		var attrs map[string]json.RawMessage
		if err := json.Unmarshal(rawAttrs, &attrs); err != nil {
			list = append(list, invalidDocument("/data/attributes", "attributes must be an object"))
		} else {
			res.Attributes = make(map[string]interface{}, len(attrs))
			for _, name := range sortedMemberNames(attrs) {
				raw := attrs[name]
				if name == "type" || name == "id" {
					e := invalidDocument("/data/attributes/"+name,
						"field name %q is reserved", name)
					list = append(list, e.WithCode(CodeFieldNameConflict))
					continue
				}
				attrNames[name] = true
				var v interface{}
				if err := json.Unmarshal(raw, &v); err != nil {
					list = append(list, invalidDocument("/data/attributes/"+name, "invalid attribute value"))
					continue
				}
				res.Attributes[name] = v
			}
		}
	}

	// relationships
	if rawRels, ok := fields["relationships"]; ok {
		var rels map[string]json.RawMessage
		if err := json.Unmarshal(rawRels, &rels); err != nil {
			list = append(list, invalidDocument("/data/relationships", "relationships must be an object"))
		} else {
			res.Relationships = make(map[string]*Relationship, len(rels))
			for _, name := range sortedMemberNames(rels) {
				raw := rels[name]
				ptr := "/data/relationships/" + name
				if name == "type" || name == "id" {
					e := invalidDocument(ptr, "field name %q is reserved", name)
					list = append(list, e.WithCode(CodeFieldNameConflict))
					continue
				}
				if attrNames[name] {
					e := invalidDocument(ptr,
						"field name %q is used by both attributes and relationships", name)
					list = append(list, e.WithCode(CodeFieldNameConflict))
					continue
				}
				rel, relErrs := parseRelationship(raw, ptr)
				if relErrs != nil {
					list = append(list, relErrs...)
					continue
				}
				res.Relationships[name] = rel
			}
		}
	}

	if list != nil {
		return nil, list
	}
	return res, nil
}

// ParseRelationshipDocument validates the linkage-only body of a
// relationship endpoint (PATCH/POST/DELETE …/relationships/{name}). The
// linkage shape must match the relationship's declared arity, and every
// identifier must carry the expected type.
func ParseRelationshipDocument(body []byte, expectedType string, toMany bool) (*Linkage, ErrorList) {
	members, errs := parseEnvelope(body)
	if errs != nil {
		return nil, errs
	}

	rawData, ok := members["data"]
	if !ok {
		return nil, ErrorList{invalidDocument("/data", "a relationship document must contain a data member")}
	}

	trimmed := bytes.TrimSpace(rawData)
	var list ErrorList

	if toMany {
		if len(trimmed) == 0 || trimmed[0] != '[' {
			return nil, ErrorList{invalidDocument("/data",
				"a to-many relationship requires a list of resource identifiers")}
		}
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, ErrorList{invalidDocument("/data", "invalid resource identifier list")}
		}
		refs := make([]ResourceIdentifier, 0, len(elems))
		for i, elem := range elems {
			ref, refErrs := parseIdentifier(elem, "/data/"+strconv.Itoa(i), expectedType)
			if refErrs != nil {
				list = append(list, refErrs...)
				continue
			}
			refs = append(refs, *ref)
		}
		if list != nil {
			return nil, list
		}
		return ToManyLinkage(refs), nil
	}

	if bytes.Equal(trimmed, []byte("null")) {
		return ToOneLinkage(nil), nil
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrorList{invalidDocument("/data",
			"a to-one relationship requires a single resource identifier or null")}
	}
	ref, refErrs := parseIdentifier(trimmed, "/data", expectedType)
	if refErrs != nil {
		return nil, refErrs
	}
	return ToOneLinkage(ref), nil
}

// parseEnvelope decodes the top-level members and enforces data/errors/meta
// exclusivity.
func parseEnvelope(body []byte) (map[string]json.RawMessage, ErrorList) {
	if len(bytes.TrimSpace(body)) == 0 {
		e := NewError(http.StatusBadRequest, "Invalid JSON", "request body is empty")
		return nil, ErrorList{e.WithCode(CodeInvalidJSON).WithPointer("")}
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(body, &members); err != nil {
		e := NewError(http.StatusBadRequest, "Invalid JSON", "request body is not a JSON object")
		return nil, ErrorList{e.WithCode(CodeInvalidJSON).WithPointer("")}
	}

	_, hasData := members["data"]
	_, hasErrors := members["errors"]
	_, hasMeta := members["meta"]

	if hasData && hasErrors {
		return nil, ErrorList{invalidDocument("", "a document must not contain both data and errors")}
	}
	if !hasData && !hasErrors && !hasMeta {
		return nil, ErrorList{invalidDocument("", "a document must contain at least one of data, errors, or meta")}
	}
	return members, nil
}

// parseRelationship validates a single relationship object within an
// inbound resource document.
func parseRelationship(raw json.RawMessage, ptr string) (*Relationship, ErrorList) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, ErrorList{invalidDocument(ptr, "a relationship must be an object")}
	}

	rawData, ok := members["data"]
	if !ok {
		// links-only or meta-only relationship objects carry no linkage
		// for the server to apply; nothing further to validate.
		return &Relationship{}, nil
	}

	trimmed := bytes.TrimSpace(rawData)
	dataPtr := ptr + "/data"

	switch {
	case bytes.Equal(trimmed, []byte("null")):
		return &Relationship{Data: ToOneLinkage(nil)}, nil
	case len(trimmed) > 0 && trimmed[0] == '{':
		ref, errs := parseIdentifier(trimmed, dataPtr, "")
		if errs != nil {
			return nil, errs
		}
		return &Relationship{Data: ToOneLinkage(ref)}, nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, ErrorList{invalidDocument(dataPtr, "invalid resource identifier list")}
		}
		refs := make([]ResourceIdentifier, 0, len(elems))
		var list ErrorList
		for i, elem := range elems {
			ref, errs := parseIdentifier(elem, dataPtr+"/"+strconv.Itoa(i), "")
			if errs != nil {
				list = append(list, errs...)
				continue
			}
			refs = append(refs, *ref)
		}
		if list != nil {
			return nil, list
		}
		return &Relationship{Data: ToManyLinkage(refs)}, nil
	default:
		e := invalidDocument(dataPtr,
			"relationship data must be an identifier, a list of identifiers, or null")
		return nil, ErrorList{e.WithCode(CodeInvalidIdentifier)}
	}
}

// parseIdentifier validates a single {type, id} pair. Both members must be
// non-empty strings; when expectedType is set the type must match it.
func parseIdentifier(raw json.RawMessage, ptr, expectedType string) (*ResourceIdentifier, ErrorList) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		e := invalidDocument(ptr, "a resource identifier must be an object")
		return nil, ErrorList{e.WithCode(CodeInvalidIdentifier)}
	}

	var list ErrorList

	typ, err := stringMember(members, "type")
	switch {
	case err != nil:
		list = append(list, invalidDocument(ptr+"/type", "%v", err).WithCode(CodeInvalidIdentifier))
	case typ == "":
		list = append(list, invalidDocument(ptr+"/type", "identifier type is required").WithCode(CodeInvalidIdentifier))
	case expectedType != "" && typ != expectedType:
		conflict := NewError(http.StatusConflict, "Unsupported resource type",
			fmt.Sprintf("expected resource type %q, got %q", expectedType, typ))
		list = append(list, conflict.WithCode(CodeTypeMismatch).WithPointer(ptr+"/type"))
	}

	id, err := stringMember(members, "id")
	switch {
	case err != nil:
		list = append(list, invalidDocument(ptr+"/id", "%v", err).WithCode(CodeInvalidIdentifier))
	case id == "":
		list = append(list, invalidDocument(ptr+"/id", "identifier id is required").WithCode(CodeInvalidIdentifier))
	}

	if list != nil {
		return nil, list
	}
	return &ResourceIdentifier{Type: typ, ID: id}, nil
}

// sortedMemberNames returns the map's keys in lexical order so accumulated
// errors come out in a stable order across identical requests.
func sortedMemberNames(members map[string]json.RawMessage) []string {
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// stringMember extracts a required string member, distinguishing a missing
// member from a non-string one.
func stringMember(members map[string]json.RawMessage, name string) (string, error) {
	raw, ok := members[name]
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s must be a string", name)
	}
	return s, nil
}

// invalidDocument builds a 400 document-structure error with a JSON pointer.
func invalidDocument(pointer, format string, args ...interface{}) *ErrorObject {
	e := NewError(http.StatusBadRequest, "Invalid JSON:API document", fmt.Sprintf(format, args...))
	return e.WithCode(CodeInvalidDocument).WithPointer(pointer)
}
