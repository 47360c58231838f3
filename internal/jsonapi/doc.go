// Package jsonapi implements the JSON:API document model: resource objects,
// resource identifiers, relationship objects, error objects, the top-level
// document envelope, and the structural validation rules the specification
// imposes on inbound documents.
//
// The package is transport-agnostic. It knows nothing about routing or
// storage; it parses raw JSON bodies into validated document structures and
// marshals document structures back to the wire format.
package jsonapi
