// Package schema defines resource schemas (field declarations, sort and
// filter capabilities, pagination bounds, include depth) and the registry
// mapping resource type names to them. Schemas are registered once at
// bootstrap and are read-only afterwards, so concurrent request handling
// needs no locking around the registry.
package schema
