// Package query parses and validates the JSON:API query parameters
// (include, fields, filter, sort, page) against a resource's declared
// capabilities, producing a typed parameter set the query builder and
// serializer consume. Every invalid parameter yields its own error object
// carrying source.parameter; errors are accumulated, not returned one at a
// time.
package query
