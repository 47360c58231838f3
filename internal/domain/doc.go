// Package domain defines the core entities served by the API (posts, users,
// comments, tags) and their validation rules. Entities implement the
// schema.Resource accessor contract so the serializer can read fields by
// name without reflection.
package domain
