// Package postgres implements the store contracts on PostgreSQL. It
// contains the query builder adapter that translates validated JSON:API
// query parameters into SQL (filters, stable multi-key ordering with id
// tie-break, offset pagination) and the eager loader that batches
// relationship queries per include-path level so compound documents never
// degrade into per-resource fetches.
package postgres
