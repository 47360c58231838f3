// Package store defines the persistence contracts the API layer depends
// on: the Repository interface each resource type is served through, the
// shared error taxonomy, and the transaction helper. Implementations live
// in platform packages (PostgreSQL) and in test fakes.
package store
