// Package mocks provides in-memory implementations of service and
// storage interfaces for testing. Handler tests exercise the full
// request pipeline against these fakes without a database.
package mocks
