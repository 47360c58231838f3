// Package api handles incoming HTTP requests, routing, content
// negotiation, and response formatting. It drives the request pipeline
// for every registered resource type: negotiate, parse, validate,
// execute, serialize, with a short-circuit to the error translator at
// each stage.
package api
