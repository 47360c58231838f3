package jsonapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ErrorSource identifies where in the request an error originated: a JSON
// pointer into the document, a query parameter name, or a header name.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
	Header    string `json:"header,omitempty"`
}

// ErrorObject is a single JSON:API error object.
type ErrorObject struct {
	ID     string       `json:"id,omitempty"`
	Status string       `json:"status,omitempty"`
	Code   string       `json:"code,omitempty"`
	Title  string       `json:"title,omitempty"`
	Detail string       `json:"detail,omitempty"`
	Source *ErrorSource `json:"source,omitempty"`
	Meta   Meta         `json:"meta,omitempty"`
	Links  Links        `json:"links,omitempty"`
}

// NewError creates an error object with the given HTTP status, title, and
// detail. The status is stored as a string per the wire format.
func NewError(status int, title, detail string) *ErrorObject {
	return &ErrorObject{
		Status: strconv.Itoa(status),
		Title:  title,
		Detail: detail,
	}
}

// WithCode sets the application-specific error code and returns the object
// for chaining.
func (e *ErrorObject) WithCode(code string) *ErrorObject {
	e.Code = code
	return e
}

// WithPointer sets source.pointer to the given JSON pointer.
func (e *ErrorObject) WithPointer(pointer string) *ErrorObject {
	e.Source = &ErrorSource{Pointer: pointer}
	return e
}

// WithParameter sets source.parameter to the given query parameter name.
func (e *ErrorObject) WithParameter(parameter string) *ErrorObject {
	e.Source = &ErrorSource{Parameter: parameter}
	return e
}

// WithHeader sets source.header to the given header name.
func (e *ErrorObject) WithHeader(header string) *ErrorObject {
	e.Source = &ErrorSource{Header: header}
	return e
}

// StatusCode returns the numeric HTTP status of the error, or 0 when the
// error carries no parsable status.
func (e *ErrorObject) StatusCode() int {
	n, err := strconv.Atoi(e.Status)
	if err != nil || n < 100 || n > 599 {
		return 0
	}
	return n
}

// ErrorList is an ordered collection of error objects. It implements error
// so validation failures can flow through normal error returns.
type ErrorList []*ErrorObject

// Error implements the error interface with a compact summary.
func (el ErrorList) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	parts := make([]string, 0, len(el))
	for _, e := range el {
		s := e.Title
		if e.Detail != "" {
			s = fmt.Sprintf("%s: %s", e.Title, e.Detail)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}

// HTTPStatus aggregates the list into one response status:
//
//   - no errors, or no error carries a status: 500
//   - all carried statuses equal: that status
//   - all carried statuses in the 4xx range: 400
//   - otherwise (any 5xx present): 500
func (el ErrorList) HTTPStatus() int {
	first := 0
	uniform := true
	all4xx := true
	for _, e := range el {
		s := e.StatusCode()
		if s == 0 {
			continue
		}
		if first == 0 {
			first = s
		} else if s != first {
			uniform = false
		}
		if s < 400 || s > 499 {
			all4xx = false
		}
	}

	switch {
	case first == 0:
		return http.StatusInternalServerError
	case uniform:
		return first
	case all4xx:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Errorf is a convenience for single-error lists.
func Errorf(status int, title, format string, args ...interface{}) ErrorList {
	return ErrorList{NewError(status, title, fmt.Sprintf(format, args...))}
}
