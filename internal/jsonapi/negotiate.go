package jsonapi

import (
	"mime"
	"net/http"
	"strings"
)

// NegotiateContentType checks the Content-Type header of a body-bearing
// request. The JSON:API media type must be used without media type
// parameters; anything else yields a 415 error object. Negotiation happens
// before the body is read.
func NegotiateContentType(header string) *ErrorObject {
	mediaType, params, err := mime.ParseMediaType(header)
	if err != nil || mediaType != MediaType {
		return NewError(http.StatusUnsupportedMediaType, "Unsupported media type",
			"request body must be sent as "+MediaType).
			WithCode("unsupported_media_type").
			WithHeader("Content-Type")
	}
	if len(params) > 0 {
		return NewError(http.StatusUnsupportedMediaType, "Unsupported media type",
			"the JSON:API media type must not carry media type parameters").
			WithCode("unsupported_media_type").
			WithHeader("Content-Type")
	}
	return nil
}

// NegotiateAccept checks the Accept header. A missing header, */*, or
// application/* accepts anything. If the header references the JSON:API
// media type at all, at least one instance must be parameter-free; if every
// instance carries parameters (or the header accepts nothing compatible),
// the request fails with 406.
func NegotiateAccept(header string) *ErrorObject {
	if strings.TrimSpace(header) == "" {
		return nil
	}

	sawJSONAPI := false
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mediaType, params, err := mime.ParseMediaType(part)
		if err != nil {
			continue
		}
		// q is an acceptance parameter, not a media type parameter.
		delete(params, "q")

		switch mediaType {
		case "*/*", "application/*":
			return nil
		case MediaType:
			sawJSONAPI = true
			if len(params) == 0 {
				return nil
			}
		}
	}

	if sawJSONAPI {
		return NewError(http.StatusNotAcceptable, "Not acceptable",
			"the JSON:API media type in Accept must not carry media type parameters").
			WithCode("not_acceptable").
			WithHeader("Accept")
	}
	return NewError(http.StatusNotAcceptable, "Not acceptable",
		"this endpoint only produces "+MediaType).
		WithCode("not_acceptable").
		WithHeader("Accept")
}
