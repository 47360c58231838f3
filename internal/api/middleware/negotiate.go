package middleware

import (
	"net/http"

	"github.com/keelson/folio-api/internal/api/shared"
	"github.com/keelson/folio-api/internal/jsonapi"
)

// Negotiate enforces JSON:API content negotiation before any body is
// read. Requests with a body must send the media type without parameters
// (415 otherwise); clients that accept the media type only with
// parameters get 406.
func Negotiate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength != 0 || r.Header.Get("Content-Type") != "" {
			if errObj := jsonapi.NegotiateContentType(r.Header.Get("Content-Type")); errObj != nil {
				shared.RespondWithErrors(w, r, jsonapi.ErrorList{errObj})
				return
			}
		}
		if errObj := jsonapi.NegotiateAccept(r.Header.Get("Accept")); errObj != nil {
			shared.RespondWithErrors(w, r, jsonapi.ErrorList{errObj})
			return
		}
		next.ServeHTTP(w, r)
	})
}
