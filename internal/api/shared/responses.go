package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/keelson/folio-api/internal/jsonapi"
)

// RespondWithDocument writes a JSON:API document with the given status.
// A nil document writes the status line only (204 No Content).
func RespondWithDocument(w http.ResponseWriter, r *http.Request, status int, doc *jsonapi.Document) {
	if doc == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", jsonapi.MediaType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		slog.Error("failed to encode response document", "error", err)
	}
}

// RespondWithErrors writes a JSON:API error document. The response status
// comes from the error list's aggregation rules.
//
// Log level strategy:
//   - 5xx: ERROR
//   - 4xx: DEBUG
func RespondWithErrors(w http.ResponseWriter, r *http.Request, errs jsonapi.ErrorList) {
	status := errs.HTTPStatus()
	traceID := GetTraceID(r.Context())

	logLevel := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		logLevel = slog.LevelError
	}
	slog.LogAttrs(r.Context(), logLevel, "API error response",
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
		slog.Int("error_count", len(errs)),
	)

	doc := jsonapi.NewErrorDocument(errs)
	if traceID != "" {
		doc.Meta = jsonapi.Meta{"trace-id": traceID}
	}
	RespondWithDocument(w, r, status, doc)
}
