package web

import (
	"encoding/json"
	"net/http"

	"billing-backend/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeServiceError maps a tagged core error onto the matching HTTP status.
// Untagged errors become opaque 500s so internals never leak to clients.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch core.KindOf(err) {
	case core.KindNotFound:
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case core.KindConflict:
		writeError(w, r, err.Error(), "CONFLICT", http.StatusConflict)
	case core.KindInvalid:
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
	case core.KindUnauthorized:
		writeError(w, r, err.Error(), "UNAUTHORIZED", http.StatusUnauthorized)
	case core.KindForbidden:
		writeError(w, r, err.Error(), "FORBIDDEN", http.StatusForbidden)
	default:
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
