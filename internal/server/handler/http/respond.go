// Package http provides the HTTP handlers and routing for the RecipeBox
// API. Handlers translate between JSON payloads and the service layer and
// map the service error taxonomy to status codes in one place.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/atinyakov/recipebox/internal/apperr"
)

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a service error to its HTTP status. Validation failures
// carry their reason; everything else gets a fixed message so internals
// never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		http.Error(w, validationReason(err), http.StatusBadRequest)
	case errors.Is(err, apperr.ErrInvalidCredentials):
		http.Error(w, "invalid credentials", http.StatusBadRequest)
	case errors.Is(err, apperr.ErrUnauthenticated):
		http.Error(w, "authentication required", http.StatusUnauthorized)
	case errors.Is(err, apperr.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, apperr.ErrAlreadyExists):
		http.Error(w, "already exists", http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// validationReason trims the wrapped sentinel text off a validation error,
// leaving only the client-facing reason.
func validationReason(err error) string {
	return strings.TrimSuffix(err.Error(), ": "+apperr.ErrValidation.Error())
}
