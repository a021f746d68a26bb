package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atinyakov/recipebox/internal/middleware"
	"github.com/atinyakov/recipebox/internal/models"
)

// LabelService defines the registry operations required by the label
// handlers. The tag and ingredient registries both satisfy it.
type LabelService interface {
	// List returns the caller's labels, optionally assigned-only.
	List(ctx context.Context, userID int64, assignedOnly bool) ([]models.Label, error)
	// Create inserts a label owned by the caller.
	Create(ctx context.Context, userID int64, name string) (*models.Label, error)
}

// LabelHandler handles HTTP requests for one label registry. The same
// handler type serves /api/tags and /api/ingredients.
type LabelHandler struct {
	// Service performs the underlying registry operations.
	Service LabelService
}

// CreateLabelRequest represents the JSON payload for label creation.
type CreateLabelRequest struct {
	// Name is the label text.
	Name string `json:"name"`
}

// List handles GET requests for a label registry.
// With ?assigned_only=1 the result is restricted to labels referenced by at
// least one of the caller's recipes, each returned at most once.
func (h *LabelHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	assignedOnly := isTruthy(r.URL.Query().Get("assigned_only"))

	labels, err := h.Service.List(r.Context(), user.ID, assignedOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	if labels == nil {
		labels = []models.Label{}
	}

	writeJSON(w, http.StatusOK, labels)
}

// Create handles POST requests for a label registry.
func (h *LabelHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req CreateLabelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	label, err := h.Service.Create(r.Context(), user.ID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, label)
}

// isTruthy reports whether a query parameter requests a flag.
func isTruthy(v string) bool {
	return v == "1" || v == "true"
}
