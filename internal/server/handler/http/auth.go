package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atinyakov/recipebox/internal/middleware"
	"github.com/atinyakov/recipebox/internal/models"
)

// AuthService defines the identity operations required by the HTTP handlers.
type AuthService interface {
	// Register creates a user with the given credentials.
	Register(ctx context.Context, email, password, name string) (*models.User, error)
	// IssueToken authenticates the credentials and mints a bearer token.
	IssueToken(ctx context.Context, email, password string) (string, error)
	// UpdateProfile changes the caller's name and/or password.
	UpdateProfile(ctx context.Context, userID int64, name *string, newPassword *string) (*models.User, error)
}

// AuthHandler handles HTTP requests for registration, token issuance, and
// profile management.
type AuthHandler struct {
	// AuthService performs the underlying identity operations.
	AuthService AuthService
}

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	// Email is the login email to register.
	Email string `json:"email"`
	// Password is the plaintext password; it is never stored as-is.
	Password string `json:"password"`
	// Name is the optional display name.
	Name string `json:"name"`
}

// TokenRequest represents the JSON payload for token issuance.
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateMeRequest represents the JSON payload for profile updates. Absent
// fields are left unchanged.
type UpdateMeRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

// userView is the response shape for a user; it never carries credentials.
type userView struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func toUserView(u *models.User) userView {
	return userView{ID: u.ID, Email: u.Email, Name: u.Name}
}

// Register handles POST /api/user.
// It expects a JSON body with email and password; the created user is
// returned without any credential fields.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.AuthService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserView(user))
}

// CreateToken handles POST /api/user/token.
// On success the response body is {"token": "..."}; on any credential
// failure the response carries no token field and never says whether the
// email or the password was wrong.
func (h *AuthHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	token, err := h.AuthService.IssueToken(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Me handles GET /api/user/me, returning the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	writeJSON(w, http.StatusOK, toUserView(user))
}

// UpdateMe handles PATCH /api/user/me.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req UpdateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	updated, err := h.AuthService.UpdateProfile(r.Context(), user.ID, req.Name, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserView(updated))
}
