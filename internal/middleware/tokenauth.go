// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/atinyakov/recipebox/internal/models"
)

type ctxKey string

const userKey ctxKey = "user"

// bearerPrefix is the expected Authorization scheme.
const bearerPrefix = "Bearer "

// PrincipalResolver resolves a presented bearer token to a user.
type PrincipalResolver interface {
	// ResolvePrincipal returns the user the token authenticates, or an
	// error for a missing, unknown, or expired token.
	ResolvePrincipal(ctx context.Context, token string) (*models.User, error)
}

// TokenAuth is a middleware that enforces bearer token authentication.
//
// It reads the Authorization header, resolves the token to a user before
// any handler runs, and stores the user in the request context. Requests
// without a valid token are rejected with 401 and never reach a handler.
func TokenAuth(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}

			user, err := resolver.ResolvePrincipal(r.Context(), strings.TrimPrefix(header, bearerPrefix))
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// GetUserFromContext extracts the authenticated user from the request
// context. Returns nil if no user was resolved.
func GetUserFromContext(ctx context.Context) *models.User {
	val := ctx.Value(userKey)
	if u, ok := val.(*models.User); ok {
		return u
	}
	return nil
}
