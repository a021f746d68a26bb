// Package apperr defines the sentinel errors shared across the service
// layers of RecipeBox. Callers should use errors.Is to match these values.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing client input. Writes are
	// rejected before anything is persisted.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks lookups that resolve to no row under the caller's
	// ownership scope. It covers both "does not exist" and "not yours".
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated marks requests with a missing, invalid, or
	// expired token.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidCredentials marks a failed authentication attempt. It does
	// not distinguish a wrong password from an unknown email.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAlreadyExists marks creation of a row that violates a uniqueness
	// constraint (duplicate user email).
	ErrAlreadyExists = errors.New("already exists")
)

// Validationf wraps ErrValidation with a formatted reason, so callers can
// both match with errors.Is and surface the reason to the client.
func Validationf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}
