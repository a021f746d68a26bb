// Package service provides business-logic services for identity, labels,
// and recipes, delegating persistence to repository interfaces.
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atinyakov/recipebox/internal/apperr"
	"github.com/atinyakov/recipebox/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// minPasswordLength is the shortest password accepted at registration.
const minPasswordLength = 5

// tokenBytes is the entropy of a minted bearer token.
const tokenBytes = 32

// UserRepository defines the persistence operations required by the
// authentication service.
type UserRepository interface {
	// CreateUser inserts a new user row and returns it with its id set.
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	// GetByEmail fetches a user by normalized email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByID fetches a user by id.
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// UpdateUser persists a user's name and password hash.
	UpdateUser(ctx context.Context, u *models.User) error
}

// TokenRepository defines the persistence operations for bearer tokens.
type TokenRepository interface {
	// Save stores a minted token bound to the given user.
	Save(ctx context.Context, token string, userID int64) error
	// GetUser resolves a token issued at or after notBefore to its user.
	GetUser(ctx context.Context, token string, notBefore time.Time) (*models.User, error)
}

// AuthService implements user registration, authentication, and bearer
// token issuance/resolution.
type AuthService struct {
	users    UserRepository
	tokens   TokenRepository
	tokenTTL time.Duration
}

// NewAuthService constructs an AuthService using the provided repositories.
// tokenTTL bounds how long an issued token resolves to a principal.
func NewAuthService(users UserRepository, tokens TokenRepository, tokenTTL time.Duration) *AuthService {
	return &AuthService{users: users, tokens: tokens, tokenTTL: tokenTTL}
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
// Normalization is idempotent; all user queries go through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user with the given credentials. The email is
// normalized to lowercase before persisting; only a bcrypt hash of the
// password is stored.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	return s.register(ctx, email, password, name, false, false)
}

// RegisterSuperuser creates a user with staff and superuser flags set.
func (s *AuthService) RegisterSuperuser(ctx context.Context, email, password string) (*models.User, error) {
	return s.register(ctx, email, password, "", true, true)
}

func (s *AuthService) register(ctx context.Context, email, password, name string, isStaff, isSuperuser bool) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, apperr.Validationf("email is required")
	}
	if len(password) < minPasswordLength {
		return nil, apperr.Validationf("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		IsStaff:      isStaff,
		IsSuperuser:  isSuperuser,
	}
	return s.users.CreateUser(ctx, u)
}

// Authenticate verifies the credentials and returns the matching user.
// A missing user and a wrong password both return (nil, nil); callers must
// not be able to tell them apart.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return nil, nil
	}
	return u, nil
}

// IssueToken authenticates the credentials and mints a fresh opaque bearer
// token bound to the user. Missing or wrong credentials fail with
// apperr.ErrInvalidCredentials.
func (s *AuthService) IssueToken(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", apperr.ErrInvalidCredentials
	}

	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", apperr.ErrInvalidCredentials
	}

	token, err := mintToken()
	if err != nil {
		return "", err
	}
	if err := s.tokens.Save(ctx, token, u.ID); err != nil {
		return "", err
	}
	return token, nil
}

// ResolvePrincipal resolves a presented bearer token to its user. An empty,
// unknown, or expired token fails with apperr.ErrUnauthenticated.
func (s *AuthService) ResolvePrincipal(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.ErrUnauthenticated
	}
	return s.tokens.GetUser(ctx, token, time.Now().Add(-s.tokenTTL))
}

// UpdateProfile changes the caller's display name and, when newPassword is
// non-nil, the password (subject to the registration length rule).
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, name *string, newPassword *string) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		u.Name = *name
	}
	if newPassword != nil {
		if len(*newPassword) < minPasswordLength {
			return nil, apperr.Validationf("password must be at least %d characters", minPasswordLength)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*newPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}

	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// mintToken returns a fresh opaque token: random bytes, base64-url encoded.
func mintToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
