package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/recipebox/internal/apperr"
	"github.com/atinyakov/recipebox/internal/models"
)

// PostgresTokenRepository implements bearer token persistence against a
// PostgreSQL database.
type PostgresTokenRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresTokenRepository creates a new PostgresTokenRepository using the
// provided *sql.DB.
func NewPostgresTokenRepository(db *sql.DB) *PostgresTokenRepository {
	return &PostgresTokenRepository{DB: db}
}

// Save stores a freshly minted token bound to the given user.
func (s *PostgresTokenRepository) Save(ctx context.Context, token string, userID int64) error {
	_, err := s.DB.ExecContext(
		ctx,
		`INSERT INTO tokens (token, user_id) VALUES ($1, $2)`,
		token, userID,
	)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// GetUser resolves a token to its user. Tokens issued before notBefore are
// treated as expired and resolve to apperr.ErrUnauthenticated, as do tokens
// that were never issued.
func (s *PostgresTokenRepository) GetUser(ctx context.Context, token string, notBefore time.Time) (*models.User, error) {
	var u models.User
	var hash string
	err := s.DB.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.password_hash, u.name, u.is_staff, u.is_superuser
		  FROM tokens t
		 INNER JOIN users u ON u.id = t.user_id
		 WHERE t.token = $1 AND t.created_at >= $2
	`, token, notBefore).Scan(&u.ID, &u.Email, &hash, &u.Name, &u.IsStaff, &u.IsSuperuser)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	u.PasswordHash = []byte(hash)
	return &u, nil
}
