// Package repository provides persistence implementations for the identity,
// token, label, and recipe services against a PostgreSQL database. Every
// query over user-owned rows carries the owner's id in its predicate; there
// are no unscoped access paths.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/recipebox/internal/apperr"
	"github.com/atinyakov/recipebox/internal/models"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

// PostgresUserRepository implements user persistence using a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given
// database connection. db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// CreateUser inserts a new user row. The caller is responsible for
// normalizing the email and hashing the password beforehand. A duplicate
// email yields apperr.ErrAlreadyExists.
func (s *PostgresUserRepository) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	err := s.DB.QueryRowContext(
		ctx,
		`INSERT INTO users (email, password_hash, name, is_staff, is_superuser)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		u.Email, string(u.PasswordHash), u.Name, u.IsStaff, u.IsSuperuser,
	).Scan(&u.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("email %s: %w", u.Email, apperr.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email. Returns apperr.ErrNotFound
// when no such user exists.
func (s *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	var hash string
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, is_staff, is_superuser FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &hash, &u.Name, &u.IsStaff, &u.IsSuperuser)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	u.PasswordHash = []byte(hash)
	return &u, nil
}

// GetByID fetches a user by id. Returns apperr.ErrNotFound when no such
// user exists.
func (s *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	var hash string
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, is_staff, is_superuser FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &hash, &u.Name, &u.IsStaff, &u.IsSuperuser)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	u.PasswordHash = []byte(hash)
	return &u, nil
}

// UpdateUser persists a user's display name and password hash.
func (s *PostgresUserRepository) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE users SET name = $2, password_hash = $3 WHERE id = $1
	`, u.ID, u.Name, string(u.PasswordHash))
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if rows == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
