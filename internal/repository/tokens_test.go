package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/recipebox/internal/apperr"
)

func setupTokenMock(t *testing.T) (*PostgresTokenRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresTokenRepository(db)
	cleanup := func() {
		db.Close()
	}
	return repo, mock, cleanup
}

func TestSaveToken_Success(t *testing.T) {
	repo, mock, cleanup := setupTokenMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tokens (token, user_id) VALUES ($1, $2)`)).
		WithArgs("tok-1", int64(3)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Save(context.Background(), "tok-1", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSaveToken_Error(t *testing.T) {
	repo, mock, cleanup := setupTokenMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tokens (token, user_id) VALUES ($1, $2)`)).
		WithArgs("tok-1", int64(3)).
		WillReturnError(errors.New("insert fail"))

	err := repo.Save(context.Background(), "tok-1", 3)
	if err == nil || !regexp.MustCompile(`save token`).MatchString(err.Error()) {
		t.Errorf("expected save token error, got %v", err)
	}
}

func TestGetUserByToken_Success(t *testing.T) {
	repo, mock, cleanup := setupTokenMock(t)
	defer cleanup()

	notBefore := time.Now().Add(-time.Hour)
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "name", "is_staff", "is_superuser"}).
		AddRow(int64(8), "dina@example.com", "hash", "Dina", false, false)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT u.id, u.email, u.password_hash, u.name, u.is_staff, u.is_superuser`)).
		WithArgs("tok-9", notBefore).
		WillReturnRows(rows)

	u, err := repo.GetUser(context.Background(), "tok-9", notBefore)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != 8 || u.Email != "dina@example.com" {
		t.Errorf("unexpected user returned: %+v", u)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetUserByToken_UnknownOrExpired(t *testing.T) {
	repo, mock, cleanup := setupTokenMock(t)
	defer cleanup()

	notBefore := time.Now().Add(-time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT u.id, u.email, u.password_hash, u.name, u.is_staff, u.is_superuser`)).
		WithArgs("gone", notBefore).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "name", "is_staff", "is_superuser"}))

	_, err := repo.GetUser(context.Background(), "gone", notBefore)
	if !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}
