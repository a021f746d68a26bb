package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/recipebox/internal/apperr"
	"github.com/atinyakov/recipebox/internal/models"
	"github.com/lib/pq"
)

func setupRecipeMock(t *testing.T) (*PostgresRecipeRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresRecipeRepository(db)
	cleanup := func() {
		db.Close()
	}
	return repo, mock, cleanup
}

func expectAssociationLoads(mock sqlmock.Sqlmock, recipeIDs []int64, tagRows, ingredientRows *sqlmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT recipe_id, tag_id FROM recipe_tags WHERE recipe_id = ANY($1)`)).
		WithArgs(pq.Array(recipeIDs)).
		WillReturnRows(tagRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT recipe_id, ingredient_id FROM recipe_ingredients WHERE recipe_id = ANY($1)`)).
		WithArgs(pq.Array(recipeIDs)).
		WillReturnRows(ingredientRows)
}

func TestListRecipesByUser_Success(t *testing.T) {
	repo, mock, cleanup := setupRecipeMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "time_minutes", "price", "image"}).
		AddRow(int64(2), int64(1), "Stew", 30, 9.50, "").
		AddRow(int64(1), int64(1), "Toast", 5, 2.00, "")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, title, time_minutes, price, image FROM recipes WHERE user_id = $1 ORDER BY id DESC`)).
		WithArgs(int64(1)).
		WillReturnRows(rows)
	expectAssociationLoads(mock, []int64{2, 1},
		sqlmock.NewRows([]string{"recipe_id", "tag_id"}).AddRow(int64(2), int64(7)),
		sqlmock.NewRows([]string{"recipe_id", "ingredient_id"}),
	)

	recipes, err := repo.ListByUser(context.Background(), 1, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recipes) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(recipes))
	}
	if recipes[0].ID != 2 || recipes[1].ID != 1 {
		t.Errorf("unexpected order: %+v", recipes)
	}
	if len(recipes[0].TagIDs) != 1 || recipes[0].TagIDs[0] != 7 {
		t.Errorf("expected tag 7 on recipe 2, got %+v", recipes[0].TagIDs)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestListRecipesByUser_TagFilter(t *testing.T) {
	repo, mock, cleanup := setupRecipeMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "time_minutes", "price", "image"}).
		AddRow(int64(3), int64(1), "Curry", 40, 11.00, "")
	mock.ExpectQuery(regexp.QuoteMeta(`AND id IN (SELECT recipe_id FROM recipe_tags WHERE tag_id = ANY($2))`)).
		WithArgs(int64(1), pq.Array([]int64{7})).
		WillReturnRows(rows)
	expectAssociationLoads(mock, []int64{3},
		sqlmock.NewRows([]string{"recipe_id", "tag_id"}).AddRow(int64(3), int64(7)),
		sqlmock.NewRows([]string{"recipe_id", "ingredient_id"}),
	)

	recipes, err := repo.ListByUser(context.Background(), 1, []int64{7}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recipes) != 1 || recipes[0].ID != 3 {
		t.Errorf("unexpected recipes returned: %+v", recipes)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetRecipeByID_OwnershipInPredicate(t *testing.T) {
	repo, mock, cleanup := setupRecipeMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = $1 AND id = $2`)).
		WithArgs(int64(2), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "time_minutes", "price", "image"}))

	// Recipe 10 exists but belongs to another user; the lookup predicate
	// hides it the same way a missing row is hidden.
	_, err := repo.GetByID(context.Background(), 2, 10)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateRecipe_WithLabels(t *testing.T) {
	repo, mock, cleanup := setupRecipeMock(t)
	defer cleanup()

	r := &models.Recipe{Title: "Carbonara", TimeMinutes: 45, Price: 13.00, TagIDs: []int64{1, 2}}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO recipes (user_id, title, time_minutes, price, image)`)).
		WithArgs(int64(1), "Carbonara", 45, 13.00, "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(20)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM tags WHERE id = ANY($1)`)).
		WithArgs(pq.Array([]int64{1, 2})).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES ($1, $2)`)).
		WithArgs(int64(20), int64(1)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES ($1, $2)`)).
		WithArgs(int64(20), int64(2)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	created, err := repo.Create(context.Background(), 1, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != 20 || created.UserID != 1 {
		t.Errorf("unexpected recipe returned: %+v", created)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateRecipe_UnresolvedLabelRollsBack(t *testing.T) {
	repo, mock, cleanup := setupRecipeMock(t)
	defer cleanup()

	r := &models.Recipe{Title: "Carbonara", TimeMinutes: 45, Price: 13.00, TagIDs: []int64{1, 999}}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO recipes (user_id, title, time_minutes, price, image)`)).
		WithArgs(int64(1), "Carbonara", 45, 13.00, "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM tags WHERE id = ANY($1)`)).
		WithArgs(pq.Array([]int64{1, 999})).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), 1, r)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpdateRecipe_ReplacesTagSet(t *testing.T) {
	repo, mock, cleanup := setupRecipeMock(t)
	defer cleanup()

	r := &models.Recipe{ID: 20, Title: "Carbonara", TimeMinutes: 50, Price: 14.00, TagIDs: []int64{3}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE recipes SET title = $3, time_minutes = $4, price = $5`)).
		WithArgs(int64(1), int64(20), "Carbonara", 50, 14.00).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM recipe_tags WHERE recipe_id = $1`)).
		WithArgs(int64(20)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM tags WHERE id = ANY($1)`)).
		WithArgs(pq.Array([]int64{3})).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES ($1, $2)`)).
		WithArgs(int64(20), int64(3)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), 1, r, true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpdateRecipe_NotOwned(t *testing.T) {
	repo, mock, cleanup := setupRecipeMock(t)
	defer cleanup()

	r := &models.Recipe{ID: 20, Title: "Carbonara", TimeMinutes: 50, Price: 14.00}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE recipes SET title = $3, time_minutes = $4, price = $5`)).
		WithArgs(int64(2), int64(20), "Carbonara", 50, 14.00).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), 2, r, false, false)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRecipe(t *testing.T) {
	repo, mock, cleanup := setupRecipeMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM recipes WHERE user_id = $1 AND id = $2`)).
		WithArgs(int64(1), int64(20)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), 1, 20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM recipes WHERE user_id = $1 AND id = $2`)).
		WithArgs(int64(1), int64(20)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), 1, 20); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetImage(t *testing.T) {
	repo, mock, cleanup := setupRecipeMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE recipes SET image = $3 WHERE user_id = $1 AND id = $2`)).
		WithArgs(int64(1), int64(20), "uploads/recipe/abc.jpg").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetImage(context.Background(), 1, 20, "uploads/recipe/abc.jpg"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
