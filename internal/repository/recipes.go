package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/atinyakov/recipebox/internal/apperr"
	"github.com/atinyakov/recipebox/internal/models"
	"github.com/lib/pq"
)

// PostgresRecipeRepository implements recipe persistence, including the
// many-to-many associations to tags and ingredients, against a PostgreSQL
// database. Recipe writes and their association rows commit in one
// transaction so a partial association set is never visible.
type PostgresRecipeRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresRecipeRepository creates a new PostgresRecipeRepository using
// the provided *sql.DB.
func NewPostgresRecipeRepository(db *sql.DB) *PostgresRecipeRepository {
	return &PostgresRecipeRepository{DB: db}
}

// ListByUser fetches the recipes owned by the given user, ordered by id
// descending. Non-empty tagIDs/ingredientIDs restrict the result to recipes
// referencing at least one of the given ids.
func (s *PostgresRecipeRepository) ListByUser(ctx context.Context, userID int64, tagIDs, ingredientIDs []int64) ([]models.Recipe, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, user_id, title, time_minutes, price, image FROM recipes WHERE user_id = $1`)
	args := []any{userID}

	if len(tagIDs) > 0 {
		args = append(args, pq.Array(tagIDs))
		fmt.Fprintf(&sb, ` AND id IN (SELECT recipe_id FROM recipe_tags WHERE tag_id = ANY($%d))`, len(args))
	}
	if len(ingredientIDs) > 0 {
		args = append(args, pq.Array(ingredientIDs))
		fmt.Fprintf(&sb, ` AND id IN (SELECT recipe_id FROM recipe_ingredients WHERE ingredient_id = ANY($%d))`, len(args))
	}
	sb.WriteString(` ORDER BY id DESC`)

	rows, err := s.DB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []models.Recipe
	for rows.Next() {
		var r models.Recipe
		if err := rows.Scan(&r.ID, &r.UserID, &r.Title, &r.TimeMinutes, &r.Price, &r.Image); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}

	if err := s.loadAssociations(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// GetByID fetches a single recipe by id for the given user. Ownership is
// part of the lookup predicate, so a recipe owned by someone else is
// indistinguishable from a missing one.
func (s *PostgresRecipeRepository) GetByID(ctx context.Context, userID, id int64) (*models.Recipe, error) {
	var r models.Recipe
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, user_id, title, time_minutes, price, image FROM recipes
		WHERE user_id = $1 AND id = $2
	`, userID, id).Scan(&r.ID, &r.UserID, &r.Title, &r.TimeMinutes, &r.Price, &r.Image)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	recipes := []models.Recipe{r}
	if err := s.loadAssociations(ctx, recipes); err != nil {
		return nil, err
	}
	return &recipes[0], nil
}

// Create inserts a recipe and its association rows in one transaction.
// Every id in r.TagIDs and r.IngredientIDs must resolve to an existing row;
// any unresolved id fails the whole write with apperr.ErrValidation.
func (s *PostgresRecipeRepository) Create(ctx context.Context, userID int64, r *models.Recipe) (*models.Recipe, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO recipes (user_id, title, time_minutes, price, image)
		VALUES ($1, $2, $3, $4, $5) RETURNING id
	`, userID, r.Title, r.TimeMinutes, r.Price, r.Image).Scan(&r.ID)
	if err != nil {
		return nil, fmt.Errorf("insert recipe: %w", err)
	}
	r.UserID = userID

	if err := linkLabels(ctx, tx, "tags", "recipe_tags", "tag_id", r.ID, r.TagIDs); err != nil {
		return nil, err
	}
	if err := linkLabels(ctx, tx, "ingredients", "recipe_ingredients", "ingredient_id", r.ID, r.IngredientIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return r, nil
}

// Update rewrites the recipe row and, when replaceTags/replaceIngredients is
// set, replaces the corresponding association set. The whole write is one
// transaction. A recipe not owned by the user fails with apperr.ErrNotFound.
func (s *PostgresRecipeRepository) Update(ctx context.Context, userID int64, r *models.Recipe, replaceTags, replaceIngredients bool) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE recipes SET title = $3, time_minutes = $4, price = $5
		WHERE user_id = $1 AND id = $2
	`, userID, r.ID, r.Title, r.TimeMinutes, r.Price)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	if rows == 0 {
		return apperr.ErrNotFound
	}

	if replaceTags {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = $1`, r.ID); err != nil {
			return fmt.Errorf("clear tags: %w", err)
		}
		if err := linkLabels(ctx, tx, "tags", "recipe_tags", "tag_id", r.ID, r.TagIDs); err != nil {
			return err
		}
	}
	if replaceIngredients {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, r.ID); err != nil {
			return fmt.Errorf("clear ingredients: %w", err)
		}
		if err := linkLabels(ctx, tx, "ingredients", "recipe_ingredients", "ingredient_id", r.ID, r.IngredientIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Delete removes a recipe owned by the given user. Association rows cascade;
// the referenced tags and ingredients stay.
func (s *PostgresRecipeRepository) Delete(ctx context.Context, userID, id int64) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM recipes WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if rows == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// SetImage stores the upload path on a recipe owned by the given user.
func (s *PostgresRecipeRepository) SetImage(ctx context.Context, userID, id int64, path string) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE recipes SET image = $3 WHERE user_id = $1 AND id = $2
	`, userID, id, path)
	if err != nil {
		return fmt.Errorf("set image: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set image: %w", err)
	}
	if rows == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// linkLabels resolves label ids against their table inside the transaction
// and inserts the association rows. Any id that resolves to no row fails
// with apperr.ErrValidation before anything is linked.
func linkLabels(ctx context.Context, tx *sql.Tx, table, joinTable, joinColumn string, recipeID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	unique := dedupIDs(ids)

	var count int
	err := tx.QueryRowContext(
		ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE id = ANY($1)`, table),
		pq.Array(unique),
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", table, err)
	}
	if count != len(unique) {
		return apperr.Validationf("unresolved %s ids", table)
	}

	for _, id := range unique {
		_, err := tx.ExecContext(
			ctx,
			fmt.Sprintf(`INSERT INTO %s (recipe_id, %s) VALUES ($1, $2)`, joinTable, joinColumn),
			recipeID, id,
		)
		if err != nil {
			return fmt.Errorf("link %s: %w", table, err)
		}
	}
	return nil
}

// dedupIDs returns ids with duplicates removed, preserving first-seen order.
func dedupIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// loadAssociations fills TagIDs and IngredientIDs for the given recipes with
// two queries over the association tables.
func (s *PostgresRecipeRepository) loadAssociations(ctx context.Context, recipes []models.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	index := make(map[int64]*models.Recipe, len(recipes))
	recipeIDs := make([]int64, 0, len(recipes))
	for i := range recipes {
		index[recipes[i].ID] = &recipes[i]
		recipeIDs = append(recipeIDs, recipes[i].ID)
	}

	load := func(joinTable, joinColumn string, assign func(r *models.Recipe, id int64)) error {
		rows, err := s.DB.QueryContext(
			ctx,
			fmt.Sprintf(`SELECT recipe_id, %s FROM %s WHERE recipe_id = ANY($1) ORDER BY %s`, joinColumn, joinTable, joinColumn),
			pq.Array(recipeIDs),
		)
		if err != nil {
			return fmt.Errorf("load %s: %w", joinTable, err)
		}
		defer rows.Close()

		for rows.Next() {
			var recipeID, labelID int64
			if err := rows.Scan(&recipeID, &labelID); err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			if r, ok := index[recipeID]; ok {
				assign(r, labelID)
			}
		}
		return rows.Err()
	}

	if err := load("recipe_tags", "tag_id", func(r *models.Recipe, id int64) {
		r.TagIDs = append(r.TagIDs, id)
	}); err != nil {
		return err
	}
	return load("recipe_ingredients", "ingredient_id", func(r *models.Recipe, id int64) {
		r.IngredientIDs = append(r.IngredientIDs, id)
	})
}
