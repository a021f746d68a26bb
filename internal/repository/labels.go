package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/recipebox/internal/models"
	"github.com/lib/pq"
)

// PostgresLabelRepository implements the tag and ingredient registries
// against a PostgreSQL database. Both registries share identical scoping and
// filtering semantics; one implementation is parameterized by its table and
// recipe-association table names.
type PostgresLabelRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB

	// table is the label table ("tags" or "ingredients").
	table string
	// joinTable is the recipe association table ("recipe_tags" or
	// "recipe_ingredients").
	joinTable string
	// joinColumn is the label reference column in joinTable.
	joinColumn string
}

// NewPostgresTagRepository creates the label repository serving tags.
func NewPostgresTagRepository(db *sql.DB) *PostgresLabelRepository {
	return &PostgresLabelRepository{DB: db, table: "tags", joinTable: "recipe_tags", joinColumn: "tag_id"}
}

// NewPostgresIngredientRepository creates the label repository serving ingredients.
func NewPostgresIngredientRepository(db *sql.DB) *PostgresLabelRepository {
	return &PostgresLabelRepository{DB: db, table: "ingredients", joinTable: "recipe_ingredients", joinColumn: "ingredient_id"}
}

// List fetches the labels owned by the given user, ordered by name
// descending with id descending as the tie-break. When assignedOnly is
// true, results are restricted to labels referenced by at least one of the
// user's recipes, deduplicated even when several recipes share a label.
func (s *PostgresLabelRepository) List(ctx context.Context, userID int64, assignedOnly bool) ([]models.Label, error) {
	query := fmt.Sprintf(`
		SELECT id, name FROM %s WHERE user_id = $1 ORDER BY name DESC, id DESC
	`, s.table)
	if assignedOnly {
		query = fmt.Sprintf(`
		SELECT DISTINCT l.id, l.name FROM %s l
		 INNER JOIN %s j ON j.%s = l.id
		 INNER JOIN recipes r ON r.id = j.recipe_id
		 WHERE l.user_id = $1 AND r.user_id = $1
		 ORDER BY l.name DESC, l.id DESC
	`, s.table, s.joinTable, s.joinColumn)
	}

	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table, err)
	}
	defer rows.Close()

	var labels []models.Label
	for rows.Next() {
		var l models.Label
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table, err)
	}
	return labels, nil
}

// GetByIDs fetches labels by id regardless of owner; it backs the detail
// view expansion, where a recipe may reference labels created by another
// user. Missing ids are simply absent from the result.
func (s *PostgresLabelRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.Label, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.DB.QueryContext(
		ctx,
		fmt.Sprintf(`SELECT id, name FROM %s WHERE id = ANY($1) ORDER BY name DESC, id DESC`, s.table),
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("get %s by ids: %w", s.table, err)
	}
	defer rows.Close()

	var labels []models.Label
	for rows.Next() {
		var l models.Label
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get %s by ids: %w", s.table, err)
	}
	return labels, nil
}

// Create inserts a label owned by the given user and returns it with its
// assigned id.
func (s *PostgresLabelRepository) Create(ctx context.Context, userID int64, name string) (*models.Label, error) {
	l := models.Label{Name: name}
	err := s.DB.QueryRowContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s (user_id, name) VALUES ($1, $2) RETURNING id`, s.table),
		userID, name,
	).Scan(&l.ID)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", s.table, err)
	}
	return &l, nil
}
