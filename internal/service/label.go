package service

import (
	"context"
	"unicode/utf8"

	"github.com/atinyakov/recipebox/internal/apperr"
	"github.com/atinyakov/recipebox/internal/models"
)

// maxLabelNameLength bounds tag and ingredient names.
const maxLabelNameLength = 255

// LabelRepository defines the persistence operations needed by a
// LabelService. Both the tag and ingredient registries satisfy it.
type LabelRepository interface {
	// List fetches the labels owned by the user, optionally restricted to
	// labels assigned to at least one of the user's recipes.
	List(ctx context.Context, userID int64, assignedOnly bool) ([]models.Label, error)
	// Create inserts a label owned by the user.
	Create(ctx context.Context, userID int64, name string) (*models.Label, error)
	// GetByIDs fetches labels by id regardless of owner.
	GetByIDs(ctx context.Context, ids []int64) ([]models.Label, error)
}

// LabelService implements registry logic shared by tags and ingredients.
type LabelService struct {
	// repo performs the data-layer operations.
	repo LabelRepository
}

// NewLabelService constructs a LabelService with the provided repository.
func NewLabelService(repo LabelRepository) *LabelService {
	return &LabelService{repo: repo}
}

// List returns the caller's labels, name descending. With assignedOnly,
// only labels referenced by at least one of the caller's recipes are
// returned, each at most once.
func (s *LabelService) List(ctx context.Context, userID int64, assignedOnly bool) ([]models.Label, error) {
	return s.repo.List(ctx, userID, assignedOnly)
}

// GetByIDs resolves label ids to their rows for detail view expansion.
// No ownership filter applies here; a recipe may reference labels owned by
// another user.
func (s *LabelService) GetByIDs(ctx context.Context, ids []int64) ([]models.Label, error) {
	return s.repo.GetByIDs(ctx, ids)
}

// Create validates the name and inserts a label owned by the caller.
func (s *LabelService) Create(ctx context.Context, userID int64, name string) (*models.Label, error) {
	if name == "" {
		return nil, apperr.Validationf("name is required")
	}
	if utf8.RuneCountInString(name) > maxLabelNameLength {
		return nil, apperr.Validationf("name exceeds %d characters", maxLabelNameLength)
	}
	return s.repo.Create(ctx, userID, name)
}
