package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/atinyakov/recipebox/internal/apperr"
	"github.com/atinyakov/recipebox/internal/models"
	"github.com/google/uuid"
)

// imagePathPrefix is the stored path prefix for recipe images.
const imagePathPrefix = "uploads/recipe"

// maxTitleLength bounds recipe titles.
const maxTitleLength = 255

// RecipeRepository defines the persistence operations needed by the
// RecipeService.
type RecipeRepository interface {
	// ListByUser fetches the user's recipes, id descending, optionally
	// filtered to those referencing any of the given tag/ingredient ids.
	ListByUser(ctx context.Context, userID int64, tagIDs, ingredientIDs []int64) ([]models.Recipe, error)
	// GetByID fetches one recipe owned by the user.
	GetByID(ctx context.Context, userID, id int64) (*models.Recipe, error)
	// Create inserts a recipe and its association rows transactionally.
	Create(ctx context.Context, userID int64, r *models.Recipe) (*models.Recipe, error)
	// Update rewrites a recipe and optionally replaces its association sets.
	Update(ctx context.Context, userID int64, r *models.Recipe, replaceTags, replaceIngredients bool) error
	// Delete removes a recipe owned by the user.
	Delete(ctx context.Context, userID, id int64) error
	// SetImage stores the upload path on a recipe owned by the user.
	SetImage(ctx context.Context, userID, id int64, path string) error
}

// RecipeInput carries the fields of a full recipe write.
type RecipeInput struct {
	Title         string
	TimeMinutes   int
	Price         float64
	TagIDs        []int64
	IngredientIDs []int64
}

// RecipePatch carries a partial recipe update; nil fields are left as-is.
// A non-nil TagIDs or IngredientIDs replaces the whole association set.
type RecipePatch struct {
	Title         *string
	TimeMinutes   *int
	Price         *float64
	TagIDs        *[]int64
	IngredientIDs *[]int64
}

// RecipeService implements the recipe catalog logic.
type RecipeService struct {
	// repo performs the data-layer operations.
	repo RecipeRepository
	// uploadRoot is the filesystem directory image paths are stored under.
	uploadRoot string
}

// NewRecipeService constructs a RecipeService with the provided repository.
// uploadRoot is where uploaded image files are written.
func NewRecipeService(repo RecipeRepository, uploadRoot string) *RecipeService {
	return &RecipeService{repo: repo, uploadRoot: uploadRoot}
}

// List returns the caller's recipes, newest first. Non-empty tagIDs or
// ingredientIDs restrict the result to recipes referencing any of them.
func (s *RecipeService) List(ctx context.Context, userID int64, tagIDs, ingredientIDs []int64) ([]models.Recipe, error) {
	return s.repo.ListByUser(ctx, userID, tagIDs, ingredientIDs)
}

// Get returns one recipe owned by the caller.
func (s *RecipeService) Get(ctx context.Context, userID, id int64) (*models.Recipe, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// Create validates the input and persists a recipe owned by the caller,
// together with its tag/ingredient associations.
func (s *RecipeService) Create(ctx context.Context, userID int64, in RecipeInput) (*models.Recipe, error) {
	if err := validateRecipeFields(in.Title, in.TimeMinutes, in.Price); err != nil {
		return nil, err
	}
	r := &models.Recipe{
		Title:         in.Title,
		TimeMinutes:   in.TimeMinutes,
		Price:         in.Price,
		TagIDs:        uniqueIDs(in.TagIDs),
		IngredientIDs: uniqueIDs(in.IngredientIDs),
	}
	return s.repo.Create(ctx, userID, r)
}

// Update applies a partial update to a recipe owned by the caller. Non-nil
// association lists replace the existing set in the same transaction as the
// row update.
func (s *RecipeService) Update(ctx context.Context, userID, id int64, patch RecipePatch) (*models.Recipe, error) {
	r, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		r.Title = *patch.Title
	}
	if patch.TimeMinutes != nil {
		r.TimeMinutes = *patch.TimeMinutes
	}
	if patch.Price != nil {
		r.Price = *patch.Price
	}
	if err := validateRecipeFields(r.Title, r.TimeMinutes, r.Price); err != nil {
		return nil, err
	}

	replaceTags := patch.TagIDs != nil
	if replaceTags {
		r.TagIDs = uniqueIDs(*patch.TagIDs)
	}
	replaceIngredients := patch.IngredientIDs != nil
	if replaceIngredients {
		r.IngredientIDs = uniqueIDs(*patch.IngredientIDs)
	}

	if err := s.repo.Update(ctx, userID, r, replaceTags, replaceIngredients); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes a recipe owned by the caller. Association rows go with it;
// the referenced tags and ingredients stay.
func (s *RecipeService) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}

// ImagePath returns a fresh storage path for an uploaded image file. The
// filename part is a new uuid on every call; only the extension of the
// original filename is kept.
func (s *RecipeService) ImagePath(filename string) string {
	return fmt.Sprintf("%s/%s%s", imagePathPrefix, uuid.New().String(), filepath.Ext(filename))
}

// SaveImage stores an uploaded image for a recipe owned by the caller and
// records its path on the recipe row. Repeated uploads produce distinct
// paths; the old file is left for out-of-band cleanup.
func (s *RecipeService) SaveImage(ctx context.Context, userID, id int64, filename string, src io.Reader) (string, error) {
	if filename == "" {
		return "", apperr.Validationf("filename is required")
	}
	if _, err := s.repo.GetByID(ctx, userID, id); err != nil {
		return "", err
	}

	path := s.ImagePath(filename)
	dst := filepath.Join(s.uploadRoot, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, src); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}

	if err := s.repo.SetImage(ctx, userID, id, path); err != nil {
		return "", err
	}
	return path, nil
}

// uniqueIDs removes duplicate ids, preserving first-seen order, so the
// recipe echoed back carries the same association set that gets stored.
func uniqueIDs(ids []int64) []int64 {
	if len(ids) < 2 {
		return ids
	}
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

// validateRecipeFields checks the scalar recipe constraints shared by
// create and update.
func validateRecipeFields(title string, timeMinutes int, price float64) error {
	if title == "" {
		return apperr.Validationf("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return apperr.Validationf("title exceeds %d characters", maxTitleLength)
	}
	if timeMinutes < 0 {
		return apperr.Validationf("time_minutes must not be negative")
	}
	if price < 0 {
		return apperr.Validationf("price must not be negative")
	}
	return nil
}
