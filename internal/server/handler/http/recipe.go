package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/atinyakov/recipebox/internal/middleware"
	"github.com/atinyakov/recipebox/internal/models"
	"github.com/atinyakov/recipebox/internal/service"
	"github.com/go-chi/chi/v5"
)

// maxImageUploadBytes bounds a single image upload.
const maxImageUploadBytes = 10 << 20

// RecipeService defines the catalog operations required by the recipe
// handlers.
type RecipeService interface {
	// List returns the caller's recipes, optionally filtered by label ids.
	List(ctx context.Context, userID int64, tagIDs, ingredientIDs []int64) ([]models.Recipe, error)
	// Get returns one recipe owned by the caller.
	Get(ctx context.Context, userID, id int64) (*models.Recipe, error)
	// Create persists a recipe with its associations.
	Create(ctx context.Context, userID int64, in service.RecipeInput) (*models.Recipe, error)
	// Update applies a partial update.
	Update(ctx context.Context, userID, id int64, patch service.RecipePatch) (*models.Recipe, error)
	// Delete removes a recipe owned by the caller.
	Delete(ctx context.Context, userID, id int64) error
	// SaveImage stores an uploaded image and records its path.
	SaveImage(ctx context.Context, userID, id int64, filename string, src io.Reader) (string, error)
}

// LabelLookup resolves label ids to rows for detail view expansion.
type LabelLookup interface {
	GetByIDs(ctx context.Context, ids []int64) ([]models.Label, error)
}

// RecipeHandler handles HTTP requests for the recipe catalog.
type RecipeHandler struct {
	// Service performs the underlying catalog operations.
	Service RecipeService
	// Tags and Ingredients resolve association ids for the detail view.
	Tags        LabelLookup
	Ingredients LabelLookup
}

// RecipeRequest represents the JSON payload for recipe creation.
// TimeMinutes and Price are pointers so absence is distinguishable from
// zero; both are required.
type RecipeRequest struct {
	Title       string   `json:"title"`
	TimeMinutes *int     `json:"time_minutes"`
	Price       *float64 `json:"price"`
	Tags        []int64  `json:"tags"`
	Ingredients []int64  `json:"ingredients"`
}

// RecipePatchRequest represents the JSON payload for a partial recipe
// update. Absent fields are left unchanged; a present tags/ingredients list
// replaces the association set.
type RecipePatchRequest struct {
	Title       *string  `json:"title"`
	TimeMinutes *int     `json:"time_minutes"`
	Price       *float64 `json:"price"`
	Tags        *[]int64 `json:"tags"`
	Ingredients *[]int64 `json:"ingredients"`
}

// recipeListView is the list projection: associations as reference ids only.
type recipeListView struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	TimeMinutes int     `json:"time_minutes"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Tags        []int64 `json:"tags"`
	Ingredients []int64 `json:"ingredients"`
}

// recipeDetailView is the detail projection: associations expanded to
// {id, name} objects.
type recipeDetailView struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	TimeMinutes int            `json:"time_minutes"`
	Price       float64        `json:"price"`
	Image       string         `json:"image"`
	Tags        []models.Label `json:"tags"`
	Ingredients []models.Label `json:"ingredients"`
}

// toListView projects a recipe into its list shape.
func toListView(r *models.Recipe) recipeListView {
	v := recipeListView{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Image:       r.Image,
		Tags:        r.TagIDs,
		Ingredients: r.IngredientIDs,
	}
	if v.Tags == nil {
		v.Tags = []int64{}
	}
	if v.Ingredients == nil {
		v.Ingredients = []int64{}
	}
	return v
}

// toDetailView projects a recipe into its detail shape, expanding the
// association ids through the label lookups.
func (h *RecipeHandler) toDetailView(ctx context.Context, r *models.Recipe) (recipeDetailView, error) {
	tags, err := h.Tags.GetByIDs(ctx, r.TagIDs)
	if err != nil {
		return recipeDetailView{}, err
	}
	ingredients, err := h.Ingredients.GetByIDs(ctx, r.IngredientIDs)
	if err != nil {
		return recipeDetailView{}, err
	}
	if tags == nil {
		tags = []models.Label{}
	}
	if ingredients == nil {
		ingredients = []models.Label{}
	}
	return recipeDetailView{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Image:       r.Image,
		Tags:        tags,
		Ingredients: ingredients,
	}, nil
}

// List handles GET /api/recipes.
// Optional ?tags=1,2 and ?ingredients=3 parameters restrict the result to
// recipes referencing any of the given ids.
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	tagIDs, err := parseIDList(r.URL.Query().Get("tags"))
	if err != nil {
		http.Error(w, "invalid tags filter", http.StatusBadRequest)
		return
	}
	ingredientIDs, err := parseIDList(r.URL.Query().Get("ingredients"))
	if err != nil {
		http.Error(w, "invalid ingredients filter", http.StatusBadRequest)
		return
	}

	recipes, err := h.Service.List(r.Context(), user.ID, tagIDs, ingredientIDs)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]recipeListView, 0, len(recipes))
	for i := range recipes {
		views = append(views, toListView(&recipes[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

// Get handles GET /api/recipes/{id}, returning the detail projection.
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := recipeID(w, r)
	if !ok {
		return
	}

	recipe, err := h.Service.Get(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.toDetailView(r.Context(), recipe)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Create handles POST /api/recipes.
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req RecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.TimeMinutes == nil || req.Price == nil {
		http.Error(w, "time_minutes and price are required", http.StatusBadRequest)
		return
	}

	recipe, err := h.Service.Create(r.Context(), user.ID, service.RecipeInput{
		Title:         req.Title,
		TimeMinutes:   *req.TimeMinutes,
		Price:         *req.Price,
		TagIDs:        req.Tags,
		IngredientIDs: req.Ingredients,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toListView(recipe))
}

// Update handles PATCH and PUT /api/recipes/{id}.
func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := recipeID(w, r)
	if !ok {
		return
	}

	var req RecipePatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	recipe, err := h.Service.Update(r.Context(), user.ID, id, service.RecipePatch{
		Title:         req.Title,
		TimeMinutes:   req.TimeMinutes,
		Price:         req.Price,
		TagIDs:        req.Tags,
		IngredientIDs: req.Ingredients,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListView(recipe))
}

// Delete handles DELETE /api/recipes/{id}.
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := recipeID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), user.ID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage handles POST /api/recipes/{id}/image.
// It expects a multipart form with an "image" file field and responds with
// the stored path. Repeated uploads to the same recipe yield new paths.
func (h *RecipeHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, ok := recipeID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	path, err := h.Service.SaveImage(r.Context(), user.ID, id, header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"image": path})
}

// recipeID parses the {id} route parameter, writing a 404 for anything that
// is not a positive integer.
func recipeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return 0, false
	}
	return id, true
}

// parseIDList parses a comma-separated id list query parameter.
func parseIDList(v string) ([]int64, error) {
	if v == "" {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
