package http

import (
	"net/http"

	"github.com/atinyakov/recipebox/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the
// RecipeBox API.
//
// Routes:
//
//	POST /api/user                      → authHandler.Register
//	POST /api/user/token                → authHandler.CreateToken
//	GET  /api/user/me                   → authHandler.Me            (token required)
//	PATCH /api/user/me                  → authHandler.UpdateMe      (token required)
//	GET/POST /api/tags                  → tagHandler                (token required)
//	GET/POST /api/ingredients           → ingredientHandler         (token required)
//	GET/POST /api/recipes               → recipeHandler             (token required)
//	GET/PATCH/PUT/DELETE /api/recipes/{id}                          (token required)
//	POST /api/recipes/{id}/image        → recipeHandler.UploadImage (token required)
//
// Middleware chain (applied in order):
//  1. AllowContentType — rejects bodies that are neither JSON nor multipart
//  2. WithRequestLogging(logger) — logs incoming requests
//  3. TokenAuth(resolver) — resolves the bearer token, protected group only
func NewRouter(
	authHandler *AuthHandler,
	tagHandler *LabelHandler,
	ingredientHandler *LabelHandler,
	recipeHandler *RecipeHandler,
	resolver middleware.PrincipalResolver,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Only allow JSON payloads plus multipart for image uploads
	r.Use(chiMiddleware.AllowContentType("application/json", "multipart/form-data"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	// Mount API routes
	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/user", authHandler.Register)
		r.Post("/user/token", authHandler.CreateToken)

		// Protected group: requires a valid bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.TokenAuth(resolver))

			r.Get("/user/me", authHandler.Me)
			r.Patch("/user/me", authHandler.UpdateMe)

			r.Get("/tags", tagHandler.List)
			r.Post("/tags", tagHandler.Create)

			r.Get("/ingredients", ingredientHandler.List)
			r.Post("/ingredients", ingredientHandler.Create)

			r.Get("/recipes", recipeHandler.List)
			r.Post("/recipes", recipeHandler.Create)
			r.Get("/recipes/{id}", recipeHandler.Get)
			r.Patch("/recipes/{id}", recipeHandler.Update)
			r.Put("/recipes/{id}", recipeHandler.Update)
			r.Delete("/recipes/{id}", recipeHandler.Delete)
			r.Post("/recipes/{id}/image", recipeHandler.UploadImage)
		})
	})

	return r
}
