// Package main initializes and starts the RecipeBox HTTP server, setting up
// configuration, logging, database connections, repositories, services, and
// handlers.
package main

import (
	"cmp"
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/recipebox/internal/config"
	"github.com/atinyakov/recipebox/internal/db"
	"github.com/atinyakov/recipebox/internal/logger"
	"github.com/atinyakov/recipebox/internal/repository"
	"github.com/atinyakov/recipebox/internal/server/handler/http"
	"github.com/atinyakov/recipebox/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()
	addr := options.Port
	dbName := options.DatabaseDSN
	tokenTTL := time.Duration(options.TokenTTLHours) * time.Hour

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection.
	postgressDB, err := db.InitPostgres(dbName)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Purge expired bearer tokens in the background.
	db.StartTokenCleaner(context.Background(), postgressDB,
		time.Hour,
		tokenTTL,
		zapLogger,
	)

	// Initialize repositories.
	userRepo := repository.NewPostgresUserRepository(postgressDB)
	tokenRepo := repository.NewPostgresTokenRepository(postgressDB)
	tagRepo := repository.NewPostgresTagRepository(postgressDB)
	ingredientRepo := repository.NewPostgresIngredientRepository(postgressDB)
	recipeRepo := repository.NewPostgresRecipeRepository(postgressDB)

	// Initialize business-logic services.
	authService := service.NewAuthService(userRepo, tokenRepo, tokenTTL)
	tagService := service.NewLabelService(tagRepo)
	ingredientService := service.NewLabelService(ingredientRepo)
	recipeService := service.NewRecipeService(recipeRepo, options.UploadDir)

	// Create HTTP handlers.
	authHandler := &http.AuthHandler{AuthService: authService}
	tagHandler := &http.LabelHandler{Service: tagService}
	ingredientHandler := &http.LabelHandler{Service: ingredientService}
	recipeHandler := &http.RecipeHandler{
		Service:     recipeService,
		Tags:        tagService,
		Ingredients: ingredientService,
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, tagHandler, ingredientHandler, recipeHandler, authService, zapLogger)

	// Create and start the HTTP server.
	server := &nethttp.Server{
		Addr:    addr,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
