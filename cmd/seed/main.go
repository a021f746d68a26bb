// Package main creates an administrative superuser, for bootstrapping a
// fresh deployment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/atinyakov/recipebox/internal/db"
	"github.com/atinyakov/recipebox/internal/repository"
	"github.com/atinyakov/recipebox/internal/service"
)

func main() {
	var (
		dsn      = flag.String("d", "", "db address")
		email    = flag.String("email", "", "superuser email")
		password = flag.String("password", "", "superuser password")
	)
	flag.Parse()

	postgressDB, err := db.InitPostgres(*dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot init database: %v\n", err)
		os.Exit(1)
	}
	defer postgressDB.Close()

	userRepo := repository.NewPostgresUserRepository(postgressDB)
	tokenRepo := repository.NewPostgresTokenRepository(postgressDB)
	authService := service.NewAuthService(userRepo, tokenRepo, 24*time.Hour)

	u, err := authService.RegisterSuperuser(context.Background(), *email, *password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot create superuser: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("created superuser %s (id %d)\n", u.Email, u.ID)
}
