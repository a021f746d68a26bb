// Package models defines the core data structures for users, labels, and
// recipes.
package models

import "time"

// User represents an application user with credentials.
type User struct {
	// ID is the unique identifier for the user.
	ID int64
	// Email is the normalized (lowercase) email used as the login.
	Email string
	// Name is the display name of the user.
	Name string
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte
	// IsStaff marks users who may access administrative tooling.
	IsStaff bool
	// IsSuperuser marks users with unrestricted administrative rights.
	IsSuperuser bool
}

// Label is a named marker owned by one user. Tags and ingredients share
// this shape; they differ only in which table and recipe association they
// live in.
type Label struct {
	// ID is the unique identifier for the label.
	ID int64 `json:"id"`
	// Name is the label text, 1..255 characters.
	Name string `json:"name"`
}

// Recipe represents a recipe row together with the identifiers of its
// associated tags and ingredients.
type Recipe struct {
	// ID is the unique identifier for the recipe.
	ID int64
	// UserID references the owning user.
	UserID int64
	// Title is the recipe title, 1..255 characters.
	Title string
	// TimeMinutes is the preparation time, never negative.
	TimeMinutes int
	// Price is the estimated cost, never negative.
	Price float64
	// Image is the stored upload path, empty when no image was uploaded.
	Image string
	// TagIDs are the identifiers of associated tags.
	TagIDs []int64
	// IngredientIDs are the identifiers of associated ingredients.
	IngredientIDs []int64
}

// Token is an opaque bearer token bound to exactly one user.
type Token struct {
	// Value is the opaque token string presented by clients.
	Value string
	// UserID references the user the token authenticates.
	UserID int64
	// CreatedAt is the issuance time, used for expiry.
	CreatedAt time.Time
}
