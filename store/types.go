package store

import (
	"errors"
	"time"
)

var (
	ErrCropNotFound   = errors.New("crop not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrNoteNotFound   = errors.New("note not found")
	ErrImageNotFound  = errors.New("image not found")
	ErrAlreadyOwned   = errors.New("crop already owned")
	ErrNotOwned       = errors.New("crop not owned by user")
	ErrDuplicateEmail = errors.New("email already registered")
)

// AllCategories is the catalogue filter value that matches every category.
const AllCategories = "Todas"

// Crop is one catalogue entry.
type Crop struct {
	ID       string `json:"id"`
	Name     string `json:"nombre"`
	Category string `json:"categoria"`
	Icon     string `json:"icon,omitempty"`
	Details  string `json:"detalles,omitempty"`
}

// User is a grower and the ids of the crops they follow.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"nombre"`
	Email     string    `json:"email"`
	CropIDs   []string  `json:"sembrios"`
	CreatedAt time.Time `json:"created_at"`
}

// Note is a free-text entry a user keeps for one of their crops.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CropID    string    `json:"sembrio_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}

// Image is a stored photo reference for one of a user's crops.
type Image struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CropID    string    `json:"sembrio_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// CatalogFilter narrows Catalog results. Query matches a substring of the
// name case-insensitively; an empty Category or AllCategories matches all.
type CatalogFilter struct {
	Query    string
	Category string
}
