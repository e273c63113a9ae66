package category

import (
	"errors"
	"time"
)

var (
	ErrNotFound            = errors.New("category not found")
	ErrSubcategoryNotFound = errors.New("subcategory not found")
)

// Category names are not unique; the dashboard is allowed to create duplicates.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Subcategory struct {
	ID          int64     `json:"id"`
	CategoryID  int64     `json:"categoryId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Used for both create and full update of categories and subcategories.
type UpsertRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=120"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}
