package product

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("product not found")
	// category or subcategory id does not exist
	ErrInvalidReference = errors.New("unknown category or subcategory")
	// subcategory exists but belongs to another category
	ErrSubcategoryMismatch = errors.New("subcategory does not belong to category")
)

type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	Stock         int       `json:"stock"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	CategoryID    *int64    `json:"categoryId"`
	SubcategoryID *int64    `json:"subcategoryId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type UpsertRequest struct {
	Name          string  `json:"name" binding:"required,min=2,max=200"`
	Description   string  `json:"description" binding:"omitempty,max=4000"`
	Price         float64 `json:"price" binding:"gte=0"`
	Stock         int     `json:"stock" binding:"gte=0"`
	ImageURL      string  `json:"imageUrl" binding:"omitempty,url,max=2048"`
	CategoryID    *int64  `json:"categoryId" binding:"omitempty,gt=0"`
	SubcategoryID *int64  `json:"subcategoryId" binding:"omitempty,gt=0"`
}

// with pointers if optional, it will be nil
type ListFilter struct {
	CategoryID    *int64
	SubcategoryID *int64
	Limit         int
	Offset        int
}

// ResolveCategory reconciles the requested category with the parent of the
// requested subcategory. A missing category is filled in from the parent.
func ResolveCategory(requested *int64, subcategoryParent int64) (int64, error) {
	if requested != nil && *requested != subcategoryParent {
		return 0, ErrSubcategoryMismatch
	}
	return subcategoryParent, nil
}
