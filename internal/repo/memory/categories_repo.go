package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bitminerobotics/platform/internal/domain/category"
)

// CategoriesRepo is a process-local catalog for tests. It mirrors the Postgres
// schema rules: categories and subcategories each have their own id sequence
// and deleting a category drops its subcategories.
type CategoriesRepo struct {
	mu                sync.RWMutex
	nextCategoryID    int64
	nextSubcategoryID int64
	categories        map[int64]category.Category
	subcategories     map[int64]category.Subcategory
}

func NewCategoriesRepo() *CategoriesRepo {
	return &CategoriesRepo{
		categories:    make(map[int64]category.Category),
		subcategories: make(map[int64]category.Subcategory),
	}
}

func (r *CategoriesRepo) categoryID() int64 {
	r.nextCategoryID++
	return r.nextCategoryID
}

func (r *CategoriesRepo) subcategoryID() int64 {
	r.nextSubcategoryID++
	return r.nextSubcategoryID
}

func (r *CategoriesRepo) List(_ context.Context) ([]category.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]category.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *CategoriesRepo) GetByID(_ context.Context, id int64) (category.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	if !ok {
		return category.Category{}, category.ErrNotFound
	}
	return c, nil
}

func (r *CategoriesRepo) Create(_ context.Context, req category.UpsertRequest) (category.Category, error) {
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	c := category.Category{
		ID:          r.categoryID(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.categories[c.ID] = c
	return c, nil
}

func (r *CategoriesRepo) Update(_ context.Context, id int64, req category.UpsertRequest) (category.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.categories[id]
	if !ok {
		return category.Category{}, category.ErrNotFound
	}

	c.Name = req.Name
	c.Description = req.Description
	c.UpdatedAt = time.Now().UTC()
	r.categories[id] = c
	return c, nil
}

func (r *CategoriesRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[id]; !ok {
		return category.ErrNotFound
	}
	delete(r.categories, id)

	for sid, s := range r.subcategories {
		if s.CategoryID == id {
			delete(r.subcategories, sid)
		}
	}
	return nil
}

func (r *CategoriesRepo) ListSubcategories(_ context.Context, categoryID int64) ([]category.Subcategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.categories[categoryID]; !ok {
		return nil, category.ErrNotFound
	}

	out := make([]category.Subcategory, 0)
	for _, s := range r.subcategories {
		if s.CategoryID == categoryID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *CategoriesRepo) CreateSubcategory(_ context.Context, categoryID int64, req category.UpsertRequest) (category.Subcategory, error) {
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[categoryID]; !ok {
		return category.Subcategory{}, category.ErrNotFound
	}

	s := category.Subcategory{
		ID:          r.subcategoryID(),
		CategoryID:  categoryID,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.subcategories[s.ID] = s
	return s, nil
}

func (r *CategoriesRepo) UpdateSubcategory(_ context.Context, id int64, req category.UpsertRequest) (category.Subcategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.subcategories[id]
	if !ok {
		return category.Subcategory{}, category.ErrSubcategoryNotFound
	}

	s.Name = req.Name
	s.Description = req.Description
	s.UpdatedAt = time.Now().UTC()
	r.subcategories[id] = s
	return s, nil
}

func (r *CategoriesRepo) DeleteSubcategory(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subcategories[id]; !ok {
		return category.ErrSubcategoryNotFound
	}
	delete(r.subcategories, id)
	return nil
}
