package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/bitminerobotics/platform/internal/domain/category"
	"github.com/gin-gonic/gin"
)

// CategoriesStore is satisfied by both the Postgres and the in-memory repo.
type CategoriesStore interface {
	List(ctx context.Context) ([]category.Category, error)
	GetByID(ctx context.Context, id int64) (category.Category, error)
	Create(ctx context.Context, req category.UpsertRequest) (category.Category, error)
	Update(ctx context.Context, id int64, req category.UpsertRequest) (category.Category, error)
	Delete(ctx context.Context, id int64) error

	ListSubcategories(ctx context.Context, categoryID int64) ([]category.Subcategory, error)
	CreateSubcategory(ctx context.Context, categoryID int64, req category.UpsertRequest) (category.Subcategory, error)
	UpdateSubcategory(ctx context.Context, id int64, req category.UpsertRequest) (category.Subcategory, error)
	DeleteSubcategory(ctx context.Context, id int64) error
}

type CategoriesHandler struct {
	repo CategoriesStore
}

func NewCategoriesHandler(repo CategoriesStore) *CategoriesHandler {
	return &CategoriesHandler{repo: repo}
}

func (h *CategoriesHandler) ListCategories(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	items, err := h.repo.List(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not list categories", err)
		return
	}

	respondCatalogList(ctx, items)
}

func (h *CategoriesHandler) GetCategory(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	c, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			RespondNotFound(ctx, "Category not found")
			return
		}
		RespondInternal(ctx, "Could not fetch category", err)
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *CategoriesHandler) CreateCategory(ctx *gin.Context) {
	var req category.UpsertRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	c, err := h.repo.Create(cctx, req)
	if err != nil {
		RespondInternal(ctx, "Could not create category", err)
		return
	}

	ctx.JSON(http.StatusCreated, c)
}

func (h *CategoriesHandler) UpdateCategory(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req category.UpsertRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	c, err := h.repo.Update(cctx, id, req)
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			RespondNotFound(ctx, "Category not found")
			return
		}
		RespondInternal(ctx, "Could not update category", err)
		return
	}

	ctx.JSON(http.StatusOK, c)
}

// DeleteCategory drops the category and its subcategories; products that
// pointed at it keep existing without a category.
func (h *CategoriesHandler) DeleteCategory(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	if err := h.repo.Delete(cctx, id); err != nil {
		if errors.Is(err, category.ErrNotFound) {
			RespondNotFound(ctx, "Category not found")
			return
		}
		RespondInternal(ctx, "Could not delete category", err)
		return
	}

	RespondMessage(ctx, "Category deleted successfully")
}

// Subcategories. The parent id shares the ":id" segment with the category
// routes because gin allows one wildcard name per path position.

func (h *CategoriesHandler) ListSubcategories(ctx *gin.Context) {
	categoryID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	items, err := h.repo.ListSubcategories(cctx, categoryID)
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			RespondNotFound(ctx, "Category not found")
			return
		}
		RespondInternal(ctx, "Could not list subcategories", err)
		return
	}

	respondCatalogList(ctx, items)
}

func (h *CategoriesHandler) CreateSubcategory(ctx *gin.Context) {
	categoryID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req category.UpsertRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	s, err := h.repo.CreateSubcategory(cctx, categoryID, req)
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			RespondNotFound(ctx, "Category not found")
			return
		}
		RespondInternal(ctx, "Could not create subcategory", err)
		return
	}

	ctx.JSON(http.StatusCreated, s)
}

func (h *CategoriesHandler) UpdateSubcategory(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req category.UpsertRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	s, err := h.repo.UpdateSubcategory(cctx, id, req)
	if err != nil {
		if errors.Is(err, category.ErrSubcategoryNotFound) {
			RespondNotFound(ctx, "Subcategory not found")
			return
		}
		RespondInternal(ctx, "Could not update subcategory", err)
		return
	}

	ctx.JSON(http.StatusOK, s)
}

func (h *CategoriesHandler) DeleteSubcategory(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	if err := h.repo.DeleteSubcategory(cctx, id); err != nil {
		if errors.Is(err, category.ErrSubcategoryNotFound) {
			RespondNotFound(ctx, "Subcategory not found")
			return
		}
		RespondInternal(ctx, "Could not delete subcategory", err)
		return
	}

	RespondMessage(ctx, "Subcategory deleted successfully")
}
