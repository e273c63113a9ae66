package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/bitminerobotics/platform/internal/domain/product"
	"github.com/gin-gonic/gin"
)

const (
	defaultProductLimit = 50
	maxProductLimit     = 200
)

type ProductsStore interface {
	List(ctx context.Context, filter product.ListFilter) ([]product.Product, error)
	GetByID(ctx context.Context, id int64) (product.Product, error)
	Create(ctx context.Context, req product.UpsertRequest) (product.Product, error)
	Update(ctx context.Context, id int64, req product.UpsertRequest) (product.Product, error)
	Delete(ctx context.Context, id int64) error
}

type ProductsHandler struct {
	repo ProductsStore
}

func NewProductsHandler(repo ProductsStore) *ProductsHandler {
	return &ProductsHandler{repo: repo}
}

func (h *ProductsHandler) ListProducts(ctx *gin.Context) {
	var filter product.ListFilter
	var ok bool

	if filter.CategoryID, ok = queryID(ctx, "categoryId"); !ok {
		return
	}
	if filter.SubcategoryID, ok = queryID(ctx, "subcategoryId"); !ok {
		return
	}
	if filter.Limit, ok = queryInt(ctx, "limit", defaultProductLimit, 1, maxProductLimit); !ok {
		return
	}
	if filter.Offset, ok = queryInt(ctx, "offset", 0, 0, 1_000_000); !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	items, err := h.repo.List(cctx, filter)
	if err != nil {
		RespondInternal(ctx, "Could not list products", err)
		return
	}

	respondCatalogList(ctx, items)
}

func (h *ProductsHandler) GetProduct(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	p, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}
		RespondInternal(ctx, "Could not fetch product", err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *ProductsHandler) CreateProduct(ctx *gin.Context) {
	var req product.UpsertRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	p, err := h.repo.Create(cctx, req)
	if err != nil {
		if h.respondReferenceError(ctx, err) {
			return
		}
		RespondInternal(ctx, "Could not create product", err)
		return
	}

	ctx.JSON(http.StatusCreated, p)
}

func (h *ProductsHandler) UpdateProduct(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req product.UpsertRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	p, err := h.repo.Update(cctx, id, req)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}
		if h.respondReferenceError(ctx, err) {
			return
		}
		RespondInternal(ctx, "Could not update product", err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *ProductsHandler) DeleteProduct(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	if err := h.repo.Delete(cctx, id); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}
		RespondInternal(ctx, "Could not delete product", err)
		return
	}

	RespondMessage(ctx, "Product deleted successfully")
}

func (h *ProductsHandler) respondReferenceError(ctx *gin.Context, err error) bool {
	switch {
	case errors.Is(err, product.ErrSubcategoryMismatch):
		RespondInvalid(ctx, "subcategory_mismatch", "Subcategory does not belong to the given category")
		return true
	case errors.Is(err, product.ErrInvalidReference):
		RespondInvalid(ctx, "invalid_reference", "Unknown category or subcategory")
		return true
	default:
		return false
	}
}
