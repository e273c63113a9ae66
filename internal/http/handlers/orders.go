package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/bitminerobotics/platform/internal/domain/order"
	"github.com/bitminerobotics/platform/internal/domain/user"
	"github.com/bitminerobotics/platform/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type OrdersStore interface {
	Create(ctx context.Context, userID int64, items []order.ItemRequest) (order.Order, error)
	List(ctx context.Context) ([]order.Order, error)
	GetByID(ctx context.Context, id int64) (order.Order, error)
	UpdateStatus(ctx context.Context, id int64, status order.Status) (order.Order, error)
	Delete(ctx context.Context, id int64) error
}

type OrdersHandler struct {
	repo    OrdersStore
	created prometheus.Counter
}

// created may be nil.
func NewOrdersHandler(repo OrdersStore, created prometheus.Counter) *OrdersHandler {
	return &OrdersHandler{repo: repo, created: created}
}

func (h *OrdersHandler) CreateOrder(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req order.CreateOrderRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	o, err := h.repo.Create(cctx, userID, req.Items)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrInsufficientStock):
			RespondConflict(ctx, "insufficient_stock", "Not enough stock for one or more items")
		case errors.Is(err, order.ErrProductNotFound):
			RespondInvalid(ctx, "invalid_reference", "Unknown product in order")
		default:
			RespondInternal(ctx, "Could not create order", err)
		}
		return
	}

	if h.created != nil {
		h.created.Inc()
	}

	ctx.JSON(http.StatusCreated, o)
}

func (h *OrdersHandler) ListOrders(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	items, err := h.repo.List(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not list orders", err)
		return
	}

	ctx.JSON(http.StatusOK, items)
}

// GetOrder is open to admins and to the user who placed the order.
func (h *OrdersHandler) GetOrder(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	o, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			RespondNotFound(ctx, "Order not found")
			return
		}
		RespondInternal(ctx, "Could not fetch order", err)
		return
	}

	role, _ := middlewares.RoleFromContext(ctx)
	uid, _ := middlewares.UserIDFromContext(ctx)
	caller := user.User{ID: uid, Role: role}

	if !caller.IsAdmin() && (o.UserID == nil || *o.UserID != caller.ID) {
		RespondForbidden(ctx, "Not allowed to view this order")
		return
	}

	ctx.JSON(http.StatusOK, o)
}

func (h *OrdersHandler) UpdateOrderStatus(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req order.UpdateStatusRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	o, err := h.repo.UpdateStatus(cctx, id, req.Status)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			RespondNotFound(ctx, "Order not found")
			return
		}
		RespondInternal(ctx, "Could not update order", err)
		return
	}

	ctx.JSON(http.StatusOK, o)
}

func (h *OrdersHandler) DeleteOrder(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	if err := h.repo.Delete(cctx, id); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			RespondNotFound(ctx, "Order not found")
			return
		}
		RespondInternal(ctx, "Could not delete order", err)
		return
	}

	RespondMessage(ctx, "Order deleted successfully")
}
