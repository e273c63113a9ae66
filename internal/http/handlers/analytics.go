package handlers

import (
	"context"
	"net/http"

	"github.com/bitminerobotics/platform/internal/analytics"
	"github.com/bitminerobotics/platform/internal/domain/order"
	"github.com/gin-gonic/gin"
)

type OrderLister interface {
	List(ctx context.Context) ([]order.Order, error)
}

type UserCounter interface {
	Count(ctx context.Context) (int, error)
}

// AnalyticsHandler recomputes the dashboard summary on every request.
type AnalyticsHandler struct {
	orders OrderLister
	users  UserCounter
}

func NewAnalyticsHandler(orders OrderLister, users UserCounter) *AnalyticsHandler {
	return &AnalyticsHandler{orders: orders, users: users}
}

func (h *AnalyticsHandler) Summary(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	orders, err := h.orders.List(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not load orders", err)
		return
	}

	customers, err := h.users.Count(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not count customers", err)
		return
	}

	ctx.JSON(http.StatusOK, analytics.Summarize(orders, customers))
}
