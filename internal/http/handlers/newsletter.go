package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bitminerobotics/platform/internal/domain/newsletter"
	"github.com/bitminerobotics/platform/internal/notifications"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type NewsletterHandler struct {
	notifier notifications.Notifier
	signups  *prometheus.CounterVec
	log      *slog.Logger
}

// signups may be nil.
func NewNewsletterHandler(notifier notifications.Notifier, signups *prometheus.CounterVec, log *slog.Logger) *NewsletterHandler {
	return &NewsletterHandler{notifier: notifier, signups: signups, log: log}
}

// Subscribe hands the address to the notifier and answers 202 either way;
// signups are not stored, so a delivery failure is only logged and counted.
func (h *NewsletterHandler) Subscribe(ctx *gin.Context) {
	var req newsletter.SignupRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	result := "delivered"

	err := h.notifier.SendNewsletterWelcome(cctx, notifications.NewsletterSignup{Email: normalizeEmail(req.Email)})
	if err != nil {
		result = "failed"
		if errors.Is(err, notifications.ErrCircuitOpen) {
			result = "circuit_open"
		}
		h.log.WarnContext(ctx.Request.Context(), "newsletter notification failed", "result", result, "err", err)
	}

	if h.signups != nil {
		h.signups.WithLabelValues(result).Inc()
	}

	ctx.JSON(http.StatusAccepted, gin.H{"message": "Subscribed"})
}
