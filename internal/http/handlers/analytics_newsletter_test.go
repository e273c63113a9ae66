package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/bitminerobotics/platform/internal/analytics"
	"github.com/bitminerobotics/platform/internal/domain/order"
	"github.com/bitminerobotics/platform/internal/http/handlers"
	"github.com/bitminerobotics/platform/internal/notifications"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAnalyticsSummaryHandler(t *testing.T) {
	orders := &fakeOrdersRepo{
		listFn: func(ctx context.Context) ([]order.Order, error) {
			return []order.Order{
				{ID: 1, TotalAmount: 30, CreatedAt: time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)},
				{ID: 2, TotalAmount: 10, CreatedAt: time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)},
			}, nil
		},
	}
	users := newFakeUsersRepo()
	_, _ = users.Create(context.Background(), "Ada", "ada@bitmine.test", "x", "user")

	h := handlers.NewAnalyticsHandler(orders, users)
	r := setupRouter(http.MethodGet, "/analytics/summary", h.Summary)

	w := doJSON(r, http.MethodGet, "/analytics/summary", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}

	var s analytics.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if s.TotalOrders != 2 || s.TotalSales != 40 || s.AverageOrderValue != 20 || s.TotalCustomers != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if len(s.Monthly) != 12 || s.Monthly[2].Orders != 2 {
		t.Fatalf("unexpected monthly buckets %+v", s.Monthly)
	}
}

func TestAnalyticsSummaryHandler_NoOrders(t *testing.T) {
	h := handlers.NewAnalyticsHandler(&fakeOrdersRepo{}, newFakeUsersRepo())
	r := setupRouter(http.MethodGet, "/analytics/summary", h.Summary)

	w := doJSON(r, http.MethodGet, "/analytics/summary", "")

	var s analytics.Summary
	_ = json.Unmarshal(w.Body.Bytes(), &s)
	if s.AverageOrderValue != 0 {
		t.Fatalf("expected 0 average with no orders, got %v", s.AverageOrderValue)
	}
}

type fakeNotifier struct {
	err  error
	sent []string
}

func (f *fakeNotifier) SendNewsletterWelcome(ctx context.Context, in notifications.NewsletterSignup) error {
	f.sent = append(f.sent, in.Email)
	return f.err
}

func TestNewsletterHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		body       string
		notifyErr  error
		wantCode   int
		wantResult string
	}{
		{name: "subscribed", body: `{"email":"Fan@Example.com"}`, wantCode: http.StatusAccepted, wantResult: "delivered"},
		{name: "invalid_email", body: `{"email":"nope"}`, wantCode: http.StatusBadRequest},
		{name: "provider_down", body: `{"email":"fan@example.com"}`, notifyErr: errors.New("down"), wantCode: http.StatusAccepted, wantResult: "failed"},
		{name: "circuit_open", body: `{"email":"fan@example.com"}`, notifyErr: notifications.ErrCircuitOpen, wantCode: http.StatusAccepted, wantResult: "circuit_open"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &fakeNotifier{err: tt.notifyErr}
			signups := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "signups_test"}, []string{"result"})

			h := handlers.NewNewsletterHandler(n, signups, log)
			r := setupRouter(http.MethodPost, "/newsletter", h.Subscribe)

			w := doJSON(r, http.MethodPost, "/newsletter", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("got %d, want %d body=%s", w.Code, tt.wantCode, w.Body.String())
			}

			if tt.wantResult == "" {
				if len(n.sent) != 0 {
					t.Fatalf("notifier should not be called on invalid input")
				}
				return
			}

			var body map[string]string
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body["message"] != "Subscribed" {
				t.Fatalf("unexpected body %s", w.Body.String())
			}
			if n.sent[0] != "fan@example.com" {
				t.Fatalf("email should be normalized, got %q", n.sent[0])
			}
			if v := testutil.ToFloat64(signups.WithLabelValues(tt.wantResult)); v != 1 {
				t.Fatalf("expected %s=1, got %v", tt.wantResult, v)
			}
		})
	}
}

func TestHealthHandler_Readyz(t *testing.T) {
	ok := handlers.HealthCheck{Name: "postgres", Check: func(context.Context) error { return nil }}
	down := handlers.HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("refused") }}

	h := handlers.NewHealthHandler(ok)
	if w := doJSON(setupRouter(http.MethodGet, "/readyz", h.Readyz), http.MethodGet, "/readyz", ""); w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}

	h = handlers.NewHealthHandler(ok, down)
	w := doJSON(setupRouter(http.MethodGet, "/readyz", h.Readyz), http.MethodGet, "/readyz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", w.Code)
	}
}
