package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/trace"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unique", &pgconn.PgError{Code: "23505"}, "unique_violation"},
		{"fk", &pgconn.PgError{Code: "23503"}, "foreign_key_violation"},
		{"check", &pgconn.PgError{Code: "23514"}, "check_violation"},
		{"other_pg", &pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{"timeout", fmt.Errorf("query: %w", context.DeadlineExceeded), "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"unknown", errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyDBErr(tt.err); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestObserveDB_NoRowsIsNotAnError(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	err := p.ObserveDB("categories.get", func() error { return pgx.ErrNoRows })
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected ErrNoRows to be passed through, got %v", err)
	}

	if n := testutil.CollectAndCount(p.DbErrorsTotal); n != 0 {
		t.Fatalf("expected no error series, got %d", n)
	}

	_ = p.ObserveDB("categories.get", func() error { return &pgconn.PgError{Code: "23505"} })

	if v := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("categories.get", "unique_violation")); v != 1 {
		t.Fatalf("expected one unique_violation, got %v", v)
	}
}

func TestObserveDB_DomainErrorsAreNotDBErrors(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())
	errOutOfStock := errors.New("insufficient stock")

	err := p.ObserveDB("orders.create", func() error { return errOutOfStock })
	if !errors.Is(err, errOutOfStock) {
		t.Fatalf("expected error to be passed through, got %v", err)
	}

	if n := testutil.CollectAndCount(p.DbErrorsTotal); n != 0 {
		t.Fatalf("domain rejection should not count as a db error, got %d series", n)
	}
	if n := testutil.CollectAndCount(p.DbQueryDuration); n != 1 {
		t.Fatalf("expected the duration to be observed once, got %d series", n)
	}
}

func TestLogger_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "prod", "")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	log.InfoContext(ctx, "hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}

	if line["trace_id"] != traceID.String() {
		t.Fatalf("missing trace id: %v", line)
	}
	if line["span_id"] != spanID.String() {
		t.Fatalf("missing span id: %v", line)
	}
}

func TestLogger_DebugOnlyInDev(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(&buf, "prod", "").Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered outside dev: %s", buf.String())
	}

	NewLoggerTo(&buf, "dev", "").Debug("shown")
	if buf.Len() == 0 {
		t.Fatalf("debug should be logged in dev")
	}
}

func TestLogger_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "prod", "")

	log.InfoContext(WithRequestID(context.Background(), "req-42"), "hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v", err)
	}
	if line["request_id"] != "req-42" {
		t.Fatalf("expected request_id, got %v", line)
	}
}

func TestLogger_LevelOverride(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(&buf, "dev", "warn").Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("LOG_LEVEL=warn should drop info even in dev: %s", buf.String())
	}

	NewLoggerTo(&buf, "prod", "not-a-level").Info("shown")
	if buf.Len() == 0 {
		t.Fatalf("an unparsable level should fall back to the env default")
	}
}

func TestHTTPMetrics_LabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := NewProm(prometheus.NewRegistry())

	r := gin.New()
	r.Use(p.HTTPMetrics())
	r.GET("/api/categories/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/categories/1", "/api/categories/2", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(p.RequestsTotal.WithLabelValues("GET", "/api/categories/:id", "200")); got != 2 {
		t.Fatalf("templated route count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.RequestsTotal.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Fatalf("unmatched count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.InFlight.WithLabelValues("GET", "/api/categories/:id")); got != 0 {
		t.Fatalf("in-flight should settle at 0, got %v", got)
	}
}
