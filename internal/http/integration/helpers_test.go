package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/bitminerobotics/platform/internal/auth"
	"github.com/bitminerobotics/platform/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() config.Config {
	return config.Config{
		Env:                 "test",
		JWTSecret:           "integration-secret",
		JWTAccessTTLMinutes: 60,
		JWTRefreshTTLDays:   7,
		RateLimitPerMinute:  1000,
	}
}

func testJWT(cfg config.Config) *auth.Manager {
	return auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// doRequest runs one request against the router with an optional bearer token.
func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()

	if w.Code != want {
		t.Fatalf("expected %d, got %d body=%s", want, w.Code, w.Body.String())
	}
}

func login(t *testing.T, router http.Handler, email, password string) string {
	t.Helper()

	w := doRequest(t, router, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	expectStatus(t, w, http.StatusOK)

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	mustReadJSON(t, w, &resp)

	if resp.AccessToken == "" {
		t.Fatalf("expected access token, body=%s", w.Body.String())
	}
	return resp.AccessToken
}

func refreshCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == "refresh_token" {
			return c
		}
	}

	t.Fatalf("refresh_token cookie not found in response")
	return nil
}
