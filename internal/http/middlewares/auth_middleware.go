package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bitminerobotics/platform/internal/auth"
	"github.com/gin-gonic/gin"
)

// TokenVerifier is the slice of auth.Manager the middleware needs.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

// Identity is the caller as proven by a verified access token.
type Identity struct {
	UserID int64
	Email  string
	Role   string
}

type AuthMiddleware struct {
	tokens TokenVerifier
}

func NewAuthMiddleware(tokens TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth rejects requests without a valid bearer access token. An
// expired token gets its own code so the dashboard knows to call /auth/refresh.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
			return
		}

		claims, err := m.tokens.VerifyAccessToken(raw)
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			abortError(c, http.StatusUnauthorized, "token_expired", "Access token expired")
			return
		case err != nil:
			abortError(c, http.StatusUnauthorized, "unauthorized", "Invalid access token")
			return
		}

		setIdentity(c, Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role})
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func setIdentity(c *gin.Context, id Identity) {
	c.Set(CtxUserID, id.UserID)
	c.Set(CtxEmail, id.Email)
	c.Set(CtxRole, id.Role)
}

func contextValue[T any](c *gin.Context, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

func UserIDFromContext(c *gin.Context) (int64, bool) { return contextValue[int64](c, CtxUserID) }

func RoleFromContext(c *gin.Context) (string, bool) { return contextValue[string](c, CtxRole) }

func EmailFromContext(c *gin.Context) (string, bool) { return contextValue[string](c, CtxEmail) }
