package middlewares

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through when the caller holds one of roles.
// It must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)
		if !ok {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}

		if !slices.Contains(roles, role) {
			abortError(c, http.StatusForbidden, "forbidden", strings.Join(roles, " or ")+" role required")
			return
		}
		c.Next()
	}
}
