package middlewares

import (
	"net/http"

	"github.com/geocoder89/medconnect/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRole must run after RequireAuth or Protect.
func (m *AuthMiddleware) RequireRole(allowed ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)

		if !ok || role == "" {
			m.reject(c, "missing_identity")
			return
		}

		for _, r := range allowed {
			if role == r {
				c.Next()
				return
			}
		}

		abortWithError(c, http.StatusForbidden, "forbidden", "You do not have access to this resource")
	}
}
