package middleware

import (
	"net/http"
	"strings"

	jwtsvc "pinjamin/internal/pkg/jwt"
	"pinjamin/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const RoleAdmin = "admin"

// Auth resolves the authenticated actor from the bearer token issued by the
// external auth service and exposes actor_id/role on the context.
func Auth(jwt *jwtsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or malformed Authorization header")
			c.Abort()
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if tokenStr == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Empty token")
			c.Abort()
			return
		}

		claims, err := jwt.ValidateToken(tokenStr)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			c.Abort()
			return
		}

		c.Set("actor_id", claims.ActorID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireRole guards a group behind a single role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != role {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Insufficient role")
			c.Abort()
			return
		}
		c.Next()
	}
}
