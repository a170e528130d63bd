package middleware

import (
	"net/http"
	"strings"

	"elearn/internal/pkg/jwt"
	"elearn/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// JWTAuth validates the bearer token and loads the caller's identity
// into the Gin context: user_id (int64), role, user_name and the
// allow_manual_price capability flag.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header required")
			c.Abort()
			return
		}

		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token required")
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(tokenStr)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("user_name", claims.Name)
		c.Set("allow_manual_price", claims.AllowManualPrice)
		c.Next()
	}
}
