package middleware

import (
	"net/http"
	"strings"

	"github.com/qitt/qitt-backend/service"

	"github.com/gin-gonic/gin"
)

// JWTAuth extracts the Bearer token, validates it, and injects user_id.
func JWTAuth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			unauthorized(c, "missing Authorization header")
			return
		}
		userID, err := auth.ValidateToken(c.Request.Context(), token)
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}
		c.Set("user_id", userID.String())
		c.Next()
	}
}

// OptionalAuth injects user_id when a valid token is present and lets the
// request through either way. Public search uses it for per-user history.
func OptionalAuth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if userID, err := auth.ValidateToken(c.Request.Context(), token); err == nil {
				c.Set("user_id", userID.String())
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return header
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
