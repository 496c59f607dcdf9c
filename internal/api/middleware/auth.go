package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fairwayhq/fairway/backend/internal/models"
	"github.com/fairwayhq/fairway/backend/internal/services"
)

const (
	UserIDKey = "userID"
	RoleKey   = "role"
)

// AuthMiddleware validates the bearer token (header or cookie) and stores the
// caller's id and role in the request context.
func AuthMiddleware(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if tokenString == "" {
			if cookie, err := c.Cookie("auth_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		userID, role, err := authService.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(RoleKey, string(role))
		c.Next()
	}
}

// RequireRole aborts with 403 unless the caller holds one of the given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := c.GetString(RoleKey)
		for _, role := range roles {
			if current == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	}
}

// CurrentRole returns the caller's role from the request context.
func CurrentRole(c *gin.Context) models.Role {
	return models.Role(c.GetString(RoleKey))
}

// CurrentUserID returns the caller's user id from the request context.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
