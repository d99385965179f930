package middleware

import (
	"net/http"
	"strings"

	"slotpass/utils"

	"github.com/gin-gonic/gin"
)

// Session roles.
const (
	RoleUser  = "user"
	RoleOwner = "owner"
	RoleAdmin = "admin"
)

// Context keys populated by SessionAuth.
const (
	ContextUserID = "userID"
	ContextRole   = "role"
)

// SessionAuth validates the bearer token and stores the resolved identity on
// the request context. Identity provisioning is external; this service only
// verifies the signature and claims.
func SessionAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		userID, role, err := utils.ExtractSessionFromToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
			return
		}
		c.Set(ContextUserID, userID)
		c.Set(ContextRole, role)
		c.Next()
	}
}

// RequireRole gates a route group to one role. Admin passes everywhere.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := c.GetString(ContextRole)
		if current != role && current != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// SessionUserID returns the authenticated user id from the request context.
func SessionUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
