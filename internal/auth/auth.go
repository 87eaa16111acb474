package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Provider is the authentication capability consumed by admin views. All
// checks are evaluated against the inbound request.
type Provider interface {
	IsAuthenticated(c *gin.Context) bool
	HasAdminAccess(c *gin.Context) bool
	CurrentUser(c *gin.Context) (map[string]any, bool)
	UserIdentifier(c *gin.Context) (string, bool)
}

// RequireLogin rejects unauthenticated requests with a 401.
func RequireLogin(p Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !p.IsAuthenticated(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects unauthenticated requests with a 401 and authenticated
// requests lacking admin access with a 403.
func RequireAdmin(p Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !p.IsAuthenticated(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if !p.HasAdminAccess(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
