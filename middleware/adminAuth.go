package middleware

import (
	"net/http"
	"strings"

	"chefly/config"

	"github.com/gin-gonic/gin"
)

// AdminAPIKeyMiddleware guards internal endpoints (the dispatch trigger)
// behind a static service key shared with the marketplace backend.
func AdminAPIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		if config.AppConfig.AdminAPIKey == "" || tokenString != config.AppConfig.AdminAPIKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized admin access"})
			return
		}

		c.Set("isAdmin", true)
		c.Next()
	}
}
