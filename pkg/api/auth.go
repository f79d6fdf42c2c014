package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// requireAdminKey enforces admin auth via "X-Admin-Key: <key>" or
// "Authorization: Bearer <key>". If no key is configured, admin routes are
// left open (documented development-mode deployment choice).
func (s *Server) requireAdminKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.adminKey == "" {
			c.Next()
			return
		}

		if key := c.GetHeader("X-Admin-Key"); key == s.adminKey {
			c.Next()
			return
		}
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			if strings.TrimPrefix(auth, "Bearer ") == s.adminKey {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
}
