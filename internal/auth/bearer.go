package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// BearerToken rejects requests whose Authorization header does not carry
// the configured token: 401 when the header is absent, 403 otherwise.
func BearerToken(token string) gin.HandlerFunc {
	expected := []byte(token)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "reason": "missing bearer token"})
			return
		}

		presented, ok := strings.CutPrefix(header, bearerPrefix)
		if !ok || len(expected) == 0 || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(presented)), expected) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "reason": "invalid token"})
			return
		}

		c.Next()
	}
}
