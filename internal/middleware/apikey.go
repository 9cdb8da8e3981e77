package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader carries the shared secret for internal endpoints.
const APIKeyHeader = "X-Api-Key"

// APIKeyMiddleware rejects requests whose X-Api-Key does not match key.
func APIKeyMiddleware(key string) gin.HandlerFunc {
	expected := []byte(key)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(APIKeyHeader))
		if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized"})
			return
		}
		c.Next()
	}
}
