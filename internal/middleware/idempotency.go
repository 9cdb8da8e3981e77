package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	"checkoutbridge/internal/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
)

// responseWriter wraps gin.ResponseWriter to capture the response.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response when a mutating request
// repeats an Idempotency-Key with the same body. A repeated key with a
// different body is rejected with 422. Only successful and client-error
// responses are stored, so a request that failed upstream can be retried.
func IdempotencyMiddleware(store redis.ResponseStoreInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unreadable request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		requestHash := strconv.FormatUint(xxhash.Sum64(body), 16)

		ctx := c.Request.Context()
		cacheKey := c.FullPath() + ":" + key

		cached, err := store.Get(ctx, cacheKey)
		if err != nil {
			// Store unavailable - proceed without idempotency.
			c.Next()
			return
		}

		if cached != nil {
			if cached.RequestHash != requestHash {
				c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
					"ok":    false,
					"error": "Idempotency-Key was already used with a different request body",
				})
				return
			}
			for k, v := range cached.Headers {
				for _, val := range v {
					c.Header(k, val)
				}
			}
			c.Header("Idempotent-Replayed", "true")
			c.Data(cached.StatusCode, "application/json", cached.Body)
			c.Abort()
			return
		}

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		if status := c.Writer.Status(); status >= 200 && status < 500 {
			_ = store.Set(ctx, cacheKey, &redis.CachedResponse{
				StatusCode:  status,
				Body:        w.body.Bytes(),
				Headers:     extractResponseHeaders(c),
				RequestHash: requestHash,
			}, idempotencyTTL)
		}
	}
}

// extractResponseHeaders extracts headers to cache.
func extractResponseHeaders(c *gin.Context) http.Header {
	headers := make(http.Header)
	if ct := c.Writer.Header().Get("Content-Type"); ct != "" {
		headers.Set("Content-Type", ct)
	}
	return headers
}
