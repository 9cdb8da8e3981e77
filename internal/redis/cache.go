package redis

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const responseKeyPrefix = "idempotency:"

// CachedResponse is an HTTP response replayed for a repeated Idempotency-Key.
// RequestHash fingerprints the request body the response was produced for.
type CachedResponse struct {
	StatusCode  int             `json:"status_code"`
	Body        json.RawMessage `json:"body"`
	Headers     http.Header     `json:"headers"`
	RequestHash string          `json:"request_hash"`
}

// ResponseStore caches responses of idempotent requests in Redis.
type ResponseStore struct {
	client *redis.Client
}

// NewResponseStore creates a new ResponseStore.
func NewResponseStore(client *redis.Client) *ResponseStore {
	return &ResponseStore{client: client}
}

// Get retrieves a cached response. Returns nil on a cache miss.
func (s *ResponseStore) Get(ctx context.Context, key string) (*CachedResponse, error) {
	data, err := s.client.Get(ctx, responseKeyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var cached CachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

// Set stores a response for ttl.
func (s *ResponseStore) Set(ctx context.Context, key string, response *CachedResponse, ttl time.Duration) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, responseKeyPrefix+key, data, ttl).Err()
}
