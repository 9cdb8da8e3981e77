package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it is still held by the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles short-lived per-order locks in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireOrderLock attempts to acquire the status-transition lock for an order.
// Returns the token needed to release it and whether the lock was acquired.
func (s *LockStore) AcquireOrderLock(ctx context.Context, orderID int64, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, orderLockKey(orderID), token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}

	return token, true, nil
}

// ReleaseOrderLock releases the lock if token still owns it.
func (s *LockStore) ReleaseOrderLock(ctx context.Context, orderID int64, token string) error {
	return releaseScript.Run(ctx, s.client, []string{orderLockKey(orderID)}, token).Err()
}

func orderLockKey(orderID int64) string {
	return fmt.Sprintf("lock:order:%d", orderID)
}
