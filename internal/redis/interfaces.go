package redis

import (
	"context"
	"time"
)

// EventStoreInterface defines at-most-once bookkeeping for webhook events.
type EventStoreInterface interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// LockStoreInterface defines the interface for per-order locking.
type LockStoreInterface interface {
	AcquireOrderLock(ctx context.Context, orderID int64, ttl time.Duration) (string, bool, error)
	ReleaseOrderLock(ctx context.Context, orderID int64, token string) error
}

// ResponseStoreInterface defines the interface for idempotent response caching.
type ResponseStoreInterface interface {
	Get(ctx context.Context, key string) (*CachedResponse, error)
	Set(ctx context.Context, key string, response *CachedResponse, ttl time.Duration) error
}

// Ensure concrete types implement interfaces.
var (
	_ EventStoreInterface    = (*EventStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ ResponseStoreInterface = (*ResponseStore)(nil)
)
