package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"checkoutbridge/internal/config"
	internalRedis "checkoutbridge/internal/redis"
)

// RedisStores groups the Redis-backed stores. All fields are nil when Redis
// is not configured.
type RedisStores struct {
	Client    *redis.Client
	Events    internalRedis.EventStoreInterface
	Locks     internalRedis.LockStoreInterface
	Responses internalRedis.ResponseStoreInterface
}

// Close closes the underlying client, if any.
func (s *RedisStores) Close() error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Close()
}

// NewRedisStores connects to Redis and builds the stores, or returns empty
// stores when no address is configured.
func NewRedisStores(ctx context.Context, cfg config.RedisConfig, nrApp *newrelic.Application) (*RedisStores, error) {
	if !cfg.Enabled() {
		return &RedisStores{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Add New Relic hook for Redis instrumentation if enabled
	if nrApp != nil {
		client.AddHook(&nrRedisHook{})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisStores{
		Client:    client,
		Events:    internalRedis.NewEventStore(client),
		Locks:     internalRedis.NewLockStore(client),
		Responses: internalRedis.NewResponseStore(client),
	}, nil
}

// nrRedisHook implements redis.Hook for New Relic instrumentation.
type nrRedisHook struct{}

func (h *nrRedisHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *nrRedisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if txn := newrelic.FromContext(ctx); txn != nil {
			segment := newrelic.DatastoreSegment{
				StartTime:  txn.StartSegmentNow(),
				Product:    newrelic.DatastoreRedis,
				Operation:  cmd.Name(),
				Collection: keyCollection(cmd),
			}
			defer segment.End()
		}
		return next(ctx, cmd)
	}
}

func (h *nrRedisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		if txn := newrelic.FromContext(ctx); txn != nil {
			segment := newrelic.DatastoreSegment{
				StartTime:  txn.StartSegmentNow(),
				Product:    newrelic.DatastoreRedis,
				Operation:  "pipeline",
				Collection: "redis",
			}
			defer segment.End()
		}
		return next(ctx, cmds)
	}
}

// keyCollection reports the key namespace ("webhook", "lock", "idempotency")
// a command touches, so segments group by store rather than by key.
func keyCollection(cmd redis.Cmder) string {
	args := cmd.Args()
	if len(args) < 2 {
		return "redis"
	}
	key, ok := args[1].(string)
	if !ok {
		return "redis"
	}
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "redis"
}
