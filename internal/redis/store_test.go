package redis

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// ──────────────────────────────────────────────
// EVENT STORE
// ──────────────────────────────────────────────

func TestEventStore_ClaimIsAtMostOnce(t *testing.T) {
	t.Parallel()
	mr, client := newTestClient(t)
	store := NewEventStore(client)
	ctx := context.Background()

	claimed, err := store.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, claimed)

	claimed, err = store.Claim(ctx, "evt_2")
	require.NoError(t, err)
	assert.True(t, claimed)

	assert.True(t, mr.Exists("webhook:event:evt_1"))
	assert.Equal(t, EventTTL, mr.TTL("webhook:event:evt_1"))
}

func TestEventStore_ReleaseAllowsReclaim(t *testing.T) {
	t.Parallel()
	_, client := newTestClient(t)
	store := NewEventStore(client)
	ctx := context.Background()

	_, err := store.Claim(ctx, "evt_1")
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "evt_1"))

	claimed, err := store.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestEventStore_ClaimExpires(t *testing.T) {
	t.Parallel()
	mr, client := newTestClient(t)
	store := NewEventStore(client)
	ctx := context.Background()

	_, err := store.Claim(ctx, "evt_1")
	require.NoError(t, err)

	mr.FastForward(EventTTL + time.Second)

	claimed, err := store.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestEventStore_ServerDown(t *testing.T) {
	t.Parallel()
	mr, client := newTestClient(t)
	store := NewEventStore(client)
	mr.Close()

	_, err := store.Claim(context.Background(), "evt_1")
	assert.Error(t, err)
}

// ──────────────────────────────────────────────
// LOCK STORE
// ──────────────────────────────────────────────

func TestLockStore_AcquireIsExclusive(t *testing.T) {
	t.Parallel()
	mr, client := newTestClient(t)
	store := NewLockStore(client)
	ctx := context.Background()

	token, ok, err := store.AcquireOrderLock(ctx, 123, 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, token)

	_, ok, err = store.AcquireOrderLock(ctx, 123, 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.AcquireOrderLock(ctx, 124, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 30*time.Second, mr.TTL("lock:order:123"))
}

func TestLockStore_ReleaseRequiresOwnerToken(t *testing.T) {
	t.Parallel()
	mr, client := newTestClient(t)
	store := NewLockStore(client)
	ctx := context.Background()

	token, ok, err := store.AcquireOrderLock(ctx, 123, 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.ReleaseOrderLock(ctx, 123, "someone-else"))
	assert.True(t, mr.Exists("lock:order:123"))

	require.NoError(t, store.ReleaseOrderLock(ctx, 123, token))
	assert.False(t, mr.Exists("lock:order:123"))

	_, ok, err = store.AcquireOrderLock(ctx, 123, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockStore_ExpiredLockIsNotReleasedByStaleHolder(t *testing.T) {
	t.Parallel()
	mr, client := newTestClient(t)
	store := NewLockStore(client)
	ctx := context.Background()

	stale, ok, err := store.AcquireOrderLock(ctx, 123, time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	fresh, ok, err := store.AcquireOrderLock(ctx, 123, 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.ReleaseOrderLock(ctx, 123, stale))
	got, err := mr.Get("lock:order:123")
	require.NoError(t, err)
	assert.Equal(t, fresh, got)
}

// ──────────────────────────────────────────────
// RESPONSE STORE
// ──────────────────────────────────────────────

func TestResponseStore_RoundTrip(t *testing.T) {
	t.Parallel()
	mr, client := newTestClient(t)
	store := NewResponseStore(client)
	ctx := context.Background()

	cached, err := store.Get(ctx, "/api/create-checkout:k")
	require.NoError(t, err)
	assert.Nil(t, cached)

	headers := make(http.Header)
	headers.Set("Content-Type", "application/json; charset=utf-8")
	require.NoError(t, store.Set(ctx, "/api/create-checkout:k", &CachedResponse{
		StatusCode:  http.StatusOK,
		Body:        []byte(`{"ok":true,"sessionId":"cs_1"}`),
		Headers:     headers,
		RequestHash: "abc",
	}, time.Hour))

	cached, err = store.Get(ctx, "/api/create-checkout:k")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, http.StatusOK, cached.StatusCode)
	assert.JSONEq(t, `{"ok":true,"sessionId":"cs_1"}`, string(cached.Body))
	assert.Equal(t, "application/json; charset=utf-8", cached.Headers.Get("Content-Type"))
	assert.Equal(t, "abc", cached.RequestHash)
	assert.Equal(t, time.Hour, mr.TTL("idempotency:/api/create-checkout:k"))
}
