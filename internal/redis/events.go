package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventTTL covers the provider's redelivery window for a webhook event.
const EventTTL = 72 * time.Hour

const eventKeyPrefix = "webhook:event:"

// EventStore records which webhook events have been claimed for processing.
type EventStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEventStore creates a new EventStore.
func NewEventStore(client *redis.Client) *EventStore {
	return &EventStore{client: client, ttl: EventTTL}
}

// Claim marks an event as being processed. It returns false if the event
// was already claimed by an earlier delivery.
func (s *EventStore) Claim(ctx context.Context, eventID string) (bool, error) {
	return s.client.SetNX(ctx, eventKeyPrefix+eventID, time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
}

// Release forgets a claim so a later delivery of the event is processed again.
func (s *EventStore) Release(ctx context.Context, eventID string) error {
	return s.client.Del(ctx, eventKeyPrefix+eventID).Err()
}
