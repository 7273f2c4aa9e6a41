package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces processed-event keys so the idempotency store
// can share a Redis database with other components.
const redisKeyPrefix = "storescout:events:processed:"

// RedisIdempotencyStore is a Redis-backed implementation of IdempotencyStore.
// Use it when consumers run as multiple replicas: the in-memory store only
// deduplicates within a single process.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIdempotencyStore creates a Redis-backed idempotency store. Entries
// expire after the given TTL.
func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

// Contains reports whether the event ID has already been processed.
func (s *RedisIdempotencyStore) Contains(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKeyPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("check processed event: %w", err)
	}
	return n > 0, nil
}

// Add marks an event ID as processed.
func (s *RedisIdempotencyStore) Add(ctx context.Context, eventID string) error {
	if err := s.client.Set(ctx, redisKeyPrefix+eventID, 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	return nil
}
