package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupeKeyPrefix = "idem"

// Deduper stores processed idempotency keys in Redis so every instance can
// avoid applying the same board command twice.
type Deduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDeduper creates a deduper using the provided Redis client and TTL.
func NewDeduper(client *redis.Client, ttl time.Duration) *Deduper {
	return &Deduper{client: client, ttl: ttl}
}

func (d *Deduper) key(scope, key string) string {
	return dedupeKeyPrefix + ":" + scope + ":" + key
}

// Add records the key if it does not already exist. It returns true when the
// key was newly added.
func (d *Deduper) Add(ctx context.Context, scope, key string) (bool, error) {
	added, err := d.client.SetNX(ctx, d.key(scope, key), 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis.Deduper.Add: %w", err)
	}
	return added, nil
}

// Remove deletes a previously recorded key. It is used when applying the
// command fails so the caller may retry with the same key.
func (d *Deduper) Remove(ctx context.Context, scope, key string) error {
	if err := d.client.Del(ctx, d.key(scope, key)).Err(); err != nil {
		return fmt.Errorf("redis.Deduper.Remove: %w", err)
	}
	return nil
}
