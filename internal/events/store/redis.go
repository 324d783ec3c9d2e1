package store

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/throttle-demo-go/internal/events"
)

const countersKey = "throttle:exceeded_counts"

// RedisCounters aggregates limit exceeded events into per-action
// counters in a Redis hash, giving operators a cheap view of which
// actions are being throttled hardest.
type RedisCounters struct {
	client *redis.Client
}

// NewRedisCounters creates a Redis-backed event store.
func NewRedisCounters(client *redis.Client) *RedisCounters {
	return &RedisCounters{client: client}
}

func (r *RedisCounters) SaveLimitExceeded(ctx context.Context, event *events.LimitExceededEvent) error {
	return r.client.HIncrBy(ctx, countersKey, event.Action, 1).Err()
}

// Counts returns the per-action exceed counts recorded so far.
func (r *RedisCounters) Counts(ctx context.Context) (map[string]string, error) {
	return r.client.HGetAll(ctx, countersKey).Result()
}

// Compile-time check.
var _ events.Store = (*RedisCounters)(nil)
