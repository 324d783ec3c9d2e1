package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/throttle-demo-go/internal/ratelimit"
)

// incrScript bumps the counter and re-arms the window TTL in one
// server-side step, then reports the count and remaining TTL.
var incrScript = redis.NewScript(`
local hits = redis.call("INCR", KEYS[1])
redis.call("PEXPIRE", KEYS[1], ARGV[1])
return {hits, redis.call("PTTL", KEYS[1])}
`)

// RedisStore is a Redis implementation of ratelimit.Store. The stored
// value is the raw hit count; the window reset time rides on the key's
// native TTL rather than a serialized record.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed rate limit store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Get(ctx context.Context, key string) (*ratelimit.Record, error) {
	pipe := r.client.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		// A foreign value of another Redis type in our keyspace reads
		// as absent, like any other malformed record.
		if strings.HasPrefix(err.Error(), "WRONGTYPE") {
			return nil, nil
		}

		return nil, err
	}

	hits, err := strconv.ParseInt(getCmd.Val(), 10, 64)
	if err != nil {
		// Foreign value in our keyspace; treat as absent.
		return nil, nil
	}

	record := &ratelimit.Record{Hits: hits}
	if ttl := ttlCmd.Val(); ttl > 0 {
		record.ExpiresAt = time.Now().Add(ttl)
	}

	return record, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, record *ratelimit.Record, ttl time.Duration) error {
	return r.client.Set(ctx, key, record.Hits, ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	deleted, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}

	return deleted > 0, nil
}

// Incr implements ratelimit.Incrementer via a Lua script, so concurrent
// hits on one key are serialized by Redis itself.
func (r *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (*ratelimit.Record, error) {
	result, err := incrScript.Run(ctx, r.client, []string{key}, window.Milliseconds()).Slice()
	if err != nil {
		return nil, err
	}

	if len(result) != 2 {
		return nil, errors.New("store: unexpected incr script reply")
	}

	hits, _ := result[0].(int64)
	pttl, _ := result[1].(int64)

	record := &ratelimit.Record{Hits: hits}
	if pttl > 0 {
		record.ExpiresAt = time.Now().Add(time.Duration(pttl) * time.Millisecond)
	}

	return record, nil
}

// Compile-time checks.
var (
	_ ratelimit.Store       = (*RedisStore)(nil)
	_ ratelimit.Incrementer = (*RedisStore)(nil)
)
