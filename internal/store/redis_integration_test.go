package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/throttle-demo-go/internal/ratelimit"
	"github.com/serroba/throttle-demo-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

func TestRedisStoreIntegration(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr: getRedisAddr(),
	})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	s := store.NewRedisStore(client)

	t.Run("get returns nil for absent keys", func(t *testing.T) {
		record, err := s.Get(ctx, "throttle-test:missing")

		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("set then get round-trips the count", func(t *testing.T) {
		key := "throttle-test:set"

		err := s.Set(ctx, key, &ratelimit.Record{Hits: 4}, time.Minute)
		require.NoError(t, err)

		record, err := s.Get(ctx, key)
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, int64(4), record.Hits)
		assert.False(t, record.ExpiresAt.IsZero(), "window reset should ride on the key TTL")

		// Cleanup
		client.Del(ctx, key)
	})

	t.Run("incr counts up and re-arms the ttl", func(t *testing.T) {
		key := "throttle-test:incr"

		for want := int64(1); want <= 3; want++ {
			record, err := s.Incr(ctx, key, time.Minute)

			require.NoError(t, err)
			assert.Equal(t, want, record.Hits)
			assert.Positive(t, time.Until(record.ExpiresAt))
		}

		// Cleanup
		client.Del(ctx, key)
	})

	t.Run("foreign values read as absent", func(t *testing.T) {
		key := "throttle-test:foreign"
		client.Set(ctx, key, "not-a-counter", time.Minute)

		record, err := s.Get(ctx, key)

		require.NoError(t, err)
		assert.Nil(t, record)

		// Cleanup
		client.Del(ctx, key)
	})

	t.Run("delete reports whether a record existed", func(t *testing.T) {
		key := "throttle-test:delete"

		deleted, err := s.Delete(ctx, key)
		require.NoError(t, err)
		assert.False(t, deleted)

		_, _ = s.Incr(ctx, key, time.Minute)

		deleted, err = s.Delete(ctx, key)
		require.NoError(t, err)
		assert.True(t, deleted)
	})
}
