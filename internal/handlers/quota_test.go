package handlers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/serroba/throttle-demo-go/internal/handlers"
	"github.com/serroba/throttle-demo-go/internal/ratelimit"
	"github.com/serroba/throttle-demo-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// brokenStore simulates an unavailable backend.
type brokenStore struct{}

func (brokenStore) Get(_ context.Context, _ string) (*ratelimit.Record, error) {
	return nil, errors.New("store down")
}

func (brokenStore) Set(_ context.Context, _ string, _ *ratelimit.Record, _ time.Duration) error {
	return errors.New("store down")
}

func (brokenStore) Delete(_ context.Context, _ string) (bool, error) {
	return false, errors.New("store down")
}

func newTestHandler(t *testing.T, maxAttempts int64) *handlers.QuotaHandler {
	t.Helper()

	limiter, err := ratelimit.New(store.NewMemoryStore(), maxAttempts, time.Minute)
	require.NoError(t, err)

	return handlers.NewQuotaHandler(limiter, zap.NewNop())
}

func attemptRequest(key string) *handlers.RecordAttemptRequest {
	req := &handlers.RecordAttemptRequest{}
	req.Body.Key = key

	return req
}

func TestQuotaHandler_RecordAttempt(t *testing.T) {
	t.Run("allows and counts attempts under the budget", func(t *testing.T) {
		h := newTestHandler(t, 3)

		for want := int64(1); want <= 3; want++ {
			resp, err := h.RecordAttempt(context.Background(), attemptRequest("user_7_login"))

			require.NoError(t, err)
			assert.True(t, resp.Body.Allowed)
			assert.Equal(t, want, resp.Body.Hits)
			assert.Equal(t, 3-want, resp.Body.Remaining)
		}
	})

	t.Run("denies attempts over the budget with retry-after", func(t *testing.T) {
		h := newTestHandler(t, 2)

		for range 2 {
			_, err := h.RecordAttempt(context.Background(), attemptRequest("k"))
			require.NoError(t, err)
		}

		resp, err := h.RecordAttempt(context.Background(), attemptRequest("k"))

		require.NoError(t, err)
		assert.False(t, resp.Body.Allowed)
		assert.Equal(t, int64(0), resp.Body.Remaining)
		assert.Positive(t, resp.Body.RetryAfterSeconds)
	})

	t.Run("denied attempts do not extend the window", func(t *testing.T) {
		h := newTestHandler(t, 1)

		_, err := h.RecordAttempt(context.Background(), attemptRequest("k"))
		require.NoError(t, err)

		first, err := h.RecordAttempt(context.Background(), attemptRequest("k"))
		require.NoError(t, err)

		second, err := h.RecordAttempt(context.Background(), attemptRequest("k"))
		require.NoError(t, err)

		assert.False(t, first.Body.Allowed)
		assert.False(t, second.Body.Allowed)
		assert.GreaterOrEqual(t, first.Body.RetryAfterSeconds, second.Body.RetryAfterSeconds)
	})

	t.Run("returns 500 when the store is down", func(t *testing.T) {
		limiter, err := ratelimit.New(brokenStore{}, 3, time.Minute)
		require.NoError(t, err)

		h := handlers.NewQuotaHandler(limiter, zap.NewNop())

		_, err = h.RecordAttempt(context.Background(), attemptRequest("k"))

		assert.Error(t, err)
	})
}

func TestQuotaHandler_GetQuota(t *testing.T) {
	t.Run("reports a fresh key as unlimited", func(t *testing.T) {
		h := newTestHandler(t, 5)

		resp, err := h.GetQuota(context.Background(), &handlers.GetQuotaRequest{Key: "k"})

		require.NoError(t, err)
		assert.False(t, resp.Body.Limited)
		assert.Equal(t, int64(5), resp.Body.Remaining)
		assert.Equal(t, int64(0), resp.Body.RetryAfterSeconds)
	})

	t.Run("does not record an attempt", func(t *testing.T) {
		h := newTestHandler(t, 5)

		for range 3 {
			_, err := h.GetQuota(context.Background(), &handlers.GetQuotaRequest{Key: "k"})
			require.NoError(t, err)
		}

		resp, err := h.GetQuota(context.Background(), &handlers.GetQuotaRequest{Key: "k"})

		require.NoError(t, err)
		assert.Equal(t, int64(5), resp.Body.Remaining)
	})

	t.Run("reports a limited key", func(t *testing.T) {
		h := newTestHandler(t, 2)

		for range 2 {
			_, err := h.RecordAttempt(context.Background(), attemptRequest("k"))
			require.NoError(t, err)
		}

		resp, err := h.GetQuota(context.Background(), &handlers.GetQuotaRequest{Key: "k"})

		require.NoError(t, err)
		assert.True(t, resp.Body.Limited)
		assert.Equal(t, int64(0), resp.Body.Remaining)
		assert.Positive(t, resp.Body.RetryAfterSeconds)
	})
}

func TestQuotaHandler_ClearQuota(t *testing.T) {
	t.Run("clears a limited key", func(t *testing.T) {
		h := newTestHandler(t, 1)

		_, err := h.RecordAttempt(context.Background(), attemptRequest("k"))
		require.NoError(t, err)

		cleared, err := h.ClearQuota(context.Background(), &handlers.ClearQuotaRequest{Key: "k"})

		require.NoError(t, err)
		assert.True(t, cleared.Body.Cleared)

		resp, err := h.RecordAttempt(context.Background(), attemptRequest("k"))

		require.NoError(t, err)
		assert.True(t, resp.Body.Allowed)
		assert.Equal(t, int64(1), resp.Body.Hits)
	})

	t.Run("acknowledges clearing an unknown key", func(t *testing.T) {
		h := newTestHandler(t, 1)

		cleared, err := h.ClearQuota(context.Background(), &handlers.ClearQuotaRequest{Key: "unknown"})

		require.NoError(t, err)
		assert.False(t, cleared.Body.Cleared)
	})
}
