package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/throttle-demo-go/internal/events"
	"github.com/serroba/throttle-demo-go/internal/messaging"
	"github.com/serroba/throttle-demo-go/internal/ratelimit"
	"go.uber.org/zap"
)

// MetadataKey is the key used to store throttle config in operation metadata.
const MetadataKey = "throttle"

// EndpointConfig defines per-endpoint throttle configuration, attached
// to huma operations via the Metadata field.
type EndpointConfig struct {
	// Action overrides the logical action name used in throttle keys.
	// Empty means the operation id (or method+path) is used.
	Action string

	// Disabled skips throttling entirely for this endpoint.
	Disabled bool
}

// GetEndpointConfig extracts the EndpointConfig from operation metadata, if present.
func GetEndpointConfig(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}

// Throttle returns a huma middleware that rate-limits each operation by
// the caller's identity (user id when authenticated, hashed client IP
// otherwise). Responses carry X-RateLimit-Limit and
// X-RateLimit-Remaining; a limited request gets 429 with Retry-After.
//
// Store failures fail open: enforcement is best-effort and a broken
// store must not take the API down with it.
func Throttle(
	api huma.API,
	limiter *ratelimit.Limiter,
	publishExceeded messaging.Publish[events.LimitExceededEvent],
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		cfg := GetEndpointConfig(ctx)
		if cfg != nil && cfg.Disabled {
			next(ctx)

			return
		}

		action := actionName(ctx, cfg)
		key := ratelimit.ForUser(NewHumaClient(ctx), action)

		limited, err := limiter.TooManyAttempts(ctx.Context(), key)
		if err != nil {
			logger.Warn("throttle check failed, allowing request",
				zap.String("action", action), zap.Error(err))
			next(ctx)

			return
		}

		if limited {
			handleLimited(api, ctx, limiter, publishExceeded, logger, key, action)

			return
		}

		hits, err := limiter.Hit(ctx.Context(), key)
		if err != nil {
			logger.Warn("throttle hit failed, allowing request",
				zap.String("action", action), zap.Error(err))
			next(ctx)

			return
		}

		remaining := limiter.MaxAttempts() - hits
		if remaining < 0 {
			remaining = 0
		}

		ctx.SetHeader("X-RateLimit-Limit", strconv.FormatInt(limiter.MaxAttempts(), 10))
		ctx.SetHeader("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		next(ctx)
	}
}

func handleLimited(
	api huma.API,
	ctx huma.Context,
	limiter *ratelimit.Limiter,
	publishExceeded messaging.Publish[events.LimitExceededEvent],
	logger *zap.Logger,
	key, action string,
) {
	wait, err := limiter.AvailableIn(ctx.Context(), key)
	if err != nil {
		logger.Warn("throttle wait lookup failed", zap.String("action", action), zap.Error(err))
	}

	hits, err := limiter.Attempts(ctx.Context(), key)
	if err != nil {
		logger.Warn("throttle count lookup failed", zap.String("action", action), zap.Error(err))
		hits = limiter.MaxAttempts()
	}

	ctx.SetHeader("X-RateLimit-Limit", strconv.FormatInt(limiter.MaxAttempts(), 10))
	ctx.SetHeader("X-RateLimit-Remaining", "0")
	ctx.SetHeader("Retry-After", strconv.FormatInt(retryAfterSeconds(wait), 10))

	logger.Warn("rate limit exceeded",
		zap.String("action", action),
		zap.String("keyHash", ratelimit.HashKey(key)),
		zap.Duration("retryAfter", wait),
	)

	if publishExceeded != nil {
		event := &events.LimitExceededEvent{
			KeyHash:      ratelimit.HashKey(key),
			Action:       action,
			Hits:         hits,
			Limit:        limiter.MaxAttempts(),
			RetryAfterMs: wait.Milliseconds(),
			OccurredAt:   time.Now(),
		}

		if err := publishExceeded(event); err != nil {
			logger.Error("failed to publish limit exceeded event",
				zap.String("action", action), zap.Error(err))
		}
	}

	_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "rate limit exceeded")
}

// actionName picks the logical action for a request: the endpoint
// override, the operation id, or method+path as a last resort.
func actionName(ctx huma.Context, cfg *EndpointConfig) string {
	if cfg != nil && cfg.Action != "" {
		return cfg.Action
	}

	if op := ctx.Operation(); op != nil && op.OperationID != "" {
		return op.OperationID
	}

	return ctx.Method() + " " + ctx.URL().Path
}

func retryAfterSeconds(wait time.Duration) int64 {
	return int64(math.Ceil(wait.Seconds()))
}
