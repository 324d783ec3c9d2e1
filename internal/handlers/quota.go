package handlers

import (
	"context"
	"math"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/throttle-demo-go/internal/ratelimit"
	"go.uber.org/zap"
)

// QuotaHandler exposes the limiter over HTTP so other services can
// enforce limits remotely and operators can inspect or reset keys.
// Unlike the middleware, this surface reports store failures to the
// caller instead of failing open; the caller owns the enforcement
// policy.
type QuotaHandler struct {
	limiter *ratelimit.Limiter
	logger  *zap.Logger
}

// NewQuotaHandler creates a new quota handler.
func NewQuotaHandler(limiter *ratelimit.Limiter, logger *zap.Logger) *QuotaHandler {
	return &QuotaHandler{limiter: limiter, logger: logger}
}

// RecordAttempt records one attempt against the given logical key,
// unless the key is already over its budget.
func (h *QuotaHandler) RecordAttempt(ctx context.Context, req *RecordAttemptRequest) (*RecordAttemptResponse, error) {
	key := req.Body.Key

	limited, err := h.limiter.TooManyAttempts(ctx, key)
	if err != nil {
		h.logger.Error("attempt check failed", zap.String("keyHash", ratelimit.HashKey(key)), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to check quota")
	}

	resp := &RecordAttemptResponse{}

	if limited {
		wait, err := h.limiter.AvailableIn(ctx, key)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to check quota")
		}

		resp.Body.Allowed = false
		resp.Body.Hits = h.limiter.MaxAttempts()
		resp.Body.RetryAfterSeconds = int64(math.Ceil(wait.Seconds()))

		return resp, nil
	}

	hits, err := h.limiter.Hit(ctx, key)
	if err != nil {
		h.logger.Error("attempt record failed", zap.String("keyHash", ratelimit.HashKey(key)), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to record attempt")
	}

	remaining := h.limiter.MaxAttempts() - hits
	if remaining < 0 {
		remaining = 0
	}

	resp.Body.Allowed = true
	resp.Body.Hits = hits
	resp.Body.Remaining = remaining

	return resp, nil
}

// GetQuota reports the current state of a logical key without recording
// an attempt.
func (h *QuotaHandler) GetQuota(ctx context.Context, req *GetQuotaRequest) (*QuotaResponse, error) {
	limited, err := h.limiter.TooManyAttempts(ctx, req.Key)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to check quota")
	}

	remaining, err := h.limiter.Remaining(ctx, req.Key)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to check quota")
	}

	wait, err := h.limiter.AvailableIn(ctx, req.Key)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to check quota")
	}

	resp := &QuotaResponse{}
	resp.Body.Limited = limited
	resp.Body.Remaining = remaining
	resp.Body.RetryAfterSeconds = int64(math.Ceil(wait.Seconds()))

	return resp, nil
}

// ClearQuota deletes the record for a logical key, immediately
// un-limiting it.
func (h *QuotaHandler) ClearQuota(ctx context.Context, req *ClearQuotaRequest) (*ClearQuotaResponse, error) {
	cleared, err := h.limiter.Clear(ctx, req.Key)
	if err != nil {
		h.logger.Error("quota clear failed", zap.String("keyHash", ratelimit.HashKey(req.Key)), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to clear quota")
	}

	resp := &ClearQuotaResponse{}
	resp.Body.Cleared = cleared

	return resp, nil
}
