package middleware

import (
	"context"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/throttle-demo-go/internal/ratelimit"
)

type requestMetaKey struct{}

// RequestMeta holds per-request metadata resolved once at the edge.
type RequestMeta struct {
	RequestID string
	UserID    int64
	UserAgent string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

// RequestMetadata is a middleware that tags each request with a generated
// id (echoed back as X-Request-ID) and the caller's identity.
func RequestMetadata(_ huma.API, newID func() string) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := RequestMeta{
			RequestID: newID(),
			UserID:    NewHumaClient(ctx).UserID(),
			UserAgent: ctx.Header("User-Agent"),
		}

		ctx.SetHeader("X-Request-ID", meta.RequestID)

		newCtx := ContextWithRequestMeta(ctx.Context(), meta)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}

// humaClient adapts huma.Context to ratelimit.Client. The user id comes
// from the X-User-ID header the fronting gateway sets for authenticated
// requests; anything unparseable counts as anonymous.
type humaClient struct {
	ctx huma.Context
}

// NewHumaClient wraps a huma context as a ratelimit.Client.
func NewHumaClient(ctx huma.Context) ratelimit.Client {
	return &humaClient{ctx: ctx}
}

func (c *humaClient) UserID() int64 {
	id, err := strconv.ParseInt(c.ctx.Header("X-User-ID"), 10, 64)
	if err != nil || id < 0 {
		return 0
	}

	return id
}

func (c *humaClient) Header(name string) string {
	return c.ctx.Header(name)
}

func (c *humaClient) RemoteAddr() string {
	return c.ctx.RemoteAddr()
}
