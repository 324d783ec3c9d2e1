package events

import (
	"context"

	"github.com/serroba/throttle-demo-go/internal/messaging"
)

// NewLimitExceededHandler returns a typed handler that persists limit
// exceeded events, for use with a messaging.Consumer on
// TopicLimitExceeded.
func NewLimitExceededHandler(store Store) messaging.Handler[LimitExceededEvent] {
	return func(ctx context.Context, event *LimitExceededEvent) error {
		return store.SaveLimitExceeded(ctx, event)
	}
}
