package events

import "context"

// Store defines the interface for persisting throttle events.
type Store interface {
	SaveLimitExceeded(ctx context.Context, event *LimitExceededEvent) error
}
