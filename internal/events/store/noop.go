package store

import (
	"context"

	"github.com/serroba/throttle-demo-go/internal/events"
	"go.uber.org/zap"
)

// Noop is a no-op implementation of events.Store that logs events.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op event store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveLimitExceeded(_ context.Context, event *events.LimitExceededEvent) error {
	n.logger.Info("limit exceeded event received",
		zap.String("keyHash", event.KeyHash),
		zap.String("action", event.Action),
		zap.Int64("hits", event.Hits),
		zap.Int64("limit", event.Limit),
		zap.Time("occurredAt", event.OccurredAt),
	)

	return nil
}
