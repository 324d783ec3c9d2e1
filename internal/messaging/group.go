package messaging

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable is a long-running component with an explicit lifecycle.
// Event consumers and the store janitor both satisfy it.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// Group runs the consumer binary's long-lived parts as one unit: the
// throttle event consumers plus any housekeeping runnables, over one
// shared subscriber.
type Group struct {
	runnables  []Runnable
	subscriber message.Subscriber
	logger     *zap.Logger
}

// NewGroup creates an empty group over a shared subscriber.
func NewGroup(subscriber message.Subscriber, logger *zap.Logger) *Group {
	return &Group{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers a runnable. Registration order is start order.
func (g *Group) Add(r Runnable) {
	g.runnables = append(g.runnables, r)
}

// Start starts every runnable in registration order. When one fails,
// the ones already running are shut down before the error is returned.
func (g *Group) Start(ctx context.Context) error {
	for i, r := range g.runnables {
		if err := r.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g.runnables[j].Shutdown()
			}

			return fmt.Errorf("messaging: start runnable %d: %w", i, err)
		}
	}

	g.logger.Info("group started", zap.Int("runnables", len(g.runnables)))

	return nil
}

// Shutdown stops the runnables in reverse start order, then closes the
// shared subscriber. The first error wins; the rest still run.
func (g *Group) Shutdown() error {
	g.logger.Info("shutting down group")

	var firstErr error

	for i := len(g.runnables) - 1; i >= 0; i-- {
		if err := g.runnables[i].Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := g.subscriber.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}
