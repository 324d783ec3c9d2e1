package store

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Pruner is a store that can sweep expired entries. Redis evicts on its
// own; the memory and Postgres stores need help.
type Pruner interface {
	PruneExpired(ctx context.Context) (int64, error)
}

// Janitor periodically prunes expired records from a store. It
// implements the messaging.Runnable lifecycle so the consumer binary
// can manage it alongside the event consumers.
type Janitor struct {
	pruner   Pruner
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewJanitor creates a janitor sweeping at the given interval.
func NewJanitor(pruner Pruner, interval time.Duration, logger *zap.Logger) *Janitor {
	return &Janitor{
		pruner:   pruner,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins the sweep loop. Stop via Shutdown.
func (j *Janitor) Start(ctx context.Context) error {
	ctx, j.cancel = context.WithCancel(ctx)

	go j.loop(ctx)

	return nil
}

func (j *Janitor) loop(ctx context.Context) {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned, err := j.pruner.PruneExpired(ctx)
			if err != nil {
				j.logger.Error("prune sweep failed", zap.Error(err))

				continue
			}

			if pruned > 0 {
				j.logger.Debug("pruned expired records", zap.Int64("count", pruned))
			}
		}
	}
}

// Shutdown stops the sweep loop and waits for it to exit.
func (j *Janitor) Shutdown() error {
	if j.cancel != nil {
		j.cancel()
		<-j.done
	}

	return nil
}
