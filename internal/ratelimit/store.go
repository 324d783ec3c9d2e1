package ratelimit

import (
	"context"
	"time"
)

// Store is the expiring key-value store rate limit state round-trips
// through. The limiter holds no state of its own, so any backend that
// satisfies this contract makes the limiter safe to share across
// processes.
type Store interface {
	// Get returns the record stored under key, or (nil, nil) when the key
	// is absent or holds a value that is not a record. Foreign writes into
	// the same keyspace are treated as absent, never as errors.
	Get(ctx context.Context, key string) (*Record, error)

	// Set writes the record under key with the given time-to-live. The
	// TTL is a backstop; readers still check Record.ExpiresAt themselves.
	Set(ctx context.Context, key string, record *Record, ttl time.Duration) error

	// Delete removes the record under key, reporting whether anything was
	// actually deleted.
	Delete(ctx context.Context, key string) (bool, error)
}

// Incrementer is an optional store capability: atomically increment the
// counter under key, starting a fresh window when none is active, and
// re-arm the window TTL. Stores that implement it eliminate the lost
// updates a concurrent Get/Set cycle can suffer, so the limiter prefers
// this path whenever it is available.
type Incrementer interface {
	Incr(ctx context.Context, key string, window time.Duration) (*Record, error)
}
