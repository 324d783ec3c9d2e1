package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultMaxAttempts is the per-window attempt budget applied when
	// New is given zero.
	DefaultMaxAttempts = 60
	// DefaultWindow is the decay window applied when New is given zero.
	DefaultWindow = time.Minute

	defaultPrefix = "throttle:"
)

// ErrInvalidConfig is returned by New for a negative attempt budget or
// window.
var ErrInvalidConfig = errors.New("ratelimit: max attempts and window must not be negative")

// Limiter is a fixed-window counter over an injected expiring store.
// It keeps no state between calls: every query re-reads the store, so
// limiter instances in separate processes sharing a store agree on the
// same counts.
//
// The budget and window are fixed for the limiter's lifetime; use
// separate instances (with distinct key prefixes) for different limits.
type Limiter struct {
	store       Store
	maxAttempts int64
	window      time.Duration
	prefix      string
	now         func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithPrefix overrides the store-key namespace prefix. Limiters with
// different budgets sharing one store must not share a prefix.
func WithPrefix(prefix string) Option {
	return func(l *Limiter) { l.prefix = prefix }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a fixed-window limiter allowing maxAttempts hits per
// window for any one key. Zero maxAttempts or window select the
// defaults; negative values are rejected.
func New(store Store, maxAttempts int64, window time.Duration, opts ...Option) (*Limiter, error) {
	if maxAttempts < 0 || window < 0 {
		return nil, ErrInvalidConfig
	}

	if maxAttempts == 0 {
		maxAttempts = DefaultMaxAttempts
	}

	if window == 0 {
		window = DefaultWindow
	}

	l := &Limiter{
		store:       store,
		maxAttempts: maxAttempts,
		window:      window,
		prefix:      defaultPrefix,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// MaxAttempts returns the per-window attempt budget.
func (l *Limiter) MaxAttempts() int64 {
	return l.maxAttempts
}

// Window returns the decay window.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Hit records an attempt for key and returns the count of attempts in
// the current window. Every hit re-arms the window, pushing its reset
// out to now + window.
//
// When the store implements Incrementer the count is bumped atomically.
// Otherwise Hit falls back to read-modify-write, and two concurrent
// hits on the same key may undercount (lost update); the store's own
// guarantees are the only protection.
func (l *Limiter) Hit(ctx context.Context, key string) (int64, error) {
	storeKey := l.storeKey(key)

	if inc, ok := l.store.(Incrementer); ok {
		record, err := inc.Incr(ctx, storeKey, l.window)
		if err != nil {
			return 0, fmt.Errorf("ratelimit: hit %q: %w", key, err)
		}

		return record.Hits, nil
	}

	record, err := l.read(ctx, storeKey)
	if err != nil {
		return 0, fmt.Errorf("ratelimit: hit %q: %w", key, err)
	}

	record.Hits++
	record.ExpiresAt = l.now().Add(l.window)

	if err := l.store.Set(ctx, storeKey, &record, l.window); err != nil {
		return 0, fmt.Errorf("ratelimit: hit %q: %w", key, err)
	}

	return record.Hits, nil
}

// Attempts returns the number of hits recorded for key in the current
// window. Read-only.
func (l *Limiter) Attempts(ctx context.Context, key string) (int64, error) {
	record, err := l.read(ctx, l.storeKey(key))
	if err != nil {
		return 0, fmt.Errorf("ratelimit: attempts %q: %w", key, err)
	}

	return record.Hits, nil
}

// TooManyAttempts reports whether key has used up its budget for the
// current window. Read-only.
func (l *Limiter) TooManyAttempts(ctx context.Context, key string) (bool, error) {
	record, err := l.read(ctx, l.storeKey(key))
	if err != nil {
		return false, fmt.Errorf("ratelimit: check %q: %w", key, err)
	}

	return record.Hits >= l.maxAttempts, nil
}

// Remaining returns how many attempts key has left in the current
// window, never negative.
func (l *Limiter) Remaining(ctx context.Context, key string) (int64, error) {
	record, err := l.read(ctx, l.storeKey(key))
	if err != nil {
		return 0, fmt.Errorf("ratelimit: remaining %q: %w", key, err)
	}

	remaining := l.maxAttempts - record.Hits
	if remaining < 0 {
		remaining = 0
	}

	return remaining, nil
}

// AvailableIn returns how long until key may attempt again: zero while
// the key is under its budget, otherwise the time until the window
// resets.
func (l *Limiter) AvailableIn(ctx context.Context, key string) (time.Duration, error) {
	record, err := l.read(ctx, l.storeKey(key))
	if err != nil {
		return 0, fmt.Errorf("ratelimit: available in %q: %w", key, err)
	}

	if record.Hits < l.maxAttempts {
		return 0, nil
	}

	wait := record.ExpiresAt.Sub(l.now())
	if wait < 0 {
		wait = 0
	}

	return wait, nil
}

// Clear deletes the record for key, immediately un-limiting it. The
// returned bool is the store's deletion acknowledgement.
func (l *Limiter) Clear(ctx context.Context, key string) (bool, error) {
	deleted, err := l.store.Delete(ctx, l.storeKey(key))
	if err != nil {
		return false, fmt.Errorf("ratelimit: clear %q: %w", key, err)
	}

	return deleted, nil
}

// Attempt runs action if key is under its budget, recording a hit
// first. When the key is over budget, onLimited (if non-nil) is called
// with the time until the window resets and action is not run. The
// returned bool reports whether action ran.
//
// The check and the hit are two store round-trips, not a transaction;
// concurrent callers racing past the check share the same caveat as
// Hit.
func (l *Limiter) Attempt(ctx context.Context, key string, action func() error, onLimited func(time.Duration)) (bool, error) {
	limited, err := l.TooManyAttempts(ctx, key)
	if err != nil {
		return false, err
	}

	if limited {
		if onLimited != nil {
			wait, err := l.AvailableIn(ctx, key)
			if err != nil {
				return false, err
			}

			onLimited(wait)
		}

		return false, nil
	}

	if _, err := l.Hit(ctx, key); err != nil {
		return false, err
	}

	return true, action()
}

// read fetches the record for a derived store key, applying lazy
// expiry: a stale record is deleted and reported as empty rather than
// trusted, since the store's TTL sweep may lag.
func (l *Limiter) read(ctx context.Context, storeKey string) (Record, error) {
	record, err := l.store.Get(ctx, storeKey)
	if err != nil {
		return Record{}, err
	}

	if record == nil {
		return Record{}, nil
	}

	if record.Expired(l.now()) {
		if _, err := l.store.Delete(ctx, storeKey); err != nil {
			return Record{}, err
		}

		return Record{}, nil
	}

	return *record, nil
}

// storeKey derives the store key for a logical key. Hashing keeps
// arbitrarily long or unsafe logical keys within any backend's key
// constraints.
func (l *Limiter) storeKey(key string) string {
	return l.prefix + HashKey(key)
}
