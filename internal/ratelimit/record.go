package ratelimit

import "time"

// Record is the per-key counter state for one fixed window.
// The zero value means "no activity recorded".
type Record struct {
	// Hits is the number of attempts recorded in the current window.
	Hits int64 `json:"hits"`
	// ExpiresAt is when the current window resets. Zero means no window
	// has been started.
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the record's window has already passed at the
// given instant. A record with no window (zero ExpiresAt) never expires;
// it is simply empty.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && r.ExpiresAt.Before(now)
}
