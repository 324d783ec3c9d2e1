package events

import "time"

// TopicLimitExceeded is the stream topic limit exceeded events are
// published on.
const TopicLimitExceeded = "throttle.limit_exceeded"

// LimitExceededEvent is emitted when a throttled key goes over its
// budget. KeyHash carries the hashed logical key, never the raw one, so
// raw client identifiers stay out of the event stream.
type LimitExceededEvent struct {
	KeyHash      string    `json:"keyHash"`
	Action       string    `json:"action"`
	Hits         int64     `json:"hits"`
	Limit        int64     `json:"limit"`
	RetryAfterMs int64     `json:"retryAfterMs"`
	OccurredAt   time.Time `json:"occurredAt"`
}
