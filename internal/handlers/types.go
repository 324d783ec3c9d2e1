package handlers

// RecordAttemptRequest is the request body for recording an attempt
// against a caller-managed logical key.
type RecordAttemptRequest struct {
	Body struct {
		Key    string `doc:"Logical key to throttle" example:"user_7_login" json:"key" minLength:"1"`
		Action string `doc:"Action name, for reporting" example:"login"     json:"action,omitempty"`
	}
}

// RecordAttemptResponse reports the outcome of an attempt.
type RecordAttemptResponse struct {
	Body struct {
		Allowed           bool  `doc:"Whether the attempt was within the budget" json:"allowed"`
		Hits              int64 `doc:"Attempts recorded in the current window"   json:"hits"`
		Remaining         int64 `doc:"Attempts left in the current window"       json:"remaining"`
		RetryAfterSeconds int64 `doc:"Seconds until the window resets, when denied" json:"retryAfterSeconds"`
	}
}

// GetQuotaRequest identifies the logical key to inspect.
type GetQuotaRequest struct {
	Key string `doc:"Logical key" example:"user_7_login" path:"key"`
}

// QuotaResponse is the read-only view of a key's quota.
type QuotaResponse struct {
	Body struct {
		Limited           bool  `doc:"Whether the key is over its budget"     json:"limited"`
		Remaining         int64 `doc:"Attempts left in the current window"    json:"remaining"`
		RetryAfterSeconds int64 `doc:"Seconds until the window resets, when limited" json:"retryAfterSeconds"`
	}
}

// ClearQuotaRequest identifies the logical key to clear.
type ClearQuotaRequest struct {
	Key string `doc:"Logical key" example:"user_7_login" path:"key"`
}

// ClearQuotaResponse acknowledges a clear.
type ClearQuotaResponse struct {
	Body struct {
		Cleared bool `doc:"Whether a record existed and was removed" json:"cleared"`
	}
}
