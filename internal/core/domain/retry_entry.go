package domain

import "time"

// RetryEntry is a rate-limited entry waiting for a recheck round.
type RetryEntry struct {
	ID        string      `json:"id"`
	Entry     CheckEntry  `json:"entry"`
	Round     int         `json:"round"`
	Status    RetryStatus `json:"status"`
	LastError string      `json:"last_error"`
	QueuedAt  time.Time   `json:"queued_at"`
}

type RetryStatus string

const (
	RetryStatusPending   RetryStatus = "pending"
	RetryStatusInRetry   RetryStatus = "in_retry"
	RetryStatusExhausted RetryStatus = "exhausted"
)
