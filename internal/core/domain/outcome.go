package domain

import "time"

// FailureKind classifies why an upstream call did not produce a result.
type FailureKind string

const (
	FailureNone         FailureKind = ""
	FailureNotFound     FailureKind = "not_found"
	FailureRateLimited  FailureKind = "rate_limited"
	FailureTransient    FailureKind = "transient"
	FailureUnauthorized FailureKind = "unauthorized"
	FailureUnexpected   FailureKind = "unexpected"
	FailureUnsuccessful FailureKind = "unsuccessful"
)

// Outcome is the result of checking one entry.
//
// RateLimited outcomes carry no category: the entry went to the retry queue
// instead of being classified.
type Outcome struct {
	Entry       CheckEntry
	Category    Category
	AccountID   string
	CurrentName string
	NameChanged bool
	Online      bool
	LastLogin   time.Time
	Reason      string
	Failure     FailureKind
	RateLimited bool
}

// DisplayName is the canonical name when known, the input username otherwise.
func (o Outcome) DisplayName() string {
	if o.CurrentName != "" {
		return o.CurrentName
	}
	return o.Entry.Username
}

// NameChange records a detected rename from the username in the file name.
type NameChange struct {
	Old string
	New string
}

// FailedLookup records a username that ended in an error bucket.
type FailedLookup struct {
	Username string
	Reason   string
}
