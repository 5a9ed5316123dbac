package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunRecord is one classified entry as persisted to the results ledger.
type RunRecord struct {
	RunID       uuid.UUID `db:"run_id"`
	Username    string    `db:"username"`
	File        string    `db:"file"`
	AccountID   string    `db:"account_id"`
	CurrentName string    `db:"current_name"`
	Category    string    `db:"category"`
	Reason      string    `db:"reason"`
	NameChanged bool      `db:"name_changed"`
	Online      bool      `db:"online"`
	Recheck     bool      `db:"recheck"`
	CheckedAt   time.Time `db:"checked_at"`
}

// NewRunRecord builds a ledger row from a classified outcome.
func NewRunRecord(runID uuid.UUID, o Outcome, recheck bool, at time.Time) *RunRecord {
	return &RunRecord{
		RunID:       runID,
		Username:    o.Entry.Username,
		File:        o.Entry.File,
		AccountID:   o.AccountID,
		CurrentName: o.CurrentName,
		Category:    string(o.Category),
		Reason:      o.Reason,
		NameChanged: o.NameChanged,
		Online:      o.Online,
		Recheck:     recheck,
		CheckedAt:   at,
	}
}
