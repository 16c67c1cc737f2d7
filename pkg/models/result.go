package models

import (
	"time"

	"github.com/google/uuid"
)

// ImportResult summarizes one import run
type ImportResult struct {
	RunID       uuid.UUID       `json:"run_id"`
	Total       int             `json:"total"`
	Imported    int             `json:"imported"`
	Failed      int             `json:"failed"`
	Cancelled   bool            `json:"cancelled,omitempty"`
	Failures    []RecordFailure `json:"failures,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
}

// RecordFailure describes a record whose product could not be created
type RecordFailure struct {
	Index int    `json:"index"` // position in the submitted record list
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Processed returns how many records were attempted
func (r *ImportResult) Processed() int {
	return r.Imported + r.Failed
}

// Clean reports whether every processed record was imported
func (r *ImportResult) Clean() bool {
	return r.Failed == 0 && !r.Cancelled
}

// Duration returns the wall time of the run
func (r *ImportResult) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
