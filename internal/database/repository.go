package database

import (
	"context"
	"errors"
	"time"

	"github.com/badno/catimport/pkg/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a run does not exist
var ErrNotFound = errors.New("not found")

// Run statuses derived from an import result
const (
	RunCompleted = "completed"
	RunPartial   = "partial"
	RunCancelled = "cancelled"
	RunFailed    = "failed"
)

// RunRepository defines the interface for import run history
type RunRepository interface {
	Add(ctx context.Context, run *ImportRun) error
	GetRecent(ctx context.Context, limit int) ([]*ImportRun, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ImportRun, error)
}

// EventWriter defines the interface for per-record import analytics
type EventWriter interface {
	WriteEvents(ctx context.Context, events []ImportEvent) error
}

// ImportRun represents one import run in the history log
type ImportRun struct {
	ID          uuid.UUID              `json:"id"`
	Source      string                 `json:"source"`
	Platform    string                 `json:"platform"`
	Total       int                    `json:"total"`
	Imported    int                    `json:"imported"`
	Failed      int                    `json:"failed"`
	Skipped     int                    `json:"skipped"`
	Cancelled   bool                   `json:"cancelled,omitempty"`
	Error       string                 `json:"error,omitempty"` // Set when the run aborted
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt time.Time              `json:"completed_at"`
	Failures    []models.RecordFailure `json:"failures,omitempty"`
}

// NewImportRun builds a history entry from an import result
func NewImportRun(result *models.ImportResult, source string, platform models.Platform, skipped int, runErr error) *ImportRun {
	run := &ImportRun{
		ID:          result.RunID,
		Source:      source,
		Platform:    string(platform),
		Total:       result.Total,
		Imported:    result.Imported,
		Failed:      result.Failed,
		Skipped:     skipped,
		Cancelled:   result.Cancelled,
		StartedAt:   result.StartedAt,
		CompletedAt: result.CompletedAt,
		Failures:    result.Failures,
	}
	if runErr != nil && !result.Cancelled {
		run.Error = runErr.Error()
	}
	return run
}

// Status summarizes how the run ended
func (r *ImportRun) Status() string {
	switch {
	case r.Error != "":
		return RunFailed
	case r.Cancelled:
		return RunCancelled
	case r.Failed > 0:
		return RunPartial
	default:
		return RunCompleted
	}
}

// Duration returns the wall time of the run
func (r *ImportRun) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// ImportEvent is one per-record outcome, as stored for analytics
type ImportEvent struct {
	RunID       uuid.UUID `json:"run_id"`
	Kind        string    `json:"kind"`
	Source      string    `json:"source"`
	Platform    string    `json:"platform"`
	RecordIndex int       `json:"record_index"`
	ProductName string    `json:"product_name"`
	ProductID   int64     `json:"product_id,omitempty"`
	CategoryID  int64     `json:"category_id,omitempty"`
	Variant     string    `json:"variant,omitempty"`
	Error       string    `json:"error,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PlatformSummary aggregates import outcomes for one platform
type PlatformSummary struct {
	Platform         string
	Runs             uint64
	Imported         uint64
	ProductFailures  uint64
	CategoryFailures uint64
	VariantFailures  uint64
	LastEventAt      time.Time
}
