package postgres

import (
	"context"
	"fmt"

	"github.com/badno/catimport/internal/database"
	"github.com/badno/catimport/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RunRepo implements the RunRepository interface for PostgreSQL
type RunRepo struct {
	client *Client
}

var _ database.RunRepository = (*RunRepo)(nil)

// NewRunRepo creates a new PostgreSQL run repository
func NewRunRepo(client *Client) *RunRepo {
	return &RunRepo{client: client}
}

const runColumns = `id, source, platform, total, imported, failed, skipped, cancelled, error, started_at, completed_at`

// Add inserts a run and its failures in one transaction
func (r *RunRepo) Add(ctx context.Context, run *database.ImportRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	tx, err := r.client.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO import_runs (`+runColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		run.ID.String(),
		run.Source,
		run.Platform,
		run.Total,
		run.Imported,
		run.Failed,
		run.Skipped,
		run.Cancelled,
		run.Error,
		run.StartedAt,
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add run: %w", err)
	}

	if len(run.Failures) > 0 {
		batch := &pgx.Batch{}
		for _, f := range run.Failures {
			batch.Queue(`
				INSERT INTO import_failures (run_id, record_index, name, error)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (run_id, record_index) DO NOTHING
			`, run.ID.String(), f.Index, f.Name, f.Error)
		}

		br := tx.SendBatch(ctx, batch)
		for range run.Failures {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to add run failure: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to add run failures: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRecent retrieves the most recent runs, without their failures
func (r *RunRepo) GetRecent(ctx context.Context, limit int) ([]*database.ImportRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM import_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.client.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	return r.scanRuns(rows)
}

// GetByID retrieves one run with its failures
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*database.ImportRun, error) {
	query := `SELECT ` + runColumns + ` FROM import_runs WHERE id = $1`

	rows, err := r.client.pool.Query(ctx, query, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	runs, err := r.scanRuns(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("run %s: %w", id, database.ErrNotFound)
	}
	run := runs[0]

	failures, err := r.failures(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Failures = failures
	return run, nil
}

func (r *RunRepo) failures(ctx context.Context, id uuid.UUID) ([]models.RecordFailure, error) {
	rows, err := r.client.pool.Query(ctx, `
		SELECT record_index, name, error
		FROM import_failures
		WHERE run_id = $1
		ORDER BY record_index
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query run failures: %w", err)
	}
	defer rows.Close()

	var failures []models.RecordFailure
	for rows.Next() {
		var f models.RecordFailure
		if err := rows.Scan(&f.Index, &f.Name, &f.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run failure: %w", err)
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

func (r *RunRepo) scanRuns(rows pgx.Rows) ([]*database.ImportRun, error) {
	var runs []*database.ImportRun

	for rows.Next() {
		var run database.ImportRun
		var id string
		err := rows.Scan(
			&id, &run.Source, &run.Platform, &run.Total, &run.Imported,
			&run.Failed, &run.Skipped, &run.Cancelled, &run.Error,
			&run.StartedAt, &run.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid run id %q: %w", id, err)
		}
		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

// CountByPlatform returns how many runs were recorded per platform
func (r *RunRepo) CountByPlatform(ctx context.Context) (map[string]int64, error) {
	rows, err := r.client.pool.Query(ctx, `SELECT platform, count(*) FROM import_runs GROUP BY platform`)
	if err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var platform string
		var n int64
		if err := rows.Scan(&platform, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[platform] = n
	}
	return counts, rows.Err()
}
