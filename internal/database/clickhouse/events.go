package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/badno/catimport/internal/database"
)

var _ database.EventWriter = (*Client)(nil)

// WriteEvents inserts import events in one batch
func (c *Client) WriteEvents(ctx context.Context, events []database.ImportEvent) error {
	if len(events) == 0 {
		return nil
	}
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}

	batch, err := c.conn.PrepareBatch(ctx, `
		INSERT INTO import_events (
			run_id, kind, source, platform, record_index,
			product_name, product_id, category_id, variant, error,
			occurred_at, event_date
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, e := range events {
		occurredAt := e.OccurredAt
		if occurredAt.IsZero() {
			occurredAt = time.Now()
		}

		err := batch.Append(
			e.RunID,
			e.Kind,
			e.Source,
			e.Platform,
			uint32(e.RecordIndex),
			e.ProductName,
			e.ProductID,
			e.CategoryID,
			e.Variant,
			e.Error,
			occurredAt,
			occurredAt.Truncate(24*time.Hour),
		)
		if err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}

	return batch.Send()
}

// GetPlatformSummary aggregates outcomes per platform for events since the
// given time
func (c *Client) GetPlatformSummary(ctx context.Context, since time.Time) ([]database.PlatformSummary, error) {
	query := `
		SELECT
			platform,
			uniqExact(run_id) as runs,
			countIf(kind = 'product_imported') as imported,
			countIf(kind = 'product_failed') as product_failures,
			countIf(kind IN ('category_failed', 'category_unresolved')) as category_failures,
			countIf(kind = 'variant_failed') as variant_failures,
			max(occurred_at) as last_event
		FROM import_events
		WHERE occurred_at >= ?
		GROUP BY platform
		ORDER BY platform
	`

	rows, err := c.conn.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query platform summary: %w", err)
	}
	defer rows.Close()

	var summaries []database.PlatformSummary
	for rows.Next() {
		var s database.PlatformSummary
		if err := rows.Scan(
			&s.Platform, &s.Runs, &s.Imported, &s.ProductFailures,
			&s.CategoryFailures, &s.VariantFailures, &s.LastEventAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// GetRecentFailures returns the latest failure events, newest first
func (c *Client) GetRecentFailures(ctx context.Context, limit int) ([]database.ImportEvent, error) {
	query := `
		SELECT run_id, kind, source, platform, record_index, product_name,
			product_id, category_id, variant, error, occurred_at
		FROM import_events
		WHERE kind != 'product_imported'
		ORDER BY occurred_at DESC
		LIMIT ?
	`

	rows, err := c.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer rows.Close()

	var events []database.ImportEvent
	for rows.Next() {
		var e database.ImportEvent
		var index uint32
		if err := rows.Scan(
			&e.RunID, &e.Kind, &e.Source, &e.Platform, &index, &e.ProductName,
			&e.ProductID, &e.CategoryID, &e.Variant, &e.Error, &e.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.RecordIndex = int(index)
		events = append(events, e)
	}

	return events, rows.Err()
}

// GetEventCount returns the total number of stored events
func (c *Client) GetEventCount(ctx context.Context) (uint64, error) {
	var count uint64
	if err := c.conn.QueryRow(ctx, "SELECT count() FROM import_events").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
