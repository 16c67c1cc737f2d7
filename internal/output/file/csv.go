package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/badno/catimport/internal/output"
	"github.com/badno/catimport/pkg/models"
)

const CSVAdapterName = "csv"

// CSVAdapter writes records as a flat CSV that imports back as a generic export
type CSVAdapter struct {
	dirAdapter
}

// NewCSVAdapter creates a new CSV file adapter
func NewCSVAdapter(cfg Config) *CSVAdapter {
	return &CSVAdapter{
		dirAdapter: newDirAdapter(CSVAdapterName, cfg.OutputDir, output.FormatCSV),
	}
}

// ExportRecords exports records to a CSV file
func (a *CSVAdapter) ExportRecords(ctx context.Context, records []models.ImportRecord, opts output.ExportOptions) (*output.ExportResult, error) {
	result := &output.ExportResult{
		StartedAt: time.Now(),
	}

	// Variants have no column in the flat layout
	if opts.DryRun {
		return dryRun(result, len(records), 0), nil
	}

	filename, err := a.prepare(ctx, opts, output.FormatCSV)
	if err != nil {
		result.Error = err
		return result, err
	}

	if err := writeCSV(filename, records); err != nil {
		result.Error = err
		return result, err
	}

	return done(result, filename, len(records), 0), nil
}

func writeCSV(filename string, records []models.ImportRecord) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(output.TableHeaders); err != nil {
		return err
	}
	for i := range records {
		if err := writer.Write(output.TableRow(&records[i])); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
