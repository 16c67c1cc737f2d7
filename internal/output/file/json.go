package file

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/badno/catimport/internal/output"
	"github.com/badno/catimport/pkg/models"
)

const JSONAdapterName = "json"

// exportVersion is bumped when the JSON envelope changes shape
const exportVersion = "1.0"

// JSONAdapter writes records as a JSON envelope or JSON Lines
type JSONAdapter struct {
	dirAdapter
	pretty bool
}

// NewJSONAdapter creates a new JSON file adapter
func NewJSONAdapter(cfg Config) *JSONAdapter {
	return &JSONAdapter{
		dirAdapter: newDirAdapter(JSONAdapterName, cfg.OutputDir, output.FormatJSON, output.FormatJSONL),
		pretty:     cfg.Pretty,
	}
}

// Envelope is the document written for FormatJSON
type Envelope struct {
	Version    string                `json:"version"`
	ExportedAt time.Time             `json:"exported_at"`
	Count      int                   `json:"count"`
	Records    []models.ImportRecord `json:"records"`
}

// ExportRecords exports records to a JSON file
func (a *JSONAdapter) ExportRecords(ctx context.Context, records []models.ImportRecord, opts output.ExportOptions) (*output.ExportResult, error) {
	result := &output.ExportResult{
		StartedAt: time.Now(),
	}
	variants := output.CountVariants(records)

	if opts.DryRun {
		return dryRun(result, len(records), variants), nil
	}

	format := opts.Format
	if format == "" {
		format = output.FormatJSON
	}

	filename, err := a.prepare(ctx, opts, format)
	if err != nil {
		result.Error = err
		return result, err
	}

	switch format {
	case output.FormatJSONL:
		err = a.writeJSONL(filename, records)
	default:
		err = a.writeJSON(filename, records)
	}
	if err != nil {
		result.Error = err
		return result, err
	}

	return done(result, filename, len(records), variants), nil
}

// writeJSON writes records inside an export envelope
func (a *JSONAdapter) writeJSON(filename string, records []models.ImportRecord) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	if a.pretty {
		encoder.SetIndent("", "  ")
	}

	if records == nil {
		records = []models.ImportRecord{}
	}
	return encoder.Encode(Envelope{
		Version:    exportVersion,
		ExportedAt: time.Now(),
		Count:      len(records),
		Records:    records,
	})
}

// writeJSONL writes records as JSON Lines (one object per line)
func (a *JSONAdapter) writeJSONL(filename string, records []models.ImportRecord) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := bufio.NewWriter(f)
	for i := range records {
		data, err := json.Marshal(&records[i])
		if err != nil {
			return err
		}
		if _, err := writer.Write(data); err != nil {
			return err
		}
		if err := writer.WriteByte('\n'); err != nil {
			return err
		}
	}
	return writer.Flush()
}
