package output

import (
	"context"
	"time"

	"github.com/badno/catimport/pkg/models"
)

// Format specifies the output format
type Format string

const (
	FormatJSON  Format = "json"  // JSON envelope
	FormatJSONL Format = "jsonl" // JSON Lines format
	FormatCSV   Format = "csv"   // Flat CSV readable by the generic mapper
	FormatXLSX  Format = "xlsx"  // Excel workbook with the CSV columns
)

// Formats lists every supported format
var Formats = []Format{FormatJSON, FormatJSONL, FormatCSV, FormatXLSX}

// ParseFormat validates a format name
func ParseFormat(s string) (Format, bool) {
	for _, f := range Formats {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// Extension returns the file extension for the format, with the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// ExportOptions configures export behavior
type ExportOptions struct {
	Format     Format // Output format
	OutputPath string // File path; empty means a timestamped file in the output dir
	DryRun     bool   // Count without writing
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Destination      string // Where data was exported
	RecordsExported  int
	VariantsExported int
	Success          bool
	Error            error
	StartedAt        time.Time
	CompletedAt      time.Time
	Details          string // Human-readable details
}

// Adapter writes normalized records somewhere for review
type Adapter interface {
	// Name returns the adapter's unique identifier
	Name() string

	// Connect prepares the destination
	Connect(ctx context.Context) error

	// Close cleans up any resources
	Close() error

	// ExportRecords writes records to the destination
	ExportRecords(ctx context.Context, records []models.ImportRecord, opts ExportOptions) (*ExportResult, error)

	// Test verifies the destination is usable
	Test(ctx context.Context) error

	// SupportsFormat checks if the adapter supports a specific format
	SupportsFormat(format Format) bool
}

// BaseAdapter provides common functionality for adapters
type BaseAdapter struct {
	name      string
	connected bool
	formats   []Format
}

// NewBaseAdapter creates a new base adapter
func NewBaseAdapter(name string, formats []Format) *BaseAdapter {
	return &BaseAdapter{
		name:    name,
		formats: formats,
	}
}

func (b *BaseAdapter) Name() string {
	return b.name
}

func (b *BaseAdapter) IsConnected() bool {
	return b.connected
}

func (b *BaseAdapter) SetConnected(connected bool) {
	b.connected = connected
}

func (b *BaseAdapter) SupportsFormat(format Format) bool {
	for _, f := range b.formats {
		if f == format {
			return true
		}
	}
	return false
}

func (b *BaseAdapter) SupportedFormats() []Format {
	return b.formats
}

// CountVariants sums the variants across records
func CountVariants(records []models.ImportRecord) int {
	n := 0
	for i := range records {
		n += len(records[i].Variants)
	}
	return n
}
