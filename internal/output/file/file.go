package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/badno/catimport/internal/output"
)

// Config holds file output configuration shared by the file adapters
type Config struct {
	OutputDir string // Directory for output files
	Pretty    bool   // Pretty-print JSON
}

// NewRegistry registers the JSON, CSV and XLSX adapters
func NewRegistry(cfg Config) *output.Registry {
	r := output.NewRegistry()
	_ = r.Register(NewJSONAdapter(cfg))
	_ = r.Register(NewCSVAdapter(cfg))
	_ = r.Register(NewXLSXAdapter(cfg))
	return r
}

// dirAdapter is the directory handling common to every file adapter
type dirAdapter struct {
	*output.BaseAdapter
	outputDir string
}

func newDirAdapter(name, outputDir string, formats ...output.Format) dirAdapter {
	if outputDir == "" {
		outputDir = "output"
	}
	return dirAdapter{
		BaseAdapter: output.NewBaseAdapter(name, formats),
		outputDir:   outputDir,
	}
}

// Connect creates the output directory
func (a dirAdapter) Connect(ctx context.Context) error {
	if err := os.MkdirAll(a.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	a.SetConnected(true)
	return nil
}

// Close cleans up resources
func (a dirAdapter) Close() error {
	a.SetConnected(false)
	return nil
}

// Test verifies the output directory is writable
func (a dirAdapter) Test(ctx context.Context) error {
	testFile := filepath.Join(a.outputDir, ".test")
	f, err := os.Create(testFile)
	if err != nil {
		return fmt.Errorf("output directory not writable: %w", err)
	}
	f.Close()
	os.Remove(testFile)
	return nil
}

// prepare connects if needed and picks the destination file
func (a dirAdapter) prepare(ctx context.Context, opts output.ExportOptions, format output.Format) (string, error) {
	if opts.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
		return opts.OutputPath, nil
	}

	if !a.IsConnected() {
		if err := a.Connect(ctx); err != nil {
			return "", err
		}
	}
	timestamp := time.Now().Format("2006-01-02_150405")
	return filepath.Join(a.outputDir, fmt.Sprintf("records_%s%s", timestamp, format.Extension())), nil
}

// dryRun fills result for a run that writes nothing
func dryRun(result *output.ExportResult, n, variants int) *output.ExportResult {
	result.RecordsExported = n
	result.VariantsExported = variants
	result.Success = true
	result.Details = fmt.Sprintf("Dry run: would export %d records", n)
	result.CompletedAt = time.Now()
	return result
}

// done fills result for a successful write
func done(result *output.ExportResult, filename string, n, variants int) *output.ExportResult {
	result.Destination = filename
	result.RecordsExported = n
	result.VariantsExported = variants
	result.Success = true
	result.Details = fmt.Sprintf("Exported %d records to %s", n, filename)
	result.CompletedAt = time.Now()
	return result
}
