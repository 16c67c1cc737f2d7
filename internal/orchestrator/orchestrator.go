package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/badno/catimport/internal/catalog"
	"github.com/badno/catimport/internal/config"
	"github.com/badno/catimport/internal/database"
	"github.com/badno/catimport/internal/mapper"
	"github.com/badno/catimport/internal/output"
	"github.com/badno/catimport/internal/output/file"
	"github.com/badno/catimport/internal/parser"
	"github.com/badno/catimport/internal/source"
	"github.com/badno/catimport/pkg/models"
	log "github.com/sirupsen/logrus"
)

// Orchestrator coordinates the import pipeline: load, parse, map, import
// and record
type Orchestrator struct {
	config  *config.Config
	api     catalog.API
	sources *source.Registry
	outputs *output.Registry
	history database.RunRepository
	events  database.EventWriter
	handler EventHandler
}

// New creates a new orchestrator. api may be nil when only loading and
// exporting.
func New(cfg *config.Config, api catalog.API) *Orchestrator {
	return &Orchestrator{
		config:  cfg,
		api:     api,
		sources: source.NewDefaultRegistry(cfg),
		outputs: file.NewRegistry(file.Config{
			OutputDir: cfg.Outputs.File.OutputDir,
			Pretty:    cfg.Outputs.File.Pretty,
		}),
	}
}

// SetSources replaces the loader registry
func (o *Orchestrator) SetSources(r *source.Registry) {
	o.sources = r
}

// SetHistory sets where finished runs are recorded
func (o *Orchestrator) SetHistory(repo database.RunRepository) {
	o.history = repo
}

// SetEventWriter sets the analytics sink for per-record events
func (o *Orchestrator) SetEventWriter(w database.EventWriter) {
	o.events = w
}

// SetEventHandler sets a handler that observes every import event
func (o *Orchestrator) SetEventHandler(h EventHandler) {
	o.handler = h
}

// Close cleans up all loaders and adapters
func (o *Orchestrator) Close() error {
	var errs []error
	if err := o.sources.CloseAll(); err != nil {
		errs = append(errs, err)
	}
	if err := o.outputs.CloseAll(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Batch is a loaded and mapped export, ready to import
type Batch struct {
	Source   string
	Document *parser.Document
	Platform models.Platform
	Records  []models.ImportRecord
	Skipped  int // Candidates the mapper dropped
}

// Load fetches the input at uri, parses it and maps its rows. An empty
// platform means the one detected from the headers.
func (o *Orchestrator) Load(ctx context.Context, uri string, platform models.Platform) (*Batch, error) {
	input, err := o.sources.Load(ctx, uri)
	if err != nil {
		return nil, err
	}

	rows, err := input.Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", input.Name, err)
	}

	doc, err := parser.FromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", input.Name, err)
	}
	if platform != "" {
		doc.Platform = platform
	}

	records := mapper.MapDocument(doc)
	skipped := mapper.Candidates(doc) - len(records)
	if skipped < 0 {
		skipped = 0
	}

	log.WithFields(log.Fields{
		"source":   uri,
		"bytes":    input.Size(),
		"platform": doc.Platform,
		"records":  len(records),
		"skipped":  skipped,
	}).Debug("Loaded input")

	return &Batch{
		Source:   uri,
		Document: doc,
		Platform: doc.Platform,
		Records:  records,
		Skipped:  skipped,
	}, nil
}

// Take returns at most limit records; a limit of zero or less means all
func (b *Batch) Take(limit int) []models.ImportRecord {
	if limit > 0 && len(b.Records) > limit {
		return b.Records[:limit]
	}
	return b.Records
}

// Export writes records through the file adapter for opts.Format
func (o *Orchestrator) Export(ctx context.Context, records []models.ImportRecord, opts output.ExportOptions) (*output.ExportResult, error) {
	result, err := o.outputs.Export(ctx, records, opts)
	if err != nil {
		return result, fmt.Errorf("failed to export records: %w", err)
	}
	return result, nil
}

// ImportOptions configures the import operation
type ImportOptions struct {
	Input       string
	Platform    models.Platform // Empty means detect
	Limit       int
	Concurrency int // Zero means the configured value
	DryRun      bool
	Format      output.Format // Preview format for dry runs
	OutputPath  string
}

// RunReport contains the results of an import operation
type RunReport struct {
	Result   *models.ImportResult // Nil for dry runs
	Export   *output.ExportResult // Set for dry runs
	Platform models.Platform
	Source   string
	Records  int
	Skipped  int
}

// Import loads opts.Input and imports its records. Load and parse errors
// are returned without a report; a run that started always returns one.
func (o *Orchestrator) Import(ctx context.Context, opts ImportOptions, onProgress ProgressFunc) (*RunReport, error) {
	batch, err := o.Load(ctx, opts.Input, opts.Platform)
	if err != nil {
		return nil, err
	}
	return o.Run(ctx, batch, opts, onProgress)
}

// Run imports an already loaded batch, or exports it for a dry run.
// opts.Input and opts.Platform are ignored.
func (o *Orchestrator) Run(ctx context.Context, batch *Batch, opts ImportOptions, onProgress ProgressFunc) (*RunReport, error) {
	records := batch.Take(opts.Limit)
	report := &RunReport{
		Platform: batch.Platform,
		Source:   batch.Source,
		Records:  len(records),
		Skipped:  batch.Skipped,
	}

	if opts.DryRun {
		format := opts.Format
		if format == "" {
			format = output.FormatJSON
		}
		export, err := o.Export(ctx, records, output.ExportOptions{
			Format:     format,
			OutputPath: opts.OutputPath,
		})
		report.Export = export
		return report, err
	}

	if o.api == nil {
		return report, fmt.Errorf("no catalog client configured")
	}

	concurrency := opts.Concurrency
	if concurrency == 0 {
		concurrency = o.config.Import.Concurrency
	}

	sink := newEventBuffer(batch.Source, batch.Platform)
	handlers := Handlers{sink}
	if o.handler != nil {
		handlers = append(handlers, o.handler)
	}

	importer := NewImporter(o.api, Options{
		ProductType: o.config.Catalog.ProductType,
		Concurrency: concurrency,
		Events:      handlers,
	})
	result, runErr := importer.Import(ctx, records, onProgress)
	report.Result = result

	// Recording must outlive a cancelled run
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	o.record(recordCtx, report, runErr, sink)

	return report, runErr
}

// record stores the run and its events. Failures here never fail the run.
func (o *Orchestrator) record(ctx context.Context, report *RunReport, runErr error, sink *eventBuffer) {
	logger := log.WithField("run_id", report.Result.RunID.String())

	if o.history != nil {
		run := database.NewImportRun(report.Result, report.Source, report.Platform, report.Skipped, runErr)
		if err := o.history.Add(ctx, run); err != nil {
			logger.WithError(err).Warn("Failed to record import run")
		}
	}

	if o.events != nil {
		events := sink.Events()
		if err := o.events.WriteEvents(ctx, events); err != nil {
			logger.WithError(err).WithField("events", len(events)).Warn("Failed to write import events")
		}
	}
}
