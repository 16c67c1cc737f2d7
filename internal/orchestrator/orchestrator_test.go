package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/badno/catimport/internal/catalog"
	"github.com/badno/catimport/internal/catalog/catalogtest"
	"github.com/badno/catimport/internal/config"
	"github.com/badno/catimport/internal/database"
	"github.com/badno/catimport/internal/output"
	"github.com/badno/catimport/internal/parser"
	"github.com/badno/catimport/internal/state"
	"github.com/badno/catimport/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const genericExport = `Name,Price,Category,Stock
Lamp,25,Home > Lighting,3
Vase,,Home,1
Rug,80,Home > Textiles,2
Mug,8,Kitchen,10
`

type eventRecorder struct {
	events []database.ImportEvent
	err    error
}

func (r *eventRecorder) WriteEvents(ctx context.Context, events []database.ImportEvent) error {
	r.events = append(r.events, events...)
	return r.err
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestOrchestrator(t *testing.T, api catalog.API) *Orchestrator {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Outputs.File.OutputDir = t.TempDir()
	o := New(cfg, api)
	t.Cleanup(func() { o.Close() })
	return o
}

func TestOrchestratorLoad(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	path := writeInput(t, "products.csv", genericExport)

	batch, err := o.Load(context.Background(), path, "")
	require.NoError(t, err)

	assert.Equal(t, models.PlatformGeneric, batch.Platform)
	assert.Equal(t, path, batch.Source)
	require.Len(t, batch.Records, 3)
	assert.Equal(t, 1, batch.Skipped)
	assert.Equal(t, []string{"Home", "Lighting"}, batch.Records[0].CategoryPath)
}

func TestOrchestratorLoadForcedPlatform(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	path := writeInput(t, "products.csv", genericExport)

	batch, err := o.Load(context.Background(), path, models.PlatformWooCommerce)
	require.NoError(t, err)

	assert.Equal(t, models.PlatformWooCommerce, batch.Platform)
	assert.Empty(t, batch.Records)
	assert.Equal(t, 4, batch.Skipped)
}

func TestOrchestratorLoadTooFewRows(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	path := writeInput(t, "empty.csv", "Name,Price\n\n")

	_, err := o.Load(context.Background(), path, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, parser.ErrTooFewRows))
}

func TestOrchestratorLoadMissingFile(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	_, err := o.Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), "")
	assert.Error(t, err)
}

func TestOrchestratorImportRecordsHistoryAndEvents(t *testing.T) {
	fake := catalogtest.New()
	fake.FailProduct = func(_ int, req catalog.CreateProductRequest) bool { return req.Name == "Rug" }

	o := newTestOrchestrator(t, fake)
	store := state.NewStore(filepath.Join(t.TempDir(), "state.json"))
	events := &eventRecorder{}
	o.SetHistory(store)
	o.SetEventWriter(events)

	var observed int
	o.SetEventHandler(EventHandlerFunc(func(Event) { observed++ }))

	path := writeInput(t, "products.csv", genericExport)
	report, err := o.Import(context.Background(), ImportOptions{Input: path}, nil)
	require.NoError(t, err)

	require.NotNil(t, report.Result)
	assert.Equal(t, 2, report.Result.Imported)
	assert.Equal(t, 1, report.Result.Failed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 3, report.Records)
	assert.Equal(t, models.PlatformGeneric, report.Platform)
	assert.Nil(t, report.Export)

	runs, err := store.GetRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, report.Result.RunID, runs[0].ID)
	assert.Equal(t, database.RunPartial, runs[0].Status())
	assert.Equal(t, 1, runs[0].Skipped)
	require.Len(t, runs[0].Failures, 1)
	assert.Equal(t, "Rug", runs[0].Failures[0].Name)

	require.Len(t, events.events, 3)
	assert.Equal(t, observed, len(events.events))
	kinds := map[string]int{}
	for _, e := range events.events {
		kinds[e.Kind]++
		assert.Equal(t, report.Result.RunID, e.RunID)
		assert.Equal(t, path, e.Source)
		assert.Equal(t, "generic", e.Platform)
	}
	assert.Equal(t, 2, kinds[string(EventProductImported)])
	assert.Equal(t, 1, kinds[string(EventProductFailed)])
}

func TestOrchestratorImportLimit(t *testing.T) {
	fake := catalogtest.New()
	o := newTestOrchestrator(t, fake)

	path := writeInput(t, "products.csv", genericExport)
	report, err := o.Import(context.Background(), ImportOptions{Input: path, Limit: 2}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Result.Total)
	assert.Equal(t, 2, fake.ProductCreates())
}

func TestOrchestratorImportSinkErrorsDoNotFailRun(t *testing.T) {
	fake := catalogtest.New()
	o := newTestOrchestrator(t, fake)
	o.SetEventWriter(&eventRecorder{err: errors.New("clickhouse down")})

	path := writeInput(t, "products.csv", genericExport)
	report, err := o.Import(context.Background(), ImportOptions{Input: path}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Result.Imported)
}

func TestOrchestratorImportSnapshotFailureIsRecorded(t *testing.T) {
	fake := catalogtest.New()
	fake.FailList = true

	o := newTestOrchestrator(t, fake)
	store := state.NewStore(filepath.Join(t.TempDir(), "state.json"))
	o.SetHistory(store)

	path := writeInput(t, "products.csv", genericExport)
	report, err := o.Import(context.Background(), ImportOptions{Input: path}, nil)
	require.Error(t, err)
	require.NotNil(t, report)

	runs, err := store.GetRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, database.RunFailed, runs[0].Status())
}

func TestOrchestratorDryRun(t *testing.T) {
	fake := catalogtest.New()
	o := newTestOrchestrator(t, fake)
	store := state.NewStore(filepath.Join(t.TempDir(), "state.json"))
	o.SetHistory(store)

	path := writeInput(t, "products.csv", genericExport)
	out := filepath.Join(t.TempDir(), "preview.csv")
	report, err := o.Import(context.Background(), ImportOptions{
		Input:      path,
		DryRun:     true,
		Format:     output.FormatCSV,
		OutputPath: out,
	}, nil)
	require.NoError(t, err)

	assert.Nil(t, report.Result)
	require.NotNil(t, report.Export)
	assert.Equal(t, 3, report.Export.RecordsExported)
	assert.FileExists(t, out)
	assert.Equal(t, 0, fake.ProductCreates())
	assert.Equal(t, 0, store.Count())

	// The preview reads back as the same records
	batch, err := o.Load(context.Background(), out, "")
	require.NoError(t, err)
	assert.Len(t, batch.Records, 3)
	assert.Zero(t, batch.Skipped)
}

func TestOrchestratorImportWithoutClient(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	path := writeInput(t, "products.csv", genericExport)

	_, err := o.Import(context.Background(), ImportOptions{Input: path}, nil)
	assert.Error(t, err)
}

func TestBatchTake(t *testing.T) {
	b := &Batch{Records: records(3)}
	assert.Len(t, b.Take(0), 3)
	assert.Len(t, b.Take(2), 2)
	assert.Len(t, b.Take(10), 3)
}
