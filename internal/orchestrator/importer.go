package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/badno/catimport/internal/catalog"
	"github.com/badno/catimport/internal/category"
	"github.com/badno/catimport/pkg/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultProductType is sent with every created product unless overridden
const DefaultProductType = "physical"

// ProgressFunc is called after every processed record with the running
// totals. done counts imported and failed records.
type ProgressFunc func(done, failed int)

// Options configures an Importer
type Options struct {
	ProductType string
	// Concurrency above 1 creates products in parallel after all category
	// paths have been resolved up front.
	Concurrency int
	Events      EventHandler
}

// Importer writes normalized records into the catalog
type Importer struct {
	api  catalog.API
	opts Options

	emitMu sync.Mutex
}

// NewImporter creates an importer for api
func NewImporter(api catalog.API, opts Options) *Importer {
	if opts.ProductType == "" {
		opts.ProductType = DefaultProductType
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Importer{api: api, opts: opts}
}

type outcome int

const (
	outcomeImported outcome = iota
	outcomeFailed
	outcomeCancelled
)

// run holds the state of one Import call
type run struct {
	result   *models.ImportResult
	resolver *category.Resolver
	cache    *category.Cache
	progress ProgressFunc
	logger   *log.Entry

	mu sync.Mutex
}

// Import creates a product for every record, resolving category paths and
// creating variants as it goes. A record whose product cannot be created is
// counted as failed and the run moves on; category and variant failures
// never fail a record. The returned error is non-nil only when the run
// could not start or was cancelled, in which case the partial result is
// still returned.
func (im *Importer) Import(ctx context.Context, records []models.ImportRecord, onProgress ProgressFunc) (*models.ImportResult, error) {
	result := &models.ImportResult{
		RunID:     uuid.New(),
		Total:     len(records),
		StartedAt: time.Now(),
	}
	logger := log.WithField("run_id", result.RunID.String())

	snapshot, err := im.api.ListCategories(ctx)
	if err != nil {
		result.CompletedAt = time.Now()
		return result, fmt.Errorf("failed to load existing categories: %w", err)
	}
	logger.WithFields(log.Fields{
		"records":    len(records),
		"categories": len(snapshot),
	}).Info("Starting import")

	r := &run{
		result:   result,
		resolver: category.NewResolver(im.api, snapshot),
		cache:    category.NewCache(),
		progress: onProgress,
		logger:   logger,
	}

	if im.opts.Concurrency > 1 {
		err = im.importParallel(ctx, r, records)
	} else {
		err = im.importSequential(ctx, r, records)
	}

	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Index < result.Failures[j].Index
	})
	result.CompletedAt = time.Now()

	logger.WithFields(log.Fields{
		"imported":  result.Imported,
		"failed":    result.Failed,
		"cancelled": result.Cancelled,
		"duration":  result.Duration().String(),
	}).Info("Import finished")

	return result, err
}

func (im *Importer) importSequential(ctx context.Context, r *run, records []models.ImportRecord) error {
	resolve := func(path []string) (int64, bool) {
		return r.resolver.Resolve(ctx, path, r.cache)
	}

	for i := range records {
		if err := ctx.Err(); err != nil {
			r.result.Cancelled = true
			return err
		}
		o, err := im.process(ctx, r, i, &records[i], resolve)
		if o == outcomeCancelled {
			r.result.Cancelled = true
			return err
		}
		r.record(i, &records[i], o, err)
	}
	return nil
}

func (im *Importer) importParallel(ctx context.Context, r *run, records []models.ImportRecord) error {
	// Resolve every distinct path first so categories are created exactly
	// once and the cache is never touched from more than one goroutine.
	type resolution struct {
		id int64
		ok bool
	}
	resolved := make(map[string]resolution)
	for i := range records {
		if err := ctx.Err(); err != nil {
			r.result.Cancelled = true
			return err
		}
		key := pathKey(records[i].CategoryPath)
		if key == "" {
			continue
		}
		if _, seen := resolved[key]; seen {
			continue
		}
		id, ok := r.resolver.Resolve(ctx, records[i].CategoryPath, r.cache)
		resolved[key] = resolution{id: id, ok: ok}
	}
	resolve := func(path []string) (int64, bool) {
		res := resolved[pathKey(path)]
		return res.id, res.ok
	}

	var g errgroup.Group
	g.SetLimit(im.opts.Concurrency)

	for i := range records {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			o, err := im.process(ctx, r, i, &records[i], resolve)
			if o == outcomeCancelled {
				return nil
			}
			r.record(i, &records[i], o, err)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		r.result.Cancelled = true
		return err
	}
	return nil
}

// process imports one record. The returned error is the product creation
// failure for outcomeFailed and the context error for outcomeCancelled.
func (im *Importer) process(ctx context.Context, r *run, index int, rec *models.ImportRecord, resolve func([]string) (int64, bool)) (outcome, error) {
	logger := r.logger.WithFields(log.Fields{"index": index, "product": rec.Name})

	productID, err := im.api.CreateProduct(ctx, catalog.NewProductRequest(rec, im.opts.ProductType))
	if err != nil {
		if ctx.Err() != nil {
			return outcomeCancelled, ctx.Err()
		}
		logger.WithError(err).Warn("Product creation failed")
		im.emit(Event{Kind: EventProductFailed, RunID: r.result.RunID, Index: index, Name: rec.Name, Err: err})
		return outcomeFailed, err
	}

	if len(rec.CategoryPath) > 0 {
		im.assignCategory(ctx, r, index, rec, productID, resolve)
	}

	for v := range rec.Variants {
		variant := &rec.Variants[v]
		if err := im.api.CreateVariant(ctx, productID, catalog.NewVariantRequest(variant)); err != nil {
			logger.WithError(err).WithField("variant", variant.Name).Warn("Variant creation failed")
			im.emit(Event{
				Kind: EventVariantFailed, RunID: r.result.RunID, Index: index, Name: rec.Name,
				ProductID: productID, Variant: variant.Name, Err: err,
			})
		}
	}

	logger.WithField("product_id", productID).Debug("Imported product")
	im.emit(Event{Kind: EventProductImported, RunID: r.result.RunID, Index: index, Name: rec.Name, ProductID: productID})
	return outcomeImported, nil
}

func (im *Importer) assignCategory(ctx context.Context, r *run, index int, rec *models.ImportRecord, productID int64, resolve func([]string) (int64, bool)) {
	categoryID, ok := resolve(rec.CategoryPath)
	if !ok {
		im.emit(Event{
			Kind: EventCategoryUnresolved, RunID: r.result.RunID, Index: index, Name: rec.Name,
			ProductID: productID,
		})
		return
	}

	if err := im.api.AssignCategories(ctx, productID, []int64{categoryID}); err != nil {
		r.logger.WithError(err).WithFields(log.Fields{
			"product_id":  productID,
			"category_id": categoryID,
		}).Warn("Category assignment failed")
		im.emit(Event{
			Kind: EventCategoryFailed, RunID: r.result.RunID, Index: index, Name: rec.Name,
			ProductID: productID, CategoryID: categoryID, Err: err,
		})
	}
}

// record updates the counters and reports progress
func (r *run) record(index int, rec *models.ImportRecord, o outcome, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch o {
	case outcomeImported:
		r.result.Imported++
	case outcomeFailed:
		r.result.Failed++
		r.result.Failures = append(r.result.Failures, models.RecordFailure{
			Index: index,
			Name:  rec.Name,
			Error: err.Error(),
		})
	}

	if r.progress != nil {
		r.progress(r.result.Imported+r.result.Failed, r.result.Failed)
	}
}

func (im *Importer) emit(e Event) {
	if im.opts.Events == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	im.emitMu.Lock()
	defer im.emitMu.Unlock()
	im.opts.Events.HandleEvent(e)
}

// pathKey normalizes a category path for deduplication
func pathKey(path []string) string {
	parts := make([]string, 0, len(path))
	for _, p := range path {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\x1f")
}
