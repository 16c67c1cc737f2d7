package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/badno/catimport/internal/catalog"
	"github.com/badno/catimport/internal/catalog/catalogtest"
	"github.com/badno/catimport/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(n int, path ...string) []models.ImportRecord {
	out := make([]models.ImportRecord, n)
	for i := range out {
		out[i] = models.ImportRecord{
			Name:         fmt.Sprintf("Product %d", i+1),
			Price:        float64(10 * (i + 1)),
			StockCount:   i,
			CategoryPath: path,
			Status:       models.StatusActive,
		}
	}
	return out
}

type progressLog struct {
	mu    sync.Mutex
	calls [][2]int
}

func (p *progressLog) record(done, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, [2]int{done, failed})
}

func TestImportPartialFailure(t *testing.T) {
	fake := catalogtest.New()
	fake.FailProduct = func(n int, _ catalog.CreateProductRequest) bool { return n == 3 }

	progress := &progressLog{}
	im := NewImporter(fake, Options{})
	result, err := im.Import(context.Background(), records(5), progress.record)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Imported)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 5, result.Total)
	assert.False(t, result.Cancelled)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 2, result.Failures[0].Index)
	assert.Equal(t, "Product 3", result.Failures[0].Name)

	assert.Equal(t, [][2]int{{1, 0}, {2, 0}, {3, 1}, {4, 1}, {5, 1}}, progress.calls)
	assert.Equal(t, 5, fake.ProductCreates())
}

func TestImportSendsProductPayload(t *testing.T) {
	fake := catalogtest.New()
	compare := 149.0
	recs := []models.ImportRecord{{
		Name:           "Silver Ring",
		Description:    "Sterling",
		Price:          99.5,
		ComparePrice:   &compare,
		ImageURL:       "https://cdn.example.com/ring.jpg",
		StockCount:     4,
		Tags:           "silver, rings",
		Status:         models.StatusDraft,
		SEOTitle:       "Ring",
		SEODescription: "A ring",
	}}

	result, err := NewImporter(fake, Options{}).Import(context.Background(), recs, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	products := fake.Products()
	require.Len(t, products, 1)
	req := products[0].Request
	assert.Equal(t, "Silver Ring", req.Name)
	assert.Equal(t, 99.5, req.Price)
	require.NotNil(t, req.ComparePrice)
	assert.Equal(t, 149.0, *req.ComparePrice)
	assert.Equal(t, "draft", req.Status)
	assert.Equal(t, DefaultProductType, req.ProductType)
	assert.Empty(t, products[0].CategoryIDs)
}

func TestImportSharesCategoriesAcrossRecords(t *testing.T) {
	fake := catalogtest.New()

	result, err := NewImporter(fake, Options{}).Import(context.Background(), records(3, "Jewellery", "Rings"), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)

	assert.Equal(t, 1, fake.SnapshotCalls())
	assert.Equal(t, 1, fake.CategoryCreates("Jewellery"))
	assert.Equal(t, 1, fake.CategoryCreates("Rings"))

	rings, ok := fake.CategoryBySlug("jewellery-rings")
	require.True(t, ok)
	for _, p := range fake.Products() {
		assert.Equal(t, []int64{rings.ID}, p.CategoryIDs)
	}
}

func TestImportReusesExistingCategories(t *testing.T) {
	fake := catalogtest.New()
	rootID := fake.Seed("Jewellery", "jewellery", nil)
	ringsID := fake.Seed("Rings", "jewellery-rings", &rootID)

	_, err := NewImporter(fake, Options{}).Import(context.Background(), records(2, "jewellery", "rings"), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, fake.CategoryCreates("Jewellery"))
	assert.Equal(t, 0, fake.CategoryCreates("Rings"))
	for _, p := range fake.Products() {
		assert.Equal(t, []int64{ringsID}, p.CategoryIDs)
	}
}

func TestImportCreatesVariants(t *testing.T) {
	fake := catalogtest.New()
	recs := records(1)
	recs[0].Variants = []models.Variant{
		{Name: "S", Options: models.Options{"Size": "S"}, Price: 10, StockCount: 1, SKU: "TS-S"},
		{Name: "M", Options: models.Options{"Size": "M"}, Price: 12, StockCount: 2, SKU: "TS-M"},
	}

	_, err := NewImporter(fake, Options{}).Import(context.Background(), recs, nil)
	require.NoError(t, err)

	products := fake.Products()
	require.Len(t, products, 1)
	require.Len(t, products[0].Variants, 2)
	assert.Equal(t, `{"Size":"S"}`, products[0].Variants[0].Options)
	assert.Equal(t, "TS-M", products[0].Variants[1].SKU)
}

func TestImportSwallowsSecondaryFailures(t *testing.T) {
	fake := catalogtest.New()
	fake.FailAssign = func(int64) bool { return true }
	fake.FailVariant = func(_ int64, req catalog.CreateVariantRequest) bool { return req.Name == "S" }

	recs := records(2, "Rings")
	recs[1].Variants = []models.Variant{{Name: "S", Price: 1}, {Name: "M", Price: 2}}

	var kinds []EventKind
	im := NewImporter(fake, Options{Events: EventHandlerFunc(func(e Event) {
		kinds = append(kinds, e.Kind)
	})})
	result, err := im.Import(context.Background(), recs, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, []EventKind{
		EventCategoryFailed, EventProductImported,
		EventCategoryFailed, EventVariantFailed, EventProductImported,
	}, kinds)

	products := fake.Products()
	require.Len(t, products[1].Variants, 1)
	assert.Equal(t, "M", products[1].Variants[0].Name)
}

func TestImportUnresolvedCategoryStillImports(t *testing.T) {
	fake := catalogtest.New()
	fake.FailCategory = func(catalog.CreateCategoryRequest) bool { return true }

	var unresolved int
	im := NewImporter(fake, Options{Events: EventHandlerFunc(func(e Event) {
		if e.Kind == EventCategoryUnresolved {
			unresolved++
		}
	})})
	result, err := im.Import(context.Background(), records(2, "Rings"), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 2, unresolved)
	for _, p := range fake.Products() {
		assert.Empty(t, p.CategoryIDs)
	}
}

func TestImportSnapshotFailure(t *testing.T) {
	fake := catalogtest.New()
	fake.FailList = true

	result, err := NewImporter(fake, Options{}).Import(context.Background(), records(3), nil)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Zero(t, result.Processed())
	assert.Equal(t, 0, fake.ProductCreates())
}

func TestImportCancellation(t *testing.T) {
	fake := catalogtest.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fake.FailProduct = func(n int, _ catalog.CreateProductRequest) bool {
		if n == 2 {
			cancel()
		}
		return false
	}

	result, err := NewImporter(fake, Options{}).Import(ctx, records(5), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, result.Cancelled)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 2, fake.ProductCreates())
}

func TestImportEmptyRecords(t *testing.T) {
	fake := catalogtest.New()
	result, err := NewImporter(fake, Options{}).Import(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.True(t, result.Clean())
}

func TestImportConcurrent(t *testing.T) {
	fake := catalogtest.New()
	fake.FailProduct = func(_ int, req catalog.CreateProductRequest) bool {
		return req.Name == "Product 7"
	}

	recs := records(20, "Home", "Bath")
	recs[3].CategoryPath = []string{"Home", "Kitchen"}

	progress := &progressLog{}
	im := NewImporter(fake, Options{Concurrency: 4})
	result, err := im.Import(context.Background(), recs, progress.record)
	require.NoError(t, err)

	assert.Equal(t, 19, result.Imported)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 6, result.Failures[0].Index)

	assert.Equal(t, 1, fake.CategoryCreates("Home"))
	assert.Equal(t, 1, fake.CategoryCreates("Bath"))
	assert.Equal(t, 1, fake.CategoryCreates("Kitchen"))

	require.Len(t, progress.calls, 20)
	for i := 1; i < len(progress.calls); i++ {
		prev, cur := progress.calls[i-1], progress.calls[i]
		assert.GreaterOrEqual(t, cur[0], prev[0])
		assert.GreaterOrEqual(t, cur[1], prev[1])
	}
	assert.Equal(t, [2]int{20, 1}, progress.calls[19])
}

func TestImportOverHTTP(t *testing.T) {
	srv := catalogtest.NewServer(catalogtest.New())
	defer srv.Close()

	cfg := catalog.DefaultConfig()
	cfg.BaseURL = srv.BaseURL()
	cfg.MaxRetries = 0
	cfg.RequestsPerSecond = 0
	client := catalog.NewClient(cfg)
	defer client.Close()

	recs := records(3, "Jewellery", "Rings")
	recs[0].Variants = []models.Variant{{Name: "Gold", Options: models.Options{"Metal": "Gold"}, Price: 10}}

	result, err := NewImporter(client, Options{}).Import(context.Background(), recs, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)

	assert.Equal(t, 1, srv.Catalog.CategoryCreates("Rings"))
	products := srv.Catalog.Products()
	require.Len(t, products, 3)
	require.Len(t, products[0].Variants, 1)
	assert.Equal(t, `{"Metal":"Gold"}`, products[0].Variants[0].Options)
}

func TestPathKey(t *testing.T) {
	assert.Equal(t, pathKey([]string{"Home", " Bath "}), pathKey([]string{"home", "BATH"}))
	assert.NotEqual(t, pathKey([]string{"Home", "Bath"}), pathKey([]string{"Home"}))
	assert.Equal(t, "", pathKey([]string{" ", ""}))
}
