// Package catalogtest provides an in-memory catalog for exercising import
// runs without a real catalog service. It can be used directly as a
// catalog.API or served over HTTP for client tests.
package catalogtest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/badno/catimport/internal/catalog"
	"github.com/badno/catimport/pkg/models"
)

// Product is a product stored by the fake catalog
type Product struct {
	ID          int64
	Request     catalog.CreateProductRequest
	CategoryIDs []int64
	Variants    []catalog.CreateVariantRequest
}

// Catalog is an in-memory catalog-write API
type Catalog struct {
	mu sync.Mutex

	nextID     int64
	categories []models.Category
	products   map[int64]*Product
	order      []int64

	categoryCreates map[string]int // keyed by lowercased name
	productCreates  int
	snapshotCalls   int

	// Failure hooks; a hook returning true makes the call fail.
	// FailProduct receives the 1-based sequence number of the create call.
	FailProduct  func(n int, req catalog.CreateProductRequest) bool
	FailCategory func(req catalog.CreateCategoryRequest) bool
	FailAssign   func(productID int64) bool
	FailVariant  func(productID int64, req catalog.CreateVariantRequest) bool
	FailList     bool
}

var _ catalog.API = (*Catalog)(nil)

// New creates an empty fake catalog
func New() *Catalog {
	return &Catalog{
		products:        make(map[int64]*Product),
		categoryCreates: make(map[string]int),
	}
}

// Seed adds an existing category and returns its id
func (c *Catalog) Seed(name, slug string, parentID *int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	c.categories = append(c.categories, models.Category{
		ID: c.nextID, Name: name, Slug: slug, ParentID: parentID,
	})
	return c.nextID
}

func (c *Catalog) ListCategories(ctx context.Context) ([]models.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshotCalls++
	if c.FailList {
		return nil, apiError("list categories", http.StatusServiceUnavailable, "catalog unavailable")
	}

	out := make([]models.Category, len(c.categories))
	copy(out, c.categories)
	return out, nil
}

func (c *Catalog) CreateCategory(ctx context.Context, req catalog.CreateCategoryRequest) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.categoryCreates[strings.ToLower(req.Name)]++

	if c.FailCategory != nil && c.FailCategory(req) {
		return 0, apiError("create category", http.StatusInternalServerError, "category rejected")
	}
	for _, existing := range c.categories {
		if existing.Slug == req.Slug {
			return 0, apiError("create category", http.StatusConflict, fmt.Sprintf("slug %q already exists", req.Slug))
		}
	}

	c.nextID++
	c.categories = append(c.categories, models.Category{
		ID: c.nextID, Name: req.Name, Slug: req.Slug, ParentID: req.ParentID,
	})
	return c.nextID, nil
}

func (c *Catalog) CreateProduct(ctx context.Context, req catalog.CreateProductRequest) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.productCreates++
	if c.FailProduct != nil && c.FailProduct(c.productCreates, req) {
		return 0, apiError("create product", http.StatusUnprocessableEntity, "product rejected")
	}

	c.nextID++
	c.products[c.nextID] = &Product{ID: c.nextID, Request: req}
	c.order = append(c.order, c.nextID)
	return c.nextID, nil
}

func (c *Catalog) AssignCategories(ctx context.Context, productID int64, categoryIDs []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[productID]
	if !ok {
		return apiError("assign categories", http.StatusNotFound, "product not found")
	}
	if c.FailAssign != nil && c.FailAssign(productID) {
		return apiError("assign categories", http.StatusInternalServerError, "assignment rejected")
	}
	p.CategoryIDs = append([]int64(nil), categoryIDs...)
	return nil
}

func (c *Catalog) CreateVariant(ctx context.Context, productID int64, req catalog.CreateVariantRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[productID]
	if !ok {
		return apiError("create variant", http.StatusNotFound, "product not found")
	}
	if c.FailVariant != nil && c.FailVariant(productID, req) {
		return apiError("create variant", http.StatusUnprocessableEntity, "variant rejected")
	}
	p.Variants = append(p.Variants, req)
	return nil
}

// CategoryCreates returns how many create calls were made for a category name
func (c *Catalog) CategoryCreates(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.categoryCreates[strings.ToLower(name)]
}

// ProductCreates returns how many product create calls were made
func (c *Catalog) ProductCreates() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.productCreates
}

// SnapshotCalls returns how many times categories were listed
func (c *Catalog) SnapshotCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotCalls
}

// Categories returns every stored category
func (c *Catalog) Categories() []models.Category {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// CategoryBySlug looks up a stored category
func (c *Catalog) CategoryBySlug(slug string) (models.Category, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cat := range c.categories {
		if cat.Slug == slug {
			return cat, true
		}
	}
	return models.Category{}, false
}

// Products returns the created products in creation order
func (c *Catalog) Products() []Product {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Product, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.products[id])
	}
	return out
}

func apiError(op string, status int, body string) error {
	return &catalog.APIError{Operation: op, StatusCode: status, Body: body}
}
