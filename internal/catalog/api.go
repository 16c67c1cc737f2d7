package catalog

import (
	"context"
	"fmt"

	"github.com/badno/catimport/pkg/models"
)

// API is the catalog-write surface an import run needs
type API interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (int64, error)
	CreateProduct(ctx context.Context, req CreateProductRequest) (int64, error)
	AssignCategories(ctx context.Context, productID int64, categoryIDs []int64) error
	CreateVariant(ctx context.Context, productID int64, req CreateVariantRequest) error
}

// CreateCategoryRequest is the body of a category creation
type CreateCategoryRequest struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID *int64 `json:"parent_id"`
}

// CreateProductRequest is the body of a product creation
type CreateProductRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Price          float64  `json:"price"`
	ComparePrice   *float64 `json:"compare_price"`
	ImageURL       string   `json:"image_url"`
	StockCount     int      `json:"stock_count"`
	Tags           string   `json:"tags"`
	Status         string   `json:"status"`
	SEOTitle       string   `json:"seo_title"`
	SEODescription string   `json:"seo_description"`
	ProductType    string   `json:"product_type"`
}

// CreateVariantRequest is the body of a variant creation. Options carries
// the option map encoded as a JSON object string.
type CreateVariantRequest struct {
	Name       string  `json:"name"`
	Options    string  `json:"options"`
	Price      float64 `json:"price"`
	StockCount int     `json:"stock_count"`
	SKU        string  `json:"sku"`
}

// AssignCategoriesRequest is the body of a product-to-category assignment
type AssignCategoriesRequest struct {
	CategoryIDs []int64 `json:"category_ids"`
}

// NewProductRequest builds the product payload for a normalized record
func NewProductRequest(rec *models.ImportRecord, productType string) CreateProductRequest {
	return CreateProductRequest{
		Name:           rec.Name,
		Description:    rec.Description,
		Price:          rec.Price,
		ComparePrice:   rec.ComparePrice,
		ImageURL:       rec.ImageURL,
		StockCount:     rec.StockCount,
		Tags:           rec.Tags,
		Status:         string(rec.Status),
		SEOTitle:       rec.SEOTitle,
		SEODescription: rec.SEODescription,
		ProductType:    productType,
	}
}

// NewVariantRequest builds the variant payload for a normalized variant
func NewVariantRequest(v *models.Variant) CreateVariantRequest {
	return CreateVariantRequest{
		Name:       v.Name,
		Options:    v.Options.JSON(),
		Price:      v.Price,
		StockCount: v.StockCount,
		SKU:        v.SKU,
	}
}

// APIError is returned for any non-2xx catalog response
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog API error on %s (status %d): %s", e.Operation, e.StatusCode, e.Body)
}
