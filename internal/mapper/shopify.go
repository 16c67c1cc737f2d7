package mapper

import (
	"fmt"
	"strings"

	"github.com/badno/catimport/internal/parser"
	"github.com/badno/catimport/pkg/models"
)

// Shopify exports allow up to three option columns per variant row
const shopifyOptionSlots = 3

// ShopifyMapper maps Shopify product exports, where every variant is its own
// row and rows of one product share a Handle
type ShopifyMapper struct{}

func (ShopifyMapper) Platform() models.Platform {
	return models.PlatformShopify
}

func (m ShopifyMapper) Map(headers []string, rows [][]string) []models.ImportRecord {
	cols := newColumns(headers)
	handleIdx := cols.find("Handle")

	// Group variant rows by handle, keeping first-seen order
	var handles []string
	groups := make(map[string][][]string)
	for _, row := range rows {
		handle := cell(row, handleIdx)
		if handle == "" {
			continue
		}
		if _, seen := groups[handle]; !seen {
			handles = append(handles, handle)
		}
		groups[handle] = append(groups[handle], row)
	}

	records := make([]models.ImportRecord, 0, len(handles))
	for _, handle := range handles {
		if rec, ok := m.mapGroup(cols, groups[handle]); ok {
			records = append(records, rec)
		}
	}
	return records
}

func (m ShopifyMapper) mapGroup(cols *columns, group [][]string) (models.ImportRecord, bool) {
	first := group[0]

	title := cols.get(first, "Title")
	if title == "" {
		return models.ImportRecord{}, false
	}

	var variants []models.Variant
	stock := 0
	for _, row := range group {
		price, ok := parsePrice(cols.get(row, "Variant Price"))
		if !ok {
			continue
		}

		opts, values := shopifyOptions(cols, first, row)
		name := strings.Join(values, " / ")
		if name == "" {
			name = title
		}

		qty := parseStock(cols.get(row, "Variant Inventory Qty"))
		stock += qty

		variants = append(variants, models.Variant{
			Name:       name,
			Options:    opts,
			Price:      price,
			StockCount: qty,
			SKU:        cols.get(row, "Variant SKU"),
		})
	}
	if len(variants) == 0 {
		return models.ImportRecord{}, false
	}

	rec := models.ImportRecord{
		Name:           title,
		Description:    parser.StripHTML(cols.get(first, "Body (HTML)")),
		Price:          variants[0].Price,
		ImageURL:       cols.get(first, "Image Src"),
		StockCount:     stock,
		Tags:           cols.get(first, "Tags"),
		Status:         shopifyStatus(cols.get(first, "Status")),
		SEOTitle:       cols.get(first, "SEO Title"),
		SEODescription: cols.get(first, "SEO Description"),
	}

	if compare, ok := parsePrice(cols.get(first, "Variant Compare At Price")); ok {
		rec.ComparePrice = floatPtr(compare)
	}

	category := cols.get(first, "Product Category")
	if category == "" {
		category = cols.get(first, "Type")
	}
	if category != "" {
		rec.CategoryPath = []string{category}
	}

	if len(variants) > 1 {
		rec.Variants = variants
	}

	return rec, true
}

// shopifyOptions collects the named options of a variant row. Shopify only
// writes option names on a product's first row, and writes "Title" as the
// option name of products that have no real options.
func shopifyOptions(cols *columns, first, row []string) (models.Options, []string) {
	opts := models.Options{}
	var values []string
	for n := 1; n <= shopifyOptionSlots; n++ {
		nameCol := fmt.Sprintf("Option%d Name", n)
		name := cols.get(row, nameCol)
		if name == "" {
			name = cols.get(first, nameCol)
		}
		value := cols.get(row, fmt.Sprintf("Option%d Value", n))
		if name == "" || value == "" || name == "Title" {
			continue
		}
		opts[name] = value
		values = append(values, value)
	}
	return opts, values
}

func shopifyStatus(s string) models.Status {
	if strings.EqualFold(s, "draft") {
		return models.StatusDraft
	}
	return models.StatusActive
}
