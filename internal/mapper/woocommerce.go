package mapper

import (
	"strings"

	"github.com/badno/catimport/internal/parser"
	"github.com/badno/catimport/pkg/models"
)

// WooCommerceMapper maps WooCommerce product exports (one row per product).
// Variation rows belong to variable products and are not reconstructed.
type WooCommerceMapper struct{}

func (WooCommerceMapper) Platform() models.Platform {
	return models.PlatformWooCommerce
}

func (WooCommerceMapper) Map(headers []string, rows [][]string) []models.ImportRecord {
	cols := newColumns(headers)

	var records []models.ImportRecord
	for _, row := range rows {
		if strings.EqualFold(cols.get(row, "Type"), "variation") {
			continue
		}

		name := cols.get(row, "Name")
		if name == "" {
			continue
		}

		regular, hasRegular := parsePrice(cols.get(row, "Regular Price"))
		sale, hasSale := parsePrice(cols.get(row, "Sale Price"))

		var rec models.ImportRecord
		switch {
		case hasSale && sale > 0:
			rec.Price = sale
			if hasRegular {
				rec.ComparePrice = floatPtr(regular)
			}
		case hasRegular:
			rec.Price = regular
		default:
			continue
		}

		description := cols.get(row, "Description")
		if description == "" {
			description = cols.get(row, "Short Description")
		}

		rec.Name = name
		rec.Description = parser.StripHTML(description)
		rec.ImageURL = firstOf(cols.get(row, "Images"), ",")
		rec.StockCount = parseStock(cols.get(row, "Stock"))
		rec.CategoryPath = splitPath(firstOf(cols.get(row, "Categories"), "|"))
		rec.Tags = strings.ReplaceAll(cols.get(row, "Tags"), "|", ",")
		rec.Status = models.StatusDraft
		if cols.get(row, "Published") == "1" {
			rec.Status = models.StatusActive
		}

		records = append(records, rec)
	}
	return records
}

// firstOf returns the first trimmed entry of a separated list
func firstOf(s, sep string) string {
	if i := strings.Index(s, sep); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
