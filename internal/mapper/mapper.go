package mapper

import (
	"github.com/badno/catimport/internal/parser"
	"github.com/badno/catimport/pkg/models"
)

// Mapper converts the rows of one export format into normalized records.
// Rows without a name or a usable price are left out of the result.
type Mapper interface {
	Platform() models.Platform
	Map(headers []string, rows [][]string) []models.ImportRecord
}

// ForPlatform returns the mapper for an export format. Unknown platforms
// fall back to column sniffing.
func ForPlatform(p models.Platform) Mapper {
	switch p {
	case models.PlatformShopify:
		return ShopifyMapper{}
	case models.PlatformWooCommerce:
		return WooCommerceMapper{}
	default:
		return GenericMapper{}
	}
}

// MapDocument maps a parsed export with the mapper for its detected platform
func MapDocument(doc *parser.Document) []models.ImportRecord {
	return ForPlatform(doc.Platform).Map(doc.Headers, doc.Rows)
}

// Candidates returns how many records the document could yield: one per
// distinct handle for Shopify, one per data row otherwise
func Candidates(doc *parser.Document) int {
	if doc.Platform != models.PlatformShopify {
		return len(doc.Rows)
	}

	handleIdx := newColumns(doc.Headers).find("Handle")
	seen := make(map[string]struct{})
	for _, row := range doc.Rows {
		if handle := cell(row, handleIdx); handle != "" {
			seen[handle] = struct{}{}
		}
	}
	return len(seen)
}
