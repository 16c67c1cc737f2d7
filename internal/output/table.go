package output

import (
	"strconv"
	"strings"

	"github.com/badno/catimport/pkg/models"
)

// TableHeaders are the flat columns used by the CSV and XLSX writers. Names
// are chosen so the generic mapper picks every column back up.
var TableHeaders = []string{
	"Name",
	"Description",
	"Price",
	"Compare Price",
	"Image URL",
	"Stock",
	"Category",
	"Tags",
	"Status",
	"SEO Title",
	"SEO Description",
}

// TableRow flattens a record into TableHeaders order. Variants have no flat
// representation and are left out.
func TableRow(rec *models.ImportRecord) []string {
	compare := ""
	if rec.ComparePrice != nil {
		compare = FormatPrice(*rec.ComparePrice)
	}

	return []string{
		rec.Name,
		rec.Description,
		FormatPrice(rec.Price),
		compare,
		rec.ImageURL,
		strconv.Itoa(rec.StockCount),
		strings.Join(rec.CategoryPath, " > "),
		rec.Tags,
		string(rec.Status),
		rec.SEOTitle,
		rec.SEODescription,
	}
}

// FormatPrice renders a price without trailing zeros
func FormatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
