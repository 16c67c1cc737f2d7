package mapper

import (
	"github.com/badno/catimport/internal/parser"
	"github.com/badno/catimport/pkg/models"
)

// Header fragments tried in order when sniffing columns of unknown exports
var (
	nameCandidates        = []string{"name", "title", "product name", "product title"}
	priceCandidates       = []string{"price", "regular price", "sale price", "cost"}
	descriptionCandidates = []string{"description", "body", "details", "summary"}
	imageCandidates       = []string{"image", "img", "photo", "picture"}
	stockCandidates       = []string{"stock", "quantity", "qty", "inventory"}
	categoryCandidates    = []string{"category", "categories", "collection", "type"}
	tagCandidates         = []string{"tags", "tag", "keywords"}
)

// GenericMapper maps exports from unrecognized sources by sniffing column names
type GenericMapper struct{}

func (GenericMapper) Platform() models.Platform {
	return models.PlatformGeneric
}

func (GenericMapper) Map(headers []string, rows [][]string) []models.ImportRecord {
	cols := newColumns(headers)

	nameIdx := cols.sniff(nameCandidates...)
	priceIdx := cols.sniff(priceCandidates...)
	if nameIdx < 0 || priceIdx < 0 {
		return nil
	}

	descIdx := cols.sniff(descriptionCandidates...)
	imageIdx := cols.sniff(imageCandidates...)
	stockIdx := cols.sniff(stockCandidates...)
	categoryIdx := cols.sniff(categoryCandidates...)
	tagsIdx := cols.sniff(tagCandidates...)

	var records []models.ImportRecord
	for _, row := range rows {
		name := cell(row, nameIdx)
		if name == "" {
			continue
		}
		price, ok := parsePrice(cell(row, priceIdx))
		if !ok {
			continue
		}

		records = append(records, models.ImportRecord{
			Name:         name,
			Description:  parser.StripHTML(cell(row, descIdx)),
			Price:        price,
			ImageURL:     cell(row, imageIdx),
			StockCount:   parseStock(cell(row, stockIdx)),
			CategoryPath: splitPath(cell(row, categoryIdx)),
			Tags:         cell(row, tagsIdx),
			Status:       models.StatusActive,
		})
	}
	return records
}
