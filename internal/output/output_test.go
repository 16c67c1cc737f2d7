package output

import (
	"testing"

	"github.com/badno/catimport/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestTableRow(t *testing.T) {
	compare := 120.0
	rec := &models.ImportRecord{
		Name:         "Ring",
		Price:        99.9,
		ComparePrice: &compare,
		StockCount:   3,
		CategoryPath: []string{"Jewellery", "Rings"},
		Status:       models.StatusDraft,
	}

	row := TableRow(rec)
	assert.Len(t, row, len(TableHeaders))
	assert.Equal(t, "99.9", row[2])
	assert.Equal(t, "120", row[3])
	assert.Equal(t, "3", row[5])
	assert.Equal(t, "Jewellery > Rings", row[6])
	assert.Equal(t, "draft", row[8])

	rec.ComparePrice = nil
	assert.Equal(t, "", TableRow(rec)[3])
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, ok := ParseFormat(string(f))
		assert.True(t, ok)
		assert.Equal(t, f, got)
	}
	_, ok := ParseFormat("matrixify")
	assert.False(t, ok)
	assert.Equal(t, ".jsonl", FormatJSONL.Extension())
}

func TestBaseAdapter(t *testing.T) {
	b := NewBaseAdapter("csv", []Format{FormatCSV})
	assert.Equal(t, "csv", b.Name())
	assert.True(t, b.SupportsFormat(FormatCSV))
	assert.False(t, b.SupportsFormat(FormatJSON))

	assert.False(t, b.IsConnected())
	b.SetConnected(true)
	assert.True(t, b.IsConnected())
}

func TestCountVariants(t *testing.T) {
	recs := []models.ImportRecord{
		{Variants: make([]models.Variant, 2)},
		{},
		{Variants: make([]models.Variant, 3)},
	}
	assert.Equal(t, 5, CountVariants(recs))
}
