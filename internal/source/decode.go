package source

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/badno/catimport/internal/parser"
	"github.com/xuri/excelize/v2"
)

// IsSpreadsheet reports whether name looks like an Excel workbook
func IsSpreadsheet(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Decode turns raw export bytes into a row grid. Workbooks are read from
// their first sheet; everything else is treated as CSV text.
func Decode(name string, data []byte) ([][]string, error) {
	if IsSpreadsheet(name) {
		return decodeSpreadsheet(data)
	}
	return parser.Tokenize(string(data)), nil
}

func decodeSpreadsheet(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return parser.DropEmptyRows(rows), nil
}
