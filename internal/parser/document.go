package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/badno/catimport/pkg/models"
)

// ErrTooFewRows is returned when an export has no data row under its header
var ErrTooFewRows = errors.New("file must contain a header row and at least one data row")

// Document is a parsed export: the header row, the data rows and the
// platform the headers were recognized as
type Document struct {
	Headers  []string
	Rows     [][]string
	Platform models.Platform
}

// Parse tokenizes CSV text and classifies it
func Parse(text string) (*Document, error) {
	return FromRows(Tokenize(text))
}

// FromRows builds a Document from already decoded rows. Only rows whose
// fields are all empty are dropped; whitespace counts as content.
func FromRows(rows [][]string) (*Document, error) {
	kept := make([][]string, 0, len(rows))
	for _, row := range rows {
		if !isEmptyRow(row) {
			kept = append(kept, row)
		}
	}
	rows = kept
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w (got %d)", ErrTooFewRows, len(rows))
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], byteOrderMark)
	}

	return &Document{
		Headers:  headers,
		Rows:     rows[1:],
		Platform: DetectPlatform(headers),
	}, nil
}
