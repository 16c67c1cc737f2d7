package parser

import "strings"

const byteOrderMark = "\ufeff"

// Tokenize splits CSV text into rows of fields.
//
// Quoted fields may hold commas, newlines and doubled quotes ("" decodes
// to "). Rows end at \n or \r\n. Rows whose fields are all empty are
// dropped, including a trailing row with no newline.
func Tokenize(text string) [][]string {
	text = strings.TrimPrefix(text, byteOrderMark)

	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)

	endField := func() {
		row = append(row, field.String())
		field.Reset()
	}
	endRow := func() {
		endField()
		if !isEmptyRow(row) {
			rows = append(rows, row)
		}
		row = nil
	}

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if inQuotes {
			if ch == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					field.WriteByte('"')
					i++
					continue
				}
				inQuotes = false
				continue
			}
			field.WriteByte(ch)
			continue
		}

		switch ch {
		case '"':
			inQuotes = true
		case ',':
			endField()
		case '\n':
			endRow()
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
				endRow()
				continue
			}
			field.WriteByte(ch)
		default:
			field.WriteByte(ch)
		}
	}

	if field.Len() > 0 || len(row) > 0 {
		endRow()
	}

	return rows
}

func isEmptyRow(row []string) bool {
	for _, f := range row {
		if f != "" {
			return false
		}
	}
	return true
}

// DropEmptyRows removes blank rows from spreadsheet grids, which pad rows
// with empty or whitespace-only cells. CSV text goes through Tokenize, which
// keeps whitespace-only rows.
func DropEmptyRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		blank := true
		for _, f := range row {
			if strings.TrimSpace(f) != "" {
				blank = false
				break
			}
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out
}
