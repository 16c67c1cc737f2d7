package mapper

import (
	"math"
	"strconv"
	"strings"
)

// columns resolves header names to row positions
type columns struct {
	index map[string]int
	lower []string
}

func newColumns(headers []string) *columns {
	c := &columns{
		index: make(map[string]int, len(headers)),
		lower: make([]string, len(headers)),
	}
	for i, h := range headers {
		name := strings.ToLower(strings.TrimSpace(h))
		c.lower[i] = name
		if _, exists := c.index[name]; !exists {
			c.index[name] = i
		}
	}
	return c
}

// find returns the position of the column whose name equals name, ignoring case
func (c *columns) find(name string) int {
	if i, ok := c.index[strings.ToLower(name)]; ok {
		return i
	}
	return -1
}

// sniff returns the first column containing one of the candidates. Candidates
// are tried in order, so earlier ones take precedence over header position.
func (c *columns) sniff(candidates ...string) int {
	for _, candidate := range candidates {
		for i, name := range c.lower {
			if strings.Contains(name, candidate) {
				return i
			}
		}
	}
	return -1
}

// get returns the trimmed cell value for the named column
func (c *columns) get(row []string, name string) string {
	return cell(row, c.find(name))
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

var priceCleaner = strings.NewReplacer(
	"$", "", "€", "", "£", "", "¥", "", "kr", "", " ", "", "\u00a0", "",
)

// parsePrice reads a decimal amount, tolerating currency symbols
func parsePrice(s string) (float64, bool) {
	s = priceCleaner.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseStock reads an inventory quantity; missing, invalid and negative
// values count as zero
func parseStock(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		n = int(f)
	}
	if n < 0 {
		return 0
	}
	return n
}

// splitPath turns "A > B > C" into its trimmed, non-empty segments
func splitPath(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var path []string
	for _, seg := range strings.Split(s, " > ") {
		if seg = strings.TrimSpace(seg); seg != "" {
			path = append(path, seg)
		}
	}
	return path
}

func floatPtr(v float64) *float64 {
	return &v
}
