package sheet

import (
	"math"
	"strconv"
	"strings"
)

// ParseDecimal parses a spreadsheet cell as a decimal number.
//
// Surrounding whitespace is trimmed, inner spaces (including non-breaking
// spaces used as French thousands separators) are removed and a comma decimal
// separator is read as a period. Empty cells, text, spreadsheet error literals
// such as "#DIV/0!" and non-finite results (NaN, ±Inf) report ok=false.
func ParseDecimal(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		case ',':
			return '.'
		}
		return r
	}, s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseDecimalOrDefault parses cell with ParseDecimal and returns def whenever
// the cell does not hold a finite number. It never fails.
func ParseDecimalOrDefault(cell string, def float64) float64 {
	if v, ok := ParseDecimal(cell); ok {
		return v
	}
	return def
}
