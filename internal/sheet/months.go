package sheet

import "strings"

// Months lists the month labels found in the first column of a consumption
// workbook, in calendar order.
var Months = []string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

var monthIndex = func() map[string]int {
	m := make(map[string]int, len(Months))
	for i, name := range Months {
		m[name] = i + 1
	}
	return m
}()

// MonthNumber returns the calendar number (1-12) of a month label, matched
// case-insensitively after trimming. It returns 0 for anything else.
func MonthNumber(label string) int {
	return monthIndex[strings.ToLower(strings.TrimSpace(label))]
}

// MonthLabel returns the stored form of a month label: lower-cased, then the
// first letter upper-cased ("FÉVRIER " -> "Février").
func MonthLabel(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
