// Package consumption turns the yearly fuel consumption workbooks into
// annual and monthly consumption rows.
package consumption

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/jifmar/fleetwatch/internal/sheet"
	"github.com/jifmar/fleetwatch/pkg/models"
)

// FilePattern is the glob of the yearly workbooks
const FilePattern = "Consomation_*.xlsx"

var yearRe = regexp.MustCompile(`^Consomation_(\d{4})\.xlsx$`)

// ErrNoYear is returned for a workbook whose name does not carry a year
var ErrNoYear = errors.New("no year in workbook name")

// Workbook is the normalized content of one yearly workbook
type Workbook struct {
	Year    int
	Annual  []models.AnnualConsumption
	Monthly []models.MonthlyConsumption
}

// YearFromName extracts the year of Consomation_<year>.xlsx
func YearFromName(path string) (int, error) {
	m := yearRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, fmt.Errorf("%s: %w", filepath.Base(path), ErrNoYear)
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", filepath.Base(path), ErrNoYear)
	}
	return year, nil
}

// ParseWorkbook reads a workbook grid with the given layout. Every ship of the
// ship row yields exactly one annual record; cells that do not hold a number
// read as 0.
func ParseWorkbook(year int, g *sheet.Grid, l sheet.Layout) Workbook {
	wb := Workbook{Year: year}

	ships := g.Ships(l)
	for _, ship := range ships {
		wb.Annual = append(wb.Annual, models.AnnualConsumption{
			Year:     year,
			Ship:     ship.Name,
			TotalM3:  g.DecimalOrZero(l.TotalRow, ship.Column),
			LPerMile: g.DecimalOrZero(l.SpecificRow, ship.Column),
		})
	}

	for _, month := range g.MonthRows(l) {
		for _, ship := range ships {
			wb.Monthly = append(wb.Monthly, models.MonthlyConsumption{
				Year:    year,
				Month:   month.Label,
				Ship:    ship.Name,
				TotalM3: g.DecimalOrZero(month.Row, ship.Column),
			})
		}
	}

	return wb
}
