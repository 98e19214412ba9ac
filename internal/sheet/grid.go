package sheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Layout is the positional contract of a consumption workbook. Indexes are
// 0-based: row 1 is the second spreadsheet row.
type Layout struct {
	ShipRow      int `yaml:"ship_row"`       // Row holding ship names
	FirstShipCol int `yaml:"first_ship_col"` // Column of the first ship
	TotalRow     int `yaml:"total_row"`      // Annual total volume (m³)
	SpecificRow  int `yaml:"specific_row"`   // Annual specific volume (L/mile)
	MonthCol     int `yaml:"month_col"`      // Column holding month labels
}

// DefaultLayout matches the Consomation_<year>.xlsx workbooks
func DefaultLayout() Layout {
	return Layout{
		ShipRow:      1,
		FirstShipCol: 1,
		TotalRow:     18,
		SpecificRow:  22,
		MonthCol:     0,
	}
}

// Ship is a ship name found in the ship row, with the column its values live in
type Ship struct {
	Name   string
	Column int
}

// MonthRow is a row whose label cell names a month
type MonthRow struct {
	Row   int
	Label string // Stored form, e.g. "Janvier"
	Month int    // 1-12
}

// Grid is the untyped content of a worksheet, row-major. Rows may have
// different lengths; missing cells read as empty.
type Grid struct {
	Sheet string
	rows  [][]string
}

// NewGrid wraps already-read rows
func NewGrid(sheet string, rows [][]string) *Grid {
	return &Grid{Sheet: sheet, rows: rows}
}

// OpenWorkbook reads the first worksheet of an .xlsx file. Cells are read as
// raw values so number formats (thousands grouping, rounding) do not leak
// into the parsed decimals.
func OpenWorkbook(path string) (*Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	return NewGrid(sheets[0], rows), nil
}

// Cell returns the text of a cell, or "" when it is outside the grid
func (g *Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g.rows) || col < 0 || col >= len(g.rows[row]) {
		return ""
	}
	return g.rows[row][col]
}

// Decimal reads a cell as a decimal number. ok is false when the cell is
// missing or does not hold a finite number.
func (g *Grid) Decimal(row, col int) (float64, bool) {
	return ParseDecimal(g.Cell(row, col))
}

// DecimalOrZero reads a cell as a decimal number, 0 when it does not hold one
func (g *Grid) DecimalOrZero(row, col int) float64 {
	return ParseDecimalOrDefault(g.Cell(row, col), 0)
}

// Ships returns the non-empty cells of the ship row, left to right
func (g *Grid) Ships(l Layout) []Ship {
	if l.ShipRow < 0 || l.ShipRow >= len(g.rows) {
		return nil
	}

	var ships []Ship
	for col := l.FirstShipCol; col < len(g.rows[l.ShipRow]); col++ {
		name := strings.TrimSpace(g.rows[l.ShipRow][col])
		if name == "" {
			continue
		}
		ships = append(ships, Ship{Name: name, Column: col})
	}
	return ships
}

// MonthRows returns every row whose label cell is a month name, top to bottom
func (g *Grid) MonthRows(l Layout) []MonthRow {
	var months []MonthRow
	for row := range g.rows {
		label := g.Cell(row, l.MonthCol)
		n := MonthNumber(label)
		if n == 0 {
			continue
		}
		months = append(months, MonthRow{Row: row, Label: MonthLabel(label), Month: n})
	}
	return months
}
