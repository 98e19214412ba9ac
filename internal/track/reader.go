// Package track reads GPS track files and turns them into sampled distance
// records.
package track

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/jifmar/fleetwatch/internal/sheet"
	"golang.org/x/text/encoding/charmap"
)

// Required columns of a track file
const (
	ColDate      = "Date"
	ColLatitude  = "Latitude"
	ColLongitude = "Longitude"
)

// ErrMissingColumn is returned when a track file lacks a required column
var ErrMissingColumn = errors.New("missing column")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Slash dates are day-first, as written by the onboard loggers
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006/01/02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// Fix is one valid GPS position
type Fix struct {
	Time time.Time
	Lat  float64
	Lon  float64
}

// File is the content of one track file
type File struct {
	Fixes          []Fix
	Rows           int
	BadTimestamps  int
	BadCoordinates int
}

// Dropped returns the number of rows that were discarded
func (f File) Dropped() int {
	return f.BadTimestamps + f.BadCoordinates
}

// ParseTimestamp reads a track timestamp. Offsets are dropped and the wall
// clock time is kept, so every stored timestamp is a naive local time.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), true
	}
	return time.Time{}, false
}

// ReadFile reads a semicolon-delimited track file
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("reading track file: %w", err)
	}
	return Parse(data)
}

// Parse reads the content of a track file. Header names are trimmed and
// extra columns are ignored. Content that is not valid UTF-8 is decoded as
// Windows-1252. Rows without a usable timestamp or coordinate are dropped.
func Parse(data []byte) (File, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return File{}, fmt.Errorf("decoding track file: %w", err)
		}
		data = decoded
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = ';'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return File{}, fmt.Errorf("parsing track file: %w", err)
	}
	if len(rows) == 0 {
		return File{}, fmt.Errorf("%w: %s", ErrMissingColumn, ColDate)
	}

	// Short rows are padded so a missing trailing value drops only that row
	width := len(rows[0])
	for i, row := range rows {
		if len(row) < width {
			rows[i] = append(row, make([]string, width-len(row))...)
		} else if len(row) > width {
			rows[i] = row[:width]
		}
	}

	required := []string{ColDate, ColLatitude, ColLongitude}
	header := make([]string, width)
	for i, name := range rows[0] {
		header[i] = strings.TrimSpace(name)
	}
	// Only the first column of each required name is read
	cols := make([]int, len(required))
	for i, want := range required {
		cols[i] = indexOf(header, want)
		if cols[i] < 0 {
			return File{}, fmt.Errorf("%w: %s", ErrMissingColumn, want)
		}
	}
	if len(rows) == 1 {
		return File{}, nil
	}

	selected := make([][]string, len(rows))
	for i, row := range rows {
		rec := make([]string, len(cols))
		for j, c := range cols {
			rec[j] = row[c]
		}
		selected[i] = rec
	}

	df := dataframe.LoadRecords(selected,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.Names(required...),
	)
	if df.Err != nil {
		return File{}, fmt.Errorf("loading track rows: %w", df.Err)
	}

	var records [3][]string
	for i, want := range required {
		col := df.Col(want)
		if col.Err != nil {
			return File{}, fmt.Errorf("%w: %s", ErrMissingColumn, want)
		}
		records[i] = col.Records()
	}

	f := File{Rows: df.Nrow()}
	for i := 0; i < df.Nrow(); i++ {
		ts, ok := ParseTimestamp(records[0][i])
		if !ok {
			f.BadTimestamps++
			continue
		}
		lat, okLat := sheet.ParseDecimal(records[1][i])
		lon, okLon := sheet.ParseDecimal(records[2][i])
		if !okLat || !okLon {
			f.BadCoordinates++
			continue
		}
		f.Fixes = append(f.Fixes, Fix{Time: ts, Lat: lat, Lon: lon})
	}

	return f, nil
}

func indexOf(names []string, want string) int {
	for i, n := range names {
		if n == want {
			return i
		}
	}
	return -1
}
