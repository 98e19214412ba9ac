// Package dashboard derives chart series from the stored tables and serves
// them as JSON and standalone HTML charts.
package dashboard

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/jifmar/fleetwatch/internal/geo"
	"github.com/jifmar/fleetwatch/internal/sheet"
	"github.com/jifmar/fleetwatch/pkg/models"
)

// Metric selects the annual consumption value to plot
type Metric string

const (
	MetricTotal    Metric = "total"    // m³
	MetricSpecific Metric = "specific" // L/mile
)

// ParseMetric reads a metric name, "" meaning total
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "", MetricTotal:
		return MetricTotal, nil
	case MetricSpecific:
		return MetricSpecific, nil
	default:
		return "", fmt.Errorf("unknown metric %q (want total or specific)", s)
	}
}

// Title returns the chart title of the metric
func (m Metric) Title() string {
	if m == MetricSpecific {
		return "Consommation spécifique (L/mille)"
	}
	return "Consommation annuelle totale (m³)"
}

// Unit returns the axis label of the metric
func (m Metric) Unit() string {
	if m == MetricSpecific {
		return "L/mille"
	}
	return "m³"
}

// AnnualFilter selects annual rows. Empty Ships matches every ship; a zero
// bound is open.
type AnnualFilter struct {
	Ships    []string
	FromYear int
	ToYear   int
}

func (f AnnualFilter) match(ship string, year int) bool {
	return inSet(f.Ships, ship) && inRange(year, f.FromYear, f.ToYear)
}

// MonthlyFilter selects the monthly rows of one year. Year 0 matches every year.
type MonthlyFilter struct {
	Ships []string
	Year  int
}

// DistanceFilter selects distance samples by vessel and year
type DistanceFilter struct {
	Vessels  []string
	FromYear int
	ToYear   int
}

func (f DistanceFilter) match(s models.DistanceSample) bool {
	return inSet(f.Vessels, s.Vessel) && inRange(s.Timestamp.Year(), f.FromYear, f.ToYear)
}

// Series is one named trace of a chart
type Series struct {
	Name string    `json:"name"`
	X    []string  `json:"x"`
	Y    []float64 `json:"y"`
}

// FilterAnnual returns the matching annual rows ordered by year then ship
func FilterAnnual(rows []models.AnnualConsumption, f AnnualFilter) []models.AnnualConsumption {
	out := make([]models.AnnualConsumption, 0, len(rows))
	for _, r := range rows {
		if f.match(r.Ship, r.Year) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Ship < out[j].Ship
	})
	return out
}

// AnnualSeries returns one series per ship with the chosen metric by year
func AnnualSeries(rows []models.AnnualConsumption, f AnnualFilter, metric Metric) []Series {
	g := newGrouper()
	for _, r := range FilterAnnual(rows, f) {
		v := r.TotalM3
		if metric == MetricSpecific {
			v = r.LPerMile
		}
		g.add(r.Ship, strconv.Itoa(r.Year), v)
	}
	return g.sorted()
}

// FilterMonthly returns the matching monthly rows in calendar order
func FilterMonthly(rows []models.MonthlyConsumption, f MonthlyFilter) []models.MonthlyConsumption {
	out := make([]models.MonthlyConsumption, 0, len(rows))
	for _, r := range rows {
		if inSet(f.Ships, r.Ship) && (f.Year == 0 || r.Year == f.Year) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return sheet.MonthNumber(out[i].Month) < sheet.MonthNumber(out[j].Month)
	})
	return out
}

// MonthlySeries returns one series per ship with the monthly volume in
// calendar order
func MonthlySeries(rows []models.MonthlyConsumption, f MonthlyFilter) []Series {
	g := newGrouper()
	for _, r := range FilterMonthly(rows, f) {
		g.add(r.Ship, r.Month, r.TotalM3)
	}
	return g.sorted()
}

// LatestYear returns the most recent year of the monthly rows, 0 when empty
func LatestYear(rows []models.MonthlyConsumption) int {
	year := 0
	for _, r := range rows {
		if r.Year > year {
			year = r.Year
		}
	}
	return year
}

// FilterSamples returns the matching samples in timestamp order
func FilterSamples(samples []models.DistanceSample, f DistanceFilter) []models.DistanceSample {
	out := make([]models.DistanceSample, 0, len(samples))
	for _, s := range samples {
		if f.match(s) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// Cumulative returns the running total of distance per vessel. samples must
// be in timestamp order.
func Cumulative(samples []models.DistanceSample) []Series {
	totals := make(map[string]float64)
	g := newGrouper()
	for _, s := range samples {
		totals[s.Vessel] += s.Distance
		g.add(s.Vessel, s.Timestamp.Format(models.TimestampLayout), totals[s.Vessel])
	}
	return g.sorted()
}

// Daily returns the distance summed per calendar day and vessel
func Daily(samples []models.DistanceSample) []Series {
	type key struct{ vessel, day string }
	sums := make(map[key]float64)
	var order []key
	for _, s := range samples {
		k := key{s.Vessel, s.Timestamp.Format("2006-01-02")}
		if _, ok := sums[k]; !ok {
			order = append(order, k)
		}
		sums[k] += s.Distance
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].day < order[j].day })

	g := newGrouper()
	for _, k := range order {
		g.add(k.vessel, k.day, sums[k])
	}
	return g.sorted()
}

// MapTrace is the positions of one vessel
type MapTrace struct {
	Vessel string    `json:"vessel"`
	Lat    []float64 `json:"lat"`
	Lon    []float64 `json:"lon"`
	Dates  []string  `json:"dates"`
}

// MapPoints groups the positions per vessel
func MapPoints(samples []models.DistanceSample) []MapTrace {
	byVessel := make(map[string]*MapTrace)
	var names []string
	for _, s := range samples {
		t, ok := byVessel[s.Vessel]
		if !ok {
			t = &MapTrace{Vessel: s.Vessel}
			byVessel[s.Vessel] = t
			names = append(names, s.Vessel)
		}
		t.Lat = append(t.Lat, s.Latitude)
		t.Lon = append(t.Lon, s.Longitude)
		t.Dates = append(t.Dates, s.Timestamp.Format(models.TimestampLayout))
	}
	sort.Strings(names)

	traces := make([]MapTrace, 0, len(names))
	for _, n := range names {
		traces = append(traces, *byVessel[n])
	}
	return traces
}

// EnoughForMap reports whether a map can be drawn from samples
func EnoughForMap(samples []models.DistanceSample) bool {
	return len(samples) > 1
}

// MapCenter returns the mean position of the samples
func MapCenter(samples []models.DistanceSample) (geo.Point, bool) {
	points := make([]geo.Point, len(samples))
	for i, s := range samples {
		points[i] = geo.Point{Lat: s.Latitude, Lon: s.Longitude}
	}
	return geo.MeanCenter(points)
}

// YearBounds returns the first and last year present in either dataset
func YearBounds(annual []models.AnnualConsumption, samples []models.DistanceSample) (first, last int, ok bool) {
	years := make([]int, 0, len(annual)+len(samples))
	for _, r := range annual {
		years = append(years, r.Year)
	}
	for _, s := range samples {
		years = append(years, s.Timestamp.Year())
	}
	if len(years) == 0 {
		return 0, 0, false
	}

	sort.Ints(years)
	return years[0], years[len(years)-1], true
}

// RecapRow is one year of the consumption recap table
type RecapRow struct {
	Year  int
	Ships map[string]models.AnnualConsumption
}

// Recap pivots the annual rows into one row per year, ships as columns.
// It also returns the ship names in column order.
func Recap(rows []models.AnnualConsumption) ([]RecapRow, []string) {
	byYear := make(map[int]map[string]models.AnnualConsumption)
	shipSet := make(map[string]bool)
	for _, r := range rows {
		if byYear[r.Year] == nil {
			byYear[r.Year] = make(map[string]models.AnnualConsumption)
		}
		byYear[r.Year][r.Ship] = r
		shipSet[r.Ship] = true
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	ships := make([]string, 0, len(shipSet))
	for s := range shipSet {
		ships = append(ships, s)
	}
	sort.Strings(ships)

	recap := make([]RecapRow, 0, len(years))
	for _, y := range years {
		recap = append(recap, RecapRow{Year: y, Ships: byYear[y]})
	}
	return recap, ships
}

// grouper collects points into named series, keeping first-seen point order
type grouper struct {
	series map[string]*Series
}

func newGrouper() *grouper {
	return &grouper{series: make(map[string]*Series)}
}

func (g *grouper) add(name, x string, y float64) {
	s, ok := g.series[name]
	if !ok {
		s = &Series{Name: name}
		g.series[name] = s
	}
	s.X = append(s.X, x)
	s.Y = append(s.Y, y)
}

// sorted returns the series ordered by name
func (g *grouper) sorted() []Series {
	names := make([]string, 0, len(g.series))
	for n := range g.series {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]Series, 0, len(names))
	for _, n := range names {
		out = append(out, *g.series[n])
	}
	return out
}

func inSet(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func inRange(year, from, to int) bool {
	return (from == 0 || year >= from) && (to == 0 || year <= to)
}
