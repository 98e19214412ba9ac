package dashboard

import "fmt"

// Chart names, as used in URLs and export file names
const (
	ChartAnnual     = "annual"
	ChartMonthly    = "monthly"
	ChartCumulative = "cumulative"
	ChartDaily      = "daily"
	ChartMap        = "map"
)

// ChartNames lists every chart in display order
var ChartNames = []string{ChartAnnual, ChartMonthly, ChartCumulative, ChartDaily, ChartMap}

// Query holds the dashboard selections shared by every chart
type Query struct {
	Ships    []string
	FromYear int
	ToYear   int
	Year     int // Monthly view; 0 is the latest year
	Metric   Metric
	Zoom     int
}

func (q Query) annual() AnnualFilter {
	return AnnualFilter{Ships: q.Ships, FromYear: q.FromYear, ToYear: q.ToYear}
}

func (q Query) distance() DistanceFilter {
	return DistanceFilter{Vessels: q.Ships, FromYear: q.FromYear, ToYear: q.ToYear}
}

// BuildChart assembles the named chart from the loaded data
func BuildChart(name string, d *Data, q Query) (Chart, error) {
	switch name {
	case ChartAnnual:
		return AnnualChart(d, q), nil
	case ChartMonthly:
		return MonthlyChart(d, q), nil
	case ChartCumulative:
		return CumulativeChart(d, q), nil
	case ChartDaily:
		return DailyChart(d, q), nil
	case ChartMap:
		return MapChart(d, q), nil
	default:
		return Chart{}, fmt.Errorf("unknown chart %q", name)
	}
}

// AnnualChart plots the chosen metric per ship and year
func AnnualChart(d *Data, q Query) Chart {
	metric := q.Metric
	if metric == "" {
		metric = MetricTotal
	}
	return Chart{
		Name:   fmt.Sprintf("conso_annuelle_%s", metric),
		Title:  metric.Title(),
		Kind:   KindLine,
		XTitle: "Année",
		YTitle: metric.Unit(),
		Series: AnnualSeries(d.Annual, q.annual(), metric),
	}
}

// MonthlyChart plots the monthly volume per ship for one year
func MonthlyChart(d *Data, q Query) Chart {
	year := q.Year
	if year == 0 {
		year = LatestYear(d.Monthly)
	}
	return Chart{
		Name:   fmt.Sprintf("conso_mensuelle_%d", year),
		Title:  fmt.Sprintf("Consommation mensuelle (m³) - %d", year),
		Kind:   KindLine,
		XTitle: "Mois",
		YTitle: "m³",
		Series: MonthlySeries(d.Monthly, MonthlyFilter{Ships: q.Ships, Year: year}),
	}
}

// CumulativeChart plots the running distance per vessel
func CumulativeChart(d *Data, q Query) Chart {
	return Chart{
		Name:   "distance_cumulee",
		Title:  "Comparaison des distances cumulées",
		Kind:   KindLine,
		XTitle: "Date",
		YTitle: "Distance cumulée (NM)",
		Series: Cumulative(FilterSamples(d.Samples, q.distance())),
	}
}

// DailyChart plots the distance per day and vessel
func DailyChart(d *Data, q Query) Chart {
	return Chart{
		Name:   "distance_journaliere",
		Title:  "Distance journalière",
		Kind:   KindBar,
		XTitle: "Date",
		YTitle: "Distance (NM)",
		Series: Daily(FilterSamples(d.Samples, q.distance())),
	}
}

// MapChart places the positions of each vessel on a map centered on their mean
func MapChart(d *Data, q Query) Chart {
	samples := FilterSamples(d.Samples, q.distance())
	c := Chart{
		Name:  "carte_gps",
		Title: "Carte des positions GPS",
		Kind:  KindMap,
		Zoom:  q.Zoom,
	}
	if c.Zoom <= 0 {
		c.Zoom = 5
	}

	if !EnoughForMap(samples) {
		c.Message = NotEnoughGPSData
		return c
	}
	c.Map = MapPoints(samples)
	c.Center, _ = MapCenter(samples)
	return c
}
