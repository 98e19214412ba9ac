package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/jifmar/fleetwatch/internal/geo"
)

// PlotlyURL is the plotly.js bundle referenced by rendered charts
const PlotlyURL = "https://cdn.plot.ly/plotly-2.35.2.min.js"

// NotEnoughGPSData is shown instead of a map with fewer than two positions
const NotEnoughGPSData = "Pas assez de données GPS pour afficher la carte."

//go:embed templates/chart.html
var templateFS embed.FS

var chartTemplate = template.Must(template.ParseFS(templateFS, "templates/chart.html"))

// Kind is the plot type of a chart
type Kind string

const (
	KindLine Kind = "line"
	KindBar  Kind = "bar"
	KindMap  Kind = "map"
)

// Chart is a renderable chart
type Chart struct {
	Name    string // File name stem for exports
	Title   string
	Kind    Kind
	XTitle  string
	YTitle  string
	Series  []Series
	Map     []MapTrace
	Center  geo.Point
	Zoom    int
	Message string // Shown instead of the plot when set
}

type page struct {
	Title     string
	PlotlyURL string
	Height    int
	Message   string
	Traces    []map[string]interface{}
	Layout    map[string]interface{}
}

// Render writes the chart as a standalone HTML document
func Render(w io.Writer, c Chart) error {
	p := page{
		Title:     c.Title,
		PlotlyURL: PlotlyURL,
		Height:    c.height(),
		Message:   c.Message,
		Traces:    c.traces(),
		Layout:    c.layout(),
	}
	if err := chartTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("rendering chart %s: %w", c.Name, err)
	}
	return nil
}

func (c Chart) height() int {
	if c.Kind == KindMap {
		return 650
	}
	return 450
}

func (c Chart) traces() []map[string]interface{} {
	var traces []map[string]interface{}

	switch c.Kind {
	case KindMap:
		for _, t := range c.Map {
			traces = append(traces, map[string]interface{}{
				"type": "scattermapbox",
				"mode": "markers",
				"name": t.Vessel,
				"lat":  t.Lat,
				"lon":  t.Lon,
				"text": t.Dates,
			})
		}
	case KindBar:
		for _, s := range c.Series {
			traces = append(traces, map[string]interface{}{
				"type": "bar",
				"name": s.Name,
				"x":    s.X,
				"y":    s.Y,
			})
		}
	default:
		for _, s := range c.Series {
			traces = append(traces, map[string]interface{}{
				"type": "scatter",
				"mode": "lines+markers",
				"name": s.Name,
				"x":    s.X,
				"y":    s.Y,
			})
		}
	}

	if traces == nil {
		traces = []map[string]interface{}{}
	}
	return traces
}

func (c Chart) layout() map[string]interface{} {
	layout := map[string]interface{}{
		"title":         map[string]interface{}{"text": c.Title},
		"height":        c.height(),
		"plot_bgcolor":  "white",
		"paper_bgcolor": "white",
	}

	if c.Kind == KindMap {
		layout["mapbox"] = map[string]interface{}{
			"style":  "open-street-map",
			"center": map[string]float64{"lat": c.Center.Lat, "lon": c.Center.Lon},
			"zoom":   c.Zoom,
		}
		layout["margin"] = map[string]int{"l": 0, "r": 0, "t": 40, "b": 0}
		return layout
	}

	layout["xaxis"] = map[string]interface{}{"title": map[string]string{"text": c.XTitle}}
	layout["yaxis"] = map[string]interface{}{"title": map[string]string{"text": c.YTitle}}
	if c.Kind == KindBar {
		layout["barmode"] = "relative"
	}
	return layout
}
