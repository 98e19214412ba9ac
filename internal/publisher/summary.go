package publisher

import (
	"sort"
	"time"

	"github.com/jifmar/fleetwatch/pkg/models"
)

// Summary is the published state of one vessel
type Summary struct {
	Vessel     string    `json:"vessel"`
	Year       int       `json:"year,omitempty"` // Latest consumption year
	TotalM3    float64   `json:"total_m3"`
	LPerMile   float64   `json:"l_per_mile"`
	DistanceNM float64   `json:"distance_nm"` // Sum over the latest year with GPS data
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	LastFix    time.Time `json:"last_fix,omitzero"`
}

// Summarize builds one summary per vessel seen in either store, sorted by name.
// Consumption figures come from the latest year of each ship; distance is the
// sum over the year of the vessel's last fix.
func Summarize(annual []models.AnnualConsumption, samples []models.DistanceSample) []Summary {
	byVessel := make(map[string]*Summary)
	get := func(name string) *Summary {
		s, ok := byVessel[name]
		if !ok {
			s = &Summary{Vessel: name}
			byVessel[name] = s
		}
		return s
	}

	for _, a := range annual {
		s := get(a.Ship)
		if a.Year >= s.Year {
			s.Year = a.Year
			s.TotalM3 = a.TotalM3
			s.LPerMile = a.LPerMile
		}
	}

	for _, p := range samples {
		s := get(p.Vessel)
		if p.Timestamp.After(s.LastFix) {
			s.LastFix = p.Timestamp
			s.Latitude = p.Latitude
			s.Longitude = p.Longitude
		}
	}

	for _, p := range samples {
		s := byVessel[p.Vessel]
		if p.Timestamp.Year() == s.LastFix.Year() {
			s.DistanceNM += p.Distance
		}
	}

	out := make([]Summary, 0, len(byVessel))
	for _, s := range byVessel {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Vessel < out[j].Vessel })
	return out
}
