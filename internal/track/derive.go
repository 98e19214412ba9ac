package track

import (
	"sort"
	"time"

	"github.com/jifmar/fleetwatch/internal/geo"
	"github.com/jifmar/fleetwatch/pkg/models"
)

// Derive sorts the fixes of one vessel by time, computes the distance from
// each fix to the previous one and applies the sampling policy. The first
// fix always has a zero increment. Each kept sample carries the increment of
// its own fix, not a sum over the fixes that were skipped.
func Derive(vessel string, fixes []Fix, policy SamplingPolicy) []models.DistanceSample {
	if len(fixes) == 0 {
		return nil
	}

	sorted := make([]Fix, len(fixes))
	copy(sorted, fixes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	increments := make([]float64, len(sorted))
	for i := 1; i < len(sorted); i++ {
		increments[i] = geo.Haversine(sorted[i-1].Lat, sorted[i-1].Lon, sorted[i].Lat, sorted[i].Lon)
	}

	idx := policy.Select(sorted)
	samples := make([]models.DistanceSample, 0, len(idx))
	for _, i := range idx {
		samples = append(samples, models.DistanceSample{
			Vessel:    vessel,
			Timestamp: sorted[i].Time,
			Distance:  increments[i],
			Latitude:  sorted[i].Lat,
			Longitude: sorted[i].Lon,
		})
	}
	return samples
}

func sameDay(a, b time.Time) bool {
	ya, ma, da := a.Date()
	yb, mb, db := b.Date()
	return ya == yb && ma == mb && da == db
}
