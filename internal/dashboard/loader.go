package dashboard

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jifmar/fleetwatch/internal/database"
	"github.com/jifmar/fleetwatch/pkg/models"
)

// ConsumptionSource reads the consumption tables
type ConsumptionSource interface {
	ListAnnual(ctx context.Context, f database.ConsumptionFilter) ([]models.AnnualConsumption, error)
	ListMonthly(ctx context.Context, f database.ConsumptionFilter) ([]models.MonthlyConsumption, error)
}

// DistanceSource reads the distance samples
type DistanceSource interface {
	ListSamples(ctx context.Context, f database.DistanceFilter) ([]models.DistanceSample, error)
}

// Data is every row the dashboards read, loaded at once
type Data struct {
	Annual  []models.AnnualConsumption
	Monthly []models.MonthlyConsumption
	Samples []models.DistanceSample
}

// Vessels returns every ship or vessel name found in either dataset, sorted
func (d *Data) Vessels() []string {
	set := make(map[string]bool)
	for _, r := range d.Annual {
		set[r.Ship] = true
	}
	for _, s := range d.Samples {
		set[s.Vessel] = true
	}

	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Loader reads the stores once per process and hands out the same Data
// afterwards. Rows written by a later extraction are seen after a restart.
// A failed read is not cached; the next call reads again.
type Loader struct {
	conso ConsumptionSource
	dist  DistanceSource

	mu   sync.Mutex
	data *Data
}

// NewLoader creates a loader. Either source may be nil, which reads as an
// empty dataset.
func NewLoader(conso ConsumptionSource, dist DistanceSource) *Loader {
	return &Loader{conso: conso, dist: dist}
}

// Load returns the cached data, reading the stores until one read succeeds.
// The read outlives the cancellation of ctx so one aborted request does not
// fail the load for the others waiting on it.
func (l *Loader) Load(ctx context.Context) (*Data, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.data != nil {
		return l.data, nil
	}

	d, err := l.read(context.WithoutCancel(ctx))
	if err != nil {
		return nil, err
	}
	l.data = d
	return d, nil
}

func (l *Loader) read(ctx context.Context) (*Data, error) {
	d := &Data{}
	var err error

	if l.conso != nil {
		if d.Annual, err = l.conso.ListAnnual(ctx, database.ConsumptionFilter{}); err != nil {
			return nil, fmt.Errorf("loading annual consumption: %w", err)
		}
		if d.Monthly, err = l.conso.ListMonthly(ctx, database.ConsumptionFilter{}); err != nil {
			return nil, fmt.Errorf("loading monthly consumption: %w", err)
		}
	}

	if l.dist != nil {
		if d.Samples, err = l.dist.ListSamples(ctx, database.DistanceFilter{}); err != nil {
			return nil, fmt.Errorf("loading distance samples: %w", err)
		}
	}

	return d, nil
}
