package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jifmar/fleetwatch/internal/config"
	"github.com/jifmar/fleetwatch/internal/database"
	"github.com/jifmar/fleetwatch/pkg/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg = &config.Config{
		Consumption: config.ConsumptionConfig{Database: filepath.Join(dir, "conso.db")},
		Distance:    config.DistanceConfig{Database: filepath.Join(dir, "distance.db")},
	}
	logger = zerolog.Nop()
	t.Cleanup(func() { cfg = nil })
	return dir
}

func TestOpenSources_MissingStores(t *testing.T) {
	useConfig(t)

	loader, closeSources, err := openSources()
	require.NoError(t, err)
	defer closeSources()

	d, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, d.Annual)
	assert.Empty(t, d.Monthly)
	assert.Empty(t, d.Samples)
}

func TestOpenSources_ReadsExistingStore(t *testing.T) {
	useConfig(t)

	db, err := database.OpenConsumption(cfg.GetConsoDBPath())
	require.NoError(t, err)
	require.NoError(t, db.SaveWorkbook(context.Background(),
		[]models.AnnualConsumption{{Year: 2023, Ship: "JIF GYPTIS", TotalM3: 1234.5}},
		[]models.MonthlyConsumption{{Year: 2023, Month: "Janvier", Ship: "JIF GYPTIS", TotalM3: 10.5}},
	))
	require.NoError(t, db.Close())

	loader, closeSources, err := openSources()
	require.NoError(t, err)
	defer closeSources()

	d, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, d.Annual, 1)
	assert.Equal(t, 1234.5, d.Annual[0].TotalM3)
	assert.Len(t, d.Monthly, 1)
	assert.Empty(t, d.Samples)
}

func TestRunRuns_MissingStores(t *testing.T) {
	useConfig(t)
	assert.NoError(t, runRuns(runsCmd, nil))
}

func TestRunSummary_MissingStore(t *testing.T) {
	useConfig(t)
	err := runSummary(summaryCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening database")
}
