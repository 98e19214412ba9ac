package consumption

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jifmar/fleetwatch/internal/database"
	"github.com/jifmar/fleetwatch/internal/observability"
	"github.com/jifmar/fleetwatch/internal/sheet"
	"github.com/jifmar/fleetwatch/pkg/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, path string, cells map[string]interface{}) {
	t.Helper()

	f := excelize.NewFile()
	name := f.GetSheetName(0)
	for cell, v := range cells {
		require.NoError(t, f.SetCellValue(name, cell, v))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
}

func sampleCells() map[string]interface{} {
	return map[string]interface{}{
		"B2":  "JIF GYPTIS",
		"D2":  "JIF LACYDON",
		"A5":  "Janvier",
		"B5":  10.5,
		"D5":  "7",
		"A6":  "Février",
		"B6":  "4,25",
		"B19": "1234,5",
		"D19": 99,
		"B23": "#DIV/0!",
		"D23": 3.5,
	}
}

func openStore(t *testing.T) *database.ConsumptionDB {
	t.Helper()

	db, err := database.OpenConsumption(filepath.Join(t.TempDir(), "conso.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestFindWorkbooks(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Consomation_2023.xlsx", "Consomation_2021.xlsx", "notes.xlsx", "Consomation_2022.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	files, err := FindWorkbooks(dir)
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, "Consomation_2021.xlsx", filepath.Base(files[0]))
	assert.Equal(t, "Consomation_2023.xlsx", filepath.Base(files[1]))
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "Consomation_2023.xlsx"), sampleCells())

	store := openStore(t)
	metrics := observability.NewMetrics()
	ex := NewExtractor(store, sheet.DefaultLayout(), "run-1", zerolog.Nop(), metrics)

	report, err := ex.Extract(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilesSeen)
	assert.Equal(t, 1, report.FilesImported)
	assert.Equal(t, 2, report.AnnualRows)
	assert.Equal(t, 4, report.MonthlyRows)

	annual, err := store.ListAnnual(context.Background(), database.ConsumptionFilter{})
	require.NoError(t, err)
	require.Len(t, annual, 2)
	assert.Equal(t, "JIF GYPTIS", annual[0].Ship)
	assert.Equal(t, 1234.5, annual[0].TotalM3)
	assert.Equal(t, 0.0, annual[0].LPerMile)
	assert.Equal(t, 99.0, annual[1].TotalM3)
	assert.Equal(t, 3.5, annual[1].LPerMile)

	monthly, err := store.ListMonthly(context.Background(), database.ConsumptionFilter{})
	require.NoError(t, err)
	require.Len(t, monthly, 4)

	runs, err := store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunSuccess, runs[0].Status)
	assert.Equal(t, "Consomation_2023.xlsx", runs[0].Source)
	assert.Equal(t, 6, runs[0].Records)
	assert.Equal(t, "run-1", runs[0].RunID)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FilesProcessed.WithLabelValues(models.PipelineConsumption, "imported")))
}

func TestExtract_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "Consomation_2023.xlsx"), sampleCells())

	store := openStore(t)
	ex := NewExtractor(store, sheet.DefaultLayout(), "run-1", zerolog.Nop(), nil)

	_, err := ex.Extract(context.Background(), dir)
	require.NoError(t, err)
	_, err = ex.Extract(context.Background(), dir)
	require.NoError(t, err)

	annual, monthly, err := store.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, annual)
	assert.Equal(t, 4, monthly)
}

func TestExtract_BadFilesAreSkipped(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "Consomation_2023.xlsx"), sampleCells())
	writeWorkbook(t, filepath.Join(dir, "Consomation_abcd.xlsx"), sampleCells())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Consomation_2022.xlsx"), []byte("not a workbook"), 0644))

	store := openStore(t)
	ex := NewExtractor(store, sheet.DefaultLayout(), "run-2", zerolog.Nop(), nil)

	report, err := ex.Extract(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 3, report.FilesSeen)
	assert.Equal(t, 1, report.FilesImported)
	assert.Equal(t, 1, report.FilesFailed)
	assert.Equal(t, 1, report.FilesSkipped)

	ships, err := store.Ships(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"JIF GYPTIS", "JIF LACYDON"}, ships)

	runs, err := store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	statuses := map[string]string{}
	for _, r := range runs {
		statuses[r.Source] = r.Status
	}
	assert.Equal(t, models.RunSuccess, statuses["Consomation_2023.xlsx"])
	assert.Equal(t, models.RunFailure, statuses["Consomation_2022.xlsx"])
	assert.Equal(t, models.RunSkipped, statuses["Consomation_abcd.xlsx"])
}

func TestExtract_EmptyDir(t *testing.T) {
	store := openStore(t)
	ex := NewExtractor(store, sheet.DefaultLayout(), "run-3", zerolog.Nop(), nil)

	report, err := ex.Extract(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, report.FilesSeen)
}

func TestExtract_MissingDir(t *testing.T) {
	store := openStore(t)
	ex := NewExtractor(store, sheet.DefaultLayout(), "run-4", zerolog.Nop(), nil)

	report, err := ex.Extract(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)

	annual, monthly, err := store.Counts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, annual)
	assert.Zero(t, monthly)
}

func TestExtract_InputIsAFile(t *testing.T) {
	store := openStore(t)
	ex := NewExtractor(store, sheet.DefaultLayout(), "run-5", zerolog.Nop(), nil)

	path := filepath.Join(t.TempDir(), "Consomation_2023.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	report, err := ex.Extract(context.Background(), filepath.Join(path, "sub"))
	require.Error(t, err)
	assert.Equal(t, Report{}, report)
}
