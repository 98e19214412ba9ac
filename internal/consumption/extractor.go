package consumption

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jifmar/fleetwatch/internal/database"
	"github.com/jifmar/fleetwatch/internal/observability"
	"github.com/jifmar/fleetwatch/internal/sheet"
	"github.com/jifmar/fleetwatch/pkg/models"
	"github.com/rs/zerolog"
)

// Store is where extracted workbooks are written
type Store interface {
	SaveWorkbook(ctx context.Context, annual []models.AnnualConsumption, monthly []models.MonthlyConsumption) error
	RecordRun(ctx context.Context, run *models.ImportRun) error
}

// Report summarizes one extraction
type Report struct {
	FilesSeen     int
	FilesImported int
	FilesFailed   int
	FilesSkipped  int
	AnnualRows    int
	MonthlyRows   int
}

// Extractor imports every workbook of a directory
type Extractor struct {
	store   Store
	layout  sheet.Layout
	runID   string
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewExtractor creates an extractor writing to store
func NewExtractor(store Store, layout sheet.Layout, runID string, logger zerolog.Logger, metrics *observability.Metrics) *Extractor {
	return &Extractor{
		store:   store,
		layout:  layout,
		runID:   runID,
		logger:  logger.With().Str("pipeline", models.PipelineConsumption).Logger(),
		metrics: metrics,
	}
}

// FindWorkbooks lists the Consomation_*.xlsx files of dir, sorted by name.
// Excel lock files are left out.
func FindWorkbooks(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, FilePattern))
	if err != nil {
		return nil, fmt.Errorf("listing workbooks: %w", err)
	}

	kept := files[:0]
	for _, f := range files {
		if strings.HasPrefix(filepath.Base(f), "~$") {
			continue
		}
		kept = append(kept, f)
	}
	sort.Strings(kept)
	return kept, nil
}

// Extract imports every workbook of dir. A workbook that cannot be read is
// logged and skipped; the other workbooks are still imported. Only a failure
// to list the directory is returned as an error.
func (e *Extractor) Extract(ctx context.Context, dir string) (Report, error) {
	var report Report
	started := time.Now()
	defer func() {
		e.metrics.ObserveDuration(models.PipelineConsumption, time.Since(started))
	}()

	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			e.logger.Warn().Str("dir", dir).Msg("input directory not found, no workbooks to import")
			return report, nil
		}
		return report, fmt.Errorf("reading input directory: %w", err)
	}

	files, err := FindWorkbooks(dir)
	if err != nil {
		return report, err
	}
	if len(files) == 0 {
		e.logger.Warn().Str("dir", dir).Str("pattern", FilePattern).Msg("no workbooks found")
		return report, nil
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.FilesSeen++

		wb, err := e.importFile(ctx, path)
		switch {
		case errors.Is(err, ErrNoYear):
			report.FilesSkipped++
			e.metrics.FileProcessed(models.PipelineConsumption, "skipped")
			e.logger.Warn().Str("file", filepath.Base(path)).Msg("skipping workbook without a year in its name")
		case err != nil:
			report.FilesFailed++
			e.metrics.FileProcessed(models.PipelineConsumption, "failed")
			e.logger.Warn().Err(err).Str("file", filepath.Base(path)).Msg("workbook skipped")
		default:
			report.FilesImported++
			report.AnnualRows += len(wb.Annual)
			report.MonthlyRows += len(wb.Monthly)
			e.metrics.FileProcessed(models.PipelineConsumption, "imported")
			e.metrics.RowsWritten("conso_annuelle", len(wb.Annual))
			e.metrics.RowsWritten("conso_mensuelle", len(wb.Monthly))
			e.logger.Info().
				Str("file", filepath.Base(path)).
				Int("year", wb.Year).
				Int("ships", len(wb.Annual)).
				Int("monthly_rows", len(wb.Monthly)).
				Msg("workbook imported")
		}
	}

	if report.FilesImported > 0 {
		e.metrics.MarkSuccess(models.PipelineConsumption)
	}
	return report, nil
}

// importFile parses and stores one workbook, recording the import run
func (e *Extractor) importFile(ctx context.Context, path string) (Workbook, error) {
	name := filepath.Base(path)
	run := database.StartRun(e.runID, models.PipelineConsumption, name)

	wb, err := e.parseFile(path)
	if err == nil {
		err = e.store.SaveWorkbook(ctx, wb.Annual, wb.Monthly)
	}

	switch {
	case errors.Is(err, ErrNoYear):
		database.FinishRun(run, models.RunSkipped, 0, err.Error())
	case err != nil:
		database.FinishRun(run, models.RunFailure, 0, err.Error())
	case len(wb.Annual) == 0:
		database.FinishRun(run, models.RunSkipped, 0, "no ship names in the ship row")
	default:
		database.FinishRun(run, models.RunSuccess, len(wb.Annual)+len(wb.Monthly), "")
	}

	if recErr := e.store.RecordRun(ctx, run); recErr != nil {
		e.logger.Warn().Err(recErr).Str("file", name).Msg("could not record import run")
	}
	return wb, err
}

func (e *Extractor) parseFile(path string) (Workbook, error) {
	year, err := YearFromName(path)
	if err != nil {
		return Workbook{}, err
	}

	g, err := sheet.OpenWorkbook(path)
	if err != nil {
		return Workbook{}, err
	}

	return ParseWorkbook(year, g, e.layout), nil
}
