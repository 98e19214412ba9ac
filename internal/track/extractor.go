package track

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
	"github.com/jifmar/fleetwatch/pkg/models"
	"github.com/rs/zerolog"
)

// Store is where distance samples are written
type Store interface {
	InsertSamples(ctx context.Context, samples []models.DistanceSample) (int, error)
	RecordRun(ctx context.Context, run *models.ImportRun) error
}

// Options locates the track files: <BaseDir>/<year folder>/<vessel>/*.csv
type Options struct {
	BaseDir     string
	YearFolders []string // Empty: every subdirectory of BaseDir
	Vessels     []string
	Sampling    SamplingPolicy
}

// VesselReport summarizes the extraction of one vessel
type VesselReport struct {
	Vessel      string
	Files       int
	FilesFailed int
	RowsRead    int
	RowsDropped int
	Kept        int
	Inserted    int
	Status      string
}

// Report summarizes one extraction
type Report struct {
	Vessels []VesselReport
}

// Inserted returns the number of new samples over all vessels
func (r Report) Inserted() int {
	n := 0
	for _, v := range r.Vessels {
		n += v.Inserted
	}
	return n
}

// Extractor imports the GPS tracks of the configured vessels
type Extractor struct {
	store   Store
	opts    Options
	runID   string
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewExtractor creates an extractor writing to store
func NewExtractor(store Store, opts Options, runID string, logger zerolog.Logger, metrics *observability.Metrics) *Extractor {
	return &Extractor{
		store:   store,
		opts:    opts,
		runID:   runID,
		logger:  logger.With().Str("pipeline", models.PipelineDistance).Logger(),
		metrics: metrics,
	}
}

// Extract processes every configured vessel in turn. A vessel without data
// or whose samples cannot be stored is logged and the next one continues.
func (e *Extractor) Extract(ctx context.Context) (Report, error) {
	var report Report
	started := time.Now()
	defer func() {
		e.metrics.ObserveDuration(models.PipelineDistance, time.Since(started))
	}()

	folders, err := e.yearFolders()
	if err != nil {
		return report, err
	}

	stored := false
	for _, vessel := range e.opts.Vessels {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		vr := e.extractVessel(ctx, vessel, folders)
		report.Vessels = append(report.Vessels, vr)
		if vr.Status == models.RunSuccess || vr.Status == models.RunPartial {
			stored = true
		}
	}

	if stored {
		e.metrics.MarkSuccess(models.PipelineDistance)
	}
	return report, nil
}

// yearFolders returns the configured year folders, or every subdirectory of
// the base directory when none are configured
func (e *Extractor) yearFolders() ([]string, error) {
	if len(e.opts.YearFolders) > 0 {
		return e.opts.YearFolders, nil
	}

	entries, err := os.ReadDir(e.opts.BaseDir)
	if errors.Is(err, fs.ErrNotExist) {
		e.logger.Warn().Str("dir", e.opts.BaseDir).Msg("base directory not found, no track files to import")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading base directory: %w", err)
	}

	var folders []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			folders = append(folders, entry.Name())
		}
	}
	sort.Strings(folders)
	return folders, nil
}

func (e *Extractor) extractVessel(ctx context.Context, vessel string, folders []string) VesselReport {
	vr := VesselReport{Vessel: vessel}
	log := e.logger.With().Str("vessel", vessel).Logger()
	run := database.StartRun(e.runID, models.PipelineDistance, vessel)

	var fixes []Fix
	for _, folder := range folders {
		dir := filepath.Join(e.opts.BaseDir, folder, vessel)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			log.Warn().Str("dir", dir).Msg("missing track folder")
			continue
		}

		files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
		if err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("listing track files")
			continue
		}
		sort.Strings(files)

		for _, path := range files {
			vr.Files++
			f, err := ReadFile(path)
			if err != nil {
				vr.FilesFailed++
				e.metrics.FileProcessed(models.PipelineDistance, "failed")
				log.Warn().Err(err).Str("file", path).Msg("track file skipped")
				continue
			}

			e.metrics.FileProcessed(models.PipelineDistance, "imported")
			e.metrics.SamplesDroppedN("bad_timestamp", f.BadTimestamps)
			e.metrics.SamplesDroppedN("bad_coordinates", f.BadCoordinates)
			vr.RowsRead += f.Rows
			vr.RowsDropped += f.Dropped()
			fixes = append(fixes, f.Fixes...)
		}
	}

	if len(fixes) == 0 {
		log.Warn().Int("files", vr.Files).Msg("no track data found")
		vr.Status = models.RunSkipped
		database.FinishRun(run, vr.Status, 0, "no valid GPS rows")
		e.recordRun(ctx, log, run)
		return vr
	}

	samples := Derive(vessel, fixes, e.opts.Sampling)
	vr.Kept = len(samples)

	inserted, err := e.store.InsertSamples(ctx, samples)
	if err != nil {
		log.Error().Err(err).Msg("storing samples")
		vr.Status = models.RunFailure
		database.FinishRun(run, vr.Status, 0, err.Error())
		e.recordRun(ctx, log, run)
		return vr
	}
	vr.Inserted = inserted
	e.metrics.RowsWritten("distance_evolution", inserted)

	vr.Status = models.RunSuccess
	msg := ""
	if vr.FilesFailed > 0 || vr.RowsDropped > 0 {
		vr.Status = models.RunPartial
		msg = fmt.Sprintf("%d files failed, %d rows dropped", vr.FilesFailed, vr.RowsDropped)
	}
	database.FinishRun(run, vr.Status, inserted, msg)
	e.recordRun(ctx, log, run)

	log.Info().
		Int("files", vr.Files).
		Int("rows", vr.RowsRead).
		Int("dropped", vr.RowsDropped).
		Int("kept", vr.Kept).
		Int("inserted", vr.Inserted).
		Msg("vessel imported")
	return vr
}

func (e *Extractor) recordRun(ctx context.Context, log zerolog.Logger, run *models.ImportRun) {
	if err := e.store.RecordRun(ctx, run); err != nil {
		log.Warn().Err(err).Msg("could not record import run")
	}
}
