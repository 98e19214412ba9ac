package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jifmar/fleetwatch/pkg/models"
	"github.com/jmoiron/sqlx"
)

const runsSchema = `
CREATE TABLE IF NOT EXISTS import_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	pipeline TEXT NOT NULL,
	source TEXT NOT NULL,
	status TEXT NOT NULL,
	records INTEGER DEFAULT 0,
	started_at TEXT NOT NULL,
	finished_at TEXT,
	message TEXT
);
CREATE INDEX IF NOT EXISTS idx_import_runs_run_id ON import_runs(run_id);
`

type runRow struct {
	ID         int    `db:"id"`
	RunID      string `db:"run_id"`
	Pipeline   string `db:"pipeline"`
	Source     string `db:"source"`
	Status     string `db:"status"`
	Records    int    `db:"records"`
	StartedAt  string `db:"started_at"`
	FinishedAt string `db:"finished_at"`
	Message    string `db:"message"`
}

// StartRun begins an import run for one source, stamped with the current time
func StartRun(runID, pipeline, source string) *models.ImportRun {
	return &models.ImportRun{
		RunID:     runID,
		Pipeline:  pipeline,
		Source:    source,
		StartedAt: clock.Now().UTC(),
	}
}

// FinishRun sets the outcome of an import run
func FinishRun(run *models.ImportRun, status string, records int, message string) {
	run.Status = status
	run.Records = records
	run.Message = message
	run.FinishedAt = clock.Now().UTC()
}

func recordRun(ctx context.Context, conn *sqlx.DB, run *models.ImportRun) error {
	query := `
	INSERT INTO import_runs (run_id, pipeline, source, status, records, started_at, finished_at, message)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var finished string
	if !run.FinishedAt.IsZero() {
		finished = run.FinishedAt.Format(time.RFC3339)
	}

	res, err := conn.ExecContext(ctx, query,
		run.RunID, run.Pipeline, run.Source, run.Status, run.Records,
		run.StartedAt.Format(time.RFC3339), finished, run.Message)
	if err != nil {
		return fmt.Errorf("recording import run: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		run.ID = int(id)
	}
	return nil
}

func listRuns(ctx context.Context, conn *sqlx.DB, limit int) ([]models.ImportRun, error) {
	query := `
	SELECT id, run_id, pipeline, source, status, records, started_at,
		COALESCE(finished_at, '') AS finished_at, COALESCE(message, '') AS message
	FROM import_runs
	ORDER BY id DESC
	`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []runRow
	if err := conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying import runs: %w", err)
	}

	runs := make([]models.ImportRun, 0, len(rows))
	for _, r := range rows {
		run := models.ImportRun{
			ID:       r.ID,
			RunID:    r.RunID,
			Pipeline: r.Pipeline,
			Source:   r.Source,
			Status:   r.Status,
			Records:  r.Records,
			Message:  r.Message,
		}
		run.StartedAt, _ = time.Parse(time.RFC3339, r.StartedAt)
		if r.FinishedAt != "" {
			run.FinishedAt, _ = time.Parse(time.RFC3339, r.FinishedAt)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
