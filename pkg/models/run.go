package models

import "time"

// Pipeline names recorded in import_runs
const (
	PipelineConsumption = "consumption"
	PipelineDistance    = "distance"
)

// Import run statuses
const (
	RunSuccess = "success"
	RunPartial = "partial"
	RunSkipped = "skipped"
	RunFailure = "failure"
)

// ImportRun records the outcome of importing one workbook or one vessel
type ImportRun struct {
	ID         int       `db:"id" json:"id"`
	RunID      string    `db:"run_id" json:"run_id"` // Shared by every row of one CLI invocation
	Pipeline   string    `db:"pipeline" json:"pipeline"`
	Source     string    `db:"source" json:"source"` // Workbook file name or vessel name
	Status     string    `db:"status" json:"status"`
	Records    int       `db:"records" json:"records"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
	Message    string    `db:"message" json:"message,omitempty"`
}
