package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jifmar/fleetwatch/pkg/models"
	"github.com/jmoiron/sqlx"
)

const distanceSchema = `
CREATE TABLE IF NOT EXISTS distance_evolution (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	vessel TEXT,
	date TEXT,
	distance REAL,
	latitude REAL,
	longitude REAL,
	UNIQUE(vessel, date, latitude, longitude)
);
CREATE INDEX IF NOT EXISTS idx_distance_vessel_date ON distance_evolution(vessel, date);
`

// DistanceDB wraps the distance.db connection
type DistanceDB struct {
	conn *sqlx.DB
}

// DistanceFilter selects distance samples. Zero values match everything.
type DistanceFilter struct {
	Vessels  []string
	FromYear int
	ToYear   int
}

type sampleRow struct {
	ID        int     `db:"id"`
	Vessel    string  `db:"vessel"`
	Date      string  `db:"date"`
	Distance  float64 `db:"distance"`
	Latitude  float64 `db:"latitude"`
	Longitude float64 `db:"longitude"`
}

// OpenDistance opens distance.db for writing and initializes the schema
func OpenDistance(path string) (*DistanceDB, error) {
	conn, err := open(path, false, distanceSchema, runsSchema)
	if err != nil {
		return nil, err
	}
	return &DistanceDB{conn: conn}, nil
}

// OpenDistanceReadOnly opens an existing distance.db for the dashboards
func OpenDistanceReadOnly(path string) (*DistanceDB, error) {
	conn, err := open(path, true)
	if err != nil {
		return nil, err
	}
	return &DistanceDB{conn: conn}, nil
}

// Close closes the database connection
func (db *DistanceDB) Close() error {
	return db.conn.Close()
}

// InsertSamples inserts samples in a single transaction, ignoring duplicates
// of (vessel, date, latitude, longitude). It returns how many rows were new.
func (db *DistanceDB) InsertSamples(ctx context.Context, samples []models.DistanceSample) (int, error) {
	query := `
	INSERT OR IGNORE INTO distance_evolution (vessel, date, distance, latitude, longitude)
	VALUES (?, ?, ?, ?, ?)
	`

	inserted := 0
	err := inTx(ctx, db.conn, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, query)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		for _, s := range samples {
			res, err := stmt.ExecContext(ctx, s.Vessel, s.Timestamp.Format(models.TimestampLayout), s.Distance, s.Latitude, s.Longitude)
			if err != nil {
				return fmt.Errorf("inserting distance sample: %w", err)
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListSamples retrieves samples ordered by date. Rows whose date cannot be
// parsed are skipped.
func (db *DistanceDB) ListSamples(ctx context.Context, f DistanceFilter) ([]models.DistanceSample, error) {
	var conds []string
	var args []interface{}

	if len(f.Vessels) > 0 {
		conds = append(conds, `vessel IN (?)`)
		args = append(args, f.Vessels)
	}
	if f.FromYear > 0 {
		conds = append(conds, `date >= ?`)
		args = append(args, strconv.Itoa(f.FromYear)+"-01-01")
	}
	if f.ToYear > 0 {
		conds = append(conds, `date < ?`)
		args = append(args, strconv.Itoa(f.ToYear+1)+"-01-01")
	}

	query, args, err := sqlx.In(`SELECT id, vessel, date, distance, latitude, longitude FROM distance_evolution`+where(conds)+` ORDER BY date, vessel, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("building distance query: %w", err)
	}

	var rows []sampleRow
	if err := db.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying distance samples: %w", err)
	}

	samples := make([]models.DistanceSample, 0, len(rows))
	for _, r := range rows {
		ts, err := time.Parse(models.TimestampLayout, r.Date)
		if err != nil {
			continue
		}
		samples = append(samples, models.DistanceSample{
			ID:        r.ID,
			Vessel:    r.Vessel,
			Timestamp: ts,
			Distance:  r.Distance,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		})
	}
	return samples, nil
}

// Vessels returns the distinct vessel names, sorted
func (db *DistanceDB) Vessels(ctx context.Context) ([]string, error) {
	var vessels []string
	if err := db.conn.SelectContext(ctx, &vessels, `SELECT DISTINCT vessel FROM distance_evolution ORDER BY vessel`); err != nil {
		return nil, fmt.Errorf("querying vessels: %w", err)
	}
	return vessels, nil
}

// Count returns the number of stored samples
func (db *DistanceDB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM distance_evolution`); err != nil {
		return 0, fmt.Errorf("counting distance samples: %w", err)
	}
	return n, nil
}

// RecordRun stores an import run in distance.db
func (db *DistanceDB) RecordRun(ctx context.Context, run *models.ImportRun) error {
	return recordRun(ctx, db.conn, run)
}

// ListRuns returns the most recent import runs first
func (db *DistanceDB) ListRuns(ctx context.Context, limit int) ([]models.ImportRun, error) {
	return listRuns(ctx, db.conn, limit)
}
