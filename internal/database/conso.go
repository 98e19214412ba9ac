package database

import (
	"context"
	"fmt"

	"github.com/jifmar/fleetwatch/pkg/models"
	"github.com/jmoiron/sqlx"
)

const consoSchema = `
CREATE TABLE IF NOT EXISTS conso_annuelle (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	annee INTEGER,
	navire TEXT,
	conso_m3 REAL,
	conso_l_mille REAL,
	UNIQUE(annee, navire) ON CONFLICT REPLACE
);
CREATE TABLE IF NOT EXISTS conso_mensuelle (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	annee INTEGER,
	mois TEXT,
	navire TEXT,
	conso_m3 REAL,
	UNIQUE(annee, mois, navire) ON CONFLICT REPLACE
);
`

// ConsumptionDB wraps the conso.db connection
type ConsumptionDB struct {
	conn *sqlx.DB
}

// ConsumptionFilter selects consumption rows. Zero values match everything.
type ConsumptionFilter struct {
	Ships    []string
	FromYear int
	ToYear   int
}

// OpenConsumption opens conso.db for writing and initializes the schema
func OpenConsumption(path string) (*ConsumptionDB, error) {
	conn, err := open(path, false, consoSchema, runsSchema)
	if err != nil {
		return nil, err
	}
	return &ConsumptionDB{conn: conn}, nil
}

// OpenConsumptionReadOnly opens an existing conso.db for the dashboards
func OpenConsumptionReadOnly(path string) (*ConsumptionDB, error) {
	conn, err := open(path, true)
	if err != nil {
		return nil, err
	}
	return &ConsumptionDB{conn: conn}, nil
}

// Close closes the database connection
func (db *ConsumptionDB) Close() error {
	return db.conn.Close()
}

// SaveWorkbook replaces the annual and monthly rows of one workbook in a
// single transaction. Existing rows with the same key are overwritten.
func (db *ConsumptionDB) SaveWorkbook(ctx context.Context, annual []models.AnnualConsumption, monthly []models.MonthlyConsumption) error {
	return inTx(ctx, db.conn, func(tx *sqlx.Tx) error {
		for _, rec := range annual {
			if err := replaceAnnual(ctx, tx, rec); err != nil {
				return err
			}
		}
		for _, rec := range monthly {
			if err := replaceMonthly(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func replaceAnnual(ctx context.Context, tx *sqlx.Tx, rec models.AnnualConsumption) error {
	query := `
	REPLACE INTO conso_annuelle (annee, navire, conso_m3, conso_l_mille)
	VALUES (:annee, :navire, :conso_m3, :conso_l_mille)
	`
	if _, err := tx.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("replacing annual consumption %d/%s: %w", rec.Year, rec.Ship, err)
	}
	return nil
}

func replaceMonthly(ctx context.Context, tx *sqlx.Tx, rec models.MonthlyConsumption) error {
	query := `
	REPLACE INTO conso_mensuelle (annee, mois, navire, conso_m3)
	VALUES (:annee, :mois, :navire, :conso_m3)
	`
	if _, err := tx.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("replacing monthly consumption %d/%s/%s: %w", rec.Year, rec.Month, rec.Ship, err)
	}
	return nil
}

// ListAnnual retrieves annual consumption ordered by year then ship
func (db *ConsumptionDB) ListAnnual(ctx context.Context, f ConsumptionFilter) ([]models.AnnualConsumption, error) {
	query, args, err := f.build(`SELECT id, annee, navire, conso_m3, conso_l_mille FROM conso_annuelle`)
	if err != nil {
		return nil, err
	}
	query += ` ORDER BY annee, navire`

	var rows []models.AnnualConsumption
	if err := db.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying annual consumption: %w", err)
	}
	return rows, nil
}

// ListMonthly retrieves monthly consumption ordered by year, ship and row id.
// Calendar ordering of months is left to the caller.
func (db *ConsumptionDB) ListMonthly(ctx context.Context, f ConsumptionFilter) ([]models.MonthlyConsumption, error) {
	query, args, err := f.build(`SELECT id, annee, mois, navire, conso_m3 FROM conso_mensuelle`)
	if err != nil {
		return nil, err
	}
	query += ` ORDER BY annee, navire, id`

	var rows []models.MonthlyConsumption
	if err := db.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying monthly consumption: %w", err)
	}
	return rows, nil
}

// Ships returns the distinct ship names of the annual table, sorted
func (db *ConsumptionDB) Ships(ctx context.Context) ([]string, error) {
	var ships []string
	if err := db.conn.SelectContext(ctx, &ships, `SELECT DISTINCT navire FROM conso_annuelle ORDER BY navire`); err != nil {
		return nil, fmt.Errorf("querying ships: %w", err)
	}
	return ships, nil
}

// Counts returns the number of annual and monthly rows
func (db *ConsumptionDB) Counts(ctx context.Context) (annual, monthly int, err error) {
	if err = db.conn.GetContext(ctx, &annual, `SELECT COUNT(*) FROM conso_annuelle`); err != nil {
		return 0, 0, fmt.Errorf("counting annual rows: %w", err)
	}
	if err = db.conn.GetContext(ctx, &monthly, `SELECT COUNT(*) FROM conso_mensuelle`); err != nil {
		return 0, 0, fmt.Errorf("counting monthly rows: %w", err)
	}
	return annual, monthly, nil
}

// RecordRun stores an import run in conso.db
func (db *ConsumptionDB) RecordRun(ctx context.Context, run *models.ImportRun) error {
	return recordRun(ctx, db.conn, run)
}

// ListRuns returns the most recent import runs first
func (db *ConsumptionDB) ListRuns(ctx context.Context, limit int) ([]models.ImportRun, error) {
	return listRuns(ctx, db.conn, limit)
}

func (f ConsumptionFilter) build(base string) (string, []interface{}, error) {
	var conds []string
	var args []interface{}

	if len(f.Ships) > 0 {
		conds = append(conds, `navire IN (?)`)
		args = append(args, f.Ships)
	}
	if f.FromYear > 0 {
		conds = append(conds, `annee >= ?`)
		args = append(args, f.FromYear)
	}
	if f.ToYear > 0 {
		conds = append(conds, `annee <= ?`)
		args = append(args, f.ToYear)
	}

	query, args, err := sqlx.In(base+where(conds), args...)
	if err != nil {
		return "", nil, fmt.Errorf("building consumption query: %w", err)
	}
	return query, args, nil
}
