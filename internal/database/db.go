package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

func init() {
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

// open opens a SQLite file and runs the given schema. Read-only handles skip
// the schema and never create the file.
func open(path string, readOnly bool, schema ...string) (*sqlx.DB, error) {
	dsn := path
	if readOnly {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		dsn = "file:" + filepath.ToSlash(path) + "?mode=ro"
	} else {
		// Ensure directory exists
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
	}

	conn, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer per process; keeps transactions on a single connection
	conn.SetMaxOpenConns(1)

	if readOnly {
		if err := conn.Ping(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return conn, nil
	}

	for _, s := range schema {
		if _, err := conn.Exec(s); err != nil {
			conn.Close()
			return nil, fmt.Errorf("initializing schema: %w", err)
		}
	}

	return conn, nil
}

// inTx runs fn inside a transaction, rolling back on error
func inTx(ctx context.Context, conn *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// where joins conditions into a WHERE clause, or returns "" when there are none
func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
