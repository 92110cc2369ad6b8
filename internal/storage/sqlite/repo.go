package sqlite

import (
	"context"
	"fmt"

	// SQLite driver, pure Go.
	_ "modernc.org/sqlite"

	"fwimport/internal/storage/sqldb"
	sqliteddl "fwimport/internal/storage/sqlite/ddl"
)

// Repository is the database/sql repository opened on the sqlite driver.
type Repository = sqldb.Repository

// NewRepository opens a SQLite database and returns a Repository plus a
// Close function for cleanup.
//
// DSN is passed directly to database/sql; for example:
//
//	"file:fwimport.db?_pragma=foreign_keys(1)"
//	"fwimport.db"
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 1
	}
	r, err := sqldb.Open(ctx, "sqlite", cfg.DSN, sqliteddl.Dialect, maxConns)
	if err != nil {
		return nil, nil, err
	}

	// Enable foreign keys by default; ignore error if driver doesn't support it.
	_, _ = r.DB().ExecContext(ctx, "PRAGMA foreign_keys = ON;")
	if _, err := r.DB().ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		r.Close()
		return nil, nil, fmt.Errorf("sqlite: busy_timeout: %w", err)
	}

	return r, r.Close, nil
}
