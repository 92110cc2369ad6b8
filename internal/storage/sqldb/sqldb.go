// Package sqldb implements storage.Repository on top of database/sql. The
// sqlite, mysql and mssql backends differ only in driver, DSN handling and
// dialect, so they share this implementation.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fwimport/internal/ddl"
	"fwimport/internal/storage"
)

// pingTimeout bounds the connectivity check in Open.
const pingTimeout = 5 * time.Second

// Repository is a database/sql-backed storage.Repository.
type Repository struct {
	db      *sql.DB
	dialect ddl.Dialect
}

// Ensure Repository satisfies storage.Repository at compile time.
var _ storage.Repository = (*Repository)(nil)

// New wraps an already opened *sql.DB. The caller keeps ownership of db
// until Close is called on the returned Repository.
func New(db *sql.DB, d ddl.Dialect) *Repository {
	return &Repository{db: db, dialect: d}
}

// Open opens driverName with dsn and hands the pool to Wrap.
func Open(ctx context.Context, driverName, dsn string, d ddl.Dialect, maxConns int) (*Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s: DSN must not be empty", d.Name)
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", d.Name, err)
	}
	return Wrap(ctx, db, d, maxConns)
}

// Wrap caps the pool at maxConns (when positive), pings it to fail fast on
// unreachable servers and returns the Repository. db is closed on error.
func Wrap(ctx context.Context, db *sql.DB, d ddl.Dialect, maxConns int) (*Repository, error) {
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", d.Name, err)
	}
	return New(db, d), nil
}

// DB exposes the underlying pool.
func (r *Repository) DB() *sql.DB { return r.db }

// Dialect implements storage.Repository.
func (r *Repository) Dialect() ddl.Dialect { return r.dialect }

// Begin implements storage.Repository.
func (r *Repository) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", r.dialect.Name, err)
	}
	return &Tx{tx: tx, dialect: r.dialect}, nil
}

// CountRows implements storage.Repository.
func (r *Repository) CountRows(ctx context.Context, table string) (int64, error) {
	q, err := ddl.CountSQL(table)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: count %s: %w", r.dialect.Name, table, err)
	}
	return n, nil
}

// Close implements storage.Repository.
func (r *Repository) Close() { _ = r.db.Close() }

// Tx is a database/sql transaction.
type Tx struct {
	tx      *sql.Tx
	dialect ddl.Dialect
}

// TableExists implements storage.Tx.
func (t *Tx) TableExists(ctx context.Context, table string) (bool, error) {
	q, args, err := ddl.ExistsSQL(t.dialect, table)
	if err != nil {
		return false, err
	}
	var n int64
	if err := t.tx.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("%s: catalog lookup: %w", t.dialect.Name, err)
	}
	return n > 0, nil
}

// Exec implements storage.Tx.
func (t *Tx) Exec(ctx context.Context, sql string, args ...any) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := t.tx.ExecContext(ctx, sql, args...); err != nil {
		return fmt.Errorf("%s: exec: %w", t.dialect.Name, err)
	}
	return nil
}

// Commit implements storage.Tx.
func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", t.dialect.Name, err)
	}
	return nil
}

// Rollback implements storage.Tx.
func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("%s: rollback: %w", t.dialect.Name, err)
	}
	return nil
}
