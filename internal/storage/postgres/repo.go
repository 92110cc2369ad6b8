// Package postgres implements a Postgres repository using pgx v5 and a
// pgxpool connection pool. Each import job runs in its own pgx.Tx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fwimport/internal/ddl"
	"fwimport/internal/storage"
	pgddl "fwimport/internal/storage/postgres/ddl"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN      string // connection string for pgxpool
	MaxConns int    // pool size; zero keeps the pgxpool default
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", describe(err))
	}
	close := func() { pool.Close() }
	return &Repository{pool: pool}, close, nil
}

// Dialect implements storage.Repository.
func (r *Repository) Dialect() ddl.Dialect { return pgddl.Dialect }

// Begin implements storage.Repository.
func (r *Repository) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin tx: %w", describe(err))
	}
	return &Tx{tx: tx}, nil
}

// CountRows implements storage.Repository.
func (r *Repository) CountRows(ctx context.Context, table string) (int64, error) {
	q, err := ddl.CountSQL(table)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.pool.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count %s: %w", table, describe(err))
	}
	return n, nil
}

// Tx wraps a pgx.Tx.
type Tx struct {
	tx pgx.Tx
}

// TableExists implements storage.Tx.
func (t *Tx) TableExists(ctx context.Context, table string) (bool, error) {
	q, args, err := ddl.ExistsSQL(pgddl.Dialect, table)
	if err != nil {
		return false, err
	}
	var n int64
	if err := t.tx.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("postgres: catalog lookup: %w", describe(err))
	}
	return n > 0, nil
}

// Exec implements storage.Tx.
func (t *Tx) Exec(ctx context.Context, sql string, args ...any) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := t.tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("postgres: exec: %w", describe(err))
	}
	return nil
}

// Commit implements storage.Tx.
func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", describe(err))
	}
	return nil
}

// Rollback implements storage.Tx. Rolling back a closed transaction is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("postgres: rollback: %w", err)
	}
	return nil
}

// pgError decorates a server error with its detail and SQLSTATE while
// keeping the original in the chain.
type pgError struct {
	*pgconn.PgError
}

func (e pgError) Error() string {
	msg := e.PgError.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return fmt.Sprintf("%s (%s)", msg, e.SQLState())
}

func (e pgError) Unwrap() error { return e.PgError }

// describe surfaces server-side error details when err carries a PgError.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgError{pgErr}
	}
	return err
}
