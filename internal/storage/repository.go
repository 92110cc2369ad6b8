// Package storage contains storage-agnostic contracts and utilities.
//
// Backends register a Factory for their kind at init time; callers open a
// Repository through New without importing the backend package. Every import
// job runs inside one Tx obtained from Repository.Begin.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fwimport/internal/ddl"
)

// Config is the backend-agnostic connection configuration.
type Config struct {
	Kind string // registered backend kind, e.g. "postgres"
	DSN  string

	// MaxConns caps the connection pool. Zero leaves the driver default.
	MaxConns int
}

// Repository is an open connection pool to one database.
type Repository interface {
	// Dialect describes the SQL flavor of the backend.
	Dialect() ddl.Dialect

	// Begin opens the transaction scope of one import job.
	Begin(ctx context.Context) (Tx, error)

	// CountRows returns the number of rows currently in table.
	CountRows(ctx context.Context, table string) (int64, error)

	Close()
}

// Tx is a single database transaction.
type Tx interface {
	// TableExists reports whether a relation named table exists.
	TableExists(ctx context.Context, table string) (bool, error)

	// Exec runs one statement with bind arguments.
	Exec(ctx context.Context, sql string, args ...any) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Factory opens a Repository for a registered kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind. Backends call it
// from init.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
