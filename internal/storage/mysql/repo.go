// Package mysql implements a MySQL repository on top of go-sql-driver/mysql
// and the shared database/sql repository.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	mysqlddl "fwimport/internal/storage/mysql/ddl"
	"fwimport/internal/storage/sqldb"
)

// Config holds MySQL repository configuration.
type Config struct {
	DSN      string // user:pass@tcp(host:3306)/db
	MaxConns int
}

// Repository is the database/sql repository opened on the mysql driver.
type Repository = sqldb.Repository

// parseDSN validates dsn and requires a database name, since the catalog
// lookup is scoped to DATABASE().
func parseDSN(dsn string) (*mysql.Config, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("mysql: DSN must not be empty")
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql dsn: %w", err)
	}
	if cfg.DBName == "" {
		return nil, fmt.Errorf("mysql dsn: database name is required")
	}
	return cfg, nil
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	mcfg, err := parseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	connector, err := mysql.NewConnector(mcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: connector: %w", err)
	}
	r, err := sqldb.Wrap(ctx, sql.OpenDB(connector), mysqlddl.Dialect, cfg.MaxConns)
	if err != nil {
		return nil, nil, err
	}
	return r, r.Close, nil
}
