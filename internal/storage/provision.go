package storage

import (
	"context"
	"fmt"

	"fwimport/internal/ddl"
	"fwimport/internal/errs"
	"fwimport/internal/fieldspec"
)

// EnsureTable creates the destination table of spec unless a relation with
// that name already exists. Existing tables are used as-is: their columns are
// never compared with the spec or altered. created reports whether CREATE
// TABLE was executed. Failures are KindProvision errors.
func EnsureTable(ctx context.Context, tx Tx, d ddl.Dialect, spec fieldspec.Spec) (created bool, err error) {
	exists, err := tx.TableExists(ctx, spec.Table)
	if err != nil {
		return false, errs.At(errs.KindProvision, "lookup table "+spec.Table, spec.Path, 0, err)
	}
	if exists {
		return false, nil
	}

	stmt, err := ddl.BuildCreateTableSQL(d, ddl.FromSpec(spec, d))
	if err != nil {
		return false, errs.At(errs.KindProvision, "build DDL", spec.Path, 0, err)
	}
	if err := tx.Exec(ctx, stmt); err != nil {
		return false, errs.At(errs.KindProvision, "create table "+spec.Table, spec.Path, 0, err)
	}
	return true, nil
}

// Provision runs EnsureTable in a transaction of its own and commits it.
// Dialects whose DDL commits implicitly use it so that the job's transaction
// starts after the table exists.
func Provision(ctx context.Context, repo Repository, spec fieldspec.Spec) (created bool, err error) {
	tx, err := repo.Begin(ctx)
	if err != nil {
		return false, errs.At(errs.KindProvision, "begin provision", spec.Path, 0, err)
	}
	created, err = EnsureTable(ctx, tx, repo.Dialect(), spec)
	if err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, errs.At(errs.KindProvision, "commit provision", spec.Path, 0, err)
	}
	return created, nil
}

// rowSavepoint names the savepoint wrapped around every single-row insert.
const rowSavepoint = "fwimport_row"

// InsertRow inserts one row inside a savepoint so that a failing statement
// leaves the enclosing transaction usable. A failed INSERT is returned as a
// KindStatement error after the savepoint has been rolled back; any other
// error means the transaction itself is no longer usable.
func InsertRow(ctx context.Context, tx Tx, d ddl.Dialect, table string, columns []string, values []any) error {
	q, args, err := ddl.InsertSQL(d, table, columns, values)
	if err != nil {
		return errs.E(errs.KindStatement, "build insert", err)
	}

	open, rollback, release := ddl.SavepointSQL(d, rowSavepoint)
	if err := tx.Exec(ctx, open); err != nil {
		return fmt.Errorf("open savepoint: %w", err)
	}
	if execErr := tx.Exec(ctx, q, args...); execErr != nil {
		if err := tx.Exec(ctx, rollback); err != nil {
			return fmt.Errorf("rollback savepoint after %v: %w", execErr, err)
		}
		if release != "" {
			if err := tx.Exec(ctx, release); err != nil {
				return fmt.Errorf("release savepoint: %w", err)
			}
		}
		return errs.E(errs.KindStatement, "insert into "+table, execErr)
	}
	if release != "" {
		if err := tx.Exec(ctx, release); err != nil {
			return fmt.Errorf("release savepoint: %w", err)
		}
	}
	return nil
}
