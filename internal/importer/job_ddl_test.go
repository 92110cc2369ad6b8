package importer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"fwimport/internal/errs"
	mysqlddl "fwimport/internal/storage/mysql/ddl"
	"fwimport/internal/storage/sqldb"
)

// MySQL commits CREATE TABLE implicitly, which would end the job's
// transaction and its row savepoints. The table must be created and
// committed first, and the rows inserted in a fresh transaction.
func TestJobProvisionsBeforeTransactionWhenDDLAutoCommits(t *testing.T) {
	root := t.TempDir()
	spec := filepath.Join(root, "testformat1.csv")
	writeFile(t, spec, specBody)
	src := filepath.Join(root, "testformat1_a.txt")
	writeFile(t, src, "Foonyor   1100\nBarzane   1999\n")

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := sqldb.New(db, mysqlddl.Dialect)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ? AND table_schema = DATABASE()").
		WithArgs("testformat1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("CREATE TABLE testformat1 (id BIGINT AUTO_INCREMENT PRIMARY KEY, name TEXT, valid BOOLEAN, count INTEGER);").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	insert := "INSERT INTO testformat1 (name,valid,count) VALUES (?,?,?)"
	mock.ExpectBegin()
	mock.ExpectExec("SAVEPOINT fwimport_row").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(insert).WithArgs("Foonyor", true, int64(100)).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("RELEASE SAVEPOINT fwimport_row").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SAVEPOINT fwimport_row").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(insert).WithArgs("Barzane", true, int64(999)).WillReturnError(errors.New("out of range value for column count"))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT fwimport_row").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("RELEASE SAVEPOINT fwimport_row").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	res := New(spec, []string{src}, Options{}).Run(context.Background(), repo)
	if res.Err != nil {
		t.Fatalf("Run() error = %v", res.Err)
	}
	if !res.CreatedTable || res.Inserted != 1 || len(res.Rejected) != 1 {
		t.Fatalf("Result = %+v, want created table, 1 inserted, 1 rejected", res)
	}
	if r := res.Rejected[0]; r.Line != 2 || !errs.Is(r.Err, errs.KindStatement) {
		t.Fatalf("Rejected[0] = %+v, want statement reject at line 2", r)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestJobProvisionFailureSkipsTransaction(t *testing.T) {
	root := t.TempDir()
	spec := filepath.Join(root, "testformat1.csv")
	writeFile(t, spec, specBody)
	src := filepath.Join(root, "testformat1_a.txt")
	writeFile(t, src, "Foonyor   1100\n")

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ? AND table_schema = DATABASE()").
		WithArgs("testformat1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("CREATE TABLE testformat1 (id BIGINT AUTO_INCREMENT PRIMARY KEY, name TEXT, valid BOOLEAN, count INTEGER);").
		WillReturnError(errors.New("access denied"))
	mock.ExpectRollback()

	res := New(spec, []string{src}, Options{}).Run(context.Background(), sqldb.New(db, mysqlddl.Dialect))
	if !errs.Is(res.Err, errs.KindProvision) {
		t.Fatalf("Run() error = %v, want provision", res.Err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
