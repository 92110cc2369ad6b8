// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories and dialects with the storage package:
//
//   - "postgres" (fwimport/internal/storage/postgres)
//   - "mysql"    (fwimport/internal/storage/mysql)
//   - "mssql"    (fwimport/internal/storage/mssql)
//   - "sqlite"   (fwimport/internal/storage/sqlite)
//
// Typical usage (in cmd/fwimport):
//
//	import _ "fwimport/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
//
// A binary that supports only a subset of backends can import those packages
// directly instead.
package all

import (
	_ "fwimport/internal/storage/mssql"
	_ "fwimport/internal/storage/mysql"
	_ "fwimport/internal/storage/postgres"
	_ "fwimport/internal/storage/sqlite"
)
