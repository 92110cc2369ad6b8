// Package sqlite implements a SQLite-backed storage.Repository.
package sqlite

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:fwimport.db?_pragma=busy_timeout(5000)"
	//   "fwimport.db" (interpreted by the driver)
	DSN string

	// MaxConns caps the pool. SQLite allows a single writer, so zero means 1.
	MaxConns int
}
