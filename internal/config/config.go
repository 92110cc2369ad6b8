// Package config loads the importer's settings.
//
// Values are layered, lowest to highest: built-in defaults, an optional YAML
// file, the legacy environment variables (TARGET, DIRECTORY_BASE_PATH,
// DATA_PATH, SPECS_PATH, PARSED_DATA_PATH, RDS_*), FWIMPORT_-prefixed
// environment variables and finally command-line flags that were explicitly
// set.
//
// Example file:
//
//	storage:
//	  kind: postgres
//	  dsn: postgres://etl:secret@db:5432/warehouse
//	paths:
//	  base: /srv/intake
//	  specs: specs
//	  data: data
//	  archive: parsed
//	match:
//	  mode: prefix
//	runtime:
//	  workers: 4
package config

import (
	"path/filepath"
)

// Config is the decoded configuration.
type Config struct {
	// Target is the legacy environment selector: "development" or
	// "testing". Empty when the legacy variables are not used.
	Target string `koanf:"target"`

	Storage Storage `koanf:"storage"`
	Paths   Paths   `koanf:"paths"`
	Match   Match   `koanf:"match"`
	Parse   Parse   `koanf:"parse"`
	Runtime Runtime `koanf:"runtime"`
	Rejects Rejects `koanf:"rejects"`
	Metrics Metrics `koanf:"metrics"`
	Log     Log     `koanf:"log"`
}

// Storage selects the database backend.
type Storage struct {
	// Kind is a registered storage kind: postgres, sqlite, mysql or mssql.
	Kind string `koanf:"kind"`
	DSN  string `koanf:"dsn"`
	// MaxConns caps the connection pool; zero lets the backend decide.
	MaxConns int `koanf:"max_conns"`
}

// Paths locates the input and archive directories. Relative Specs, Data and
// Archive values are joined onto Base.
type Paths struct {
	Base    string `koanf:"base"`
	Specs   string `koanf:"specs"`
	Data    string `koanf:"data"`
	Archive string `koanf:"archive"`
}

// Match configures how data files are paired with spec files.
type Match struct {
	Mode string `koanf:"mode"` // substring | prefix
}

// Parse configures the fixed-width reader.
type Parse struct {
	Layout   string `koanf:"layout"`   // legacy | standard
	Encoding string `koanf:"encoding"` // WHATWG label
}

// Runtime controls concurrency.
type Runtime struct {
	Workers int `koanf:"workers"`
}

// Rejects configures the rejected-row log. An empty Dir disables it.
type Rejects struct {
	Dir string `koanf:"dir"`
}

// Metrics selects a metrics backend.
type Metrics struct {
	Backend string `koanf:"backend"` // none | pushgateway | datadog
	URL     string `koanf:"url"`
	Job     string `koanf:"job"`
}

// Log configures the slog handler built by the CLI.
type Log struct {
	Level  string `koanf:"level"`  // debug | info | warn | error
	Format string `koanf:"format"` // text | json
}

// Defaults is the lowest configuration layer.
func Defaults() map[string]any {
	return map[string]any{
		"storage.kind":    "postgres",
		"match.mode":      "substring",
		"parse.layout":    "legacy",
		"parse.encoding":  "utf-8",
		"runtime.workers": 1,
		"metrics.backend": "none",
		"metrics.job":     "fwimport",
		"log.level":       "info",
		"log.format":      "text",
	}
}

// SpecsDir returns the directory holding specification files.
func (c Config) SpecsDir() string { return c.resolve(c.Paths.Specs) }

// DataDir returns the directory holding data files.
func (c Config) DataDir() string { return c.resolve(c.Paths.Data) }

// ArchiveDir returns the directory consumed data files are moved into.
func (c Config) ArchiveDir() string { return c.resolve(c.Paths.Archive) }

func (c Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Paths.Base == "" {
		return p
	}
	return filepath.Join(c.Paths.Base, p)
}
