package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"fwimport/internal/errs"
)

// EnvPrefix prefixes native environment variables. The first underscore
// after the prefix separates the section from the key:
// FWIMPORT_STORAGE_MAX_CONNS sets storage.max_conns.
const EnvPrefix = "FWIMPORT_"

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"storage":     "storage.kind",
	"dsn":         "storage.dsn",
	"max-conns":   "storage.max_conns",
	"base":        "paths.base",
	"specs":       "paths.specs",
	"data":        "paths.data",
	"archive":     "paths.archive",
	"match":       "match.mode",
	"layout":      "parse.layout",
	"encoding":    "parse.encoding",
	"workers":     "runtime.workers",
	"rejects-dir": "rejects.dir",
	"metrics":     "metrics.backend",
	"metrics-url": "metrics.url",
	"metrics-job": "metrics.job",
	"log-level":   "log.level",
	"log-format":  "log.format",
}

// BindFlags registers the configuration flags on fs. Only flags the user
// sets override lower layers.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("storage", "", "storage kind (postgres, sqlite, mysql, mssql)")
	fs.String("dsn", "", "database connection string")
	fs.Int("max-conns", 0, "maximum database connections")
	fs.String("base", "", "base directory for relative paths")
	fs.String("specs", "", "specification file directory")
	fs.String("data", "", "data file directory")
	fs.String("archive", "", "archive directory for consumed data files")
	fs.String("match", "", "file matching mode (substring, prefix)")
	fs.String("layout", "", "fixed-width offset layout (legacy, standard)")
	fs.String("encoding", "", "data file text encoding")
	fs.Int("workers", 0, "jobs run in parallel (needs --match=prefix above 1)")
	fs.String("rejects-dir", "", "directory for rejected-row logs")
	fs.String("metrics", "", "metrics backend (none, pushgateway, datadog)")
	fs.String("metrics-url", "", "pushgateway URL or statsd address")
	fs.String("metrics-job", "", "metrics job name")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("log-format", "", "log format (text, json)")
}

// Load builds a Config from defaults, the YAML file at cfgFile (optional),
// the environment and the explicitly set flags in fs (may be nil).
func Load(cfgFile string, fs *pflag.FlagSet) (Config, error) {
	return load(cfgFile, fs, os.LookupEnv)
}

func load(cfgFile string, fs *pflag.FlagSet, lookup func(string) (string, bool)) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return Config{}, errs.E(errs.KindConfiguration, "load defaults", err)
	}

	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return Config{}, errs.At(errs.KindConfiguration, "read config file", cfgFile, 0, err)
		}
	}

	target := k.String("target")
	if v, ok := lookup("TARGET"); ok && v != "" {
		target = v
	}
	legacy, err := legacyEnv(target, lookup)
	if err != nil {
		return Config{}, err
	}
	if err := k.Load(confmap.Provider(legacy, "."), nil); err != nil {
		return Config{}, errs.E(errs.KindConfiguration, "load legacy env", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, errs.E(errs.KindConfiguration, "load env", err)
	}

	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		}), nil); err != nil {
			return Config{}, errs.E(errs.KindConfiguration, "load flags", err)
		}
		if v, err := fs.GetBool("verbose"); err == nil && v {
			_ = k.Set("log.level", "debug")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errs.E(errs.KindConfiguration, "decode config", err)
	}
	return cfg, nil
}

// envKey maps FWIMPORT_RUNTIME_WORKERS to runtime.workers.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

// legacyEnv translates the legacy settings variables into configuration
// keys. target "testing" reads the TEST_-prefixed variants of the path and
// database variables.
func legacyEnv(target string, lookup func(string) (string, bool)) (map[string]any, error) {
	out := map[string]any{}
	var prefix string
	switch target {
	case "":
	case "development":
	case "testing":
		prefix = "TEST_"
	default:
		return nil, errs.E(errs.KindConfiguration, "target",
			fmt.Errorf("target %q does not exist (want development or testing)", target))
	}
	if target != "" {
		out["target"] = target
	}

	get := func(name string) string {
		v, _ := lookup(name)
		return strings.TrimSpace(v)
	}
	if v := get("DIRECTORY_BASE_PATH"); v != "" {
		out["paths.base"] = v
	}
	for name, key := range map[string]string{
		"DATA_PATH":        "paths.data",
		"SPECS_PATH":       "paths.specs",
		"PARSED_DATA_PATH": "paths.archive",
	} {
		if v := get(prefix + name); v != "" {
			out[key] = v
		}
	}

	if dsn := rdsDSN(get(prefix+"RDS_DB_NAME"), get(prefix+"RDS_USERNAME"), get(prefix+"RDS_PASSWORD"),
		get(prefix+"RDS_HOSTNAME"), get(prefix+"RDS_PORT")); dsn != "" {
		out["storage.dsn"] = dsn
	}
	return out, nil
}

// rdsDSN assembles a postgres URL from the legacy RDS_* settings. It returns
// "" unless database, user and host are all present.
func rdsDSN(db, user, password, host, port string) string {
	if db == "" || user == "" || host == "" {
		return ""
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	}
	u := url.URL{Scheme: "postgres", Host: host, Path: "/" + db}
	if password != "" {
		u.User = url.UserPassword(user, password)
	} else {
		u.User = url.User(user)
	}
	return u.String()
}
