package config

import (
	"flag"
)

// flagToField maps flag names to config field names.
var flagToField = map[string]string{
	"storage":            "storage",
	"data-dir":           "data_dir",
	"redis-addr":         "redis_addr",
	"redis-password":     "redis_password",
	"redis-db":           "redis_db",
	"redis-prefix":       "redis_prefix",
	"sqlite-path":        "sqlite_path",
	"min-loading-ms":     "min_loading_ms",
	"search-debounce-ms": "search_debounce_ms",
	"locale":             "locale",
	"log-level":          "log_level",
	"log-format":         "log_format",
	"log-timestamps":     "log_timestamps",
	"log-caller":         "log_caller",
	"log-file":           "log_file",
}

// parseFlags defines the global flags on fs, parses args and applies the
// values that were set. If sources is non-nil, it tracks them.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("taskboard", flag.ContinueOnError)
	}

	// Storage
	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "Storage backend (memory|file|redis|sqlite)")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for the file backend, database and log")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address")
	fs.StringVar(&cfg.RedisPassword, "redis-password", cfg.RedisPassword, "Redis password")
	fs.IntVar(&cfg.RedisDB, "redis-db", cfg.RedisDB, "Redis database number")
	fs.StringVar(&cfg.RedisPrefix, "redis-prefix", cfg.RedisPrefix, "Redis key prefix")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "SQLite database path (default <data-dir>/taskboard.db)")

	// Board timing
	fs.IntVar(&cfg.MinLoadingMS, "min-loading-ms", cfg.MinLoadingMS, "Minimum loading screen duration in the TUI (ms)")
	fs.IntVar(&cfg.SearchDebounceMS, "search-debounce-ms", cfg.SearchDebounceMS, "Search debounce delay (ms)")

	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Display language (en|ko)")

	// Logging
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text|json|logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Include timestamps in logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Include caller in logs")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file used by the TUI (default <data-dir>/taskboard.log)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Track which flags were set
	fs.Visit(func(f *flag.Flag) {
		if field, ok := flagToField[f.Name]; ok {
			track(sources, field, SourceFlag)
		}
	})
	return nil
}
