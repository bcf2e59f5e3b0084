package config

import (
	"time"

	"github.com/nibzard/taskboard/internal/kv"
	"github.com/nibzard/taskboard/internal/logging"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceDotEnv   ConfigSource = ".env file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource

	// Files lists the config files that were read, in load order.
	Files []string
}

// Default values.
const (
	DefaultStorage          = kv.BackendFile
	DefaultDataDir          = "~/.taskboard"
	DefaultRedisAddr        = "localhost:6379"
	DefaultRedisPrefix      = "taskboard:"
	DefaultMinLoadingMS     = 2000
	DefaultSearchDebounceMS = 300
	DefaultLocale           = "en"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

// Config holds the full configuration for taskboard.
type Config struct {
	// Storage
	Storage       string `toml:"storage"`
	DataDir       string `toml:"data_dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix"`
	SQLitePath    string `toml:"sqlite_path"`

	// Board timing
	MinLoadingMS     int `toml:"min_loading_ms"`
	SearchDebounceMS int `toml:"search_debounce_ms"`

	// Display
	Locale string `toml:"locale"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`
	LogFile       string `toml:"log_file"`
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"storage",
		"data_dir",
		"redis_addr",
		"redis_password",
		"redis_db",
		"redis_prefix",
		"sqlite_path",
		"min_loading_ms",
		"search_debounce_ms",
		"locale",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
		"log_file",
	}
}

// MinLoading returns the loading floor.
func (c *Config) MinLoading() time.Duration {
	return time.Duration(c.MinLoadingMS) * time.Millisecond
}

// SearchDebounce returns the search debounce delay.
func (c *Config) SearchDebounce() time.Duration {
	return time.Duration(c.SearchDebounceMS) * time.Millisecond
}

// KVOptions returns the storage backend options.
func (c *Config) KVOptions() kv.Options {
	return kv.Options{
		Backend:       c.Storage,
		Dir:           c.DataDir,
		SQLitePath:    c.SQLitePath,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		RedisPrefix:   c.RedisPrefix,
	}
}

// LogOptions returns the logger options.
func (c *Config) LogOptions() logging.Options {
	return logging.FromConfig(c.LogLevel, c.LogFormat, c.LogTimestamps, c.LogCaller)
}
