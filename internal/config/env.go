package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DotEnvFile is the dotenv file read from the working directory.
const DotEnvFile = ".env"

// envLookup resolves a variable from the process environment first and the
// dotenv values second. The process environment is never modified.
type envLookup struct {
	dotenv map[string]string
}

// readDotEnv reads path; a missing file yields no values.
func readDotEnv(path string) (envLookup, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return envLookup{}, nil
		}
		return envLookup{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return envLookup{dotenv: values}, nil
}

func (e envLookup) get(key string) (string, ConfigSource, bool) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v, SourceEnv, true
	}
	if v, ok := e.dotenv[key]; ok && v != "" {
		return v, SourceDotEnv, true
	}
	return "", "", false
}

// loadFromEnv overrides config from environment variables.
// If sources is non-nil, it tracks the source of each value.
func loadFromEnv(cfg *Config, env envLookup, sources map[string]ConfigSource) error {
	setString := func(key, field string, target *string) {
		if v, src, ok := env.get(key); ok {
			*target = v
			track(sources, field, src)
		}
	}
	setBool := func(key, field string, target *bool) {
		if v, src, ok := env.get(key); ok {
			*target = boolFromString(v)
			track(sources, field, src)
		}
	}
	var errs []error
	setInt := func(key, field string, target *int) {
		v, src, ok := env.get(key)
		if !ok {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*target = n
		track(sources, field, src)
	}

	setString("TASKBOARD_STORAGE", "storage", &cfg.Storage)
	setString("TASKBOARD_DATA_DIR", "data_dir", &cfg.DataDir)
	setString("TASKBOARD_REDIS_ADDR", "redis_addr", &cfg.RedisAddr)
	setString("TASKBOARD_REDIS_PASSWORD", "redis_password", &cfg.RedisPassword)
	setInt("TASKBOARD_REDIS_DB", "redis_db", &cfg.RedisDB)
	setString("TASKBOARD_REDIS_PREFIX", "redis_prefix", &cfg.RedisPrefix)
	setString("TASKBOARD_SQLITE_PATH", "sqlite_path", &cfg.SQLitePath)
	setInt("TASKBOARD_MIN_LOADING_MS", "min_loading_ms", &cfg.MinLoadingMS)
	setInt("TASKBOARD_SEARCH_DEBOUNCE_MS", "search_debounce_ms", &cfg.SearchDebounceMS)
	setString("TASKBOARD_LOCALE", "locale", &cfg.Locale)

	// Logging configuration
	setString("TASKBOARD_LOG_LEVEL", "log_level", &cfg.LogLevel)
	setString("TASKBOARD_LOG_FORMAT", "log_format", &cfg.LogFormat)
	setBool("TASKBOARD_LOG_TIMESTAMPS", "log_timestamps", &cfg.LogTimestamps)
	setBool("TASKBOARD_LOG_CALLER", "log_caller", &cfg.LogCaller)
	setString("TASKBOARD_LOG_FILE", "log_file", &cfg.LogFile)

	return errors.Join(errs...)
}

func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

func track(sources map[string]ConfigSource, field string, source ConfigSource) {
	if sources != nil {
		sources[field] = source
	}
}
