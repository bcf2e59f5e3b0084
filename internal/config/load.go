package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/taskboard/internal/kv"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.taskboard/taskboard.toml or OS-specific config dir)
// 3. Project config file (taskboard.toml or .taskboard.toml in current directory)
// 4. .env file in the current directory
// 5. Environment variables
// 6. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cws, err := load(fs, args, nil)
	if err != nil {
		return nil, err
	}
	return cws.Config, nil
}

// LoadWithSources loads configuration and tracks the source of each value.
// Returns ConfigWithSources containing the config and a map of field names to their sources.
func LoadWithSources(fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	sources := make(map[string]ConfigSource)
	for _, field := range configFields() {
		sources[field] = SourceDefault
	}
	return load(fs, args, sources)
}

func load(fs *flag.FlagSet, args []string, sources map[string]ConfigSource) (*ConfigWithSources, error) {
	cfg := &Config{}
	cws := &ConfigWithSources{Config: cfg, Sources: sources}

	// 1. Set defaults
	setDefaults(cfg)

	// 2. Try to load from user config file
	if userConfigFile := findUserConfigFile(); userConfigFile != "" {
		if err := loadConfigFile(cfg, userConfigFile, sources, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userConfigFile, err)
		}
		cws.Files = append(cws.Files, userConfigFile)
	}

	// 3. Try to load from project config file (overrides user config)
	if projectConfigFile := findProjectConfigFile(); projectConfigFile != "" {
		if err := loadConfigFile(cfg, projectConfigFile, sources, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", projectConfigFile, err)
		}
		cws.Files = append(cws.Files, projectConfigFile)
	}

	// 4. Read .env; real environment variables still win
	env, err := readDotEnv(DotEnvFile)
	if err != nil {
		return nil, err
	}

	// 5. Override from environment
	if err := loadFromEnv(cfg, env, sources); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	// 6. Parse CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args, sources); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 7. Compute derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return cws, nil
}

// loadConfigFile decodes TOML from path onto cfg. Only keys present in the
// file are overwritten; if sources is non-nil they are recorded as source.
func loadConfigFile(cfg *Config, path string, sources map[string]ConfigSource, source ConfigSource) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if sources == nil {
		return nil
	}
	known := make(map[string]bool, len(configFields()))
	for _, field := range configFields() {
		known[field] = true
	}
	for _, key := range md.Keys() {
		if name := key.String(); known[name] {
			sources[name] = source
		}
	}
	return nil
}

// finalizeConfig computes derived values and validates the result.
func finalizeConfig(cfg *Config) error {
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	switch cfg.Storage {
	case kv.BackendMemory, kv.BackendFile, kv.BackendRedis, kv.BackendSQLite:
	case "":
		cfg.Storage = DefaultStorage
	default:
		return fmt.Errorf("unknown storage backend %q (want memory, file, redis or sqlite)", cfg.Storage)
	}

	var errs []error
	if cfg.MinLoadingMS < 0 {
		errs = append(errs, fmt.Errorf("min_loading_ms must not be negative, got %d", cfg.MinLoadingMS))
	}
	if cfg.SearchDebounceMS < 0 {
		errs = append(errs, fmt.Errorf("search_debounce_ms must not be negative, got %d", cfg.SearchDebounceMS))
	}
	if cfg.RedisDB < 0 {
		errs = append(errs, fmt.Errorf("redis_db must not be negative, got %d", cfg.RedisDB))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	resolvePaths(cfg)
	if strings.TrimSpace(cfg.Locale) == "" {
		cfg.Locale = DefaultLocale
	}
	return nil
}
