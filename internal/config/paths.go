package config

import (
	"os"
	"path/filepath"
	"strings"
)

// File names placed under the data directory when no explicit path is set.
const (
	defaultSQLiteFile = "taskboard.db"
	defaultLogFile    = "taskboard.log"
)

// resolvePaths expands the configured paths and derives the SQLite database
// and log file from the data directory when they are unset.
func resolvePaths(cfg *Config) {
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = DefaultDataDir
	}
	cfg.DataDir = expandPath(cfg.DataDir)
	cfg.SQLitePath = expandPath(cfg.SQLitePath)
	cfg.LogFile = expandPath(cfg.LogFile)

	if cfg.SQLitePath == "" {
		cfg.SQLitePath = filepath.Join(cfg.DataDir, defaultSQLiteFile)
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, defaultLogFile)
	}
}

// expandPath expands $VAR references and a leading ~ to the home directory.
// The path is returned unchanged when the home directory is unknown.
func expandPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)

	rest, ok := trimHome(p)
	if !ok {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if rest == "" {
		return home
	}
	return filepath.Join(home, rest)
}

// trimHome strips "~" or "~/" (or "~" plus the OS separator) from p.
func trimHome(p string) (string, bool) {
	if p == "~" {
		return "", true
	}
	for _, prefix := range []string{"~/", "~" + string(filepath.Separator)} {
		if rest, ok := strings.CutPrefix(p, prefix); ok {
			return rest, true
		}
	}
	return "", false
}
