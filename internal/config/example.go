package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# taskboard configuration file
# Values can be overridden by a .env file, TASKBOARD_* environment variables or CLI flags

# Storage backend: memory, file, redis or sqlite
storage = "file"

# Data directory for the file backend, the default SQLite database and the TUI log
# (supports ~ expansion and %VAR% on Windows)
data_dir = "~/.taskboard"

# Redis backend
redis_addr = "localhost:6379"
# redis_password = ""
redis_db = 0
redis_prefix = "taskboard:"

# SQLite backend (default: <data_dir>/taskboard.db)
# sqlite_path = "~/.taskboard/taskboard.db"

# Minimum time the TUI shows the loading screen, in milliseconds
min_loading_ms = 2000

# Delay between the last keystroke and the search being applied, in milliseconds
search_debounce_ms = 300

# Display language: en or ko
locale = "en"

# Logging
log_level = "info"      # debug, info, warn, error
log_format = "text"     # text, json, logfmt
log_timestamps = false
log_caller = false
# log_file = "~/.taskboard/taskboard.log"
`
}
