package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/nibzard/taskboard/internal/config"
	"github.com/nibzard/taskboard/internal/kv"
	"github.com/nibzard/taskboard/internal/recent"
	"github.com/nibzard/taskboard/internal/theme"
)

// withKV opens the configured backend without loading tasks.
func withKV(ctx context.Context, cfg *config.Config, fn func(kv.Store) error) (err error) {
	store, err := kv.Open(ctx, cfg.KVOptions())
	if err != nil {
		return fmt.Errorf("opening %s storage: %w", cfg.Storage, err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing storage: %w", cerr)
		}
	}()
	return fn(store)
}

// recentCommand lists or edits the recent searches.
func recentCommand(ctx context.Context, cfg *config.Config, args []string) error {
	action := "list"
	if len(args) > 0 {
		action, args = args[0], args[1:]
	}
	logger := cliLogger(cfg)

	return withKV(ctx, cfg, func(store kv.Store) error {
		list := recent.New(store, logger)
		list.Load(ctx)

		switch action {
		case "list", "ls":
			if len(args) != 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
		case "add":
			if err := list.Add(ctx, strings.Join(args, " ")); err != nil {
				return err
			}
		case "rm", "remove":
			if len(args) == 0 {
				return errors.New("usage: taskboard recent rm <query>")
			}
			if err := list.Remove(ctx, strings.Join(args, " ")); err != nil {
				return err
			}
		case "clear":
			if err := list.Clear(ctx); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown recent action: %s", action)
		}

		items := list.Items()
		if len(items) == 0 {
			fmt.Fprintln(stdout, "No recent searches.")
			return nil
		}
		for i, q := range items {
			fmt.Fprintf(stdout, "%d. %s\n", i+1, q)
		}
		return nil
	})
}

// themeCommand prints or changes the stored theme.
func themeCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("unexpected arguments: %v", args[1:])
	}
	logger := cliLogger(cfg)

	return withKV(ctx, cfg, func(store kv.Store) error {
		pref := theme.NewPreference(store, logger, nil)
		current := pref.Load(ctx)

		if len(args) == 1 {
			switch args[0] {
			case "toggle":
				current = pref.Toggle(ctx)
			default:
				t, err := theme.Parse(args[0])
				if err != nil {
					return err
				}
				pref.Set(ctx, t)
				current = t
			}
		}
		fmt.Fprintln(stdout, current)
		return nil
	})
}

// configCommand prints the effective configuration and where each value
// came from.
func configCommand(cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("taskboard config", flag.ContinueOnError)
	fs.SetOutput(stderr)
	example := fs.Bool("example", false, "Print an example configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *example {
		fmt.Fprint(stdout, config.ExampleConfig())
		return nil
	}

	cfg := cws.Config
	values := map[string]any{
		"storage":            cfg.Storage,
		"data_dir":           cfg.DataDir,
		"redis_addr":         cfg.RedisAddr,
		"redis_password":     mask(cfg.RedisPassword),
		"redis_db":           cfg.RedisDB,
		"redis_prefix":       cfg.RedisPrefix,
		"sqlite_path":        cfg.SQLitePath,
		"min_loading_ms":     cfg.MinLoadingMS,
		"search_debounce_ms": cfg.SearchDebounceMS,
		"locale":             cfg.Locale,
		"log_level":          cfg.LogLevel,
		"log_format":         cfg.LogFormat,
		"log_timestamps":     cfg.LogTimestamps,
		"log_caller":         cfg.LogCaller,
		"log_file":           cfg.LogFile,
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(cws.Files) > 0 {
		fmt.Fprintf(stdout, "Config files: %s\n\n", strings.Join(cws.Files, ", "))
	}
	for _, k := range keys {
		fmt.Fprintf(stdout, "%-20s %-40v (%s)\n", k, values[k], cws.Sources[k])
	}
	return nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
