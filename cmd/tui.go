package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/nibzard/taskboard/internal/config"
	"github.com/nibzard/taskboard/internal/logging"
	"github.com/nibzard/taskboard/internal/recent"
	"github.com/nibzard/taskboard/internal/theme"
	"github.com/nibzard/taskboard/internal/ui"
)

// tuiCommand opens the board. Logs go to the configured log file so they
// never draw over the screen.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) (err error) {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	if !ui.IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY; use 'taskboard ls' to list tasks")
	}

	logFile, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	logger := logging.New(logFile, cfg.LogOptions())

	b, err := openBoard(ctx, cfg, logger, cfg.MinLoading())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := b.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()

	searches := recent.New(b.kv, logger)
	searches.Load(ctx)
	pref := theme.NewPreference(b.kv, logger, nil)
	pref.Load(ctx)

	logger.Info("board opened", "backend", cfg.Storage, "locale", b.tr.Lang())
	return ui.Run(ctx, ui.Deps{
		Store:       b.store,
		Recent:      searches,
		Theme:       pref,
		Translator:  b.tr,
		Logger:      logger,
		SearchDelay: cfg.SearchDebounce(),
	})
}
