package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskboard/internal/config"
	"github.com/nibzard/taskboard/internal/kv"
	"github.com/nibzard/taskboard/internal/locale"
	"github.com/nibzard/taskboard/internal/logging"
	"github.com/nibzard/taskboard/internal/persist"
	"github.com/nibzard/taskboard/internal/store"
)

// flushTimeout bounds the final write on exit.
const flushTimeout = 5 * time.Second

// board bundles the storage stack shared by the commands.
type board struct {
	kv     kv.Store
	store  *store.Store
	tr     *locale.Translator
	logger *log.Logger
}

// openBoard opens the configured backend and loads the tasks. CLI commands
// pass a zero minLoading so the store is ready on return.
func openBoard(ctx context.Context, cfg *config.Config, logger *log.Logger, minLoading time.Duration) (*board, error) {
	kvStore, err := kv.Open(ctx, cfg.KVOptions())
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", cfg.Storage, err)
	}
	logger.Debug("storage opened", "backend", cfg.Storage)

	st := store.New(ctx, persist.NewAdapter(kvStore, logger),
		store.WithMinLoading(minLoading),
		store.WithLogger(logger),
	)

	return &board{
		kv:     kvStore,
		store:  st,
		tr:     translator(cfg.Locale, logger),
		logger: logger,
	}, nil
}

// Close writes pending changes and releases storage.
func (b *board) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()

	var firstErr error
	if err := b.store.Flush(ctx); err != nil {
		firstErr = fmt.Errorf("flushing tasks: %w", err)
	}
	if err := b.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := b.kv.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing storage: %w", err)
	}
	return firstErr
}

// warnLoadError reports a load failure on stderr. The commands keep working
// on the default tasks.
func (b *board) warnLoadError() {
	if st := b.store.State(); st.Error != "" {
		fmt.Fprintf(stderr, "warning: %s\n", st.Error)
	}
}

// translator returns the translator for lang, or English when lang is not a
// valid language tag.
func translator(lang string, logger *log.Logger) *locale.Translator {
	tr, err := locale.New(lang)
	if err == nil {
		return tr
	}
	logger.Warn("falling back to English", "locale", lang, "err", err)
	tr, err = locale.New(locale.English)
	if err != nil {
		// The English catalog is embedded; failing here is a build defect.
		panic(err)
	}
	return tr
}

// cliLogger logs to stderr.
func cliLogger(cfg *config.Config) *log.Logger {
	return logging.New(stderr, cfg.LogOptions())
}
