// Package recent keeps the most recent distinct search queries.
package recent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskboard/internal/kv"
	"github.com/nibzard/taskboard/internal/persist"
)

// MaxItems is the number of queries kept.
const MaxItems = 5

// List is the recent-searches list, most recent first.
type List struct {
	kv     kv.Store
	key    string
	logger *log.Logger

	mu    sync.Mutex
	items []string
}

// New returns an empty list stored under persist.RecentSearchesKey.
func New(store kv.Store, logger *log.Logger) *List {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &List{kv: store, key: persist.RecentSearchesKey, logger: logger, items: []string{}}
}

// Load reads the stored list. A missing or unreadable blob yields an empty
// list; extra entries are dropped.
func (l *List) Load(ctx context.Context) []string {
	items := []string{}
	data, err := l.kv.Get(ctx, l.key)
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		l.logger.Warn("failed to read recent searches", "key", l.key, "err", err)
	default:
		var stored []string
		if err := json.Unmarshal(data, &stored); err != nil {
			l.logger.Warn("ignoring unreadable recent searches", "key", l.key, "err", err)
			break
		}
		for _, q := range stored {
			if strings.TrimSpace(q) != "" {
				items = append(items, q)
			}
		}
		if len(items) > MaxItems {
			items = items[:MaxItems]
		}
	}

	l.mu.Lock()
	l.items = items
	l.mu.Unlock()
	return l.Items()
}

// Items returns a copy of the list.
func (l *List) Items() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.items...)
}

// Add moves query to the front, replacing any entry that matches it
// case-insensitively. Blank queries are ignored.
func (l *List) Add(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	l.mu.Lock()
	items := []string{query}
	for _, q := range l.items {
		if !strings.EqualFold(q, query) {
			items = append(items, q)
		}
	}
	if len(items) > MaxItems {
		items = items[:MaxItems]
	}
	l.items = items
	l.mu.Unlock()
	return l.save(ctx, items)
}

// Remove deletes the exact entry query.
func (l *List) Remove(ctx context.Context, query string) error {
	l.mu.Lock()
	items := make([]string, 0, len(l.items))
	for _, q := range l.items {
		if q != query {
			items = append(items, q)
		}
	}
	changed := len(items) != len(l.items)
	l.items = items
	l.mu.Unlock()
	if !changed {
		return nil
	}
	return l.save(ctx, items)
}

// Clear empties the list.
func (l *List) Clear(ctx context.Context) error {
	l.mu.Lock()
	l.items = []string{}
	l.mu.Unlock()
	return l.save(ctx, []string{})
}

func (l *List) save(ctx context.Context, items []string) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal recent searches: %w", err)
	}
	if err := l.kv.Set(ctx, l.key, data); err != nil {
		l.logger.Warn("failed to save recent searches", "key", l.key, "err", err)
		return fmt.Errorf("save recent searches: %w", err)
	}
	return nil
}
