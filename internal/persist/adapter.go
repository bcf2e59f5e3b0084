package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskboard/internal/kv"
	"github.com/nibzard/taskboard/internal/task"
)

// Storage keys shared with the browser version of the board.
const (
	TasksKey          = "kanban-tasks"
	RecentSearchesKey = "kanban-recent-searches"
	ThemeKey          = "kanban-theme"
)

// LoadOptions controls how Load reacts to an unusable blob.
type LoadOptions struct {
	// ThrowOnError returns *LoadError instead of the fallback.
	ThrowOnError bool
}

// Adapter translates the task collection to and from a kv.Store.
type Adapter struct {
	kv     kv.Store
	key    string
	logger *log.Logger
}

// NewAdapter returns an adapter bound to TasksKey. A nil logger discards output.
func NewAdapter(store kv.Store, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Adapter{kv: store, key: TasksKey, logger: logger}
}

// Key returns the storage key the adapter reads and writes.
func (a *Adapter) Key() string {
	return a.key
}

// Load reads the stored collection. When the key is absent, fallback is
// written and returned. The returned slice is never nil on success.
func (a *Adapter) Load(ctx context.Context, fallback []task.Task, opts LoadOptions) ([]task.Task, error) {
	data, err := a.kv.Get(ctx, a.key)
	if errors.Is(err, kv.ErrNotFound) {
		a.logger.Debug("no stored tasks, seeding fallback", "key", a.key, "count", len(fallback))
		out := task.CloneAll(fallback)
		_ = a.Save(ctx, out)
		return out, nil
	}
	if err != nil {
		return a.recover(fallback, opts, fmt.Errorf("read: %w", err))
	}

	tasks, err := a.decode(data)
	if err != nil {
		return a.recover(fallback, opts, err)
	}
	return tasks, nil
}

func (a *Adapter) recover(fallback []task.Task, opts LoadOptions, cause error) ([]task.Task, error) {
	lerr := &LoadError{Key: a.key, Err: cause}
	if opts.ThrowOnError {
		a.logger.Error("failed to load tasks", "key", a.key, "err", cause)
		return nil, lerr
	}
	a.logger.Warn("failed to load tasks, using fallback", "key", a.key, "err", cause)
	return task.CloneAll(fallback), nil
}

// decode parses a JSON array and keeps the records that validate.
func (a *Adapter) decode(data []byte) ([]task.Task, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("parse: invalid JSON")
		}
		return nil, fmt.Errorf("parse: stored value is not an array")
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	tasks := make([]task.Task, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	for i, raw := range raws {
		if err := task.ValidateJSON(raw); err != nil {
			a.logger.Warn("dropping invalid task record", "key", a.key, "index", i, "err", err)
			continue
		}
		var t task.Task
		if err := json.Unmarshal(raw, &t); err != nil {
			a.logger.Warn("dropping undecodable task record", "key", a.key, "index", i, "err", err)
			continue
		}
		if t.Tags == nil {
			t.Tags = []string{}
		}
		if err := task.Validate(t); err != nil {
			a.logger.Warn("dropping invalid task record", "key", a.key, "index", i, "err", err)
			continue
		}
		if seen[t.ID] {
			a.logger.Warn("dropping duplicate task id", "key", a.key, "index", i, "id", t.ID)
			continue
		}
		seen[t.ID] = true
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Save overwrites the stored collection with tasks.
func (a *Adapter) Save(ctx context.Context, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		serr := &SaveError{Key: a.key, Err: fmt.Errorf("marshal: %w", err)}
		a.logger.Error("failed to save tasks", "key", a.key, "err", serr.Err)
		return serr
	}
	if err := a.kv.Set(ctx, a.key, data); err != nil {
		a.logger.Error("failed to save tasks", "key", a.key, "err", err)
		return &SaveError{Key: a.key, Err: err}
	}
	a.logger.Debug("saved tasks", "key", a.key, "count", len(tasks), "bytes", len(data))
	return nil
}

// Clear removes the stored collection.
func (a *Adapter) Clear(ctx context.Context) error {
	if err := a.kv.Delete(ctx, a.key); err != nil {
		a.logger.Error("failed to clear tasks", "key", a.key, "err", err)
		return &ClearError{Key: a.key, Err: err}
	}
	return nil
}
