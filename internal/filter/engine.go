package filter

import (
	"strings"
	"sync"
	"time"

	"github.com/nibzard/taskboard/internal/clock"
	"github.com/nibzard/taskboard/internal/debounce"
	"github.com/nibzard/taskboard/internal/task"
)

// DefaultSearchDelay is the default search debounce interval.
const DefaultSearchDelay = 300 * time.Millisecond

type memoKey struct {
	rev uint64
	Criteria
}

// Engine holds the view criteria. The search text reaches the view only
// after it has been stable for the debounce delay.
type Engine struct {
	search *debounce.Debouncer[string]

	mu        sync.Mutex
	rawSearch string
	priority  string
	status    string
	sort      SortKey

	memo      []task.Task
	memoKey   memoKey
	memoValid bool
}

// NewEngine returns an engine with default criteria. onSearch, if not nil,
// runs whenever the debounced search text changes.
func NewEngine(c clock.Clock, delay time.Duration, onSearch func(string)) *Engine {
	return &Engine{
		search:   debounce.New("", delay, c, onSearch),
		priority: All,
		status:   All,
		sort:     SortNewest,
	}
}

// SetSearch records the raw search text and restarts the debounce delay.
func (e *Engine) SetSearch(q string) {
	e.mu.Lock()
	e.rawSearch = q
	e.mu.Unlock()
	e.search.Set(q)
}

// RawSearch returns the search text as typed.
func (e *Engine) RawSearch() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rawSearch
}

// SetPriority sets the priority filter; All or "" disables it.
func (e *Engine) SetPriority(p string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.priority = orAll(p)
}

// SetStatus sets the status filter; All or "" disables it.
func (e *Engine) SetStatus(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = orAll(s)
}

// SetSort sets the sort key.
func (e *Engine) SetSort(k SortKey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sort = k
}

// Reset clears the search text and both filters. The sort key is kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.rawSearch = ""
	e.priority = All
	e.status = All
	e.mu.Unlock()

	e.search.Set("")
	e.search.Flush()
}

// Criteria returns the criteria the view is computed from, with the
// debounced search text.
func (e *Engine) Criteria() Criteria {
	search := e.search.Value()
	e.mu.Lock()
	defer e.mu.Unlock()
	return Criteria{Search: search, Priority: e.priority, Status: e.status, Sort: e.sort}
}

// ActiveFilterCount counts the active filters, using the raw search text so
// the count reacts before the debounce delay elapses.
func (e *Engine) ActiveFilterCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ActiveCount(Criteria{Search: e.rawSearch, Priority: e.priority, Status: e.status})
}

// View returns the derived sequence for tasks at revision rev. The result is
// shared with later calls for the same inputs and must not be modified.
func (e *Engine) View(rev uint64, tasks []task.Task) []task.Task {
	key := memoKey{rev: rev, Criteria: e.Criteria()}
	key.Search = strings.TrimSpace(key.Search)

	e.mu.Lock()
	if e.memoValid && e.memoKey == key {
		out := e.memo
		e.mu.Unlock()
		return out
	}
	e.mu.Unlock()

	out := Apply(tasks, key.Criteria)

	e.mu.Lock()
	e.memo = out
	e.memoKey = key
	e.memoValid = true
	e.mu.Unlock()
	return out
}

// Close cancels a pending search update.
func (e *Engine) Close() {
	e.search.Close()
}

func orAll(v string) string {
	if strings.TrimSpace(v) == "" {
		return All
	}
	return v
}
