package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nibzard/taskboard/internal/task"
)

// All disables the priority or status filter.
const All = "all"

// SortKey selects the display order.
type SortKey string

const (
	SortNewest       SortKey = "newest"
	SortOldest       SortKey = "oldest"
	SortPriorityHigh SortKey = "priority-high"
	SortPriorityLow  SortKey = "priority-low"
)

// SortKeys returns the sort keys in menu order.
func SortKeys() []SortKey {
	return []SortKey{SortNewest, SortOldest, SortPriorityHigh, SortPriorityLow}
}

// ParseSort normalizes a sort key. An empty input yields SortNewest.
func ParseSort(input string) (SortKey, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return SortNewest, nil
	}
	s = strings.ReplaceAll(s, "_", "-")
	for _, key := range SortKeys() {
		if string(key) == s {
			return key, nil
		}
	}
	return "", fmt.Errorf("invalid sort %q (want newest, oldest, priority-high or priority-low)", input)
}

// Criteria are the inputs of the derived view. Empty Priority or Status
// behave as All.
type Criteria struct {
	Search   string
	Priority string
	Status   string
	Sort     SortKey
}

// DefaultCriteria matches everything, newest first.
func DefaultCriteria() Criteria {
	return Criteria{Priority: All, Status: All, Sort: SortNewest}
}

// Apply filters tasks by c and sorts the result. The input slice is not
// modified. Equal sort keys keep collection order.
func Apply(tasks []task.Task, c Criteria) []task.Task {
	query := strings.ToLower(strings.TrimSpace(c.Search))
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if match(t, query, c) {
			out = append(out, t)
		}
	}

	var less func(a, b task.Task) bool
	switch c.Sort {
	case SortOldest:
		less = func(a, b task.Task) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortPriorityHigh:
		less = func(a, b task.Task) bool { return a.Priority.Weight() > b.Priority.Weight() }
	case SortPriorityLow:
		less = func(a, b task.Task) bool { return a.Priority.Weight() < b.Priority.Weight() }
	default:
		less = func(a, b task.Task) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// match reports whether t passes the search and the priority and status
// filters. query is the lowercased, trimmed search text.
func match(t task.Task, query string, c Criteria) bool {
	if query != "" && !strings.Contains(strings.ToLower(t.Title), query) {
		return false
	}
	return passes(c.Priority, string(t.Priority)) && passes(c.Status, string(t.Status))
}

func passes(want, got string) bool {
	return want == "" || want == All || want == got
}

// ActiveCount counts the criteria that narrow the view: a non-blank search,
// a priority filter and a status filter.
func ActiveCount(c Criteria) int {
	n := 0
	if strings.TrimSpace(c.Search) != "" {
		n++
	}
	if !passes(c.Priority, "") {
		n++
	}
	if !passes(c.Status, "") {
		n++
	}
	return n
}

// Segment is a run of title text, marked when it matches the search.
type Segment struct {
	Text  string
	Match bool
}

// Highlight splits title into segments around case-insensitive occurrences
// of query.
func Highlight(title, query string) []Segment {
	q := []rune(strings.TrimSpace(query))
	r := []rune(title)
	if len(q) == 0 || len(q) > len(r) {
		return []Segment{{Text: title}}
	}
	needle := string(q)

	var segs []Segment
	start := 0
	for i := 0; i+len(q) <= len(r); {
		if strings.EqualFold(string(r[i:i+len(q)]), needle) {
			if i > start {
				segs = append(segs, Segment{Text: string(r[start:i])})
			}
			segs = append(segs, Segment{Text: string(r[i : i+len(q)]), Match: true})
			i += len(q)
			start = i
			continue
		}
		i++
	}
	if start < len(r) {
		segs = append(segs, Segment{Text: string(r[start:])})
	}
	return segs
}
