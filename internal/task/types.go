package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents a task status lane.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses returns the status lanes in board order.
func Statuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusDone}
}

// Valid reports whether s is a member of the enumeration.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ParseStatus normalizes user input to a Status.
// Accepts "in_progress" and "doing" as aliases for in-progress.
func ParseStatus(input string) (Status, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	switch s {
	case "in_progress", "inprogress", "doing":
		return StatusInProgress, nil
	}
	status := Status(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, input)
	}
	return status, nil
}

// Priority represents a task priority.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities returns the priorities from lowest to highest.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// Valid reports whether p is a member of the enumeration.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Weight returns the sort weight: high=3, medium=2, low=1, unknown=0.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// ParsePriority normalizes user input to a Priority.
func ParsePriority(input string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(input)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, input)
	}
	return p, nil
}

// Task represents a single card on the board.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DueDate     *time.Time `json:"dueDate"`
	Tags        []string   `json:"tags"`
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	out := t
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	out.Tags = append([]string{}, t.Tags...)
	return out
}

// CloneAll deep-copies a collection. A nil input yields an empty slice.
func CloneAll(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].Clone()
	}
	return out
}

// Draft holds the user-editable fields of a task being created.
type Draft struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
	Tags        []string
}

// New creates a task from a draft, assigning a fresh id and timestamps.
// Empty status and priority default to todo and medium.
func New(d Draft, now time.Time) (Task, error) {
	status := d.Status
	if status == "" {
		status = StatusTodo
	}
	priority := d.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	now = now.UTC()

	t := Task{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Status:      status,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
		Tags:        normalizeTags(d.Tags),
	}
	if d.DueDate != nil {
		due := d.DueDate.UTC()
		t.DueDate = &due
	}
	if err := Validate(t); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Title        *string
	Description  *string
	Status       *Status
	Priority     *Priority
	DueDate      *time.Time
	ClearDueDate bool
	Tags         *[]string
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.DueDate == nil && !p.ClearDueDate && p.Tags == nil
}

// Apply merges p into t and refreshes UpdatedAt. The id and CreatedAt never
// change, and UpdatedAt never moves backwards. The merged record must pass
// Validate.
func Apply(t Task, p Patch, now time.Time) (Task, error) {
	out := t.Clone()
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		out.Description = strings.TrimSpace(*p.Description)
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.ClearDueDate {
		out.DueDate = nil
	} else if p.DueDate != nil {
		due := p.DueDate.UTC()
		out.DueDate = &due
	}
	if p.Tags != nil {
		out.Tags = normalizeTags(*p.Tags)
	}

	now = now.UTC()
	if now.Before(t.UpdatedAt) {
		now = t.UpdatedAt
	}
	out.UpdatedAt = now

	if err := Validate(out); err != nil {
		return Task{}, err
	}
	return out, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Validation causes wrapped by ValidationError.
var (
	ErrRequired        = errors.New("missing required field")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrTimestamps      = errors.New("updatedAt is before createdAt")
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	Field string // JSON field name or path
	Err   error  // Underlying error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate reports whether t is a well-formed record.
func Validate(t Task) error {
	if t.ID == "" {
		return &ValidationError{Field: "id", Err: ErrRequired}
	}
	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{Field: "title", Err: ErrRequired}
	}
	if !t.Status.Valid() {
		return &ValidationError{
			Field: "status",
			Err:   fmt.Errorf("%w %q, must be one of: todo, in-progress, done", ErrInvalidStatus, t.Status),
		}
	}
	if !t.Priority.Valid() {
		return &ValidationError{
			Field: "priority",
			Err:   fmt.Errorf("%w %q, must be one of: low, medium, high", ErrInvalidPriority, t.Priority),
		}
	}
	if t.CreatedAt.IsZero() {
		return &ValidationError{Field: "createdAt", Err: ErrRequired}
	}
	if t.UpdatedAt.IsZero() {
		return &ValidationError{Field: "updatedAt", Err: ErrRequired}
	}
	if t.UpdatedAt.Before(t.CreatedAt) {
		return &ValidationError{Field: "updatedAt", Err: ErrTimestamps}
	}
	return nil
}

// Find returns the index of the task with id, or -1.
func Find(tasks []Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
