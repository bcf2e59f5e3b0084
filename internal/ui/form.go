package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/taskboard/internal/task"
)

type formField int

const (
	fieldTitle formField = iota
	fieldDescription
	fieldPriority
	fieldStatus
	fieldDue
	fieldTags
	fieldCount
)

const dueLayout = "2006-01-02"

// form is the create / edit dialog. editID is empty when creating.
type form struct {
	editID  string
	created time.Time

	title       textinput.Model
	description textinput.Model
	due         textinput.Model
	tags        textinput.Model
	priority    task.Priority
	status      task.Status

	focus formField
	err   string
}

func newInput(charLimit int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = charLimit
	ti.Width = 48
	return ti
}

func newForm(status task.Status) *form {
	if !status.Valid() {
		status = task.StatusTodo
	}
	f := &form{
		title:       newInput(200),
		description: newInput(1000),
		due:         newInput(len(dueLayout)),
		tags:        newInput(200),
		priority:    task.PriorityMedium,
		status:      status,
	}
	f.setFocus(fieldTitle)
	return f
}

func editForm(t task.Task) *form {
	f := newForm(t.Status)
	f.editID = t.ID
	f.created = t.CreatedAt
	f.priority = t.Priority
	f.title.SetValue(t.Title)
	f.description.SetValue(t.Description)
	f.tags.SetValue(strings.Join(t.Tags, ", "))
	if t.DueDate != nil {
		f.due.SetValue(t.DueDate.Format(dueLayout))
	}
	return f
}

func (f *form) editing() bool {
	return f.editID != ""
}

// text returns the input of the focused text field, or nil when the focused
// field is a choice.
func (f *form) text() *textinput.Model {
	return f.input(f.focus)
}

func (f *form) input(id formField) *textinput.Model {
	switch id {
	case fieldTitle:
		return &f.title
	case fieldDescription:
		return &f.description
	case fieldDue:
		return &f.due
	case fieldTags:
		return &f.tags
	}
	return nil
}

// setFocus moves the cursor to id; only the focused input accepts keys.
func (f *form) setFocus(id formField) {
	f.focus = id
	for i := formField(0); i < fieldCount; i++ {
		if in := f.input(i); in != nil {
			if i == id {
				in.Focus()
			} else {
				in.Blur()
			}
		}
	}
}

func (f *form) next() {
	f.setFocus((f.focus + 1) % fieldCount)
}

func (f *form) prev() {
	f.setFocus((f.focus + fieldCount - 1) % fieldCount)
}

// update forwards a key to the focused text input.
func (f *form) update(msg tea.Msg) tea.Cmd {
	in := f.text()
	if in == nil {
		return nil
	}
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	return cmd
}

// cycle steps the focused choice field by delta.
func (f *form) cycle(delta int) {
	switch f.focus {
	case fieldPriority:
		f.priority = step(task.Priorities(), f.priority, delta)
	case fieldStatus:
		f.status = step(task.Statuses(), f.status, delta)
	}
}

func step[T comparable](values []T, cur T, delta int) T {
	i := 0
	for j, v := range values {
		if v == cur {
			i = j
			break
		}
	}
	n := len(values)
	return values[((i+delta)%n+n)%n]
}

// formInput is the parsed content of a submitted form.
type formInput struct {
	title       string
	description string
	priority    task.Priority
	status      task.Status
	due         *time.Time
	tags        []string
}

// errTitle and errDue identify which message the form shows.
const (
	errTitle = "title"
	errDue   = "due"
)

// parse validates the buffers. On failure it returns the failing field and
// moves focus there.
func (f *form) parse() (formInput, string) {
	in := formInput{
		title:       strings.TrimSpace(f.title.Value()),
		description: strings.TrimSpace(f.description.Value()),
		priority:    f.priority,
		status:      f.status,
		tags:        splitTags(f.tags.Value()),
	}
	if in.title == "" {
		f.setFocus(fieldTitle)
		return formInput{}, errTitle
	}
	if raw := strings.TrimSpace(f.due.Value()); raw != "" {
		due, err := time.ParseInLocation(dueLayout, raw, time.UTC)
		if err != nil {
			f.setFocus(fieldDue)
			return formInput{}, errDue
		}
		in.due = &due
	}
	return in, ""
}

func (in formInput) draft() task.Draft {
	return task.Draft{
		Title:       in.title,
		Description: in.description,
		Status:      in.status,
		Priority:    in.priority,
		DueDate:     in.due,
		Tags:        in.tags,
	}
}

func (in formInput) patch() task.Patch {
	p := task.Patch{
		Title:       &in.title,
		Description: &in.description,
		Status:      &in.status,
		Priority:    &in.priority,
		Tags:        &in.tags,
	}
	if in.due != nil {
		p.DueDate = in.due
	} else {
		p.ClearDueDate = true
	}
	return p
}

// splitTags splits a comma separated list, dropping blanks.
func splitTags(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
