package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/taskboard/internal/filter"
	"github.com/nibzard/taskboard/internal/task"
)

func (m *model) View() string {
	var b strings.Builder
	if m.state.Loading() {
		m.writeLoading(&b)
		return b.String()
	}

	m.writeHeader(&b)
	if m.state.Error != "" {
		m.writeBanner(&b)
	}
	m.writeFilterBar(&b)

	switch m.mode {
	case modeHelp:
		m.writeHelp(&b)
	case modeForm:
		m.writeForm(&b)
	case modeSearch:
		m.writeSearch(&b)
		m.writeBoard(&b)
	case modeConfirm:
		m.writeConfirm(&b)
		m.writeBoard(&b)
	default:
		m.writeBoard(&b)
	}

	m.writeFooter(&b)
	return b.String()
}

func (m *model) writeLoading(b *strings.Builder) {
	body := lipgloss.JoinVertical(lipgloss.Center,
		m.styles.Title.Render(m.tr.T("loading_title")),
		m.styles.Muted.Render(m.tr.T("loading_description")),
	)
	b.WriteString(lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body))
}

func (m *model) writeHeader(b *strings.Builder) {
	counts := make([]string, 0, len(task.Statuses()))
	byStatus := map[task.Status]int{}
	for _, t := range m.state.Tasks {
		byStatus[t.Status]++
	}
	for _, s := range task.Statuses() {
		counts = append(counts, fmt.Sprintf("%s %d", m.tr.Status(s), byStatus[s]))
	}
	themeLabel := m.tr.T("theme_light")
	if m.pref.IsDark() {
		themeLabel = m.tr.T("theme_dark")
	}

	b.WriteString(m.styles.Title.Render(m.tr.T("app_title")))
	b.WriteString("  ")
	b.WriteString(m.styles.Muted.Render(strings.Join(counts, " · ")))
	b.WriteString("  ")
	b.WriteString(m.styles.Muted.Render("[" + themeLabel + "]"))
	b.WriteString("\n\n")
}

func (m *model) writeBanner(b *strings.Builder) {
	b.WriteString(m.styles.Banner.Render(m.tr.T("load_error") + "  " + m.tr.T("banner_actions")))
	b.WriteString("\n\n")
}

func (m *model) writeFilterBar(b *strings.Builder) {
	c := m.engine.Criteria()
	parts := []string{
		m.tr.T("filter_priority") + ": " + m.tr.Filter(c.Priority),
		m.tr.T("filter_status") + ": " + m.tr.Filter(c.Status),
		m.tr.T("filter_sort") + ": " + m.tr.Sort(c.Sort),
	}
	if raw := m.engine.RawSearch(); raw != "" {
		parts = append(parts, m.tr.T("filter_search")+": "+raw)
	}
	b.WriteString(strings.Join(parts, "   "))
	if n := m.engine.ActiveFilterCount(); n > 0 {
		b.WriteString("  ")
		b.WriteString(m.styles.Badge.Render(m.tr.TData("filter_active", map[string]any{"Count": n})))
	}
	b.WriteString("\n\n")
}

func (m *model) writeSearch(b *strings.Builder) {
	raw := m.engine.RawSearch()
	b.WriteString(m.styles.Input.Render("/ " + m.search.View()))
	b.WriteString("\n")

	if strings.TrimSpace(raw) == "" {
		items := m.recentItems()
		if len(items) == 0 {
			b.WriteString(m.styles.Muted.Render("  " + m.tr.T("recent_empty")))
			b.WriteString("\n")
		} else {
			b.WriteString(m.styles.Muted.Render("  " + m.tr.T("recent_searches")))
			b.WriteString("\n")
			for i, q := range items {
				marker := "  "
				if i == m.recentIdx {
					marker = m.styles.Key.Render("> ")
				}
				b.WriteString("  " + marker + q + "\n")
			}
		}
	}
	b.WriteString("\n")
}

func (m *model) writeBoard(b *strings.Builder) {
	tasks := m.view()
	if len(tasks) == 0 && m.engine.ActiveFilterCount() > 0 {
		m.writeEmpty(b)
		return
	}

	query := strings.TrimSpace(m.engine.Criteria().Search)
	width := max((m.width-2)/len(task.Statuses())-4, 20)
	lanes := m.lanes()
	cols := make([]string, 0, len(lanes))
	for i, s := range task.Statuses() {
		cols = append(cols, m.renderLane(s, lanes[i], i == m.lane, width, query))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	b.WriteString("\n")
}

func (m *model) renderLane(s task.Status, tasks []task.Task, active bool, width int, query string) string {
	lines := []string{m.styles.ColumnTitle.Render(fmt.Sprintf("%s (%d)", m.tr.Status(s), len(tasks))), ""}
	if len(tasks) == 0 {
		lines = append(lines, m.styles.Muted.Render(m.tr.T("lane_empty")))
	}
	for i, t := range tasks {
		lines = append(lines, m.renderCard(t, active && i == m.row, width-2, query))
	}

	style := m.styles.Column
	if active {
		style = m.styles.ColumnActive
	}
	return style.Width(width).Render(strings.Join(lines, "\n"))
}

func (m *model) renderCard(t task.Task, selected bool, width int, query string) string {
	var title strings.Builder
	for _, seg := range filter.Highlight(t.Title, query) {
		if seg.Match {
			title.WriteString(m.styles.Match.Render(seg.Text))
		} else {
			title.WriteString(seg.Text)
		}
	}

	lines := []string{title.String()}
	if t.Description != "" {
		lines = append(lines, m.styles.Muted.Render(truncate(firstLine(t.Description), width-2)))
	}
	meta := m.styles.Priority(t.Priority).Render(m.tr.Priority(t.Priority))
	if t.DueDate != nil {
		meta += m.styles.Muted.Render(" · " + t.DueDate.Format(dueLayout))
	}
	lines = append(lines, meta)
	if len(t.Tags) > 0 {
		lines = append(lines, m.styles.Muted.Render(truncate("#"+strings.Join(t.Tags, " #"), width-2)))
	}

	style := m.styles.Card
	if selected {
		style = m.styles.CardSelected
	}
	return style.Width(width).Render(strings.Join(lines, "\n")) + "\n"
}

func (m *model) writeEmpty(b *strings.Builder) {
	var title, hint, action, key string
	if strings.TrimSpace(m.engine.RawSearch()) != "" {
		title, hint = m.tr.T("empty_no_results"), m.tr.T("empty_hint_search")
		action, key = m.tr.T("action_clear_search"), "esc"
	} else {
		title, hint = m.tr.T("empty_no_match"), m.tr.T("empty_hint_filters")
		action, key = m.tr.T("action_reset_filters"), "0"
	}
	body := lipgloss.JoinVertical(lipgloss.Center,
		m.styles.Title.Render(title),
		m.styles.Muted.Render(hint),
		"",
		m.styles.Key.Render(key)+" "+action,
	)
	b.WriteString(lipgloss.Place(m.width, max(m.height/2, 6), lipgloss.Center, lipgloss.Center, body))
	b.WriteString("\n")
}

func (m *model) writeForm(b *strings.Builder) {
	f := m.form
	var body strings.Builder
	heading := m.tr.T("form_new")
	submit := m.tr.T("form_submit_new")
	if f.editing() {
		heading = m.tr.T("form_edit")
		submit = m.tr.T("form_submit_edit")
	}
	body.WriteString(m.styles.Title.Render(heading))
	body.WriteString("\n\n")

	field := func(id formField, label, value string) {
		marker := "  "
		if f.focus == id {
			marker = m.styles.Key.Render("> ")
		}
		if in := f.input(id); in != nil {
			value = in.View()
		}
		body.WriteString(marker + m.styles.Muted.Render(label+": ") + value + "\n")
	}
	choice := func(label string) string {
		return "< " + label + " >"
	}

	field(fieldTitle, m.tr.T("field_title"), "")
	field(fieldDescription, m.tr.T("field_description"), "")
	field(fieldPriority, m.tr.T("field_priority"), choice(m.styles.Priority(f.priority).Render(m.tr.Priority(f.priority))))
	field(fieldStatus, m.tr.T("field_status"), choice(m.tr.Status(f.status)))
	field(fieldDue, m.tr.T("field_due"), "")
	field(fieldTags, m.tr.T("field_tags"), "")
	if f.editing() {
		body.WriteString("  " + m.styles.Muted.Render(m.tr.T("field_created")+": "+f.created.Local().Format("2006-01-02 15:04")) + "\n")
	}
	if f.err != "" {
		body.WriteString("\n" + m.styles.Banner.Render(f.err) + "\n")
	}
	body.WriteString("\n" + m.styles.Key.Render("ctrl+s") + " " + submit + "   " + m.styles.Key.Render("esc") + " " + m.tr.T("help_close"))

	b.WriteString(m.styles.Overlay.Render(body.String()))
	b.WriteString("\n")
}

func (m *model) writeConfirm(b *strings.Builder) {
	title := ""
	if t, ok := m.store.Get(m.confirmID); ok {
		title = t.Title + "  "
	}
	b.WriteString(m.styles.Banner.Render(title + m.tr.T("confirm_delete")))
	b.WriteString("\n\n")
}

type shortcut struct {
	keys string
	id   string
}

var shortcuts = []shortcut{
	{"ctrl+n, n", "help_new"},
	{"/, ctrl+k", "help_search"},
	{"esc", "help_close"},
	{"?", "help_help"},
	{"←↑↓→, hjkl", "help_navigate"},
	{"shift+←/→, H/L", "help_move"},
	{"enter, e", "help_edit"},
	{"d, delete", "help_delete"},
	{"p / s / o", "help_filters"},
	{"0", "help_reset_filters"},
	{"t", "help_theme"},
	{"q, ctrl+c", "help_quit"},
}

func (m *model) writeHelp(b *strings.Builder) {
	var body strings.Builder
	body.WriteString(m.styles.Title.Render(m.tr.T("help_title")))
	body.WriteString("\n\n")
	for _, s := range shortcuts {
		body.WriteString(m.styles.Key.Render(fmt.Sprintf("%-16s", s.keys)))
		body.WriteString(m.tr.T(s.id))
		body.WriteString("\n")
	}
	b.WriteString(m.styles.Overlay.Render(body.String()))
	b.WriteString("\n")
}

func (m *model) writeFooter(b *strings.Builder) {
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render(m.tr.T("footer")))
	b.WriteString("\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
