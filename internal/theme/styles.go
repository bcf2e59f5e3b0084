package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/taskboard/internal/task"
)

type palette struct {
	fg, muted, border, accent, selected lipgloss.Color
	match, bannerFg, bannerBg           lipgloss.Color
	high, medium, low                   lipgloss.Color
}

var palettes = map[Theme]palette{
	Light: {
		fg: "#1f2328", muted: "#6e7781", border: "#d0d7de", accent: "#0969da", selected: "#8250df",
		match: "#9a6700", bannerFg: "#ffffff", bannerBg: "#cf222e",
		high: "#cf222e", medium: "#9a6700", low: "#1a7f37",
	},
	Dark: {
		fg: "#e6edf3", muted: "#8b949e", border: "#30363d", accent: "#58a6ff", selected: "#bc8cff",
		match: "#e3b341", bannerFg: "#0d1117", bannerBg: "#ff7b72",
		high: "#ff7b72", medium: "#e3b341", low: "#3fb950",
	},
}

// Styles are the lipgloss styles used by the board.
type Styles struct {
	Title        lipgloss.Style
	Muted        lipgloss.Style
	Column       lipgloss.Style
	ColumnActive lipgloss.Style
	ColumnTitle  lipgloss.Style
	Card         lipgloss.Style
	CardSelected lipgloss.Style
	Match        lipgloss.Style
	Banner       lipgloss.Style
	Badge        lipgloss.Style
	Input        lipgloss.Style
	Overlay      lipgloss.Style
	Key          lipgloss.Style

	priority map[task.Priority]lipgloss.Style
}

// Priority returns the style for a priority label.
func (s Styles) Priority(p task.Priority) lipgloss.Style {
	if st, ok := s.priority[p]; ok {
		return st
	}
	return s.Muted
}

// NewStyles builds the styles for t. Unknown themes use Light.
func NewStyles(t Theme) Styles {
	p, ok := palettes[t]
	if !ok {
		p = palettes[Light]
	}
	column := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.border).
		Padding(0, 1)
	card := lipgloss.NewStyle().
		Foreground(p.fg).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(p.border).
		PaddingLeft(1)

	return Styles{
		Title:        lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		Muted:        lipgloss.NewStyle().Foreground(p.muted),
		Column:       column,
		ColumnActive: column.BorderForeground(p.accent),
		ColumnTitle:  lipgloss.NewStyle().Bold(true).Foreground(p.fg),
		Card:         card,
		CardSelected: card.BorderForeground(p.selected).Bold(true),
		Match:        lipgloss.NewStyle().Underline(true).Foreground(p.match),
		Banner:       lipgloss.NewStyle().Foreground(p.bannerFg).Background(p.bannerBg).Padding(0, 1),
		Badge:        lipgloss.NewStyle().Foreground(p.bannerFg).Background(p.accent).Padding(0, 1),
		Input:        lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(p.accent).Padding(0, 1),
		Overlay:      lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(p.accent).Padding(1, 2),
		Key:          lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		priority: map[task.Priority]lipgloss.Style{
			task.PriorityHigh:   lipgloss.NewStyle().Foreground(p.high),
			task.PriorityMedium: lipgloss.NewStyle().Foreground(p.medium),
			task.PriorityLow:    lipgloss.NewStyle().Foreground(p.low),
		},
	}
}
