package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/nibzard/taskboard/internal/filter"
	"github.com/nibzard/taskboard/internal/locale"
	"github.com/nibzard/taskboard/internal/recent"
	"github.com/nibzard/taskboard/internal/store"
	"github.com/nibzard/taskboard/internal/task"
	"github.com/nibzard/taskboard/internal/theme"
)

type mode int

const (
	modeBoard mode = iota
	modeSearch
	modeForm
	modeConfirm
	modeHelp
)

type model struct {
	ctx    context.Context
	store  *store.Store
	engine *filter.Engine
	recent *recent.List
	pref   *theme.Preference
	tr     *locale.Translator
	logger *log.Logger

	states   <-chan store.State
	searches <-chan string
	done     <-chan struct{}

	state  store.State
	styles theme.Styles
	mode   mode

	// Board selection. focusID, when set, wins over row on the next clamp.
	lane    int
	row     int
	focusID string

	form      *form
	confirmID string

	search textinput.Model

	// recentIdx is the highlighted recent search, -1 for none.
	recentIdx int

	width  int
	height int
}

func newModel(ctx context.Context, deps Deps, engine *filter.Engine) *model {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	m := &model{
		ctx:       ctx,
		store:     deps.Store,
		engine:    engine,
		recent:    deps.Recent,
		pref:      deps.Theme,
		tr:        deps.Translator,
		logger:    logger,
		state:     deps.Store.State(),
		styles:    theme.NewStyles(deps.Theme.Current()),
		search:    newInput(200),
		recentIdx: -1,
		width:     100,
		height:    30,
	}
	m.search.Placeholder = deps.Translator.T("search_placeholder")
	return m
}

func (m *model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.states != nil {
		cmds = append(cmds, waitForState(m.states, m.done))
	}
	if m.searches != nil {
		cmds = append(cmds, waitForSearch(m.searches, m.done))
	}
	return tea.Batch(cmds...)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case stateMsg:
		// Snapshots can arrive out of order; keep the newest.
		if msg.state.Revision >= m.state.Revision {
			m.state = msg.state
			m.clamp()
		}
		if m.states != nil {
			return m, waitForState(m.states, m.done)
		}
		return m, nil
	case searchMsg:
		m.logger.Debug("search applied", "query", msg.query)
		m.clamp()
		if m.searches != nil {
			return m, waitForSearch(m.searches, m.done)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state.Loading() {
			if msg.String() == "q" {
				return m, tea.Quit
			}
			return m, nil
		}
		switch m.mode {
		case modeHelp:
			return m.updateHelp(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		case modeSearch:
			return m.updateSearch(msg)
		default:
			return m.updateBoard(msg)
		}
	}
	return m, nil
}

func (m *model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.mode = modeHelp
	case "ctrl+n", "n":
		m.form = newForm(m.laneStatus())
		m.mode = modeForm
	case "/", "ctrl+k":
		return m, m.enterSearch()
	case "esc":
		if m.engine.RawSearch() != "" {
			m.setSearch("")
		}
	case "left", "h":
		m.moveLane(-1)
	case "right", "l":
		m.moveLane(1)
	case "up", "k":
		m.moveRow(-1)
	case "down", "j":
		m.moveRow(1)
	case "shift+left", "H":
		m.moveCard(-1)
	case "shift+right", "L":
		m.moveCard(1)
	case "enter", "e":
		if t, ok := m.selected(); ok {
			m.form = editForm(t)
			m.mode = modeForm
		}
	case "d", "delete":
		if t, ok := m.selected(); ok {
			m.confirmID = t.ID
			m.mode = modeConfirm
		}
	case "p":
		m.engine.SetPriority(stepFilter(priorityFilters(), m.engine.Criteria().Priority))
		m.clamp()
	case "s":
		m.engine.SetStatus(stepFilter(statusFilters(), m.engine.Criteria().Status))
		m.clamp()
	case "o":
		m.engine.SetSort(step(filter.SortKeys(), m.engine.Criteria().Sort, 1))
		m.clamp()
	case "0":
		m.engine.Reset()
		m.search.SetValue("")
		m.clamp()
	case "t":
		m.styles = theme.NewStyles(m.pref.Toggle(m.ctx))
	case "r":
		if m.state.Error != "" {
			m.logErr("reload", m.store.Reload())
			m.state = m.store.State()
		}
	case "R":
		if m.state.Error != "" {
			m.logErr("reset", m.store.Reset())
			m.state = m.store.State()
			m.clamp()
		}
	case "x":
		if m.state.Error != "" {
			m.store.ClearError()
			m.state = m.store.State()
		}
	}
	return m, nil
}

func (m *model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "?", "q":
		m.mode = modeBoard
	}
	return m, nil
}

func (m *model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.logErr("remove", m.store.Remove(m.confirmID))
		m.confirmID = ""
		m.mode = modeBoard
		m.state = m.store.State()
		m.clamp()
	case "n", "N", "esc":
		m.confirmID = ""
		m.mode = modeBoard
	}
	return m, nil
}

func (m *model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch msg.Type {
	case tea.KeyEsc:
		m.form = nil
		m.mode = modeBoard
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		f.next()
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		f.prev()
		return m, nil
	case tea.KeyLeft, tea.KeyRight:
		if f.text() != nil {
			return m, f.update(msg)
		}
		if msg.Type == tea.KeyLeft {
			f.cycle(-1)
		} else {
			f.cycle(1)
		}
		return m, nil
	case tea.KeySpace:
		if f.text() == nil {
			f.cycle(1)
			return m, nil
		}
		return m, f.update(msg)
	case tea.KeyCtrlS:
		m.submitForm()
		return m, nil
	case tea.KeyEnter:
		if f.focus == fieldCount-1 {
			m.submitForm()
		} else {
			f.next()
		}
		return m, nil
	}
	return m, f.update(msg)
}

func (m *model) submitForm() {
	f := m.form
	in, bad := f.parse()
	switch bad {
	case errTitle:
		f.err = m.tr.T("title_required")
		return
	case errDue:
		f.err = m.tr.T("invalid_due")
		return
	}

	if f.editing() {
		if err := m.store.Update(f.editID, in.patch()); err != nil {
			f.err = err.Error()
			return
		}
		m.focusID = f.editID
	} else {
		t, err := m.store.Create(in.draft())
		if err != nil {
			f.err = err.Error()
			return
		}
		m.focusID = t.ID
	}
	m.lane = laneIndex(in.status)
	m.form = nil
	m.mode = modeBoard
	m.state = m.store.State()
	m.clamp()
}

func (m *model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	raw := m.engine.RawSearch()
	items := m.recentItems()
	switch msg.Type {
	case tea.KeyEsc:
		m.leaveSearch()
		return m, nil
	case tea.KeyEnter:
		if m.recentIdx >= 0 && m.recentIdx < len(items) {
			m.setSearch(items[m.recentIdx])
		} else if strings.TrimSpace(raw) != "" {
			m.logErr("save recent search", m.recent.Add(m.ctx, raw))
		}
		m.leaveSearch()
		return m, nil
	case tea.KeyUp:
		if len(items) > 0 {
			m.recentIdx = max(m.recentIdx-1, 0)
		}
		return m, nil
	case tea.KeyDown:
		if len(items) > 0 {
			m.recentIdx = min(m.recentIdx+1, len(items)-1)
		}
		return m, nil
	case tea.KeyCtrlD:
		if m.recentIdx >= 0 && m.recentIdx < len(items) {
			m.logErr("remove recent search", m.recent.Remove(m.ctx, items[m.recentIdx]))
			m.recentIdx = min(m.recentIdx, len(m.recentItems())-1)
		}
		return m, nil
	case tea.KeyCtrlL:
		m.logErr("clear recent searches", m.recent.Clear(m.ctx))
		m.recentIdx = -1
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != raw {
		m.engine.SetSearch(v)
		m.recentIdx = -1
	}
	return m, cmd
}

func (m *model) enterSearch() tea.Cmd {
	m.mode = modeSearch
	m.recentIdx = -1
	m.search.SetValue(m.engine.RawSearch())
	return m.search.Focus()
}

func (m *model) leaveSearch() {
	m.mode = modeBoard
	m.recentIdx = -1
	m.search.Blur()
}

// setSearch replaces the query in both the engine and the input.
func (m *model) setSearch(q string) {
	m.engine.SetSearch(q)
	m.search.SetValue(q)
}

// recentItems are the recent searches offered while the input is blank.
func (m *model) recentItems() []string {
	if strings.TrimSpace(m.engine.RawSearch()) != "" {
		return nil
	}
	return m.recent.Items()
}

func (m *model) logErr(action string, err error) {
	if err == nil || errors.Is(err, store.ErrNotReady) {
		return
	}
	m.logger.Error("board action failed", "action", action, "err", err)
}

// view is the filtered and sorted collection.
func (m *model) view() []task.Task {
	return m.engine.View(m.state.Revision, m.state.Tasks)
}

// lanes splits the view by status, keeping the view order in each lane.
func (m *model) lanes() [][]task.Task {
	statuses := task.Statuses()
	out := make([][]task.Task, len(statuses))
	for _, t := range m.view() {
		i := laneIndex(t.Status)
		out[i] = append(out[i], t)
	}
	return out
}

func laneIndex(s task.Status) int {
	for i, st := range task.Statuses() {
		if st == s {
			return i
		}
	}
	return 0
}

func (m *model) laneStatus() task.Status {
	return task.Statuses()[m.lane]
}

func (m *model) selected() (task.Task, bool) {
	lanes := m.lanes()
	lane := lanes[m.lane]
	if m.row < 0 || m.row >= len(lane) {
		return task.Task{}, false
	}
	return lane[m.row], true
}

func (m *model) moveLane(delta int) {
	n := len(task.Statuses())
	m.lane = min(max(m.lane+delta, 0), n-1)
	m.clamp()
}

func (m *model) moveRow(delta int) {
	m.row += delta
	m.clamp()
}

// moveCard moves the selected card to the neighbouring lane and keeps it
// selected.
func (m *model) moveCard(delta int) {
	t, ok := m.selected()
	if !ok {
		return
	}
	statuses := task.Statuses()
	target := laneIndex(t.Status) + delta
	if target < 0 || target >= len(statuses) {
		return
	}
	if err := m.store.ChangeStatus(t.ID, statuses[target]); err != nil {
		m.logErr("move", err)
		return
	}
	m.lane = target
	m.focusID = t.ID
	m.state = m.store.State()
	m.clamp()
}

// clamp keeps the selection inside the current lane.
func (m *model) clamp() {
	lane := m.lanes()[m.lane]
	if m.focusID != "" {
		for i, t := range lane {
			if t.ID == m.focusID {
				m.row = i
				break
			}
		}
		m.focusID = ""
	}
	m.row = min(max(m.row, 0), max(len(lane)-1, 0))
}

func priorityFilters() []string {
	out := []string{filter.All}
	for _, p := range []task.Priority{task.PriorityHigh, task.PriorityMedium, task.PriorityLow} {
		out = append(out, string(p))
	}
	return out
}

func statusFilters() []string {
	out := []string{filter.All}
	for _, s := range task.Statuses() {
		out = append(out, string(s))
	}
	return out
}

func stepFilter(values []string, cur string) string {
	return step(values, cur, 1)
}
