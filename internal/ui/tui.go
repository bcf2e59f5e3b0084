// Package ui renders the board in the terminal.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/nibzard/taskboard/internal/clock"
	"github.com/nibzard/taskboard/internal/filter"
	"github.com/nibzard/taskboard/internal/locale"
	"github.com/nibzard/taskboard/internal/recent"
	"github.com/nibzard/taskboard/internal/store"
	"github.com/nibzard/taskboard/internal/theme"
)

// Deps are the collaborators the board works against.
type Deps struct {
	Store      *store.Store
	Recent     *recent.List
	Theme      *theme.Preference
	Translator *locale.Translator
	Logger     *log.Logger

	// Clock drives the search debounce. Nil means the real clock.
	Clock clock.Clock

	// SearchDelay is the search debounce delay. Negative means the default.
	SearchDelay time.Duration
}

// Run starts the board and blocks until the user quits or ctx is done.
func Run(ctx context.Context, deps Deps) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	m, cleanup := newBoard(ctx, deps)
	defer cleanup()

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}

// newBoard wires the model to the store and the search debouncer. The
// returned cleanup unsubscribes and stops pending timers.
func newBoard(ctx context.Context, deps Deps) (*model, func()) {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.SearchDelay < 0 {
		deps.SearchDelay = filter.DefaultSearchDelay
	}
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}

	states := newLatest[store.State]()
	searches := newLatest[string]()
	done := make(chan struct{})

	engine := filter.NewEngine(deps.Clock, deps.SearchDelay, searches.push)
	unsubscribe := deps.Store.Subscribe(states.push)

	m := newModel(ctx, deps, engine)
	m.states = states.ch
	m.searches = searches.ch
	m.done = done

	return m, func() {
		unsubscribe()
		engine.Close()
		close(done)
	}
}

type stateMsg struct {
	state store.State
}

type searchMsg struct {
	query string
}

func waitForState(ch <-chan store.State, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case st := <-ch:
			return stateMsg{state: st}
		case <-done:
			return nil
		}
	}
}

func waitForSearch(ch <-chan string, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case q := <-ch:
			return searchMsg{query: q}
		case <-done:
			return nil
		}
	}
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
