// Package theme persists the light/dark preference and builds the board
// styles for it.
package theme

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/nibzard/taskboard/internal/kv"
	"github.com/nibzard/taskboard/internal/persist"
)

// Theme is a color scheme.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Parse normalizes a theme name.
func Parse(input string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(input))); t {
	case Light, Dark:
		return t, nil
	}
	return "", fmt.Errorf("invalid theme %q (want light or dark)", input)
}

// Preference is the stored theme choice.
type Preference struct {
	kv         kv.Store
	key        string
	logger     *log.Logger
	detectDark func() bool

	mu      sync.Mutex
	current Theme
}

// NewPreference returns a preference stored under persist.ThemeKey.
// detectDark reports the terminal background when nothing is stored; nil
// uses lipgloss.HasDarkBackground.
func NewPreference(store kv.Store, logger *log.Logger, detectDark func() bool) *Preference {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if detectDark == nil {
		detectDark = lipgloss.HasDarkBackground
	}
	return &Preference{kv: store, key: persist.ThemeKey, logger: logger, detectDark: detectDark, current: Light}
}

// Load reads the stored theme, falling back to the terminal background.
func (p *Preference) Load(ctx context.Context) Theme {
	t, ok := p.stored(ctx)
	if !ok {
		t = Light
		if p.detectDark() {
			t = Dark
		}
	}
	p.mu.Lock()
	p.current = t
	p.mu.Unlock()
	return t
}

func (p *Preference) stored(ctx context.Context) (Theme, bool) {
	data, err := p.kv.Get(ctx, p.key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			p.logger.Warn("failed to read theme", "key", p.key, "err", err)
		}
		return "", false
	}
	t, err := Parse(strings.Trim(string(data), "\""))
	if err != nil {
		p.logger.Warn("ignoring stored theme", "key", p.key, "err", err)
		return "", false
	}
	return t, true
}

// Current returns the active theme.
func (p *Preference) Current() Theme {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// IsDark reports whether the active theme is dark.
func (p *Preference) IsDark() bool {
	return p.Current() == Dark
}

// Set activates t and stores it. A storage failure is logged; the theme
// stays active.
func (p *Preference) Set(ctx context.Context, t Theme) {
	p.mu.Lock()
	p.current = t
	p.mu.Unlock()
	if err := p.kv.Set(ctx, p.key, []byte(t)); err != nil {
		p.logger.Warn("failed to save theme", "key", p.key, "err", err)
	}
}

// Toggle switches between light and dark and returns the new theme.
func (p *Preference) Toggle(ctx context.Context) Theme {
	next := Dark
	if p.IsDark() {
		next = Light
	}
	p.Set(ctx, next)
	return next
}
