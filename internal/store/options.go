package store

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskboard/internal/clock"
	"github.com/nibzard/taskboard/internal/task"
)

// DefaultMinLoading is the default minimum time spent in the loading phase.
const DefaultMinLoading = 2 * time.Second

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for timestamps and the loading floor.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithDefaults sets the task set used as load fallback and reset target.
func WithDefaults(tasks []task.Task) Option {
	return func(s *Store) {
		s.defaults = task.CloneAll(tasks)
	}
}

// WithMinLoading sets the loading floor. Zero or negative disables it.
func WithMinLoading(d time.Duration) Option {
	return func(s *Store) {
		s.minLoading = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}
