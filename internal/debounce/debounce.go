// Package debounce delays a rapidly changing value until it has been stable
// for a fixed interval. Only the newest value is ever emitted; values
// replaced during the interval are dropped.
package debounce

import (
	"sync"
	"time"

	"github.com/nibzard/taskboard/internal/clock"
)

// Debouncer holds a pending value and the last emitted one.
type Debouncer[T comparable] struct {
	delay  time.Duration
	clock  clock.Clock
	onEmit func(T)

	mu         sync.Mutex
	value      T
	pending    T
	hasPending bool
	timer      clock.Timer
	gen        uint64
	closed     bool
}

// New returns a debouncer whose current value is initial. onEmit, if not
// nil, runs after every emission without the debouncer lock held.
func New[T comparable](initial T, delay time.Duration, c clock.Clock, onEmit func(T)) *Debouncer[T] {
	if c == nil {
		c = clock.Real{}
	}
	return &Debouncer[T]{
		delay:  delay,
		clock:  c,
		onEmit: onEmit,
		value:  initial,
	}
}

// Set replaces the pending value and restarts the delay.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.stopLocked()
	d.pending = v
	d.hasPending = true
	if d.delay <= 0 {
		emitted, changed := d.emitLocked()
		d.mu.Unlock()
		d.notify(emitted, changed)
		return
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
	d.mu.Unlock()
}

// Value returns the last emitted value.
func (d *Debouncer[T]) Value() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// Pending reports whether a value is waiting for the delay to elapse.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hasPending
}

// Flush emits the pending value now, if there is one.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.closed || !d.hasPending {
		d.mu.Unlock()
		return
	}
	d.stopLocked()
	emitted, changed := d.emitLocked()
	d.mu.Unlock()
	d.notify(emitted, changed)
}

// Close cancels the pending value. Nothing is emitted afterwards.
func (d *Debouncer[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.hasPending = false
	d.stopLocked()
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.gen || !d.hasPending {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	emitted, changed := d.emitLocked()
	d.mu.Unlock()
	d.notify(emitted, changed)
}

// emitLocked promotes the pending value. changed is false when the value
// equals the one already emitted.
func (d *Debouncer[T]) emitLocked() (T, bool) {
	changed := d.pending != d.value
	d.value = d.pending
	d.hasPending = false
	return d.value, changed
}

func (d *Debouncer[T]) notify(v T, changed bool) {
	if changed && d.onEmit != nil {
		d.onEmit(v)
	}
}

func (d *Debouncer[T]) stopLocked() {
	// Bumping gen invalidates a callback that already started.
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
