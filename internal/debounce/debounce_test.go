package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/nibzard/taskboard/internal/clock"
)

type emission struct {
	at    time.Duration
	value string
}

type recorder struct {
	mu    sync.Mutex
	start time.Time
	clock *clock.Fake
	got   []emission
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, emission{at: r.clock.Now().Sub(r.start), value: v})
}

func (r *recorder) emissions() []emission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]emission(nil), r.got...)
}

func newRecorded(delay time.Duration) (*Debouncer[string], *clock.Fake, *recorder) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	fake := clock.NewFake(start)
	rec := &recorder{start: start, clock: fake}
	return New("", delay, fake, rec.record), fake, rec
}

func TestOnlyLatestValueEmitted(t *testing.T) {
	d, fake, rec := newRecorded(300 * time.Millisecond)

	d.Set("a")
	fake.Advance(100 * time.Millisecond)
	d.Set("b")
	fake.Advance(50 * time.Millisecond)
	d.Set("c")

	fake.Advance(299 * time.Millisecond)
	if got := rec.emissions(); len(got) != 0 {
		t.Fatalf("emitted early: %v", got)
	}
	if d.Value() != "" {
		t.Fatalf("Value = %q before the delay elapsed", d.Value())
	}

	fake.Advance(time.Second)
	got := rec.emissions()
	if len(got) != 1 || got[0].value != "c" || got[0].at != 450*time.Millisecond {
		t.Fatalf("emissions = %v, want [{450ms c}]", got)
	}
	if d.Value() != "c" {
		t.Fatalf("Value = %q, want c", d.Value())
	}
}

func TestSpacedValuesEachEmit(t *testing.T) {
	d, fake, rec := newRecorded(300 * time.Millisecond)

	d.Set("a")
	fake.Advance(300 * time.Millisecond)
	d.Set("ab")
	fake.Advance(300 * time.Millisecond)

	got := rec.emissions()
	if len(got) != 2 || got[0].value != "a" || got[1].value != "ab" {
		t.Fatalf("emissions = %v", got)
	}
}

func TestUnchangedValueNotReemitted(t *testing.T) {
	d, fake, rec := newRecorded(300 * time.Millisecond)

	d.Set("x")
	fake.Advance(300 * time.Millisecond)
	d.Set("y")
	d.Set("x")
	fake.Advance(300 * time.Millisecond)

	if got := rec.emissions(); len(got) != 1 {
		t.Fatalf("emissions = %v, want one", got)
	}
}

func TestCloseCancelsPending(t *testing.T) {
	d, fake, rec := newRecorded(300 * time.Millisecond)

	d.Set("a")
	d.Close()
	if fake.Pending() != 0 {
		t.Fatal("timer still pending after Close")
	}
	fake.Advance(time.Second)
	d.Set("b")
	d.Flush()
	fake.Advance(time.Second)

	if got := rec.emissions(); len(got) != 0 {
		t.Fatalf("emitted after Close: %v", got)
	}
}

func TestFlush(t *testing.T) {
	d, fake, rec := newRecorded(300 * time.Millisecond)

	d.Set("now")
	if !d.Pending() {
		t.Fatal("expected a pending value")
	}
	d.Flush()
	if d.Value() != "now" || d.Pending() {
		t.Fatalf("Flush did not emit: value=%q pending=%v", d.Value(), d.Pending())
	}
	fake.Advance(time.Second)
	if got := rec.emissions(); len(got) != 1 || got[0].at != 0 {
		t.Fatalf("emissions = %v, want one at 0", got)
	}

	d.Flush()
	if got := rec.emissions(); len(got) != 1 {
		t.Fatal("Flush without pending value emitted")
	}
}

func TestZeroDelayEmitsImmediately(t *testing.T) {
	d, _, rec := newRecorded(0)
	d.Set("fast")
	if d.Value() != "fast" || len(rec.emissions()) != 1 {
		t.Fatal("zero delay should emit synchronously")
	}
}

func TestStaleCallbackIgnored(t *testing.T) {
	// A timer that cannot be stopped still must not emit an old value.
	c := &stubbornClock{Fake: clock.NewFake(time.Unix(0, 0))}
	var got []string
	d := New("", 100*time.Millisecond, c, func(v string) { got = append(got, v) })

	d.Set("old")
	d.Set("new")
	c.fireAll()

	if len(got) != 1 || got[0] != "new" {
		t.Fatalf("emissions = %v, want [new]", got)
	}
}

// stubbornClock returns timers whose Stop never succeeds, as when the
// callback is already running.
type stubbornClock struct {
	*clock.Fake
	fns []func()
}

type stubbornTimer struct{}

func (stubbornTimer) Stop() bool { return false }

func (c *stubbornClock) AfterFunc(_ time.Duration, fn func()) clock.Timer {
	c.fns = append(c.fns, fn)
	return stubbornTimer{}
}

func (c *stubbornClock) fireAll() {
	for _, fn := range c.fns {
		fn()
	}
}
