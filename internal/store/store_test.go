package store

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/nibzard/taskboard/internal/clock"
	"github.com/nibzard/taskboard/internal/kv"
	"github.com/nibzard/taskboard/internal/persist"
	"github.com/nibzard/taskboard/internal/task"
)

var epoch = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

// recordingAdapter is an in-memory Adapter that records every write.
type recordingAdapter struct {
	mu      sync.Mutex
	stored  []task.Task
	loadErr error
	saves   [][]task.Task
	clears  int

	// When block is set the first Save signals entered and waits on block
	// before it stores anything.
	block   chan struct{}
	entered chan struct{}
}

func (a *recordingAdapter) Load(_ context.Context, fallback []task.Task, _ persist.LoadOptions) ([]task.Task, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loadErr != nil {
		return nil, a.loadErr
	}
	if a.stored == nil {
		a.stored = task.CloneAll(fallback)
	}
	return task.CloneAll(a.stored), nil
}

func (a *recordingAdapter) Save(_ context.Context, tasks []task.Task) error {
	a.mu.Lock()
	a.saves = append(a.saves, task.CloneAll(tasks))
	n := len(a.saves)
	a.mu.Unlock()

	if n == 1 && a.block != nil {
		a.entered <- struct{}{}
		<-a.block
	}

	a.mu.Lock()
	a.stored = task.CloneAll(tasks)
	a.mu.Unlock()
	return nil
}

func (a *recordingAdapter) Clear(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clears++
	a.stored = nil
	return nil
}

func (a *recordingAdapter) saveCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.saves)
}

func (a *recordingAdapter) lastSave() []task.Task {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.saves) == 0 {
		return nil
	}
	return a.saves[len(a.saves)-1]
}

func newReadyStore(t *testing.T, a Adapter) (*Store, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(epoch)
	s := New(context.Background(), a, WithClock(fake), WithMinLoading(0))
	t.Cleanup(func() { s.Close() })
	if s.State().Loading() {
		t.Fatal("store with zero floor should be ready after New")
	}
	return s, fake
}

func sampleTask(t *testing.T, id, title string) task.Task {
	t.Helper()
	tk, err := task.New(task.Draft{Title: title}, epoch)
	if err != nil {
		t.Fatal(err)
	}
	tk.ID = id
	return tk
}

func TestLoadingFloor(t *testing.T) {
	fake := clock.NewFake(epoch)
	s := New(context.Background(), &recordingAdapter{}, WithClock(fake))
	defer s.Close()

	st := s.State()
	if !st.Loading() {
		t.Fatal("expected loading phase right after New")
	}
	if !reflect.DeepEqual(st.Tasks, task.Defaults()) {
		t.Fatalf("loaded tasks = %v, want defaults", st.Tasks)
	}

	fake.Advance(DefaultMinLoading - time.Millisecond)
	if !s.State().Loading() {
		t.Fatal("ready before the floor elapsed")
	}
	if err := s.Add(sampleTask(t, "x", "Too early")); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Add while loading = %v, want ErrNotReady", err)
	}

	fake.Advance(time.Millisecond)
	if s.State().Loading() {
		t.Fatal("still loading after the floor elapsed")
	}
}

func TestLoadFailureUsesDefaults(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	if err := mem.Set(ctx, persist.TasksKey, []byte("{broken-json")); err != nil {
		t.Fatal(err)
	}
	fake := clock.NewFake(epoch)
	s := New(ctx, persist.NewAdapter(mem, nil), WithClock(fake))
	defer s.Close()

	st := s.State()
	if st.Error == "" {
		t.Fatal("expected a non-empty error message")
	}
	var lerr *persist.LoadError
	if !errors.As(st.Cause, &lerr) {
		t.Fatalf("Cause = %v, want *persist.LoadError", st.Cause)
	}
	if !reflect.DeepEqual(st.Tasks, task.Defaults()) {
		t.Fatalf("tasks = %v, want defaults", st.Tasks)
	}

	fake.Advance(DefaultMinLoading)
	st = s.State()
	if st.Loading() {
		t.Fatal("error state must still become ready after the floor")
	}
	if st.Error == "" {
		t.Fatal("error cleared by the ready transition")
	}

	// The fallback is usable while the error is shown.
	if err := s.Add(sampleTask(t, "usable", "Usable")); err != nil {
		t.Fatalf("Add during error state: %v", err)
	}

	s.ClearError()
	st = s.State()
	if st.Error != "" || st.Cause != nil {
		t.Fatalf("ClearError left %q / %v", st.Error, st.Cause)
	}
	if len(st.Tasks) != len(task.Defaults())+1 {
		t.Fatalf("ClearError touched data: %d tasks", len(st.Tasks))
	}
}

func TestUpdate(t *testing.T) {
	a := &recordingAdapter{}
	s, fake := newReadyStore(t, a)
	orig, _ := s.Get("default-welcome")

	fake.Advance(time.Hour)
	title := "  Renamed  "
	prio := task.PriorityHigh
	due := epoch.Add(48 * time.Hour)
	if err := s.Update(orig.ID, task.Patch{Title: &title, Priority: &prio, DueDate: &due}); err != nil {
		t.Fatal(err)
	}

	got, ok := s.Get(orig.ID)
	if !ok {
		t.Fatal("task vanished")
	}
	if got.Title != "Renamed" || got.Priority != task.PriorityHigh || got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.ID != orig.ID || !got.CreatedAt.Equal(orig.CreatedAt) {
		t.Fatalf("id/createdAt changed: %+v", got)
	}
	if !got.UpdatedAt.After(orig.UpdatedAt) {
		t.Fatalf("updatedAt %v not after %v", got.UpdatedAt, orig.UpdatedAt)
	}

	blank := "   "
	var verr *task.ValidationError
	if err := s.Update(orig.ID, task.Patch{Title: &blank}); !errors.As(err, &verr) {
		t.Fatalf("blank title update = %v, want *task.ValidationError", err)
	}
	if again, _ := s.Get(orig.ID); again.Title != "Renamed" {
		t.Fatalf("rejected update leaked: %q", again.Title)
	}
}

func TestChangeStatus(t *testing.T) {
	s, _ := newReadyStore(t, &recordingAdapter{})

	if err := s.ChangeStatus("default-welcome", task.StatusDone); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get("default-welcome")
	if got.Status != task.StatusDone {
		t.Fatalf("status = %q", got.Status)
	}
	if err := s.ChangeStatus("default-welcome", task.Status("blocked")); err == nil {
		t.Fatal("invalid status accepted")
	}
}

func TestUnknownIDIsNoop(t *testing.T) {
	a := &recordingAdapter{}
	s, _ := newReadyStore(t, a)
	before := s.State()

	if err := s.Remove("missing"); err != nil {
		t.Fatal(err)
	}
	title := "x"
	if err := s.Update("missing", task.Patch{Title: &title}); err != nil {
		t.Fatal(err)
	}

	after := s.State()
	if after.Revision != before.Revision || !reflect.DeepEqual(after.Tasks, before.Tasks) {
		t.Fatal("no-op changed the collection")
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := a.saveCount(); n != 0 {
		t.Fatalf("no-op triggered %d saves", n)
	}
}

func TestAddAndRemove(t *testing.T) {
	a := &recordingAdapter{}
	s, _ := newReadyStore(t, a)

	tk := sampleTask(t, "new", "New task")
	if err := s.Add(tk); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(tk); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("duplicate Add = %v, want ErrDuplicateID", err)
	}
	if err := s.Add(task.Task{ID: "bad"}); err == nil {
		t.Fatal("invalid task accepted")
	}

	tasks := s.Tasks()
	if tasks[len(tasks)-1].ID != "new" {
		t.Fatal("Add should append in insertion order")
	}

	if err := s.Remove("new"); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Get("new"); ok {
		t.Fatal("task still present after Remove")
	}

	if err := s.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.lastSave(), s.Tasks()) {
		t.Fatal("persisted collection differs from memory")
	}
}

func TestCreate(t *testing.T) {
	s, fake := newReadyStore(t, &recordingAdapter{})
	fake.Advance(time.Minute)

	tk, err := s.Create(task.Draft{Title: " Ship it ", Priority: task.PriorityHigh})
	if err != nil {
		t.Fatal(err)
	}
	if tk.ID == "" || tk.Title != "Ship it" || !tk.CreatedAt.Equal(epoch.Add(time.Minute)) {
		t.Fatalf("created = %+v", tk)
	}
	if _, err := s.Create(task.Draft{Title: "  "}); err == nil {
		t.Fatal("blank title accepted")
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	_ = mem.Set(ctx, persist.TasksKey, []byte("{broken-json"))
	adapter := persist.NewAdapter(mem, nil)
	s, _ := newReadyStore(t, adapter)

	if s.State().Error == "" {
		t.Fatal("expected load error")
	}
	_ = s.Add(sampleTask(t, "extra", "Extra"))

	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	st := s.State()
	if st.Error != "" || st.Cause != nil {
		t.Fatalf("Reset kept error %q", st.Error)
	}
	if !reflect.DeepEqual(st.Tasks, task.Defaults()) {
		t.Fatalf("Reset tasks = %v, want defaults", st.Tasks)
	}

	if err := s.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	stored, err := adapter.Load(ctx, nil, persist.LoadOptions{ThrowOnError: true})
	if err != nil {
		t.Fatalf("stored blob after reset: %v", err)
	}
	if !reflect.DeepEqual(stored, task.Defaults()) {
		t.Fatalf("stored = %v, want defaults", stored)
	}
}

func TestResetClearsStorage(t *testing.T) {
	a := &recordingAdapter{}
	s, _ := newReadyStore(t, a)
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	a.mu.Lock()
	clears := a.clears
	a.mu.Unlock()
	if clears != 1 {
		t.Fatalf("clears = %d, want 1", clears)
	}
}

func TestReloadRestartsFloor(t *testing.T) {
	a := &recordingAdapter{loadErr: &persist.LoadError{Key: persist.TasksKey, Err: errors.New("boom")}}
	fake := clock.NewFake(epoch)
	s := New(context.Background(), a, WithClock(fake))
	defer s.Close()

	fake.Advance(time.Second)
	a.mu.Lock()
	a.loadErr = nil
	a.mu.Unlock()
	if err := s.Reload(); err != nil {
		t.Fatal(err)
	}

	// The first floor would have fired at 2s; it must be cancelled.
	fake.Advance(1500 * time.Millisecond)
	if !s.State().Loading() {
		t.Fatal("stale floor timer made the store ready")
	}
	if fake.Pending() != 1 {
		t.Fatalf("pending timers = %d, want 1", fake.Pending())
	}

	fake.Advance(500 * time.Millisecond)
	st := s.State()
	if st.Loading() {
		t.Fatal("not ready after the restarted floor")
	}
	if st.Error != "" {
		t.Fatalf("successful reload kept error %q", st.Error)
	}
}

func TestReloadWaitsForPendingSave(t *testing.T) {
	a := &recordingAdapter{block: make(chan struct{}), entered: make(chan struct{})}
	s, _ := newReadyStore(t, a)
	before := len(s.Tasks())

	if err := s.Add(sampleTask(t, "new", "New")); err != nil {
		t.Fatal(err)
	}
	<-a.entered

	reloaded := make(chan error, 1)
	go func() { reloaded <- s.Reload() }()

	select {
	case err := <-reloaded:
		t.Fatalf("reload finished while a save was in flight: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	close(a.block)

	select {
	case err := <-reloaded:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reload did not finish after the save completed")
	}
	if _, ok := s.Get("new"); !ok {
		t.Fatal("reload dropped the task added just before it")
	}
	if n := len(s.Tasks()); n != before+1 {
		t.Fatalf("tasks = %d, want %d", n, before+1)
	}
}

func TestSavesCoalesce(t *testing.T) {
	a := &recordingAdapter{block: make(chan struct{}), entered: make(chan struct{})}
	s, _ := newReadyStore(t, a)

	if err := s.Add(sampleTask(t, "a", "A")); err != nil {
		t.Fatal(err)
	}
	<-a.entered

	// These land while the first save is in flight.
	for _, id := range []string{"b", "c", "d"} {
		if err := s.Add(sampleTask(t, id, id)); err != nil {
			t.Fatal(err)
		}
	}
	close(a.block)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	if n := a.saveCount(); n != 2 {
		t.Fatalf("saves = %d, want 2", n)
	}
	if !reflect.DeepEqual(a.lastSave(), s.Tasks()) {
		t.Fatal("last save does not reflect the latest collection")
	}
}

func TestSubscribe(t *testing.T) {
	s, _ := newReadyStore(t, &recordingAdapter{})

	var mu sync.Mutex
	var seen []State
	unsubscribe := s.Subscribe(func(st State) {
		mu.Lock()
		seen = append(seen, st)
		mu.Unlock()
	})

	_ = s.ChangeStatus("default-welcome", task.StatusInProgress)
	_ = s.Remove("default-done")

	mu.Lock()
	if len(seen) != 2 {
		mu.Unlock()
		t.Fatalf("observer saw %d states, want 2", len(seen))
	}
	if seen[1].Revision <= seen[0].Revision {
		t.Fatal("revision did not increase")
	}
	mu.Unlock()

	unsubscribe()
	unsubscribe()
	_ = s.Remove("default-move")
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatal("observer called after unsubscribe")
	}
}

func TestCounts(t *testing.T) {
	s, _ := newReadyStore(t, &recordingAdapter{stored: []task.Task{}})
	_ = s.Add(sampleTask(t, "a", "A"))
	_ = s.Add(sampleTask(t, "b", "B"))
	_ = s.ChangeStatus("b", task.StatusDone)

	want := map[task.Status]int{task.StatusTodo: 1, task.StatusInProgress: 0, task.StatusDone: 1}
	if got := s.Counts(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Counts = %v, want %v", got, want)
	}
}

func TestClose(t *testing.T) {
	a := &recordingAdapter{}
	fake := clock.NewFake(epoch)
	s := New(context.Background(), a, WithClock(fake))

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if fake.Pending() != 0 {
		t.Fatal("Close left the floor timer pending")
	}
	fake.Advance(DefaultMinLoading)
	if !s.State().Loading() {
		t.Fatal("state changed after Close")
	}
	if err := s.Reset(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Reset after Close = %v, want ErrClosed", err)
	}
	if err := s.Add(sampleTask(t, "z", "Z")); !errors.Is(err, ErrClosed) {
		t.Fatalf("Add after Close = %v, want ErrClosed", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close = %v", err)
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush after Close = %v", err)
	}
}

func TestCloseWritesPendingChanges(t *testing.T) {
	a := &recordingAdapter{}
	s := New(context.Background(), a, WithClock(clock.NewFake(epoch)), WithMinLoading(0))
	_ = s.Remove("default-welcome")
	_ = s.Close()

	if _, ok := s.Get("default-welcome"); ok {
		t.Fatal("remove lost")
	}
	last := a.lastSave()
	if task.Find(last, "default-welcome") >= 0 || len(last) != len(task.Defaults())-1 {
		t.Fatalf("pending change not written on Close: %v", last)
	}
}
