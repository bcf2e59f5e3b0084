package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskboard/internal/clock"
	"github.com/nibzard/taskboard/internal/persist"
	"github.com/nibzard/taskboard/internal/task"
)

var (
	ErrNotReady    = errors.New("store: still loading")
	ErrDuplicateID = errors.New("store: duplicate task id")
	ErrClosed      = errors.New("store: closed")
)

// Phase is the load lifecycle phase.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
)

// State is a snapshot of the store. Tasks is a private copy.
type State struct {
	Phase Phase
	Tasks []task.Task

	// Error is a user-facing message for the last failed load; empty when
	// there is none. Cause holds the underlying error.
	Error string
	Cause error

	// Revision increases on every change.
	Revision uint64
}

// Loading reports whether the store is in the loading phase.
func (s State) Loading() bool {
	return s.Phase == PhaseLoading
}

// Adapter is the persistence boundary used by the store.
type Adapter interface {
	Load(ctx context.Context, fallback []task.Task, opts persist.LoadOptions) ([]task.Task, error)
	Save(ctx context.Context, tasks []task.Task) error
	Clear(ctx context.Context) error
}

type observer struct {
	id uint64
	fn func(State)
}

// Store owns the task collection.
type Store struct {
	adapter    Adapter
	clock      clock.Clock
	logger     *log.Logger
	defaults   []task.Task
	minLoading time.Duration
	ctx        context.Context

	mu     sync.Mutex
	phase  Phase
	tasks  []task.Task
	errMsg string
	cause  error
	rev    uint64
	closed bool

	// load lifecycle
	loadGen     uint64
	loaded      bool
	loadStarted time.Time
	floorGen    uint64
	floorDone   bool
	floorTimer  clock.Timer

	observers []observer
	nextObsID uint64

	// saver
	dirtyRev     uint64
	savedRev     uint64
	clearPending bool
	savedCh      chan struct{}
	kick         chan struct{}
	stop         chan struct{}
	done         chan struct{}
}

// New creates a store and runs the initial load. The store is usable as soon
// as New returns; it reports PhaseLoading until the load and the loading
// floor have both completed.
func New(ctx context.Context, adapter Adapter, opts ...Option) *Store {
	s := &Store{
		adapter:    adapter,
		clock:      clock.Real{},
		logger:     log.New(io.Discard),
		defaults:   task.Defaults(),
		minLoading: DefaultMinLoading,
		ctx:        context.WithoutCancel(ctx),
		phase:      PhaseLoading,
		tasks:      []task.Task{},
		savedCh:    make(chan struct{}),
		kick:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.saveLoop()
	s.load(ctx)
	return s
}

// State returns a snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Tasks returns a copy of the collection in insertion order.
func (s *Store) Tasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return task.CloneAll(s.tasks)
}

// Get returns the task with id.
func (s *Store) Get(id string) (task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := task.Find(s.tasks, id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return task.Task{}, false
}

// Counts returns the number of tasks per status. Every status is present.
func (s *Store) Counts() map[task.Status]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[task.Status]int, 3)
	for _, st := range task.Statuses() {
		counts[st] = 0
	}
	for _, t := range s.tasks {
		counts[t.Status]++
	}
	return counts
}

// Subscribe registers fn to receive a snapshot after every change. The
// returned function unregisters it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	s.nextObsID++
	id := s.nextObsID
	s.observers = append(s.observers, observer{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, o := range s.observers {
				if o.id == id {
					s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// Add appends a validated task.
func (s *Store) Add(t task.Task) error {
	if err := task.Validate(t); err != nil {
		return err
	}
	return s.mutate(func() (bool, error) {
		if task.Find(s.tasks, t.ID) >= 0 {
			return false, fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
		}
		s.tasks = append(s.tasks, t.Clone())
		return true, nil
	})
}

// Create builds a task from d and adds it.
func (s *Store) Create(d task.Draft) (task.Task, error) {
	t, err := task.New(d, s.clock.Now())
	if err != nil {
		return task.Task{}, err
	}
	if err := s.Add(t); err != nil {
		return task.Task{}, err
	}
	return t, nil
}

// Update merges p into the task with id. An unknown id is a no-op.
func (s *Store) Update(id string, p task.Patch) error {
	return s.mutate(func() (bool, error) {
		i := task.Find(s.tasks, id)
		if i < 0 {
			return false, nil
		}
		updated, err := task.Apply(s.tasks[i], p, s.clock.Now())
		if err != nil {
			return false, err
		}
		s.tasks[i] = updated
		return true, nil
	})
}

// ChangeStatus moves the task with id to status.
func (s *Store) ChangeStatus(id string, status task.Status) error {
	return s.Update(id, task.Patch{Status: &status})
}

// Remove deletes the task with id. An unknown id is a no-op.
func (s *Store) Remove(id string) error {
	return s.mutate(func() (bool, error) {
		i := task.Find(s.tasks, id)
		if i < 0 {
			return false, nil
		}
		s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
		return true, nil
	})
}

// Reset clears persisted storage, replaces the collection with the default
// tasks and clears the error. It is accepted while loading and discards the
// result of a load still in flight.
func (s *Store) Reset() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.phase == PhaseLoading {
		s.loadGen++
		s.loaded = true
		s.maybeReadyLocked()
	}
	s.tasks = task.CloneAll(s.defaults)
	s.errMsg = ""
	s.cause = nil
	s.clearPending = true
	s.markDirtyLocked()
	st := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("board reset to defaults", "count", len(st.Tasks))
	s.kickSaver()
	s.notify(st)
	return nil
}

// Reload runs the load sequence again. Pending changes are written first so
// the load reads them back. A pending loading floor is cancelled and
// restarted.
func (s *Store) Reload() error {
	if err := s.Flush(s.ctx); err != nil {
		return fmt.Errorf("flush before reload: %w", err)
	}
	return s.load(s.ctx)
}

// ClearError dismisses the load error without touching the collection.
func (s *Store) ClearError() {
	s.mu.Lock()
	if s.errMsg == "" && s.cause == nil {
		s.mu.Unlock()
		return
	}
	s.errMsg = ""
	s.cause = nil
	s.rev++
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(st)
}

// Flush waits until every change made before the call has been written.
// Failed writes count as written; they are logged by the adapter.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	target := s.dirtyRev
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if s.savedRev >= target {
			s.mu.Unlock()
			return nil
		}
		ch := s.savedCh
		s.mu.Unlock()

		select {
		case <-ch:
		case <-s.done:
			// The saver has exited; it drains before closing done.
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close cancels the loading floor, writes any pending changes and stops the
// saver. Later mutations return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.stopFloorLocked()
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	return nil
}

// mutate runs fn under the lock. fn reports whether the collection changed.
func (s *Store) mutate(fn func() (bool, error)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.phase == PhaseLoading {
		s.mu.Unlock()
		return ErrNotReady
	}
	changed, err := fn()
	if err != nil || !changed {
		s.mu.Unlock()
		return err
	}
	s.markDirtyLocked()
	st := s.snapshotLocked()
	s.mu.Unlock()

	s.kickSaver()
	s.notify(st)
	return nil
}

func (s *Store) load(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.loadGen++
	gen := s.loadGen
	s.stopFloorLocked()
	s.floorGen++
	floorGen := s.floorGen
	s.phase = PhaseLoading
	s.loaded = false
	s.floorDone = s.minLoading <= 0
	s.loadStarted = s.clock.Now()
	if !s.floorDone {
		s.floorTimer = s.clock.AfterFunc(s.minLoading, func() { s.floorElapsed(floorGen) })
	}
	s.rev++
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(st)

	tasks, err := s.adapter.Load(ctx, s.defaults, persist.LoadOptions{ThrowOnError: true})

	s.mu.Lock()
	if s.closed || gen != s.loadGen {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.tasks = task.CloneAll(s.defaults)
		s.errMsg = loadErrorMessage(err)
		s.cause = err
		s.logger.Warn("using default tasks after failed load", "err", err)
	} else {
		s.tasks = tasks
		s.errMsg = ""
		s.cause = nil
		s.logger.Debug("tasks loaded", "count", len(tasks))
	}
	s.loaded = true
	if !s.floorDone && !s.clock.Now().Before(s.loadStarted.Add(s.minLoading)) {
		s.stopFloorLocked()
		s.floorDone = true
	}
	s.maybeReadyLocked()
	s.rev++
	st = s.snapshotLocked()
	s.mu.Unlock()
	s.notify(st)
	return nil
}

func (s *Store) floorElapsed(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.floorGen || s.floorDone {
		s.mu.Unlock()
		return
	}
	s.floorTimer = nil
	s.floorDone = true
	if !s.maybeReadyLocked() {
		s.mu.Unlock()
		return
	}
	s.rev++
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(st)
}

// maybeReadyLocked switches to ready once the load and the floor are done.
func (s *Store) maybeReadyLocked() bool {
	if s.phase != PhaseLoading || !s.loaded || !s.floorDone {
		return false
	}
	s.phase = PhaseReady
	return true
}

func (s *Store) stopFloorLocked() {
	if s.floorTimer != nil {
		s.floorTimer.Stop()
		s.floorTimer = nil
	}
}

func (s *Store) markDirtyLocked() {
	s.rev++
	s.dirtyRev = s.rev
}

func (s *Store) snapshotLocked() State {
	return State{
		Phase:    s.phase,
		Tasks:    task.CloneAll(s.tasks),
		Error:    s.errMsg,
		Cause:    s.cause,
		Revision: s.rev,
	}
}

func (s *Store) notify(st State) {
	s.mu.Lock()
	observers := append([]observer(nil), s.observers...)
	s.mu.Unlock()
	for _, o := range observers {
		o.fn(st)
	}
}

func (s *Store) kickSaver() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Store) saveLoop() {
	defer close(s.done)
	for {
		select {
		case <-s.kick:
			s.saveOnce()
		case <-s.stop:
			s.saveOnce()
			return
		}
	}
}

// saveOnce writes the newest collection if it has unsaved changes.
func (s *Store) saveOnce() {
	s.mu.Lock()
	if s.dirtyRev <= s.savedRev {
		s.mu.Unlock()
		return
	}
	target := s.dirtyRev
	tasks := task.CloneAll(s.tasks)
	wipe := s.clearPending
	s.clearPending = false
	s.mu.Unlock()

	if wipe {
		_ = s.adapter.Clear(s.ctx)
	}
	if err := s.adapter.Save(s.ctx, tasks); err != nil {
		s.logger.Warn("tasks not persisted", "revision", target, "err", err)
	}

	s.mu.Lock()
	if target > s.savedRev {
		s.savedRev = target
	}
	close(s.savedCh)
	s.savedCh = make(chan struct{})
	s.mu.Unlock()
}

func loadErrorMessage(err error) string {
	var lerr *persist.LoadError
	if errors.As(err, &lerr) {
		return fmt.Sprintf("saved tasks could not be loaded: %v", lerr.Err)
	}
	return fmt.Sprintf("saved tasks could not be loaded: %v", err)
}
