package collection

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sandeepkv93/tasklite/internal/debounce"
	"github.com/sandeepkv93/tasklite/internal/model"
	"github.com/sandeepkv93/tasklite/internal/storage"
	"github.com/sandeepkv93/tasklite/internal/timer"
	"github.com/sandeepkv93/tasklite/internal/undo"
)

var (
	ErrEmptyTitle   = errors.New("collection: task title is empty")
	ErrTaskNotFound = errors.New("collection: task not found")
	ErrClosed       = errors.New("collection: closed")
)

// Default debounce delays: local saves coalesce quickly, remote syncs wait
// for a longer quiet period so a burst of edits becomes one push.
const (
	DefaultSaveDelay = 500 * time.Millisecond
	DefaultSyncDelay = 2 * time.Second
)

// NotificationKind labels the transient user-facing events the collection
// emits.
type NotificationKind string

const (
	NoteTaskDeleted      NotificationKind = "task_deleted"
	NoteCompletedCleared NotificationKind = "completed_cleared"
	NoteFollowUpCreated  NotificationKind = "follow_up_created"
	NoteSyncFailed       NotificationKind = "sync_failed"
)

// Notification is a fire-and-forget toast. UndoID is set when the event can
// be reverted through Undo.
type Notification struct {
	Kind    NotificationKind
	Message string
	UndoID  string
}

// Options tune the collection. Zero values fall back to defaults, so tests
// can override only what they exercise.
type Options struct {
	Now          func() time.Time
	SaveDelay    time.Duration
	SyncDelay    time.Duration
	TickInterval time.Duration
	UndoCapacity int
	UndoTTL      time.Duration
}

// Collection owns the entity set and everything that orbits it: CRUD, read
// views, the undo stack, the timer coordinator, debounced persistence and
// sync scheduling, mutation observers, and notifications. All state is
// guarded by one mutex; the tick, debounce, and sync goroutines re-enter
// only through exported methods.
//
// The ownership tree is explicit: the caller constructs the storage, then
// the collection, then attaches a sync coordinator on top. Close tears the
// collection down and flushes a final save.
type Collection struct {
	mu       sync.Mutex
	tasks    []*model.Task
	settings storage.Settings
	ownerID  string

	store   storage.Store
	undo    *undo.Manager
	timer   *timer.Coordinator
	saveDeb *debounce.Debouncer
	syncDeb *debounce.Debouncer

	now         func() time.Time
	requestSync func()
	notifier    func(Notification)
	observers   map[int]func()
	nextObs     int

	lastSaveErr error
	closed      bool
}

// New loads persisted state from the store and starts the tick loop. The
// store stays owned by the caller; Close flushes to it but does not close it.
func New(ctx context.Context, store storage.Store, opts Options) (*Collection, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SaveDelay <= 0 {
		opts.SaveDelay = DefaultSaveDelay
	}
	if opts.SyncDelay <= 0 {
		opts.SyncDelay = DefaultSyncDelay
	}

	persisted, err := store.LoadTasks(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := store.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}

	c := &Collection{
		store:     store,
		settings:  settings,
		now:       opts.Now,
		undo:      undo.NewManager(opts.UndoCapacity, opts.UndoTTL),
		observers: make(map[int]func()),
	}
	for _, p := range persisted {
		t := model.TaskFromPersisted(p)
		c.tasks = append(c.tasks, &t)
	}

	c.saveDeb = debounce.New(opts.SaveDelay, c.performSave)
	c.syncDeb = debounce.New(opts.SyncDelay, c.fireSync)
	c.timer = timer.NewCoordinator(opts.TickInterval, timer.Hooks{
		RunningID: c.runningID,
		Pause:     c.pauseByTimer,
		Start:     c.startByTimer,
		Tick:      c.tick,
	})
	c.timer.Start()
	return c, nil
}

// Close stops the tick loop and both debouncers, then flushes one final
// synchronous save. Further mutations fail with ErrClosed.
func (c *Collection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.timer.Stop()
	c.syncDeb.Stop()
	c.saveDeb.Stop()
	c.performSave()
	return c.LastSaveError()
}

// Subscribe registers a mutation observer and returns its unsubscribe func.
// Observers are invoked after every committed mutation and on each timer
// tick while an entity is running; they must not call back into the
// collection's mutating methods.
func (c *Collection) Subscribe(fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// SetNotifier installs the toast callback.
func (c *Collection) SetNotifier(fn func(Notification)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifier = fn
}

// SetSyncRequester installs the callback fired by the sync debouncer,
// typically the sync coordinator's RequestSync. Unset means no remote.
func (c *Collection) SetSyncRequester(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestSync = fn
}

// NotifySyncFailure surfaces a sync-cycle failure as a notification. Wired
// as the sync coordinator's failure notifier.
func (c *Collection) NotifySyncFailure(err error) {
	if err == nil {
		return
	}
	c.sendNote(Notification{Kind: NoteSyncFailed, Message: err.Error()})
}

// LastSaveError reports the outcome of the most recent persistence attempt.
// It is sticky across failed writes and cleared by the next success.
func (c *Collection) LastSaveError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSaveErr
}

// Flush persists immediately. A pending debounced save is absorbed into
// this write instead of firing later.
func (c *Collection) Flush() error {
	if c.saveDeb.Pending() {
		c.saveDeb.Flush()
	} else {
		c.performSave()
	}
	return c.LastSaveError()
}

// commit schedules the debounced save and sync and publishes to observers.
// Called after every domain mutation, without the lock held.
func (c *Collection) commit() {
	c.saveDeb.Trigger()
	c.syncDeb.Trigger()
	c.publish()
}

// commitLocal is commit without the sync trigger: settings changes and
// sync-driven bookkeeping updates are persisted and published but must never
// feed back into the sync debouncer.
func (c *Collection) commitLocal() {
	c.saveDeb.Trigger()
	c.publish()
}

func (c *Collection) publish() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (c *Collection) sendNote(n Notification) {
	c.mu.Lock()
	fn := c.notifier
	c.mu.Unlock()
	if fn != nil {
		fn(n)
	}
}

func (c *Collection) fireSync() {
	c.mu.Lock()
	fn := c.requestSync
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// performSave serializes under the lock and writes outside it, so a slow
// disk never blocks mutations.
func (c *Collection) performSave() {
	c.mu.Lock()
	tasks := make([]model.PersistedTask, 0, len(c.tasks))
	for _, t := range c.tasks {
		tasks = append(tasks, t.ToPersisted())
	}
	settings := c.settings
	settings.Tags = append([]string(nil), c.settings.Tags...)
	c.mu.Unlock()

	ctx := context.Background()
	err := c.store.SaveTasks(ctx, tasks)
	if err == nil {
		err = c.store.SaveSettings(ctx, settings)
	}

	c.mu.Lock()
	c.lastSaveErr = err
	c.mu.Unlock()
}

// lockLive acquires the lock and rejects the mutation once Close has begun.
// Every mutating method enters through it, so the Close contract (further
// mutations fail with ErrClosed) holds uniformly.
func (c *Collection) lockLive() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	return nil
}

// findLocked returns the live entity, tombstones excluded.
func (c *Collection) findLocked(id string) *model.Task {
	for _, t := range c.tasks {
		if t.ID == id && !t.Deleted {
			return t
		}
	}
	return nil
}

func (c *Collection) nextPositionLocked() int {
	max := -1
	for _, t := range c.tasks {
		if !t.Deleted && t.Position > max {
			max = t.Position
		}
	}
	return max + 1
}

// Timer hooks. These are invoked by the coordinator outside the collection
// lock and take it themselves, so the tick goroutine and the mutating
// methods share one locking discipline.

func (c *Collection) runningID() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tasks {
		if !t.Deleted && t.Running() {
			return t.ID, true
		}
	}
	return "", false
}

func (c *Collection) pauseByTimer(id string) {
	if c.lockLive() != nil {
		return
	}
	if t := c.findLocked(id); t != nil {
		t.PauseTimer(c.now())
	}
	c.mu.Unlock()
	c.commit()
}

func (c *Collection) startByTimer(id string) {
	if c.lockLive() != nil {
		return
	}
	if t := c.findLocked(id); t != nil {
		t.StartTimer(c.now())
	}
	c.mu.Unlock()
	c.commit()
}

// tick fires once per interval while an entity is running: observers
// recompute displayed elapsed time, and stale undo entries are dropped.
// Nothing is persisted.
func (c *Collection) tick(string) {
	c.undo.Expire(c.now())
	c.publish()
}
