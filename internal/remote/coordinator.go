package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrDetached = errors.New("remote: no identity attached")

type State string

const (
	StateDetached State = "detached"
	StateSyncing  State = "syncing"
	StateIdle     State = "idle"
)

// Coordinator reconciles the local collection with the remote store for one
// attached identity: full pull-then-push syncs plus live change events.
// Conflict policy: dirty-local always wins until pushed and acknowledged;
// clean-local always accepts remote. There is no field-level merge.
type Coordinator struct {
	mu      sync.Mutex
	store   Store
	local   Local
	state   State
	ownerID string

	sub     Subscription
	subDone chan struct{}

	// onFailure surfaces collection-wide sync failures upward as a
	// transient notification. Optional.
	onFailure func(error)
}

func NewCoordinator(store Store, local Local) *Coordinator {
	return &Coordinator{
		store: store,
		local: local,
		state: StateDetached,
	}
}

// SetFailureNotifier installs the fire-and-forget failure callback. Must be
// called before Attach.
func (c *Coordinator) SetFailureNotifier(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFailure = fn
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attach binds the coordinator to an identity: stamps every entity, runs
// one full sync, then opens the live subscription. Any previous
// subscription is torn down first, so there is never more than one.
func (c *Coordinator) Attach(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return ErrDetached
	}
	c.teardownSubscription()

	c.mu.Lock()
	c.ownerID = ownerID
	c.state = StateSyncing
	c.mu.Unlock()

	c.local.StampOwner(ownerID)
	syncErr := c.performSync(ctx, ownerID)
	if syncErr != nil {
		c.reportFailure(syncErr)
	}

	sub, err := c.store.Subscribe(ctx, ownerID)
	if err != nil {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		return fmt.Errorf("remote: subscribe: %w", err)
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.sub = sub
	c.subDone = done
	c.state = StateIdle
	c.mu.Unlock()

	go func() {
		defer close(done)
		for ev := range sub.Events() {
			c.HandleChange(ev)
		}
	}()
	return syncErr
}

// Detach clears the identity and tears down the live subscription. Local
// entities keep their dirty state for a later re-attach.
func (c *Coordinator) Detach() {
	c.teardownSubscription()
	c.mu.Lock()
	c.ownerID = ""
	c.state = StateDetached
	c.mu.Unlock()
}

func (c *Coordinator) teardownSubscription() {
	c.mu.Lock()
	sub := c.sub
	done := c.subDone
	c.sub = nil
	c.subDone = nil
	c.mu.Unlock()
	if sub == nil {
		return
	}
	_ = sub.Close()
	if done != nil {
		<-done
	}
}

// Sync runs one full pull-then-push cycle. A per-entity push failure is
// recorded on the entity and reported, but never aborts the rest of the
// cycle.
func (c *Coordinator) Sync(ctx context.Context) error {
	c.mu.Lock()
	owner := c.ownerID
	if owner == "" {
		c.mu.Unlock()
		return ErrDetached
	}
	c.state = StateSyncing
	c.mu.Unlock()

	err := c.performSync(ctx, owner)

	c.mu.Lock()
	if c.ownerID != "" {
		c.state = StateIdle
	}
	c.mu.Unlock()

	if err != nil {
		c.reportFailure(err)
	}
	return err
}

// RequestSync kicks off one background sync cycle. It is the fire-and-forget
// entry point behind the collection's sync debouncer: a no-op when detached
// or when a cycle is already running, and any failure is delivered through
// the failure notifier rather than returned.
func (c *Coordinator) RequestSync() {
	c.mu.Lock()
	if c.ownerID == "" || c.state == StateSyncing {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	go func() { _ = c.Sync(context.Background()) }()
}

func (c *Coordinator) performSync(ctx context.Context, owner string) error {
	records, err := c.store.List(ctx, owner)
	if err != nil {
		return fmt.Errorf("remote: pull: %w", err)
	}
	remoteByID := make(map[string]struct{}, len(records))
	for _, rec := range records {
		remoteByID[rec.ID] = struct{}{}
	}

	local := c.local.SyncView()
	localByID := make(map[string]struct{}, len(local))
	for _, t := range local {
		localByID[t.ID] = struct{}{}
	}

	// Pull: remote wins wholesale on every entity that is not locally
	// dirty. Unknown remote rows become fresh clean entities.
	for _, rec := range records {
		if _, known := localByID[rec.ID]; !known {
			c.local.InsertRemote(rec)
			continue
		}
		if t, ok := c.local.Lookup(rec.ID); ok && !t.Dirty {
			c.local.ApplyRemote(rec)
		}
	}

	// Push: attempted independently per entity.
	var failures int
	var firstErr error
	record := func(id string, err error) {
		failures++
		if firstErr == nil {
			firstErr = err
		}
		c.local.MarkSyncError(id, err.Error())
	}

	for _, t := range local {
		_, existsRemotely := remoteByID[t.ID]
		if !t.Dirty {
			// Previously synced but gone remotely: the remote
			// deleted it, reconcile locally.
			if !existsRemotely && !t.New {
				c.local.Purge(t.ID)
			}
			continue
		}
		switch {
		case t.Deleted && t.New:
			// Tombstone for an entity the remote never saw.
			c.local.Purge(t.ID)
		case t.Deleted:
			if err := c.store.Delete(ctx, t.ID); err != nil {
				record(t.ID, err)
			} else {
				c.local.Purge(t.ID)
			}
		case t.New:
			if err := c.store.Create(ctx, t.ToRemote()); err != nil {
				record(t.ID, err)
			} else {
				c.local.MarkSynced(t.ID)
			}
		case !existsRemotely:
			// Dirty edit of a row the remote deleted meanwhile.
			c.local.Purge(t.ID)
		default:
			if err := c.store.Update(ctx, t.ToRemote()); err != nil {
				record(t.ID, err)
			} else {
				c.local.MarkSynced(t.ID)
			}
		}
	}

	if failures > 0 {
		return fmt.Errorf("remote: %d push(es) failed: %w", failures, firstErr)
	}
	return nil
}

// HandleChange applies one live change event under the conflict policy.
func (c *Coordinator) HandleChange(ev ChangeEvent) {
	switch ev.Op {
	case OpInsert:
		if ev.New == nil {
			return
		}
		t, known := c.local.Lookup(ev.New.ID)
		if !known {
			c.local.InsertRemote(*ev.New)
			return
		}
		if t.New {
			// Our own creation echoed back.
			c.local.AcknowledgeCreate(t.ID)
		}
	case OpUpdate:
		if ev.New == nil {
			return
		}
		t, known := c.local.Lookup(ev.New.ID)
		if !known {
			c.local.InsertRemote(*ev.New)
			return
		}
		if !t.Dirty {
			c.local.ApplyRemote(*ev.New)
		}
	case OpDelete:
		if ev.Old == nil {
			return
		}
		c.local.Purge(ev.Old.ID)
	}
}

func (c *Coordinator) reportFailure(err error) {
	c.mu.Lock()
	fn := c.onFailure
	c.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}
