package collection

import (
	"github.com/sandeepkv93/tasklite/internal/model"
)

// The sync coordinator's accessor surface. These run on the sync goroutine;
// each schedules a save and publishes but never touches the sync debouncer,
// so applying remote state can't retrigger a sync.

// StampOwner records the attached identity and stamps it onto every entity.
// Stamping alone never dirties an entity; never-synced ones are already new
// and will carry the owner on their first push.
func (c *Collection) StampOwner(ownerID string) {
	if c.lockLive() != nil {
		return
	}
	c.ownerID = ownerID
	for _, t := range c.tasks {
		t.OwnerID = ownerID
	}
	c.mu.Unlock()
	c.commitLocal()
}

// SyncView returns snapshots of every entity, tombstones included.
func (c *Collection) SyncView() []model.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		out = append(out, t.Snapshot())
	}
	return out
}

// Lookup returns a snapshot of one entity, tombstones included.
func (c *Collection) Lookup(id string) (model.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tasks {
		if t.ID == id {
			return t.Snapshot(), true
		}
	}
	return model.Task{}, false
}

// ApplyRemote replaces a clean local entity wholesale with the remote
// version. A locally running timer survives; the rest is the remote's.
func (c *Collection) ApplyRemote(rec model.RemoteTask) {
	if c.lockLive() != nil {
		return
	}
	applied := false
	for _, t := range c.tasks {
		if t.ID == rec.ID {
			t.ApplyRemote(rec)
			applied = true
			break
		}
	}
	c.mu.Unlock()
	if applied {
		c.commitLocal()
	}
}

// InsertRemote appends a fresh, clean entity received from the remote.
func (c *Collection) InsertRemote(rec model.RemoteTask) {
	if c.lockLive() != nil {
		return
	}
	for _, t := range c.tasks {
		if t.ID == rec.ID {
			c.mu.Unlock()
			return
		}
	}
	t := model.TaskFromRemote(rec)
	c.tasks = append(c.tasks, &t)
	c.absorbTagsLocked(t.Tags)
	c.mu.Unlock()
	c.commitLocal()
}

// AcknowledgeCreate clears the bookkeeping after our own creation is echoed
// back by the live feed.
func (c *Collection) AcknowledgeCreate(id string) {
	c.clearBookkeeping(id)
}

// MarkSynced clears the bookkeeping after a successful push.
func (c *Collection) MarkSynced(id string) {
	c.clearBookkeeping(id)
}

func (c *Collection) clearBookkeeping(id string) {
	if c.lockLive() != nil {
		return
	}
	for _, t := range c.tasks {
		if t.ID == id {
			t.Dirty = false
			t.New = false
			t.SyncError = ""
			break
		}
	}
	c.mu.Unlock()
	c.commitLocal()
}

// MarkSyncError records a per-entity push failure. The entity stays dirty
// for the next cycle.
func (c *Collection) MarkSyncError(id string, msg string) {
	if c.lockLive() != nil {
		return
	}
	for _, t := range c.tasks {
		if t.ID == id {
			t.SyncError = msg
			break
		}
	}
	c.mu.Unlock()
	c.commitLocal()
}

// Purge removes an entity outright, tombstone or not. Used when the remote
// has confirmed (or already performed) the deletion.
func (c *Collection) Purge(id string) {
	if c.lockLive() != nil {
		return
	}
	c.dropLocked(id)
	c.mu.Unlock()
	c.commitLocal()
}
