package collection

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/tasklite/internal/model"
	"github.com/sandeepkv93/tasklite/internal/undo"
)

// Add appends a new task at the end of the manual order. The title is
// trimmed and truncated; an empty result is rejected.
func (c *Collection) Add(title string) (model.Task, error) {
	title = model.TruncateTitle(title)
	if title == "" {
		return model.Task{}, ErrEmptyTitle
	}

	if err := c.lockLive(); err != nil {
		return model.Task{}, err
	}
	now := c.now()
	t := &model.Task{
		ID:        uuid.NewString(),
		Title:     title,
		Priority:  model.PriorityNone,
		Position:  c.nextPositionLocked(),
		OwnerID:   c.ownerID,
		CreatedAt: now,
		UpdatedAt: now,
		Dirty:     true,
		New:       true,
	}
	c.tasks = append(c.tasks, t)
	snap := t.Snapshot()
	c.mu.Unlock()

	c.commit()
	return snap, nil
}

// Get returns a snapshot of one live task.
func (c *Collection) Get(id string) (model.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t := c.findLocked(id); t != nil {
		return t.Snapshot(), true
	}
	return model.Task{}, false
}

// Update merges a partial update into the task. Invalid fields are dropped
// silently; a no-op update does not touch the entity.
func (c *Collection) Update(id string, u model.TaskUpdate) error {
	if err := c.lockLive(); err != nil {
		return err
	}
	t := c.findLocked(id)
	if t == nil {
		c.mu.Unlock()
		return ErrTaskNotFound
	}
	changed := t.ApplyUpdate(u, c.now())
	if changed && u.Tags != nil {
		c.absorbTagsLocked(t.Tags)
	}
	c.mu.Unlock()

	if changed {
		c.commit()
	}
	return nil
}

// Remove deletes a task: entities the remote has seen become tombstones
// pending the next push, never-synced ones are dropped outright. Either way
// a snapshot goes on the undo stack and a toast carries the undo handle.
func (c *Collection) Remove(id string) error {
	if err := c.lockLive(); err != nil {
		return err
	}
	t := c.findLocked(id)
	if t == nil {
		c.mu.Unlock()
		return ErrTaskNotFound
	}
	now := c.now()
	snap := t.Snapshot()
	act := undo.Action{
		ID:        uuid.NewString(),
		Kind:      undo.KindTaskRemoved,
		CreatedAt: now,
		Task:      &undo.TaskRestore{Task: snap},
	}
	c.undo.Push(act)
	c.tombstoneLocked(t, now)
	c.mu.Unlock()

	c.commit()
	c.sendNote(Notification{
		Kind:    NoteTaskDeleted,
		Message: fmt.Sprintf("Deleted %q", snap.Title),
		UndoID:  act.ID,
	})
	return nil
}

// ToggleComplete flips completion. Completing a recurring task inserts the
// follow-up occurrence and announces it; completing a running task pauses
// its timer first.
func (c *Collection) ToggleComplete(id string) error {
	if err := c.lockLive(); err != nil {
		return err
	}
	t := c.findLocked(id)
	if t == nil {
		c.mu.Unlock()
		return ErrTaskNotFound
	}
	now := c.now()
	if t.Completed {
		t.Uncomplete(now)
		c.mu.Unlock()
		c.commit()
		return nil
	}

	draft, hasNext := t.Complete(now)
	var created model.Task
	if hasNext {
		created = c.insertFollowUpLocked(draft, now)
	}
	c.mu.Unlock()

	c.commit()
	if hasNext {
		c.sendNote(Notification{
			Kind:    NoteFollowUpCreated,
			Message: fmt.Sprintf("Next occurrence of %q created", created.Title),
		})
	}
	return nil
}

// ClearCompleted removes every completed task in one undoable step and
// returns how many were cleared.
func (c *Collection) ClearCompleted() (int, error) {
	if err := c.lockLive(); err != nil {
		return 0, err
	}
	now := c.now()
	var snaps []model.Task
	var cleared []*model.Task
	for _, t := range c.tasks {
		if !t.Deleted && t.Completed {
			snaps = append(snaps, t.Snapshot())
			cleared = append(cleared, t)
		}
	}
	if len(cleared) == 0 {
		c.mu.Unlock()
		return 0, nil
	}
	act := undo.Action{
		ID:        uuid.NewString(),
		Kind:      undo.KindCompletedCleared,
		CreatedAt: now,
		Batch:     &undo.BatchRestore{Tasks: snaps},
	}
	c.undo.Push(act)
	for _, t := range cleared {
		c.tombstoneLocked(t, now)
	}
	c.mu.Unlock()

	c.commit()
	c.sendNote(Notification{
		Kind:    NoteCompletedCleared,
		Message: fmt.Sprintf("Cleared %d completed", len(snaps)),
		UndoID:  act.ID,
	})
	return len(snaps), nil
}

// Undo pops and applies the most recent undoable action. It reports whether
// one was available; expired entries are dropped first.
func (c *Collection) Undo() (bool, error) {
	if err := c.lockLive(); err != nil {
		return false, err
	}
	c.undo.Expire(c.now())
	act, ok := c.undo.Pop()
	if !ok {
		c.mu.Unlock()
		return false, nil
	}
	err := undo.Execute(act, undo.Handlers{
		RestoreTask:  c.restoreTaskLocked,
		RestoreBatch: c.restoreBatchLocked,
		RestoreTag:   c.restoreTagLocked,
	})
	c.mu.Unlock()

	c.commit()
	return true, err
}

// Reorder moves the task to the given index within the current active
// (incomplete, filtered, sorted) order, captures that order into manual
// positions, and switches the sort key to manual. Entities outside the
// active view are never touched.
func (c *Collection) Reorder(id string, index int) error {
	if err := c.lockLive(); err != nil {
		return err
	}
	view := c.activeVisibleLocked()
	from := -1
	for i, t := range view {
		if t.ID == id {
			from = i
			break
		}
	}
	if from == -1 {
		c.mu.Unlock()
		return ErrTaskNotFound
	}
	if index < 0 {
		index = 0
	}
	if index >= len(view) {
		index = len(view) - 1
	}

	moved := view[from]
	view = append(view[:from], view[from+1:]...)
	view = append(view[:index], append([]*model.Task{moved}, view[index:]...)...)

	now := c.now()
	for i, t := range view {
		if t.Position != i {
			t.Position = i
			t.Dirty = true
			t.UpdatedAt = now
		}
	}
	c.settings.SortKey = SortManual
	c.mu.Unlock()

	c.commit()
	return nil
}

// tombstoneLocked marks a synced task deleted-pending-push; a task the
// remote never saw is dropped outright.
func (c *Collection) tombstoneLocked(t *model.Task, now time.Time) {
	if t.New {
		c.dropLocked(t.ID)
		return
	}
	t.Deleted = true
	t.Dirty = true
	t.UpdatedAt = now
}

func (c *Collection) dropLocked(id string) {
	for i, t := range c.tasks {
		if t.ID == id {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			return
		}
	}
}

// insertFollowUpLocked materializes a follow-up draft as a fresh task: new
// ids for the task and every subtask, appended at the end of the manual
// order, never completed, timer at zero.
func (c *Collection) insertFollowUpLocked(d model.FollowUp, now time.Time) model.Task {
	t := &model.Task{
		ID:              uuid.NewString(),
		Title:           d.Title,
		Description:     d.Description,
		Notes:           d.Notes,
		Priority:        d.Priority,
		Tags:            d.Tags,
		EstimateMinutes: d.EstimateMinutes,
		DueAt:           d.DueAt,
		StartAt:         d.StartAt,
		EndAt:           d.EndAt,
		Recurrence:      d.Recurrence,
		ListID:          d.ListID,
		Position:        c.nextPositionLocked(),
		OwnerID:         c.ownerID,
		CreatedAt:       now,
		UpdatedAt:       now,
		Dirty:           true,
		New:             true,
	}
	for _, st := range d.Subtasks {
		t.Subtasks = append(t.Subtasks, model.Subtask{
			ID:       uuid.NewString(),
			Title:    st.Title,
			Position: st.Position,
		})
	}
	c.tasks = append(c.tasks, t)
	return t.Snapshot()
}

// Undo handlers. Each runs with the collection lock held (Undo holds it
// across Execute) and restores purely from the action's data payload.

func (c *Collection) restoreTaskLocked(r undo.TaskRestore) error {
	c.reinsertLocked(r.Task)
	return nil
}

func (c *Collection) restoreBatchLocked(r undo.BatchRestore) error {
	for _, snap := range r.Tasks {
		c.reinsertLocked(snap)
	}
	return nil
}

func (c *Collection) restoreTagLocked(r undo.TagRestore) error {
	now := c.now()
	c.absorbTagsLocked([]string{r.Name})
	for _, id := range r.TaskIDs {
		t := c.findLocked(id)
		if t == nil || t.HasTag(r.Name) {
			continue
		}
		t.Tags = model.NormalizeTags(append(t.Tags, r.Name))
		t.Dirty = true
		t.UpdatedAt = now
	}
	return nil
}

// reinsertLocked brings a removed task back: a lingering tombstone with the
// same id is replaced in place, otherwise the snapshot is appended. The
// restored entity is dirty so the resurrection reaches the remote.
func (c *Collection) reinsertLocked(snap model.Task) {
	now := c.now()
	snap = snap.Snapshot()
	snap.Deleted = false
	snap.Dirty = true
	snap.UpdatedAt = now
	for _, t := range c.tasks {
		if t.ID == snap.ID {
			*t = snap
			return
		}
	}
	t := snap
	c.tasks = append(c.tasks, &t)
}
