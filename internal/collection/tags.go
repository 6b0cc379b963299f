package collection

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/tasklite/internal/model"
	"github.com/sandeepkv93/tasklite/internal/undo"
)

// Tags returns the global tag vocabulary.
func (c *Collection) Tags() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.settings.Tags...)
}

// AddTag adds a tag to the vocabulary without attaching it to any task.
func (c *Collection) AddTag(name string) {
	name = normalizeTag(name)
	if name == "" {
		return
	}
	if c.lockLive() != nil {
		return
	}
	c.absorbTagsLocked([]string{name})
	c.mu.Unlock()
	c.commitLocal()
}

// DeleteTag removes a tag from the vocabulary and strips it from every task
// carrying it, as one undoable step.
func (c *Collection) DeleteTag(name string) {
	name = normalizeTag(name)
	if name == "" {
		return
	}

	if c.lockLive() != nil {
		return
	}
	inVocab := false
	for i, have := range c.settings.Tags {
		if have == name {
			inVocab = true
			c.settings.Tags = append(c.settings.Tags[:i], c.settings.Tags[i+1:]...)
			break
		}
	}

	now := c.now()
	var taskIDs []string
	for _, t := range c.tasks {
		if t.Deleted || !t.HasTag(name) {
			continue
		}
		taskIDs = append(taskIDs, t.ID)
		kept := t.Tags[:0]
		for _, have := range t.Tags {
			if have != name {
				kept = append(kept, have)
			}
		}
		t.Tags = kept
		t.Dirty = true
		t.UpdatedAt = now
	}
	if !inVocab && len(taskIDs) == 0 {
		c.mu.Unlock()
		return
	}
	c.undo.Push(undo.Action{
		ID:        uuid.NewString(),
		Kind:      undo.KindTagRemoved,
		CreatedAt: now,
		Tag:       &undo.TagRestore{Name: name, TaskIDs: taskIDs},
	})
	c.mu.Unlock()

	c.commit()
}

// AddTaskTag attaches a tag to one task and absorbs it into the vocabulary.
func (c *Collection) AddTaskTag(id, name string) error {
	name = normalizeTag(name)
	if name == "" {
		return nil
	}
	if err := c.lockLive(); err != nil {
		return err
	}
	t := c.findLocked(id)
	if t == nil {
		c.mu.Unlock()
		return ErrTaskNotFound
	}
	if t.HasTag(name) {
		c.mu.Unlock()
		return nil
	}
	t.Tags = model.NormalizeTags(append(t.Tags, name))
	t.Dirty = true
	t.UpdatedAt = c.now()
	c.absorbTagsLocked([]string{name})
	c.mu.Unlock()

	c.commit()
	return nil
}

// RemoveTaskTag detaches a tag from one task. The vocabulary keeps it.
func (c *Collection) RemoveTaskTag(id, name string) error {
	name = normalizeTag(name)
	if err := c.lockLive(); err != nil {
		return err
	}
	t := c.findLocked(id)
	if t == nil {
		c.mu.Unlock()
		return ErrTaskNotFound
	}
	if !t.HasTag(name) {
		c.mu.Unlock()
		return nil
	}
	kept := t.Tags[:0]
	for _, have := range t.Tags {
		if have != name {
			kept = append(kept, have)
		}
	}
	t.Tags = kept
	t.Dirty = true
	t.UpdatedAt = c.now()
	c.mu.Unlock()

	c.commit()
	return nil
}

// absorbTagsLocked folds task tags into the vocabulary, preserving first-seen
// order.
func (c *Collection) absorbTagsLocked(tags []string) {
	for _, tag := range tags {
		known := false
		for _, have := range c.settings.Tags {
			if have == tag {
				known = true
				break
			}
		}
		if !known {
			c.settings.Tags = append(c.settings.Tags, tag)
		}
	}
}

func normalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Subtask operations. Subtask order is positional within the parent task.

func (c *Collection) AddSubtask(taskID, title string) (model.Subtask, error) {
	title = model.TruncateTitle(title)
	if title == "" {
		return model.Subtask{}, ErrEmptyTitle
	}
	if err := c.lockLive(); err != nil {
		return model.Subtask{}, err
	}
	t := c.findLocked(taskID)
	if t == nil {
		c.mu.Unlock()
		return model.Subtask{}, ErrTaskNotFound
	}
	st := model.Subtask{
		ID:       uuid.NewString(),
		Title:    title,
		Position: len(t.Subtasks),
	}
	t.Subtasks = append(t.Subtasks, st)
	t.Dirty = true
	t.UpdatedAt = c.now()
	c.mu.Unlock()

	c.commit()
	return st, nil
}

func (c *Collection) ToggleSubtask(taskID, subtaskID string) error {
	return c.mutateSubtasks(taskID, func(subs []model.Subtask, _ time.Time) ([]model.Subtask, bool) {
		for i := range subs {
			if subs[i].ID == subtaskID {
				subs[i].Completed = !subs[i].Completed
				return subs, true
			}
		}
		return subs, false
	})
}

func (c *Collection) RemoveSubtask(taskID, subtaskID string) error {
	return c.mutateSubtasks(taskID, func(subs []model.Subtask, _ time.Time) ([]model.Subtask, bool) {
		for i := range subs {
			if subs[i].ID == subtaskID {
				subs = append(subs[:i], subs[i+1:]...)
				for j := range subs {
					subs[j].Position = j
				}
				return subs, true
			}
		}
		return subs, false
	})
}

func (c *Collection) ReorderSubtask(taskID, subtaskID string, index int) error {
	return c.mutateSubtasks(taskID, func(subs []model.Subtask, _ time.Time) ([]model.Subtask, bool) {
		from := -1
		for i := range subs {
			if subs[i].ID == subtaskID {
				from = i
				break
			}
		}
		if from == -1 {
			return subs, false
		}
		if index < 0 {
			index = 0
		}
		if index >= len(subs) {
			index = len(subs) - 1
		}
		moved := subs[from]
		subs = append(subs[:from], subs[from+1:]...)
		subs = append(subs[:index], append([]model.Subtask{moved}, subs[index:]...)...)
		for j := range subs {
			subs[j].Position = j
		}
		return subs, true
	})
}

func (c *Collection) mutateSubtasks(taskID string, fn func([]model.Subtask, time.Time) ([]model.Subtask, bool)) error {
	if err := c.lockLive(); err != nil {
		return err
	}
	t := c.findLocked(taskID)
	if t == nil {
		c.mu.Unlock()
		return ErrTaskNotFound
	}
	now := c.now()
	subs, changed := fn(t.Subtasks, now)
	if changed {
		t.Subtasks = subs
		t.Dirty = true
		t.UpdatedAt = now
	}
	c.mu.Unlock()

	if changed {
		c.commit()
	}
	return nil
}
