package collection

import (
	"sort"
	"strings"
	"time"

	"github.com/sandeepkv93/tasklite/internal/model"
)

// Sort keys. Ties always keep insertion order; descending flips only the
// key comparison, never the tie-break.
const (
	SortManual   = "manual"
	SortPriority = "priority"
	SortDue      = "due"
	SortTitle    = "title"
)

// Group modes. Empty means a single ungrouped bucket.
const (
	GroupNone     = ""
	GroupPriority = "priority"
	GroupDue      = "due"
)

// Group is one bucket of the grouped view.
type Group struct {
	Key   string
	Tasks []model.Task
}

// Stats summarizes the live task set.
type Stats struct {
	Total           int
	Active          int
	Completed       int
	CompletionRate  float64
	AccumulatedMS   int64
	EstimateMinutes int
	TagCounts       map[string]int
}

// SetSort sets the sort key and direction. Unknown keys are ignored.
func (c *Collection) SetSort(key string, ascending bool) {
	switch key {
	case SortManual, SortPriority, SortDue, SortTitle:
	default:
		return
	}
	if c.lockLive() != nil {
		return
	}
	c.settings.SortKey = key
	c.settings.Ascending = ascending
	c.mu.Unlock()
	c.commitLocal()
}

// SetGroupMode sets the grouping mode. Unknown modes are ignored.
func (c *Collection) SetGroupMode(mode string) {
	switch mode {
	case GroupNone, GroupPriority, GroupDue:
	default:
		return
	}
	if c.lockLive() != nil {
		return
	}
	c.settings.GroupMode = mode
	c.mu.Unlock()
	c.commitLocal()
}

// SetFilter sets the tag and title-substring filters. Empty clears each.
func (c *Collection) SetFilter(tag, text string) {
	if c.lockLive() != nil {
		return
	}
	c.settings.FilterTag = normalizeTag(tag)
	c.settings.FilterText = strings.TrimSpace(text)
	c.mu.Unlock()
	c.commitLocal()
}

// Settings returns the current preferences, vocabulary included.
func (c *Collection) Settings() (sortKey string, ascending bool, groupMode, filterTag, filterText string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sortKeyLocked(), c.settings.Ascending, c.settings.GroupMode, c.settings.FilterTag, c.settings.FilterText
}

// All returns snapshots of every live task in insertion order, filters and
// sort ignored.
func (c *Collection) All() []model.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		if !t.Deleted {
			out = append(out, t.Snapshot())
		}
	}
	return out
}

// Active returns live tasks not yet completed.
func (c *Collection) Active() []model.Task {
	return c.filtered(func(t *model.Task) bool { return !t.Completed })
}

// CompletedTasks returns live completed tasks.
func (c *Collection) CompletedTasks() []model.Task {
	return c.filtered(func(t *model.Task) bool { return t.Completed })
}

// Overdue returns tasks due strictly before the start of today and not yet
// completed. A task due later today is not overdue.
func (c *Collection) Overdue() []model.Task {
	start := startOfDay(c.now())
	return c.filtered(func(t *model.Task) bool {
		return !t.Completed && t.DueAt != nil && t.DueAt.Before(start)
	})
}

func (c *Collection) filtered(keep func(*model.Task) bool) []model.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.Task
	for _, t := range c.tasks {
		if !t.Deleted && keep(t) {
			out = append(out, t.Snapshot())
		}
	}
	return out
}

// Visible returns the filtered, sorted list the user is looking at.
func (c *Collection) Visible() []model.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	view := c.visibleLocked()
	out := make([]model.Task, 0, len(view))
	for _, t := range view {
		out = append(out, t.Snapshot())
	}
	return out
}

// Grouped buckets the visible list by the current group mode. Empty buckets
// are omitted; no grouping yields one "all" bucket.
func (c *Collection) Grouped() []Group {
	c.mu.Lock()
	mode := c.settings.GroupMode
	view := c.visibleLocked()
	snaps := make([]model.Task, 0, len(view))
	for _, t := range view {
		snaps = append(snaps, t.Snapshot())
	}
	now := c.now()
	c.mu.Unlock()

	var keys []string
	keyOf := func(t model.Task) string { return "all" }
	switch mode {
	case GroupPriority:
		keys = []string{"high", "medium", "low", "none"}
		keyOf = func(t model.Task) string { return string(t.Priority) }
	case GroupDue:
		keys = []string{"overdue", "today", "tomorrow", "upcoming", "nodate"}
		start := startOfDay(now)
		keyOf = func(t model.Task) string { return dueBucket(t, start) }
	default:
		keys = []string{"all"}
	}

	byKey := make(map[string][]model.Task, len(keys))
	for _, t := range snaps {
		k := keyOf(t)
		byKey[k] = append(byKey[k], t)
	}
	var out []Group
	for _, k := range keys {
		if tasks := byKey[k]; len(tasks) > 0 {
			out = append(out, Group{Key: k, Tasks: tasks})
		}
	}
	return out
}

// Stats summarizes the live set at the current clock. Tombstones never
// count.
func (c *Collection) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	s := Stats{TagCounts: make(map[string]int)}
	for _, t := range c.tasks {
		if t.Deleted {
			continue
		}
		s.Total++
		if t.Completed {
			s.Completed++
		} else {
			s.Active++
		}
		s.AccumulatedMS += t.ElapsedMS(now)
		s.EstimateMinutes += t.EstimateMinutes
		for _, tag := range t.Tags {
			s.TagCounts[tag]++
		}
	}
	if s.Total > 0 {
		s.CompletionRate = float64(s.Completed) / float64(s.Total)
	}
	return s
}

// visibleLocked is the filter-then-sort pipeline behind Visible, Grouped,
// and Reorder, returning the live entities themselves.
func (c *Collection) visibleLocked() []*model.Task {
	var view []*model.Task
	for _, t := range c.tasks {
		if t.Deleted || !c.matchesFilterLocked(t) {
			continue
		}
		view = append(view, t)
	}
	c.sortLocked(view)
	return view
}

// activeVisibleLocked is the reorder surface: the visible view minus
// completed tasks. A reorder renumbers only active entities; completed ones
// keep their positions and dirty state.
func (c *Collection) activeVisibleLocked() []*model.Task {
	view := c.visibleLocked()
	kept := view[:0]
	for _, t := range view {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	return kept
}

func (c *Collection) matchesFilterLocked(t *model.Task) bool {
	if tag := c.settings.FilterTag; tag != "" && !t.HasTag(tag) {
		return false
	}
	if text := c.settings.FilterText; text != "" {
		if !strings.Contains(strings.ToLower(t.Title), strings.ToLower(text)) {
			return false
		}
	}
	return true
}

func (c *Collection) sortKeyLocked() string {
	if c.settings.SortKey == "" {
		return SortManual
	}
	return c.settings.SortKey
}

func (c *Collection) sortLocked(view []*model.Task) {
	key := c.sortKeyLocked()
	asc := c.settings.Ascending
	sort.SliceStable(view, func(i, j int) bool {
		a, b := view[i], view[j]
		// Dueless tasks sort after dated ones regardless of direction.
		if key == SortDue && (a.DueAt == nil || b.DueAt == nil) {
			return a.DueAt != nil && b.DueAt == nil
		}
		cmp := compareTasks(a, b, key)
		if cmp == 0 {
			return false
		}
		if !asc {
			cmp = -cmp
		}
		return cmp < 0
	})
}

// compareTasks orders two tasks under one sort key, ascending. Nil due
// dates are handled by the caller.
func compareTasks(a, b *model.Task, key string) int {
	switch key {
	case SortPriority:
		return a.Priority.Weight() - b.Priority.Weight()
	case SortDue:
		switch {
		case a.DueAt.Before(*b.DueAt):
			return -1
		case b.DueAt.Before(*a.DueAt):
			return 1
		default:
			return 0
		}
	case SortTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	default:
		return a.Position - b.Position
	}
}

func dueBucket(t model.Task, startToday time.Time) string {
	if t.DueAt == nil {
		return "nodate"
	}
	due := *t.DueAt
	switch {
	case due.Before(startToday):
		if t.Completed {
			return "today"
		}
		return "overdue"
	case due.Before(startToday.AddDate(0, 0, 1)):
		return "today"
	case due.Before(startToday.AddDate(0, 0, 2)):
		return "tomorrow"
	default:
		return "upcoming"
	}
}

func startOfDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
