package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidPriority = errors.New("model: invalid task priority")
)

// MaxTitleLen bounds task and subtask titles, in runes. Longer input is
// truncated rather than rejected.
const MaxTitleLen = 255

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityNone   Priority = "none"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow, PriorityNone:
		return true
	default:
		return false
	}
}

// Weight orders priorities for sorting: high sorts first, none last.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

type Subtask struct {
	ID        string
	Title     string
	Completed bool
	Position  int
}

// Task is one task entity: identity, domain fields, timer state, and the
// sync bookkeeping flags the persistence and sync layers depend on.
type Task struct {
	ID              string
	Title           string
	Description     string
	Notes           string
	Completed       bool
	Priority        Priority
	DueAt           *time.Time
	StartAt         *time.Time
	EndAt           *time.Time
	AccumulatedMS   int64
	TimerStartedAt  *time.Time
	Position        int
	Tags            []string
	Subtasks        []Subtask
	EstimateMinutes int
	Recurrence      *RecurrenceRule
	ListID          string
	OwnerID         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time

	// Sync bookkeeping. Not domain data, but load-bearing: Dirty marks a
	// local change not yet pushed, New an entity never created remotely,
	// Deleted a tombstone pending remote confirmation.
	Dirty     bool
	New       bool
	Deleted   bool
	SyncError string
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	return nil
}

// Running reports whether the task's timer is active. A completed task is
// never running, even if a stale started-at survived a bad write.
func (t Task) Running() bool {
	return t.TimerStartedAt != nil && !t.Completed
}

// ElapsedMS is the accumulated time shown to the user: accumulated plus the
// open interval while running. Negative intervals (clock skew) count as zero.
func (t Task) ElapsedMS(now time.Time) int64 {
	if !t.Running() {
		return t.AccumulatedMS
	}
	delta := now.Sub(*t.TimerStartedAt)
	if delta < 0 {
		delta = 0
	}
	return t.AccumulatedMS + delta.Milliseconds()
}

// StartTimer stamps started-at. No-op when completed or already running.
func (t *Task) StartTimer(now time.Time) {
	if t.Completed || t.TimerStartedAt != nil {
		return
	}
	started := now
	t.TimerStartedAt = &started
	t.touch(now)
}

// PauseTimer folds the open interval into accumulated and clears started-at.
// No-op when not running.
func (t *Task) PauseTimer(now time.Time) {
	if t.TimerStartedAt == nil {
		return
	}
	delta := now.Sub(*t.TimerStartedAt)
	if delta < 0 {
		delta = 0
	}
	t.AccumulatedMS += delta.Milliseconds()
	t.TimerStartedAt = nil
	t.touch(now)
}

func (t *Task) ToggleTimer(now time.Time) {
	if t.Running() {
		t.PauseTimer(now)
		return
	}
	t.StartTimer(now)
}

// ResetTimer pauses first if running, then zeroes accumulated time.
func (t *Task) ResetTimer(now time.Time) {
	if t.TimerStartedAt != nil {
		t.PauseTimer(now)
	}
	t.AccumulatedMS = 0
	t.touch(now)
}

// FollowUp describes the next occurrence of a recurring task, produced when
// a task with a recurrence rule is completed. Subtask ids are left empty;
// the collection assigns fresh ones on insert.
type FollowUp struct {
	Title           string
	Description     string
	Notes           string
	Priority        Priority
	Tags            []string
	Subtasks        []Subtask
	EstimateMinutes int
	DueAt           *time.Time
	StartAt         *time.Time
	EndAt           *time.Time
	Recurrence      *RecurrenceRule
	ListID          string
}

// Complete pauses a running timer first, then marks the task completed.
// When a recurrence rule is present it returns the draft for the next
// occurrence; the second return is false when the rule yields no more
// occurrences or no rule is set. The next occurrence is computed from the
// due date when one is set, otherwise from the completion time; start/end/due
// all shift by the same number of calendar days, each keeping its own
// time-of-day.
func (t *Task) Complete(now time.Time) (FollowUp, bool) {
	if t.Running() {
		t.PauseTimer(now)
	}
	t.Completed = true
	completed := now
	t.CompletedAt = &completed
	t.touch(now)

	if t.Recurrence == nil {
		return FollowUp{}, false
	}
	ref := now
	if t.DueAt != nil {
		ref = *t.DueAt
	}
	next, ok := NextOccurrence(*t.Recurrence, ref)
	if !ok {
		return FollowUp{}, false
	}
	shift := civilDays(ref, next)

	draft := FollowUp{
		Title:           t.Title,
		Description:     t.Description,
		Notes:           t.Notes,
		Priority:        t.Priority,
		Tags:            copyTags(t.Tags),
		EstimateMinutes: t.EstimateMinutes,
		Recurrence:      t.Recurrence.clone(),
		ListID:          t.ListID,
	}
	for _, st := range t.Subtasks {
		draft.Subtasks = append(draft.Subtasks, Subtask{Title: st.Title, Position: st.Position})
	}
	if t.DueAt != nil {
		draft.DueAt = shiftDays(*t.DueAt, shift)
	}
	if t.StartAt != nil {
		draft.StartAt = shiftDays(*t.StartAt, shift)
	}
	if t.EndAt != nil {
		draft.EndAt = shiftDays(*t.EndAt, shift)
	}
	return draft, true
}

// Uncomplete clears the completed flag. It never resurrects a prior timer.
func (t *Task) Uncomplete(now time.Time) {
	t.Completed = false
	t.CompletedAt = nil
	t.touch(now)
}

// Snapshot returns a deep, independent copy: mutating the copy's tags,
// subtasks, or recurrence never aliases the original.
func (t Task) Snapshot() Task {
	out := t
	out.Tags = copyTags(t.Tags)
	out.Subtasks = append([]Subtask(nil), t.Subtasks...)
	out.DueAt = copyTime(t.DueAt)
	out.StartAt = copyTime(t.StartAt)
	out.EndAt = copyTime(t.EndAt)
	out.TimerStartedAt = copyTime(t.TimerStartedAt)
	out.CompletedAt = copyTime(t.CompletedAt)
	out.Recurrence = t.Recurrence.clone()
	return out
}

func (t *Task) touch(now time.Time) {
	t.UpdatedAt = now
	t.Dirty = true
}

// NormalizeTags lowercases, trims, and de-duplicates tags preserving the
// first occurrence's position.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func (t Task) HasTag(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, have := range t.Tags {
		if have == tag {
			return true
		}
	}
	return false
}

// TruncateTitle trims surrounding whitespace and bounds the title to
// MaxTitleLen runes.
func TruncateTitle(title string) string {
	title = strings.TrimSpace(title)
	runes := []rune(title)
	if len(runes) > MaxTitleLen {
		return string(runes[:MaxTitleLen])
	}
	return title
}

func copyTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	return append([]string(nil), tags...)
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

// civilDays counts whole calendar days between two instants, ignoring the
// clock component of each.
func civilDays(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

func shiftDays(v time.Time, days int) *time.Time {
	out := v.AddDate(0, 0, days)
	return &out
}
