package model

import (
	"testing"
	"time"
)

func clock(min, sec int) time.Time {
	return time.Date(2026, 2, 9, 12, min, sec, 0, time.UTC)
}

func newTask(title string) Task {
	now := clock(0, 0)
	return Task{
		ID:        "task-1",
		Title:     title,
		Priority:  PriorityNone,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestTimerStartPauseAccumulates(t *testing.T) {
	task := newTask("Write report")
	task.StartTimer(clock(0, 0))
	if !task.Running() {
		t.Fatal("expected running after start")
	}
	task.PauseTimer(clock(0, 42))
	if task.Running() {
		t.Fatal("expected paused")
	}
	if task.AccumulatedMS != 42_000 {
		t.Fatalf("accumulated = %d, want 42000", task.AccumulatedMS)
	}
	if !task.Dirty {
		t.Fatal("timer mutation must mark the task dirty")
	}
}

func TestPauseTimerIsIdempotent(t *testing.T) {
	task := newTask("Write report")
	task.StartTimer(clock(0, 0))
	task.PauseTimer(clock(0, 10))
	task.PauseTimer(clock(0, 20))
	if task.AccumulatedMS != 10_000 {
		t.Fatalf("accumulated = %d, want 10000 after double pause", task.AccumulatedMS)
	}
}

func TestPauseTimerClampsClockSkew(t *testing.T) {
	task := newTask("Write report")
	task.StartTimer(clock(5, 0))
	task.PauseTimer(clock(4, 0))
	if task.AccumulatedMS != 0 {
		t.Fatalf("accumulated = %d, want 0 on negative delta", task.AccumulatedMS)
	}
}

func TestElapsedNeverDecreasesWhileRunning(t *testing.T) {
	task := newTask("Write report")
	task.AccumulatedMS = 5_000
	task.StartTimer(clock(0, 0))
	prev := int64(-1)
	for sec := 0; sec <= 30; sec += 5 {
		got := task.ElapsedMS(clock(0, sec))
		if got < prev {
			t.Fatalf("elapsed decreased: %d after %d", got, prev)
		}
		prev = got
	}
	if prev != 35_000 {
		t.Fatalf("elapsed = %d, want 35000", prev)
	}
}

func TestStartTimerNoopWhenCompleted(t *testing.T) {
	task := newTask("Write report")
	task.Complete(clock(0, 0))
	task.StartTimer(clock(1, 0))
	if task.Running() {
		t.Fatal("completed task must not start a timer")
	}
}

func TestCompletePausesRunningTimerFirst(t *testing.T) {
	task := newTask("Write report")
	task.StartTimer(clock(0, 0))
	task.Complete(clock(0, 30))
	if task.TimerStartedAt != nil {
		t.Fatal("complete must clear started-at")
	}
	if task.AccumulatedMS != 30_000 {
		t.Fatalf("accumulated = %d, want 30000", task.AccumulatedMS)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(clock(0, 30)) {
		t.Fatalf("completed_at = %v, want %v", task.CompletedAt, clock(0, 30))
	}
}

func TestUncompleteDoesNotResurrectTimer(t *testing.T) {
	task := newTask("Write report")
	task.StartTimer(clock(0, 0))
	task.Complete(clock(0, 10))
	task.Uncomplete(clock(0, 20))
	if task.Running() {
		t.Fatal("uncomplete must not restore a prior timer")
	}
	if task.CompletedAt != nil {
		t.Fatal("uncomplete must clear completed_at")
	}
}

func TestResetTimerPausesThenZeroes(t *testing.T) {
	task := newTask("Write report")
	task.AccumulatedMS = 9_000
	task.StartTimer(clock(0, 0))
	task.ResetTimer(clock(0, 5))
	if task.Running() {
		t.Fatal("reset must pause the timer")
	}
	if task.AccumulatedMS != 0 {
		t.Fatalf("accumulated = %d, want 0", task.AccumulatedMS)
	}
}

func TestCompleteEmitsFollowUpForRecurringTask(t *testing.T) {
	task := newTask("Water the plants")
	due := time.Date(2026, 3, 4, 17, 0, 0, 0, time.UTC) // Wednesday
	start := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	task.DueAt = &due
	task.StartAt = &start
	task.Tags = []string{"home"}
	task.EstimateMinutes = 15
	task.Subtasks = []Subtask{{ID: "sub-1", Title: "Fill can", Completed: true, Position: 0}}
	task.Recurrence = &RecurrenceRule{Type: RuleWeekly, Weekdays: []int{1, 3, 5}}

	draft, ok := task.Complete(clock(0, 0))
	if !ok {
		t.Fatal("expected a follow-up draft")
	}
	wantDue := time.Date(2026, 3, 6, 17, 0, 0, 0, time.UTC) // Friday, same clock
	if draft.DueAt == nil || !draft.DueAt.Equal(wantDue) {
		t.Fatalf("draft due = %v, want %v", draft.DueAt, wantDue)
	}
	wantStart := time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC)
	if draft.StartAt == nil || !draft.StartAt.Equal(wantStart) {
		t.Fatalf("draft start = %v, want %v", draft.StartAt, wantStart)
	}
	if len(draft.Subtasks) != 1 || draft.Subtasks[0].ID != "" || draft.Subtasks[0].Completed {
		t.Fatalf("subtasks must be copied with empty ids and reset completion: %+v", draft.Subtasks)
	}
	if draft.EstimateMinutes != 15 || len(draft.Tags) != 1 || draft.Tags[0] != "home" {
		t.Fatalf("draft must copy tags and estimate: %+v", draft)
	}
	if draft.Recurrence == nil {
		t.Fatal("draft must carry the recurrence rule forward")
	}
}

func TestCompleteWithoutRuleYieldsNoFollowUp(t *testing.T) {
	task := newTask("One-off")
	if _, ok := task.Complete(clock(0, 0)); ok {
		t.Fatal("no rule, no follow-up")
	}
}

func TestCompleteWithUnknownRuleYieldsNoFollowUp(t *testing.T) {
	task := newTask("Legacy rule")
	task.Recurrence = &RecurrenceRule{Type: RuleType("monthly")}
	if _, ok := task.Complete(clock(0, 0)); ok {
		t.Fatal("unknown rule type must yield no follow-up")
	}
}

func TestApplyUpdateAbsentVersusExplicitNull(t *testing.T) {
	task := newTask("Write report")
	due := clock(0, 0)
	task.DueAt = &due
	task.Description = "keep me"

	// Absent fields leave everything untouched, including updated stamp.
	before := task.UpdatedAt
	if task.ApplyUpdate(TaskUpdate{}, clock(1, 0)) {
		t.Fatal("empty update must apply nothing")
	}
	if !task.UpdatedAt.Equal(before) {
		t.Fatal("empty update must not touch updated_at")
	}

	// Explicit clears wipe the fields.
	if !task.ApplyUpdate(TaskUpdate{ClearDueAt: true, ClearDescription: true}, clock(2, 0)) {
		t.Fatal("clear update must apply")
	}
	if task.DueAt != nil || task.Description != "" {
		t.Fatalf("clears not applied: due=%v desc=%q", task.DueAt, task.Description)
	}
	if !task.Dirty {
		t.Fatal("update must mark dirty")
	}
}

func TestApplyUpdateClearingEmptyFieldsIsNoop(t *testing.T) {
	task := newTask("Write report")
	before := task.UpdatedAt
	changed := task.ApplyUpdate(TaskUpdate{
		ClearDescription: true,
		ClearNotes:       true,
		ClearDueAt:       true,
		ClearStartAt:     true,
		ClearEndAt:       true,
		ClearEstimate:    true,
		ClearRecurrence:  true,
		ClearListID:      true,
	}, clock(1, 0))
	if changed {
		t.Fatal("clearing already-empty fields must apply nothing")
	}
	if task.Dirty {
		t.Fatal("noop clear must not dirty the task")
	}
	if !task.UpdatedAt.Equal(before) {
		t.Fatal("noop clear must not touch updated_at")
	}
}

func TestApplyUpdateDropsInvalidFieldsLeniently(t *testing.T) {
	task := newTask("Write report")
	badPriority := Priority("urgent")
	badEstimate := -5
	goodNotes := "still applied"
	changed := task.ApplyUpdate(TaskUpdate{
		Priority:        &badPriority,
		EstimateMinutes: &badEstimate,
		Notes:           &goodNotes,
	}, clock(1, 0))
	if !changed {
		t.Fatal("valid fields must still apply")
	}
	if task.Priority != PriorityNone || task.EstimateMinutes != 0 {
		t.Fatalf("invalid fields leaked in: priority=%s estimate=%d", task.Priority, task.EstimateMinutes)
	}
	if task.Notes != "still applied" {
		t.Fatalf("notes = %q", task.Notes)
	}
}

func TestApplyUpdateTruncatesTitle(t *testing.T) {
	task := newTask("Short")
	long := ""
	for i := 0; i < MaxTitleLen+40; i++ {
		long += "x"
	}
	task.ApplyUpdate(TaskUpdate{Title: &long}, clock(1, 0))
	if got := len([]rune(task.Title)); got != MaxTitleLen {
		t.Fatalf("title length = %d, want %d", got, MaxTitleLen)
	}
}

func TestApplyUpdateNormalizesTags(t *testing.T) {
	task := newTask("Write report")
	tags := []string{" Work ", "work", "HOME", ""}
	task.ApplyUpdate(TaskUpdate{Tags: &tags}, clock(1, 0))
	if len(task.Tags) != 2 || task.Tags[0] != "work" || task.Tags[1] != "home" {
		t.Fatalf("tags = %v", task.Tags)
	}
}

func TestSnapshotDoesNotAliasContainers(t *testing.T) {
	task := newTask("Write report")
	task.Tags = []string{"work"}
	task.Subtasks = []Subtask{{ID: "sub-1", Title: "Outline"}}
	task.Recurrence = &RecurrenceRule{Type: RuleWeekly, Weekdays: []int{1}}

	snap := task.Snapshot()
	snap.Tags[0] = "mutated"
	snap.Subtasks[0].Title = "mutated"
	snap.Recurrence.Weekdays[0] = 6

	if task.Tags[0] != "work" || task.Subtasks[0].Title != "Outline" || task.Recurrence.Weekdays[0] != 1 {
		t.Fatal("snapshot aliased the original's containers")
	}
}
