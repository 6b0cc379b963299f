package model

import (
	"strings"
	"time"
)

// TaskUpdate is a partial update. A nil pointer leaves the field untouched;
// the paired Clear flag is the explicit null that wipes a nullable field.
// Invalid fields are dropped one by one, never rejected as a whole.
type TaskUpdate struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Notes            *string
	ClearNotes       bool
	Priority         *Priority
	DueAt            *time.Time
	ClearDueAt       bool
	StartAt          *time.Time
	ClearStartAt     bool
	EndAt            *time.Time
	ClearEndAt       bool
	EstimateMinutes  *int
	ClearEstimate    bool
	Position         *int
	Tags             *[]string
	Recurrence       *RecurrenceRule
	ClearRecurrence  bool
	ListID           *string
	ClearListID      bool
}

// ApplyUpdate merges the fields present in u into the task. It reports
// whether anything was applied; the task is only touched (updated stamp,
// dirty flag) when it was. Clearing a field that is already empty counts
// as nothing applied.
func (t *Task) ApplyUpdate(u TaskUpdate, now time.Time) bool {
	changed := false

	if u.Title != nil {
		if title := TruncateTitle(*u.Title); title != "" {
			t.Title = title
			changed = true
		}
	}
	if u.ClearDescription {
		if t.Description != "" {
			t.Description = ""
			changed = true
		}
	} else if u.Description != nil {
		t.Description = *u.Description
		changed = true
	}
	if u.ClearNotes {
		if t.Notes != "" {
			t.Notes = ""
			changed = true
		}
	} else if u.Notes != nil {
		t.Notes = *u.Notes
		changed = true
	}
	if u.Priority != nil && u.Priority.IsValid() {
		t.Priority = *u.Priority
		changed = true
	}
	if u.ClearDueAt {
		if t.DueAt != nil {
			t.DueAt = nil
			changed = true
		}
	} else if u.DueAt != nil {
		t.DueAt = copyTime(u.DueAt)
		changed = true
	}
	if u.ClearStartAt {
		if t.StartAt != nil {
			t.StartAt = nil
			changed = true
		}
	} else if u.StartAt != nil {
		t.StartAt = copyTime(u.StartAt)
		changed = true
	}
	if u.ClearEndAt {
		if t.EndAt != nil {
			t.EndAt = nil
			changed = true
		}
	} else if u.EndAt != nil {
		t.EndAt = copyTime(u.EndAt)
		changed = true
	}
	if u.ClearEstimate {
		if t.EstimateMinutes != 0 {
			t.EstimateMinutes = 0
			changed = true
		}
	} else if u.EstimateMinutes != nil && *u.EstimateMinutes >= 0 {
		t.EstimateMinutes = *u.EstimateMinutes
		changed = true
	}
	if u.Position != nil && *u.Position >= 0 {
		t.Position = *u.Position
		changed = true
	}
	if u.Tags != nil {
		t.Tags = NormalizeTags(*u.Tags)
		changed = true
	}
	if u.ClearRecurrence {
		if t.Recurrence != nil {
			t.Recurrence = nil
			changed = true
		}
	} else if u.Recurrence != nil && validRuleType(u.Recurrence.Type) {
		t.Recurrence = u.Recurrence.clone()
		changed = true
	}
	if u.ClearListID {
		if t.ListID != "" {
			t.ListID = ""
			changed = true
		}
	} else if u.ListID != nil && strings.TrimSpace(*u.ListID) != "" {
		t.ListID = strings.TrimSpace(*u.ListID)
		changed = true
	}

	if changed {
		t.touch(now)
	}
	return changed
}

func validRuleType(k RuleType) bool {
	switch k {
	case RuleDaily, RuleWeekly:
		return true
	default:
		return false
	}
}
