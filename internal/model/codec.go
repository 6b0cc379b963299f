package model

import "time"

// PersistedTask is the local-storage shape of a task. It carries the sync
// bookkeeping flags so that dirty/new/tombstoned state survives a restart.
type PersistedTask struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Completed       bool            `json:"completed"`
	Priority        Priority        `json:"priority"`
	DueAt           *time.Time      `json:"due_at,omitempty"`
	StartAt         *time.Time      `json:"start_at,omitempty"`
	EndAt           *time.Time      `json:"end_at,omitempty"`
	AccumulatedMS   int64           `json:"accumulated_ms"`
	TimerStartedAt  *time.Time      `json:"timer_started_at,omitempty"`
	Position        int             `json:"position"`
	Tags            []string        `json:"tags,omitempty"`
	Subtasks        []Subtask       `json:"subtasks,omitempty"`
	EstimateMinutes int             `json:"estimate_minutes,omitempty"`
	Recurrence      *RecurrenceRule `json:"recurrence,omitempty"`
	ListID          string          `json:"list_id,omitempty"`
	OwnerID         string          `json:"owner_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`

	Dirty     bool   `json:"dirty,omitempty"`
	New       bool   `json:"new,omitempty"`
	Deleted   bool   `json:"deleted,omitempty"`
	SyncError string `json:"sync_error,omitempty"`
}

// RemoteTask is the remote-API shape: the same domain fields without any
// bookkeeping. The running-timer stamp is deliberately local-only; two
// devices must not inherit each other's running state.
type RemoteTask struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Completed       bool            `json:"completed"`
	Priority        Priority        `json:"priority"`
	DueAt           *time.Time      `json:"due_at,omitempty"`
	StartAt         *time.Time      `json:"start_at,omitempty"`
	EndAt           *time.Time      `json:"end_at,omitempty"`
	AccumulatedMS   int64           `json:"accumulated_ms"`
	Position        int             `json:"position"`
	Tags            []string        `json:"tags,omitempty"`
	Subtasks        []Subtask       `json:"subtasks,omitempty"`
	EstimateMinutes int             `json:"estimate_minutes,omitempty"`
	Recurrence      *RecurrenceRule `json:"recurrence,omitempty"`
	ListID          string          `json:"list_id,omitempty"`
	OwnerID         string          `json:"owner_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}

func (t Task) ToPersisted() PersistedTask {
	snap := t.Snapshot()
	return PersistedTask{
		ID:              snap.ID,
		Title:           snap.Title,
		Description:     snap.Description,
		Notes:           snap.Notes,
		Completed:       snap.Completed,
		Priority:        snap.Priority,
		DueAt:           snap.DueAt,
		StartAt:         snap.StartAt,
		EndAt:           snap.EndAt,
		AccumulatedMS:   snap.AccumulatedMS,
		TimerStartedAt:  snap.TimerStartedAt,
		Position:        snap.Position,
		Tags:            snap.Tags,
		Subtasks:        snap.Subtasks,
		EstimateMinutes: snap.EstimateMinutes,
		Recurrence:      snap.Recurrence,
		ListID:          snap.ListID,
		OwnerID:         snap.OwnerID,
		CreatedAt:       snap.CreatedAt,
		UpdatedAt:       snap.UpdatedAt,
		CompletedAt:     snap.CompletedAt,
		Dirty:           snap.Dirty,
		New:             snap.New,
		Deleted:         snap.Deleted,
		SyncError:       snap.SyncError,
	}
}

func TaskFromPersisted(p PersistedTask) Task {
	task := Task{
		ID:              p.ID,
		Title:           p.Title,
		Description:     p.Description,
		Notes:           p.Notes,
		Completed:       p.Completed,
		Priority:        p.Priority,
		DueAt:           p.DueAt,
		StartAt:         p.StartAt,
		EndAt:           p.EndAt,
		AccumulatedMS:   p.AccumulatedMS,
		TimerStartedAt:  p.TimerStartedAt,
		Position:        p.Position,
		Tags:            p.Tags,
		Subtasks:        p.Subtasks,
		EstimateMinutes: p.EstimateMinutes,
		Recurrence:      p.Recurrence,
		ListID:          p.ListID,
		OwnerID:         p.OwnerID,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		CompletedAt:     p.CompletedAt,
		Dirty:           p.Dirty,
		New:             p.New,
		Deleted:         p.Deleted,
		SyncError:       p.SyncError,
	}
	if !task.Priority.IsValid() {
		task.Priority = PriorityNone
	}
	return task.Snapshot()
}

func (t Task) ToRemote() RemoteTask {
	snap := t.Snapshot()
	return RemoteTask{
		ID:              snap.ID,
		Title:           snap.Title,
		Description:     snap.Description,
		Notes:           snap.Notes,
		Completed:       snap.Completed,
		Priority:        snap.Priority,
		DueAt:           snap.DueAt,
		StartAt:         snap.StartAt,
		EndAt:           snap.EndAt,
		AccumulatedMS:   snap.AccumulatedMS,
		Position:        snap.Position,
		Tags:            snap.Tags,
		Subtasks:        snap.Subtasks,
		EstimateMinutes: snap.EstimateMinutes,
		Recurrence:      snap.Recurrence,
		ListID:          snap.ListID,
		OwnerID:         snap.OwnerID,
		CreatedAt:       snap.CreatedAt,
		UpdatedAt:       snap.UpdatedAt,
		CompletedAt:     snap.CompletedAt,
	}
}

// TaskFromRemote builds a clean (not dirty, not new) local task from a
// remote record.
func TaskFromRemote(r RemoteTask) Task {
	task := Task{}
	task.applyRemoteFields(r)
	return task
}

// ApplyRemote replaces every domain field wholesale with the remote version
// and clears the bookkeeping flags. Only the local running-timer stamp is
// kept. Callers must ensure the task is not locally dirty first.
func (t *Task) ApplyRemote(r RemoteTask) {
	started := t.TimerStartedAt
	t.applyRemoteFields(r)
	t.TimerStartedAt = started
	if t.Completed {
		t.TimerStartedAt = nil
	}
}

func (t *Task) applyRemoteFields(r RemoteTask) {
	t.ID = r.ID
	t.Title = r.Title
	t.Description = r.Description
	t.Notes = r.Notes
	t.Completed = r.Completed
	t.Priority = r.Priority
	if !t.Priority.IsValid() {
		t.Priority = PriorityNone
	}
	t.DueAt = copyTime(r.DueAt)
	t.StartAt = copyTime(r.StartAt)
	t.EndAt = copyTime(r.EndAt)
	t.AccumulatedMS = r.AccumulatedMS
	t.Position = r.Position
	t.Tags = NormalizeTags(r.Tags)
	t.Subtasks = append([]Subtask(nil), r.Subtasks...)
	t.EstimateMinutes = r.EstimateMinutes
	t.Recurrence = r.Recurrence.clone()
	t.ListID = r.ListID
	t.OwnerID = r.OwnerID
	t.CreatedAt = r.CreatedAt
	t.UpdatedAt = r.UpdatedAt
	t.CompletedAt = copyTime(r.CompletedAt)
	t.Dirty = false
	t.New = false
	t.Deleted = false
	t.SyncError = ""
}
