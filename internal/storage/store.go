package storage

import (
	"context"
	"errors"

	"github.com/sandeepkv93/tasklite/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

// SchemaVersion stamps every blob written by this build. Loads tolerate
// older versions; the JSON shapes only ever grow optional fields.
const SchemaVersion = 1

// Storage keys. Tasks and settings live under separate keys so a burst of
// task edits never rewrites the settings blob and vice versa.
const (
	KeyTasks    = "tasks"
	KeySettings = "settings"
)

// Settings is the small persisted record next to the task set: user
// preferences, the global tag vocabulary, and the last filter state.
type Settings struct {
	SortKey    string   `json:"sort_key,omitempty"`
	Ascending  bool     `json:"ascending"`
	GroupMode  string   `json:"group_mode,omitempty"`
	FilterTag  string   `json:"filter_tag,omitempty"`
	FilterText string   `json:"filter_text,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// Store is the durable local state: one blob of serialized task records
// (persisted shape, bookkeeping included) and one settings record, each
// under its own key, loaded once at startup and written back on the
// debounced save.
type Store interface {
	LoadTasks(ctx context.Context) ([]model.PersistedTask, error)
	SaveTasks(ctx context.Context, tasks []model.PersistedTask) error
	LoadSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, settings Settings) error
	Close() error
}
