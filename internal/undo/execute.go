package undo

import (
	"errors"
	"fmt"
)

var ErrHandlerMissing = errors.New("undo: handler not configured")

// Handlers is the fixed dispatcher table: one compensating handler per
// action kind, supplied by the collection.
type Handlers struct {
	RestoreTask  func(TaskRestore) error
	RestoreBatch func(BatchRestore) error
	RestoreTag   func(TagRestore) error
}

// Execute interprets a popped action against the handler table.
func Execute(a Action, h Handlers) error {
	switch a.Kind {
	case KindTaskRemoved:
		if h.RestoreTask == nil {
			return fmt.Errorf("%w: %s", ErrHandlerMissing, a.Kind)
		}
		if a.Task == nil {
			return fmt.Errorf("undo: %s action without payload", a.Kind)
		}
		return h.RestoreTask(*a.Task)
	case KindCompletedCleared:
		if h.RestoreBatch == nil {
			return fmt.Errorf("%w: %s", ErrHandlerMissing, a.Kind)
		}
		if a.Batch == nil {
			return fmt.Errorf("undo: %s action without payload", a.Kind)
		}
		return h.RestoreBatch(*a.Batch)
	case KindTagRemoved:
		if h.RestoreTag == nil {
			return fmt.Errorf("%w: %s", ErrHandlerMissing, a.Kind)
		}
		if a.Tag == nil {
			return fmt.Errorf("undo: %s action without payload", a.Kind)
		}
		return h.RestoreTag(*a.Tag)
	default:
		return fmt.Errorf("undo: unknown action kind: %s", a.Kind)
	}
}
