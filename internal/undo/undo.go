package undo

import (
	"sync"
	"time"

	"github.com/sandeepkv93/tasklite/internal/model"
)

type Kind string

const (
	KindTaskRemoved      Kind = "task_removed"
	KindCompletedCleared Kind = "completed_cleared"
	KindTagRemoved       Kind = "tag_removed"
)

type TaskRestore struct {
	Task model.Task
}

type BatchRestore struct {
	Tasks []model.Task
}

type TagRestore struct {
	Name    string
	TaskIDs []string
}

// Action is one undoable step as a plain data record: a kind plus exactly
// one payload. No captured closures; the stack is inert data interpreted by
// Execute, so it can be inspected and serialized in tests.
type Action struct {
	ID        string
	Kind      Kind
	CreatedAt time.Time
	Task      *TaskRestore
	Batch     *BatchRestore
	Tag       *TagRestore
}

// Manager is a bounded stack of undo actions with time-based expiry.
// The zero capacity and TTL are replaced with sane defaults.
type Manager struct {
	mu       sync.Mutex
	stack    []Action
	capacity int
	ttl      time.Duration
}

const (
	DefaultCapacity = 20
	DefaultTTL      = 10 * time.Minute
)

func NewManager(capacity int, ttl time.Duration) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{capacity: capacity, ttl: ttl}
}

// Push prepends the action and trims the stack to capacity, silently
// dropping the oldest entries.
func (m *Manager) Push(a Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stack = append([]Action{a}, m.stack...)
	if len(m.stack) > m.capacity {
		m.stack = m.stack[:m.capacity]
	}
}

// Pop removes and returns the most recent action. The entry is gone before
// the caller interprets it, so a compensation can never be undone itself.
func (m *Manager) Pop() (Action, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.stack) == 0 {
		return Action{}, false
	}
	a := m.stack[0]
	m.stack = m.stack[1:]
	return a, true
}

// Expire drops actions older than the TTL without interpreting them and
// returns how many were dropped. Called periodically by the owner.
func (m *Manager) Expire(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.stack[:0]
	dropped := 0
	for _, a := range m.stack {
		if now.Sub(a.CreatedAt) > m.ttl {
			dropped++
			continue
		}
		kept = append(kept, a)
	}
	m.stack = kept
	return dropped
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stack)
}

// Actions returns a copy of the stack, most recent first.
func (m *Manager) Actions() []Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Action(nil), m.stack...)
}
