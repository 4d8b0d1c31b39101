// Package storage holds the canonical in-memory task list. It is
// volatile: a process restart starts from an empty board.
package storage

import "github.com/Mitul82/websocket-kanban-vitest-playwright-2026/domain"

// Store keeps tasks in insertion order, which is the display order within
// a status column. It has no locking of its own; the mutation service is
// the single writer.
type Store struct {
	tasks []domain.Task
}

func New() *Store {
	return &Store{tasks: []domain.Task{}}
}

// Append adds a task to the end of the list. The caller guarantees a
// fresh id.
func (s *Store) Append(t domain.Task) {
	s.tasks = append(s.tasks, t)
}

// FindIndexByID returns the position of the task with the given id, or -1.
func (s *Store) FindIndexByID(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// MergeFields overwrites the stored task's fields with the allowed keys
// present in payload. Unknown and disallowed keys are silently ignored.
func (s *Store) MergeFields(idx int, payload map[string]any, allowed []string) {
	domain.ApplyFields(&s.tasks[idx], payload, allowed)
}

// RemoveAt removes and returns the task at idx.
func (s *Store) RemoveAt(idx int) domain.Task {
	removed := s.tasks[idx]
	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	return removed
}

// TaskAt returns a copy of the task at idx.
func (s *Store) TaskAt(idx int) domain.Task {
	return s.tasks[idx]
}

// Len returns the number of stored tasks.
func (s *Store) Len() int {
	return len(s.tasks)
}

// Snapshot returns a copy of the full task list for broadcasting.
func (s *Store) Snapshot() []domain.Task {
	out := make([]domain.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}
