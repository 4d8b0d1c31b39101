package storage

import (
	"reflect"
	"testing"

	"github.com/Mitul82/websocket-kanban-vitest-playwright-2026/domain"
)

func task(id, title string) domain.Task {
	return domain.Task{ID: id, Title: title, Status: domain.StatusTodo, Priority: domain.PriorityMedium, Category: domain.CategoryFeature}
}

func TestAppendPreservesInsertionOrder(t *testing.T) {
	s := New()
	s.Append(task("a", "A"))
	s.Append(task("b", "B"))
	s.Append(task("c", "C"))

	snap := s.Snapshot()
	if len(snap) != 3 || snap[0].ID != "a" || snap[1].ID != "b" || snap[2].ID != "c" {
		t.Fatalf("unexpected order: %#v", snap)
	}
}

func TestFindIndexByID(t *testing.T) {
	s := New()
	s.Append(task("a", "A"))
	s.Append(task("b", "B"))

	if idx := s.FindIndexByID("b"); idx != 1 {
		t.Fatalf("FindIndexByID(b) = %d", idx)
	}
	if idx := s.FindIndexByID("ghost"); idx != -1 {
		t.Fatalf("missing id must return -1, got %d", idx)
	}
}

func TestMergeFieldsRespectsAllowedKeys(t *testing.T) {
	s := New()
	s.Append(task("a", "A"))

	s.MergeFields(0, map[string]any{"title": "A2", "status": "done", "id": "hijack"}, []string{"title"})
	got := s.TaskAt(0)
	if got.Title != "A2" {
		t.Fatalf("title not merged: %#v", got)
	}
	if got.Status != domain.StatusTodo || got.ID != "a" {
		t.Fatalf("disallowed keys must be ignored: %#v", got)
	}
}

func TestRemoveAt(t *testing.T) {
	s := New()
	s.Append(task("a", "A"))
	s.Append(task("b", "B"))
	s.Append(task("c", "C"))

	removed := s.RemoveAt(1)
	if removed.ID != "b" {
		t.Fatalf("removed %s, want b", removed.ID)
	}
	snap := s.Snapshot()
	if len(snap) != 2 || snap[0].ID != "a" || snap[1].ID != "c" {
		t.Fatalf("unexpected remainder: %#v", snap)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New()
	s.Append(task("a", "A"))

	snap := s.Snapshot()
	snap[0].Title = "mutated"
	if s.TaskAt(0).Title != "A" {
		t.Fatal("snapshot mutation leaked into the store")
	}
	if !reflect.DeepEqual(s.Snapshot()[0], task("a", "A")) {
		t.Fatalf("store changed: %#v", s.Snapshot()[0])
	}
}
