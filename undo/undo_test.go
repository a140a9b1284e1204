package undo

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewUndoManager(t *testing.T) {
	manager := NewUndoManager(0)
	if manager.maxActions != DefaultMaxActions {
		t.Errorf("Expected max actions to be %d, got %d", DefaultMaxActions, manager.maxActions)
	}

	if len(manager.GetUndoHistory()) != 0 {
		t.Errorf("Expected empty history")
	}

	if _, ok := manager.GetLastUndoableAction(); ok {
		t.Errorf("Expected no undoable action")
	}
}

func TestRecordEdit(t *testing.T) {
	manager := NewUndoManager(10)

	action := manager.RecordEdit("/proj/a.py", "x=1", "x=2", "rename")
	if action.ID == "" {
		t.Errorf("Expected action ID to be set")
	}
	if action.Timestamp.IsZero() {
		t.Errorf("Expected timestamp to be set")
	}

	last, ok := manager.GetLastUndoableAction()
	if !ok {
		t.Fatalf("Expected an undoable action")
	}
	if last.ID != action.ID || last.Before != "x=1" || last.After != "x=2" {
		t.Errorf("Unexpected last action: %+v", last)
	}
}

func TestUndoLast(t *testing.T) {
	manager := NewUndoManager(10)
	manager.RecordEdit("/proj/a.py", "a", "b", "first")
	manager.RecordEdit("/proj/a.py", "b", "c", "second")

	doc := "c"
	restore := func(a *UndoAction) error {
		if doc != a.After {
			return fmt.Errorf("document changed")
		}
		doc = a.Before
		return nil
	}

	action, err := manager.UndoLast(restore)
	if err != nil {
		t.Fatalf("Failed to undo: %v", err)
	}
	if action.Description != "second" || doc != "b" {
		t.Errorf("Expected second edit undone, got %q with doc %q", action.Description, doc)
	}

	if _, err := manager.UndoLast(restore); err != nil {
		t.Fatalf("Failed to undo: %v", err)
	}
	if doc != "a" {
		t.Errorf("Expected doc to be %q, got %q", "a", doc)
	}

	if _, err := manager.UndoLast(restore); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Expected ErrNothingToUndo, got %v", err)
	}
}

func TestUndoLastFailureKeepsAction(t *testing.T) {
	manager := NewUndoManager(10)
	manager.RecordEdit("/proj/a.py", "a", "b", "edit")

	conflict := errors.New("document changed")
	if _, err := manager.UndoLast(func(*UndoAction) error { return conflict }); !errors.Is(err, conflict) {
		t.Fatalf("Expected conflict error, got %v", err)
	}

	if _, ok := manager.GetLastUndoableAction(); !ok {
		t.Errorf("Expected action to remain undoable after a failed restore")
	}
}

func TestUndoStackIsBounded(t *testing.T) {
	manager := NewUndoManager(3)
	for i := 0; i < 5; i++ {
		manager.RecordEdit("/proj/a.py", fmt.Sprint(i), fmt.Sprint(i+1), fmt.Sprintf("edit %d", i))
	}

	history := manager.GetUndoHistory()
	if len(history) != 3 {
		t.Fatalf("Expected 3 actions in history, got %d", len(history))
	}
	if history[0].Description != "edit 2" {
		t.Errorf("Expected oldest kept action to be %q, got %q", "edit 2", history[0].Description)
	}
}

func TestForget(t *testing.T) {
	manager := NewUndoManager(10)
	manager.RecordEdit("/proj/a.py", "a", "b", "a edit")
	manager.RecordEdit("/proj/b.py", "c", "d", "b edit")

	manager.Forget("/proj/b.py")

	last, ok := manager.GetLastUndoableAction()
	if !ok || last.FilePath != "/proj/a.py" {
		t.Errorf("Expected a.py action to remain, got %+v", last)
	}
}
