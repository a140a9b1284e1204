// Package undo keeps the history of accepted AI edits so they can be reverted.
package undo

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxActions is the number of actions kept before the oldest is dropped
const DefaultMaxActions = 50

// ErrNothingToUndo is returned when no applied action is left on the stack
var ErrNothingToUndo = errors.New("no actions to undo")

// UndoAction represents one accepted edit to a document
type UndoAction struct {
	ID          string    `json:"id"`
	FilePath    string    `json:"file_path"`
	Before      string    `json:"before"`
	After       string    `json:"after"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Undone      bool      `json:"undone"`
}

// RestoreFunc puts action.Before back in place. It fails when the document no
// longer holds action.After.
type RestoreFunc func(action *UndoAction) error

// UndoManager is a bounded, in-memory undo stack. It is safe for concurrent use.
type UndoManager struct {
	mu         sync.Mutex
	actions    []*UndoAction
	maxActions int
}

// NewUndoManager creates a manager keeping at most maxActions actions.
// A non-positive limit uses DefaultMaxActions.
func NewUndoManager(maxActions int) *UndoManager {
	if maxActions <= 0 {
		maxActions = DefaultMaxActions
	}
	return &UndoManager{
		actions:    make([]*UndoAction, 0),
		maxActions: maxActions,
	}
}

// RecordEdit records that filePath went from before to after
func (um *UndoManager) RecordEdit(filePath, before, after, description string) *UndoAction {
	action := &UndoAction{
		ID:          uuid.NewString(),
		FilePath:    filePath,
		Before:      before,
		After:       after,
		Description: description,
		Timestamp:   time.Now(),
	}

	um.mu.Lock()
	defer um.mu.Unlock()

	um.actions = append(um.actions, action)
	if len(um.actions) > um.maxActions {
		um.actions = um.actions[len(um.actions)-um.maxActions:]
	}
	return action
}

// UndoLast reverts the most recent action that has not been undone. The action
// is marked undone only when restore succeeds.
func (um *UndoManager) UndoLast(restore RestoreFunc) (*UndoAction, error) {
	um.mu.Lock()
	defer um.mu.Unlock()

	action := um.lastUndoable()
	if action == nil {
		return nil, ErrNothingToUndo
	}
	if err := restore(action); err != nil {
		return nil, fmt.Errorf("failed to undo %q: %w", action.Description, err)
	}

	action.Undone = true
	return action, nil
}

// GetUndoHistory returns a copy of the actions, oldest first
func (um *UndoManager) GetUndoHistory() []UndoAction {
	um.mu.Lock()
	defer um.mu.Unlock()

	history := make([]UndoAction, len(um.actions))
	for i, a := range um.actions {
		history[i] = *a
	}
	return history
}

// GetLastUndoableAction returns a copy of the action UndoLast would revert
func (um *UndoManager) GetLastUndoableAction() (UndoAction, bool) {
	um.mu.Lock()
	defer um.mu.Unlock()

	if a := um.lastUndoable(); a != nil {
		return *a, true
	}
	return UndoAction{}, false
}

// Forget drops every action recorded for filePath
func (um *UndoManager) Forget(filePath string) {
	um.mu.Lock()
	defer um.mu.Unlock()

	kept := um.actions[:0]
	for _, a := range um.actions {
		if a.FilePath != filePath {
			kept = append(kept, a)
		}
	}
	um.actions = kept
}

func (um *UndoManager) lastUndoable() *UndoAction {
	for i := len(um.actions) - 1; i >= 0; i-- {
		if !um.actions[i].Undone {
			return um.actions[i]
		}
	}
	return nil
}
