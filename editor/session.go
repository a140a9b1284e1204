// Package editor wires the project, the open document, the edit workflow and
// the undo history into one session driven by the UI or the CLI.
package editor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"sourcemind/aiclient"
	"sourcemind/buffer"
	"sourcemind/config"
	"sourcemind/events"
	"sourcemind/fsapi"
	"sourcemind/language"
	"sourcemind/logging"
	"sourcemind/project"
	"sourcemind/transform"
	"sourcemind/undo"
)

// ErrUnsavedChanges is returned when switching files would drop unsaved edits
var ErrUnsavedChanges = errors.New("unsaved changes")

// DefaultTitle is shown in the header when no document is open
const DefaultTitle = "SourceMind"

// AIService is the remote AI service used by a session
type AIService interface {
	project.Indexer
	transform.EditService
	Ask(ctx context.Context, prompt, contextCode string) (string, error)
}

// Session is one editor window: a project, its open document and the edit
// workflow on that document.
type Session struct {
	Project  *project.Session
	Buffer   *buffer.Buffer
	Workflow *transform.Workflow
	Undo     *undo.UndoManager
	Bus      *events.EventBus

	ai             AIService
	confirmDiscard bool
}

// NewSession builds a session from configuration
func NewSession(api fsapi.API, ai AIService, cfg *config.Config) *Session {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	bus := events.NewEventBus()
	buf := buffer.New(api)

	proj := project.NewSession(api, ai, bus, cfg.IndexingTimeout())
	if cfg.Watch {
		proj.WatchOnOpen(fsapi.DefaultWatchDelay)
	}

	return &Session{
		Project:        proj,
		Buffer:         buf,
		Workflow:       transform.New(buf, ai, bus, cfg.EditTimeout()),
		Undo:           undo.NewUndoManager(undo.DefaultMaxActions),
		Bus:            bus,
		ai:             ai,
		confirmDiscard: cfg.ConfirmDiscard,
	}
}

// OpenFolder lets the user pick a project folder and opens it
func (s *Session) OpenFolder(ctx context.Context, chooser project.FolderChooser) error {
	return s.Project.OpenFolder(ctx, chooser)
}

// OpenFile loads path into the buffer. With unsaved edits it fails with
// ErrUnsavedChanges unless force is set or the guard is disabled. An active
// proposal belongs to the previous document and is rejected.
func (s *Session) OpenFile(path string, force bool) error {
	if s.confirmDiscard && !force && s.Buffer.Dirty() {
		return fmt.Errorf("%s: %w", s.Buffer.Path(), ErrUnsavedChanges)
	}

	previous := s.Buffer.Path()
	if err := s.Buffer.Open(path); err != nil {
		return err
	}

	s.Workflow.Reset()
	if previous != "" && previous != path {
		s.Undo.Forget(previous)
	}
	s.Bus.Emit(events.FileOpened, path)
	return nil
}

// Edit replaces the live content of the open document
func (s *Session) Edit(content string) error {
	return s.Buffer.Edit(content)
}

// Save writes the open document if it has unsaved edits
func (s *Session) Save() (bool, error) {
	wrote, err := s.Buffer.Save()
	if err != nil {
		return false, err
	}
	if wrote {
		s.Bus.Emit(events.FileSaved, s.Buffer.Path())
	}
	return wrote, nil
}

// RequestEdit asks the AI service for a proposal
func (s *Session) RequestEdit(ctx context.Context, instruction string, sel transform.Selection) (*transform.Proposal, error) {
	return s.Workflow.RequestEdit(ctx, instruction, sel)
}

// Accept applies the active proposal and records it for undo
func (s *Session) Accept() (transform.Proposal, error) {
	p, err := s.Workflow.Accept()
	if err != nil {
		return p, err
	}
	if p.Changed() {
		s.Undo.RecordEdit(p.Path, p.Base, p.Proposed, p.Instruction)
	}
	return p, nil
}

// Reject discards the active proposal
func (s *Session) Reject() (transform.Proposal, error) {
	return s.Workflow.Reject()
}

// UndoAccept reverts the most recently accepted proposal. It fails with
// transform.ErrBufferChanged when the document was edited afterwards.
func (s *Session) UndoAccept() (undo.UndoAction, error) {
	action, err := s.Undo.UndoLast(func(a *undo.UndoAction) error {
		if s.Buffer.Path() != a.FilePath {
			return transform.ErrBufferChanged
		}
		ok, err := s.Buffer.ReplaceIf(a.After, a.Before)
		if err != nil {
			return err
		}
		if !ok {
			return transform.ErrBufferChanged
		}
		return nil
	})
	if err != nil {
		return undo.UndoAction{}, err
	}

	logging.L().Info("accepted edit undone", logging.String("path", action.FilePath))
	return *action, nil
}

// Ask sends a free-form question to the AI service with contextCode as the
// code in focus. Empty contextCode uses the whole open document.
func (s *Session) Ask(ctx context.Context, question, contextCode string) (string, error) {
	if contextCode == "" {
		contextCode = s.Buffer.Live()
	}
	answer, err := s.ai.Ask(ctx, question, contextCode)
	if err != nil {
		return "", fmt.Errorf("%w: %w", transform.ErrAIUnavailable, err)
	}
	return answer, nil
}

// Close stops background work
func (s *Session) Close() {
	s.Project.StopWatching()
	s.Workflow.Reset()
	s.Bus.Wait()
}

// Header is what the title bar shows
type Header struct {
	Language string
	Title    string
	Dirty    bool
}

// Header describes the open document for the title bar
func (s *Session) Header() Header {
	snap := s.Buffer.Snapshot()
	h := Header{
		Language: language.Classify(snap.Path).DisplayName(),
		Title:    DefaultTitle,
		Dirty:    snap.Dirty(),
	}
	if snap.Path != "" {
		h.Title = filepath.Base(snap.Path)
	}
	return h
}

var _ AIService = (*aiclient.Client)(nil)
