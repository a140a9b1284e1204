// Package project tracks the open project folder: its root, the last tree
// snapshot and the remote indexing status.
package project

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"sourcemind/aiclient"
	"sourcemind/events"
	"sourcemind/fsapi"
	"sourcemind/logging"
)

// Status is the indexing state of the project
type Status int

const (
	NoProject Status = iota
	Indexing
	Ready
	IndexError
)

func (s Status) String() string {
	switch s {
	case NoProject:
		return "No Project"
	case Indexing:
		return "Indexing..."
	case Ready:
		return "RAG Ready"
	case IndexError:
		return "Index Failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

var (
	// ErrNoProject is returned by operations that need an open folder.
	ErrNoProject = errors.New("no project open")
	// ErrInvalidName is returned for names that would escape the parent folder.
	ErrInvalidName = errors.New("invalid name")
)

// Indexer triggers remote indexing of a project folder.
type Indexer interface {
	IndexProject(ctx context.Context, path string) (aiclient.IndexResult, error)
}

// FolderChooser asks the user for a folder. ok is false when the user cancels.
type FolderChooser func(ctx context.Context) (path string, ok bool, err error)

// Prompter asks the user for one line of text. ok is false when the user cancels.
type Prompter func(ctx context.Context, message string) (value string, ok bool)

// StatusChange is the payload of events.ProjectStatusChanged.
type StatusChange struct {
	Root   string
	Status Status
	Err    error
}

// Session is the open project. It is safe for concurrent use; a newer Open
// supersedes the results of an older one still in flight.
type Session struct {
	api          fsapi.API
	indexer      Indexer
	bus          *events.EventBus
	indexTimeout time.Duration
	watchDelay   time.Duration

	mu         sync.RWMutex
	root       string
	tree       []fsapi.TreeNode
	status     Status
	indexErr   error
	generation uint64
	stopWatch  context.CancelFunc
	watchers   atomic.Int32
}

// NewSession creates a session with no project open. indexTimeout bounds each
// indexing request; zero means no limit beyond the caller's context.
func NewSession(api fsapi.API, indexer Indexer, bus *events.EventBus, indexTimeout time.Duration) *Session {
	return &Session{
		api:          api,
		indexer:      indexer,
		bus:          bus,
		indexTimeout: indexTimeout,
	}
}

// WatchOnOpen makes every later Open watch the new root, batching changes
// over delay. Zero disables it.
func (s *Session) WatchOnOpen(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchDelay = delay
}

// OpenFolder asks chooser for a folder and opens it. Cancelling is a no-op.
func (s *Session) OpenFolder(ctx context.Context, chooser FolderChooser) error {
	path, ok, err := chooser(ctx)
	if err != nil {
		return err
	}
	if !ok || strings.TrimSpace(path) == "" {
		return nil
	}
	return s.Open(ctx, path)
}

// Open makes path the project root, then refreshes the tree and indexes the
// project concurrently. The status becomes Ready or IndexError once indexing
// resolves, whatever happened to the refresh. The returned error is the
// refresh error; indexing failures are reported through the status.
func (s *Session) Open(ctx context.Context, path string) error {
	return s.OpenNotify(ctx, path, nil)
}

// OpenNotify is Open that also passes the refresh result to refreshed as soon
// as the tree is listed, while indexing may still be running.
func (s *Session) OpenNotify(ctx context.Context, path string, refreshed func(error)) error {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.root = path
	s.tree = nil
	s.status = Indexing
	s.indexErr = nil
	watchDelay := s.watchDelay
	s.mu.Unlock()

	logging.L().Info("project opened", logging.String("root", path))
	s.bus.Emit(events.ProjectOpened, path)
	s.bus.Emit(events.ProjectStatusChanged, StatusChange{Root: path, Status: Indexing})

	if watchDelay > 0 {
		if err := s.StartWatching(ctx, watchDelay); err != nil {
			logging.L().Warn("file watching disabled", logging.String("root", path), logging.Err(err))
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		err := s.refresh(path, gen)
		if refreshed != nil {
			refreshed(err)
		}
		return err
	})
	g.Go(func() error {
		s.index(ctx, path, gen)
		return nil
	})
	return g.Wait()
}

// index runs one indexing request and records its outcome
func (s *Session) index(ctx context.Context, path string, gen uint64) {
	if s.indexTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.indexTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.indexer.IndexProject(ctx, path)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		logging.L().Debug("discarding indexing result of superseded project", logging.String("root", path))
		return
	}
	if err != nil {
		s.status = IndexError
		s.indexErr = err
	} else {
		s.status = Ready
	}
	status := s.status
	s.mu.Unlock()

	if err != nil {
		logging.L().Warn("project indexing failed", logging.String("root", path), logging.Err(err))
	} else {
		logging.L().Info("project indexed",
			logging.String("root", path),
			logging.Int("files", result.FilesIndexed),
			logging.Duration("duration", time.Since(start)))
	}
	s.bus.Emit(events.ProjectStatusChanged, StatusChange{Root: path, Status: status, Err: err})
}

// RefreshTree re-lists the current root and replaces the tree wholesale.
// Without a project it does nothing.
func (s *Session) RefreshTree() error {
	s.mu.RLock()
	root, gen := s.root, s.generation
	s.mu.RUnlock()

	if root == "" {
		return nil
	}
	return s.refresh(root, gen)
}

func (s *Session) refresh(root string, gen uint64) error {
	tree, err := s.api.ListDirectoryTree(root)
	if err != nil {
		logging.L().Warn("tree refresh failed", logging.String("root", root), logging.Err(err))
		return fmt.Errorf("failed to refresh %s: %w", root, err)
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return nil
	}
	s.tree = tree
	s.mu.Unlock()

	s.bus.Emit(events.FileTreeUpdated, tree)
	return nil
}

// CreateFile prompts for a name and creates an empty file below parent
func (s *Session) CreateFile(ctx context.Context, parent string, prompt Prompter) error {
	return s.create(ctx, parent, prompt, "Enter file name (e.g. main.py):", s.api.CreateFile)
}

// CreateFolder prompts for a name and creates a folder below parent
func (s *Session) CreateFolder(ctx context.Context, parent string, prompt Prompter) error {
	return s.create(ctx, parent, prompt, "Enter folder name:", s.api.CreateDir)
}

// create prompts for a name; an empty or cancelled answer performs no call.
// The tree is refreshed only after a successful creation.
func (s *Session) create(ctx context.Context, parent string, prompt Prompter, message string, mk func(string) error) error {
	if parent == "" {
		return ErrNoProject
	}

	name, ok := prompt(ctx, message)
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return nil
	}
	if err := validateName(name); err != nil {
		return err
	}

	full := filepath.Join(parent, filepath.FromSlash(name))
	if err := mk(full); err != nil {
		return err
	}
	logging.L().Info("created", logging.String("path", full))
	return s.RefreshTree()
}

// validateName accepts relative names, including nested ones such as
// "pkg/util.go", that stay inside the parent folder.
func validateName(name string) error {
	if strings.ContainsRune(name, 0) || filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

// StartWatching refreshes the tree whenever files below the root change. A
// previous watcher is stopped first. It stops when ctx is done.
func (s *Session) StartWatching(ctx context.Context, delay time.Duration) error {
	root := s.Root()
	if root == "" {
		return ErrNoProject
	}

	watcher, err := fsapi.NewWatcher(root, delay, func() {
		s.bus.Emit(events.FileSystemChanged, root)
		if err := s.RefreshTree(); err != nil {
			s.bus.EmitError(err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.root != root {
		watcher.Close()
		return nil
	}
	if s.stopWatch != nil {
		s.stopWatch()
	}
	watchCtx, cancel := context.WithCancel(ctx)
	s.stopWatch = cancel
	s.watchers.Add(1)
	go func() {
		defer s.watchers.Add(-1)
		watcher.Run(watchCtx)
	}()
	return nil
}

// StopWatching stops the active watcher, if any
func (s *Session) StopWatching() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
}

// Root returns the project root, or "" when none is open
func (s *Session) Root() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// Tree returns the last tree snapshot. Callers must not modify it.
func (s *Session) Tree() []fsapi.TreeNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

// Status returns the indexing status and, for IndexError, the failure
func (s *Session) Status() (Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.indexErr
}
