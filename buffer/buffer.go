// Package buffer holds the open document: its path, last-saved content and
// live content. Dirtiness is always derived from the two contents.
package buffer

import (
	"errors"
	"fmt"
	"sync"

	"sourcemind/fsapi"
	"sourcemind/language"
	"sourcemind/logging"
)

var (
	// ErrBinaryFile is returned when opening a file the editor cannot show as text.
	ErrBinaryFile = errors.New("binary file")
	// ErrNoDocument is returned by operations that need an open document.
	ErrNoDocument = errors.New("no document open")
)

// Snapshot is a consistent copy of the buffer state.
type Snapshot struct {
	Path     string
	Saved    string
	Live     string
	Language language.Tag
}

// Dirty reports whether the live content differs from the saved content.
func (s Snapshot) Dirty() bool {
	return s.Live != s.Saved
}

// Buffer is the single open document. It is safe for concurrent use.
type Buffer struct {
	api fsapi.API

	mu    sync.RWMutex
	path  string
	saved string
	live  string
}

// New creates an empty buffer backed by api
func New(api fsapi.API) *Buffer {
	return &Buffer{api: api}
}

// Open reads path and replaces the buffer. A binary file is rejected and the
// current buffer is kept. Unsaved edits in the current buffer are discarded;
// callers that want a guard check Dirty first.
func (b *Buffer) Open(path string) error {
	res, err := b.api.ReadFile(path)
	if err != nil {
		return err
	}
	if res.IsBinary {
		return fmt.Errorf("cannot open %s: %w", path, ErrBinaryFile)
	}

	b.mu.Lock()
	b.path = path
	b.saved = res.Content
	b.live = res.Content
	b.mu.Unlock()

	logging.L().Debug("document opened", logging.String("path", path), logging.Int("bytes", len(res.Content)))
	return nil
}

// Edit replaces the live content
func (b *Buffer) Edit(content string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.path == "" {
		return ErrNoDocument
	}
	b.live = content
	return nil
}

// ReplaceIf sets the live content to next only while it still equals expected.
// It reports whether the swap happened.
func (b *Buffer) ReplaceIf(expected, next string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.path == "" {
		return false, ErrNoDocument
	}
	if b.live != expected {
		return false, nil
	}
	b.live = next
	return true, nil
}

// Save writes the live content atomically. A clean buffer performs no write
// and reports false. On failure the buffer stays dirty.
func (b *Buffer) Save() (bool, error) {
	b.mu.RLock()
	path, live, dirty := b.path, b.live, b.live != b.saved
	b.mu.RUnlock()

	if path == "" {
		return false, ErrNoDocument
	}
	if !dirty {
		return false, nil
	}

	if err := b.api.WriteFileAtomic(path, live); err != nil {
		logging.L().Error("save failed", logging.String("path", path), logging.Err(err))
		return false, err
	}

	b.mu.Lock()
	// Only the written text becomes the saved baseline; edits made during the
	// write stay dirty.
	if b.path == path {
		b.saved = live
	}
	b.mu.Unlock()

	logging.L().Info("document saved", logging.String("path", path))
	return true, nil
}

// Snapshot returns a copy of the current state
func (b *Buffer) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return Snapshot{
		Path:     b.path,
		Saved:    b.saved,
		Live:     b.live,
		Language: language.Classify(b.path),
	}
}

// Path returns the open document's path, or "" when none is open
func (b *Buffer) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// Live returns the live content
func (b *Buffer) Live() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.live
}

// Dirty reports whether there are unsaved edits
func (b *Buffer) Dirty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.live != b.saved
}

// Loaded reports whether a document is open
func (b *Buffer) Loaded() bool {
	return b.Path() != ""
}
