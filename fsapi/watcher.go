package fsapi

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"

	"sourcemind/logging"
)

// DefaultWatchDelay batches bursts of filesystem events into one callback.
const DefaultWatchDelay = 500 * time.Millisecond

// skipDirs are never watched.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"dist":         true,
	"__pycache__":  true,
}

// Watcher reports batched changes below a root directory.
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	debounce func(func())
	onChange func()
}

// NewWatcher watches root and every non-skipped subdirectory. onChange is
// called at most once per delay window after a burst of events.
func NewWatcher(root string, delay time.Duration, onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if delay <= 0 {
		delay = DefaultWatchDelay
	}

	w := &Watcher{
		root:     root,
		watcher:  fw,
		debounce: debounce.New(delay),
		onChange: onChange,
	}

	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// addTree registers dir and its subdirectories with fsnotify
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						logging.L().Warn("failed to watch new directory", logging.String("path", event.Name), logging.Err(err))
					}
				}
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			w.debounce(w.onChange)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.L().Warn("watcher error", logging.String("root", w.root), logging.Err(err))
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
