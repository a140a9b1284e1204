// Package fsapi is the local file bridge used by the editor: directory trees,
// safe reads, atomic writes and file/folder creation.
package fsapi

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"sourcemind/logging"
)

// binarySniffSize is how many leading bytes are inspected for a NUL byte.
const binarySniffSize = 1024

var (
	// ErrExists is returned when creating a file or folder that is already there.
	ErrExists = errors.New("already exists")
	// ErrNotDirectory is returned when listing something that is not a directory.
	ErrNotDirectory = errors.New("not a directory")
)

// TreeNode is one entry of a directory snapshot. Children is non-nil only for
// directories; an empty directory has an empty, non-nil slice.
type TreeNode struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	IsDir    bool       `json:"is_dir"`
	Children []TreeNode `json:"children"`
}

// FileContent is the result of a safe read.
type FileContent struct {
	Content  string `json:"content"`
	IsBinary bool   `json:"is_binary"`
}

// API is the file bridge consumed by the project session and document buffer.
type API interface {
	ListDirectoryTree(path string) ([]TreeNode, error)
	ReadFile(path string) (FileContent, error)
	WriteFileAtomic(path, content string) error
	CreateFile(path string) error
	CreateDir(path string) error
}

// Local implements API on the local filesystem.
type Local struct {
	ShowHidden       bool
	RespectGitIgnore bool
}

// NewLocal creates a local file bridge
func NewLocal(showHidden, respectGitIgnore bool) *Local {
	return &Local{ShowHidden: showHidden, RespectGitIgnore: respectGitIgnore}
}

// ListDirectoryTree returns the full tree below root, directories first then
// files, each group ordered by name.
func (l *Local) ListDirectoryTree(root string) ([]TreeNode, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("failed to list %s: %w", root, ErrNotDirectory)
	}

	var matcher gitignore.Matcher
	if l.RespectGitIgnore {
		patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
		if err != nil {
			logging.L().Warn("failed to read .gitignore patterns", logging.String("root", root), logging.Err(err))
		} else if len(patterns) > 0 {
			matcher = gitignore.NewMatcher(patterns)
		}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}
	return l.buildLevel(root, nil, entries, matcher), nil
}

// buildLevel converts one directory's entries into nodes, descending into
// subdirectories. rel holds the path components below the listing root.
func (l *Local) buildLevel(dir string, rel []string, entries []os.DirEntry, matcher gitignore.Matcher) []TreeNode {
	nodes := make([]TreeNode, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if !l.ShowHidden && strings.HasPrefix(name, ".") {
			continue
		}

		isDir := entry.IsDir()
		components := append(append([]string{}, rel...), name)
		if matcher != nil && matcher.Match(components, isDir) {
			continue
		}

		node := TreeNode{
			Name:  name,
			Path:  filepath.Join(dir, name),
			IsDir: isDir,
		}

		if isDir {
			children, err := os.ReadDir(node.Path)
			if err != nil {
				// An unreadable directory is shown empty rather than failing the whole listing.
				logging.L().Warn("failed to read directory", logging.String("path", node.Path), logging.Err(err))
				children = nil
			}
			node.Children = l.buildLevel(node.Path, components, children, matcher)
		}

		nodes = append(nodes, node)
	}

	sortNodes(nodes)
	return nodes
}

// sortNodes orders directories before files, then by name.
func sortNodes(nodes []TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].IsDir != nodes[j].IsDir {
			return nodes[i].IsDir
		}
		return nodes[i].Name < nodes[j].Name
	})
}

// ReadFile reads a text file. Files with a NUL byte in the first 1KB, or that
// are not valid UTF-8, are reported as binary with empty content.
func (l *Local) ReadFile(path string) (FileContent, error) {
	file, err := os.Open(path)
	if err != nil {
		return FileContent{}, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return FileContent{}, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	if isBinary(data) {
		return FileContent{IsBinary: true}, nil
	}
	return FileContent{Content: string(data)}, nil
}

func isBinary(data []byte) bool {
	head := data
	if len(head) > binarySniffSize {
		head = head[:binarySniffSize]
	}
	for _, b := range head {
		if b == 0 {
			return true
		}
	}
	return !utf8.Valid(data)
}

// WriteFileAtomic writes content to a sibling temp file, syncs it and renames
// it over path. On failure the temp file is removed and path is untouched.
func (l *Local) WriteFileAtomic(path, content string) error {
	dir := filepath.Dir(path)
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if _, err := tmp.WriteString(content); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// CreateFile creates an empty file. It fails with ErrExists if path is taken.
func (l *Local) CreateFile(path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("file %s: %w", path, ErrExists)
		}
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	return file.Close()
}

// CreateDir creates a directory and any missing parents. It fails with
// ErrExists if path is taken.
func (l *Local) CreateDir(path string) error {
	if _, err := os.Lstat(path); err == nil {
		return fmt.Errorf("folder %s: %w", path, ErrExists)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", path, err)
	}
	return nil
}
