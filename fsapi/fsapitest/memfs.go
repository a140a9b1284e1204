// Package fsapitest provides an in-memory fsapi.API for tests.
package fsapitest

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"sourcemind/fsapi"
)

// MemFS is an in-memory file bridge that records the calls made to it.
type MemFS struct {
	mu     sync.Mutex
	files  map[string]string
	binary map[string]bool
	dirs   map[string]bool
	calls  []string

	// Fail forces the named operation ("list", "read", "write", "create_file",
	// "create_dir") to return this error.
	Fail map[string]error
}

// New creates an empty MemFS with root as an existing directory
func New(root string) *MemFS {
	return &MemFS{
		files:  make(map[string]string),
		binary: make(map[string]bool),
		dirs:   map[string]bool{path.Clean(root): true},
		Fail:   make(map[string]error),
	}
}

// AddFile stores a text file and its parent directories
func (m *MemFS) AddFile(p, content string) *MemFS {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = path.Clean(p)
	m.files[p] = content
	m.addParents(p)
	return m
}

// AddBinary stores a file flagged as binary
func (m *MemFS) AddBinary(p string) *MemFS {
	m.AddFile(p, "")
	m.mu.Lock()
	m.binary[path.Clean(p)] = true
	m.mu.Unlock()
	return m
}

// AddDir stores a directory and its parents
func (m *MemFS) AddDir(p string) *MemFS {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = path.Clean(p)
	m.dirs[p] = true
	m.addParents(p)
	return m
}

func (m *MemFS) addParents(p string) {
	for dir := path.Dir(p); dir != "/" && dir != "."; dir = path.Dir(dir) {
		m.dirs[dir] = true
	}
}

// Content returns a stored file's content
func (m *MemFS) Content(p string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.files[path.Clean(p)]
	return c, ok
}

// Calls returns the recorded operations, e.g. "write /proj/a.py"
func (m *MemFS) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.calls...)
}

// CountCalls counts recorded operations with the given name
func (m *MemFS) CountCalls(op string) int {
	n := 0
	for _, c := range m.Calls() {
		if strings.HasPrefix(c, op+" ") {
			n++
		}
	}
	return n
}

func (m *MemFS) record(op, p string) error {
	m.calls = append(m.calls, op+" "+p)
	return m.Fail[op]
}

// ListDirectoryTree implements fsapi.API
func (m *MemFS) ListDirectoryTree(root string) ([]fsapi.TreeNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	root = path.Clean(root)
	if err := m.record("list", root); err != nil {
		return nil, err
	}
	if !m.dirs[root] {
		return nil, fmt.Errorf("list %s: %w", root, os.ErrNotExist)
	}
	return m.level(root), nil
}

func (m *MemFS) level(dir string) []fsapi.TreeNode {
	nodes := []fsapi.TreeNode{}
	for d := range m.dirs {
		if d != dir && path.Dir(d) == dir {
			nodes = append(nodes, fsapi.TreeNode{Name: path.Base(d), Path: d, IsDir: true, Children: m.level(d)})
		}
	}
	for f := range m.files {
		if path.Dir(f) == dir {
			nodes = append(nodes, fsapi.TreeNode{Name: path.Base(f), Path: f})
		}
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].IsDir != nodes[j].IsDir {
			return nodes[i].IsDir
		}
		return nodes[i].Name < nodes[j].Name
	})
	return nodes
}

// ReadFile implements fsapi.API
func (m *MemFS) ReadFile(p string) (fsapi.FileContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = path.Clean(p)
	if err := m.record("read", p); err != nil {
		return fsapi.FileContent{}, err
	}
	content, ok := m.files[p]
	if !ok {
		return fsapi.FileContent{}, fmt.Errorf("read %s: %w", p, os.ErrNotExist)
	}
	if m.binary[p] {
		return fsapi.FileContent{IsBinary: true}, nil
	}
	return fsapi.FileContent{Content: content}, nil
}

// WriteFileAtomic implements fsapi.API
func (m *MemFS) WriteFileAtomic(p, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = path.Clean(p)
	if err := m.record("write", p); err != nil {
		return err
	}
	if !m.dirs[path.Dir(p)] {
		return fmt.Errorf("write %s: %w", p, os.ErrNotExist)
	}
	m.files[p] = content
	return nil
}

// CreateFile implements fsapi.API
func (m *MemFS) CreateFile(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = path.Clean(p)
	if err := m.record("create_file", p); err != nil {
		return err
	}
	if _, ok := m.files[p]; ok || m.dirs[p] {
		return fmt.Errorf("file %s: %w", p, fsapi.ErrExists)
	}
	if !m.dirs[path.Dir(p)] {
		return fmt.Errorf("create %s: %w", p, os.ErrNotExist)
	}
	m.files[p] = ""
	return nil
}

// CreateDir implements fsapi.API
func (m *MemFS) CreateDir(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = path.Clean(p)
	if err := m.record("create_dir", p); err != nil {
		return err
	}
	if _, ok := m.files[p]; ok || m.dirs[p] {
		return fmt.Errorf("folder %s: %w", p, fsapi.ErrExists)
	}
	m.dirs[p] = true
	m.addParents(p)
	return nil
}
