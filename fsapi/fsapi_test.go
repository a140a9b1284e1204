package fsapi

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func names(nodes []TreeNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func TestListDirectoryTreeOrderingAndHidden(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.py"), "x=1")
	writeFile(t, filepath.Join(root, "a.py"), "x=1")
	writeFile(t, filepath.Join(root, "zdir", "inner.go"), "package z")
	writeFile(t, filepath.Join(root, "adir", "deep", "leaf.md"), "# hi")
	writeFile(t, filepath.Join(root, ".env"), "SECRET=1")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0755))

	tree, err := NewLocal(false, false).ListDirectoryTree(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"adir", "empty", "zdir", "a.py", "b.py"}, names(tree))

	adir := tree[0]
	assert.True(t, adir.IsDir)
	assert.Equal(t, filepath.Join(root, "adir"), adir.Path)
	require.Len(t, adir.Children, 1)
	require.Len(t, adir.Children[0].Children, 1)
	assert.Equal(t, "leaf.md", adir.Children[0].Children[0].Name)

	empty := tree[1]
	assert.NotNil(t, empty.Children, "empty directory keeps a non-nil children slice")
	assert.Empty(t, empty.Children)

	assert.Nil(t, tree[3].Children, "files have no children")

	withHidden, err := NewLocal(true, false).ListDirectoryTree(root)
	require.NoError(t, err)
	assert.Contains(t, names(withHidden), ".env")
}

func TestListDirectoryTreeGitIgnore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "build/\n*.log\n")
	writeFile(t, filepath.Join(root, "build", "out.bin"), "x")
	writeFile(t, filepath.Join(root, "debug.log"), "x")
	writeFile(t, filepath.Join(root, "main.go"), "package main")

	tree, err := NewLocal(false, true).ListDirectoryTree(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, names(tree))

	unfiltered, err := NewLocal(false, false).ListDirectoryTree(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"build", "debug.log", "main.go"}, names(unfiltered))
}

func TestListDirectoryTreeErrors(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.txt")
	writeFile(t, file, "x")

	_, err := NewLocal(false, false).ListDirectoryTree(filepath.Join(root, "missing"))
	assert.Error(t, err)

	_, err = NewLocal(false, false).ListDirectoryTree(file)
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestListDirectoryTreeStable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pkg", "a.go"), "package pkg")
	writeFile(t, filepath.Join(root, "main.go"), "package main")

	api := NewLocal(false, false)
	first, err := api.ListDirectoryTree(root)
	require.NoError(t, err)
	second, err := api.ListDirectoryTree(root)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestReadFile(t *testing.T) {
	root := t.TempDir()
	text := filepath.Join(root, "a.py")
	writeFile(t, text, "x=1")
	bin := filepath.Join(root, "img.png")
	writeFile(t, bin, "\x89PNG\x00\x00data")
	latin := filepath.Join(root, "latin.txt")
	writeFile(t, latin, "caf\xe9")

	api := NewLocal(false, false)

	got, err := api.ReadFile(text)
	require.NoError(t, err)
	assert.Equal(t, FileContent{Content: "x=1"}, got)

	got, err = api.ReadFile(bin)
	require.NoError(t, err)
	assert.True(t, got.IsBinary)
	assert.Empty(t, got.Content)

	got, err = api.ReadFile(latin)
	require.NoError(t, err)
	assert.True(t, got.IsBinary)

	_, err = api.ReadFile(filepath.Join(root, "missing.py"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteFileAtomic(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.py")
	writeFile(t, path, "x=1")
	require.NoError(t, os.Chmod(path, 0600))

	api := NewLocal(false, false)
	require.NoError(t, api.WriteFileAtomic(path, "x=2"))

	got, err := api.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x=2", got.Content)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files may be left behind")

	err = api.WriteFileAtomic(filepath.Join(root, "missing", "b.py"), "x")
	assert.Error(t, err)
}

func TestCreateFileAndDir(t *testing.T) {
	root := t.TempDir()
	api := NewLocal(false, false)

	file := filepath.Join(root, "main.py")
	require.NoError(t, api.CreateFile(file))
	assert.FileExists(t, file)
	assert.ErrorIs(t, api.CreateFile(file), ErrExists)

	dir := filepath.Join(root, "pkg", "sub")
	require.NoError(t, api.CreateDir(dir))
	assert.DirExists(t, dir)
	assert.ErrorIs(t, api.CreateDir(dir), ErrExists)

	assert.Error(t, api.CreateFile(filepath.Join(root, "nope", "x.py")))
}

func TestWatcherReportsChanges(t *testing.T) {
	root := t.TempDir()
	var calls atomic.Int32

	w, err := NewWatcher(root, 50*time.Millisecond, func() { calls.Add(1) })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeFile(t, filepath.Join(root, "a.py"), "x=1")
	writeFile(t, filepath.Join(root, "b.py"), "x=2")

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}
