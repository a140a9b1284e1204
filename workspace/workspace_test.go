package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"

	"sourcemind/config"
)

// resolved returns path with symlinks evaluated, handling macOS /var -> /private/var
func resolved(path string) string {
	if p, err := filepath.EvalSymlinks(path); err == nil {
		return p
	}
	return path
}

func TestDetectWorkspace(t *testing.T) {
	tempDir := t.TempDir()

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get current directory: %v", err)
	}
	defer os.Chdir(originalDir)

	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	// Without a repository the current directory is the workspace
	workspace, err := DetectWorkspace()
	if err != nil {
		t.Fatalf("DetectWorkspace failed: %v", err)
	}

	if resolved(workspace) != resolved(tempDir) {
		t.Errorf("Expected workspace %s, got %s", tempDir, workspace)
	}
}

func TestResolveWithGit(t *testing.T) {
	tempDir := t.TempDir()
	if _, err := git.PlainInit(tempDir, false); err != nil {
		t.Fatalf("Failed to init repository: %v", err)
	}

	subDir := filepath.Join(tempDir, "level1", "level2")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}

	workspace, err := Resolve(subDir)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if resolved(workspace) != resolved(tempDir) {
		t.Errorf("Expected workspace %s, got %s", tempDir, workspace)
	}
}

func TestFindGitRoot(t *testing.T) {
	tempDir := t.TempDir()

	if gitRoot := findGitRoot(tempDir); gitRoot != "" {
		t.Errorf("Expected empty git root, got %s", gitRoot)
	}

	if _, err := git.PlainInit(tempDir, false); err != nil {
		t.Fatalf("Failed to init repository: %v", err)
	}

	if gitRoot := findGitRoot(tempDir); resolved(gitRoot) != resolved(tempDir) {
		t.Errorf("Expected git root %s, got %s", tempDir, gitRoot)
	}
}

func TestFindGitRootEdgeCases(t *testing.T) {
	if gitRoot := findGitRoot(""); gitRoot != "" {
		t.Errorf("Expected empty git root for empty path, got %s", gitRoot)
	}

	if gitRoot := findGitRoot("/nonexistent/path"); gitRoot != "" {
		t.Errorf("Expected empty git root for non-existent path, got %s", gitRoot)
	}
}

func TestBranch(t *testing.T) {
	tempDir := t.TempDir()
	if branch := Branch(tempDir); branch != "" {
		t.Errorf("Expected no branch outside a repository, got %q", branch)
	}

	// A fresh repository has an unborn HEAD
	if _, err := git.PlainInit(tempDir, false); err != nil {
		t.Fatalf("Failed to init repository: %v", err)
	}
	if branch := Branch(tempDir); branch != "" {
		t.Errorf("Expected no branch before the first commit, got %q", branch)
	}
}

func TestEnsureDir(t *testing.T) {
	tempDir := t.TempDir()

	for i := 0; i < 2; i++ {
		if err := EnsureDir(tempDir); err != nil {
			t.Fatalf("EnsureDir failed: %v", err)
		}
	}

	info, err := os.Stat(filepath.Join(tempDir, config.DirName))
	if err != nil || !info.IsDir() {
		t.Errorf("Expected %s directory to exist", config.DirName)
	}
}
