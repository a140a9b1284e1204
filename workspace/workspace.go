package workspace

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"

	"sourcemind/config"
)

// DetectWorkspace detects the workspace root directory
// It tries to find the Git work tree root, otherwise uses the current directory
func DetectWorkspace() (string, error) {
	pwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return Resolve(pwd)
}

// Resolve returns the root of the Git work tree containing path, or the
// absolute path itself when it is not inside one.
func Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	if root := findGitRoot(abs); root != "" {
		return root, nil
	}
	return abs, nil
}

// findGitRoot walks up from startPath looking for a Git repository
func findGitRoot(startPath string) string {
	if startPath == "" {
		return ""
	}

	repo, err := git.PlainOpenWithOptions(startPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	wt, err := repo.Worktree()
	if err != nil {
		// Bare repository
		return ""
	}
	return wt.Filesystem.Root()
}

// Branch returns the short name of the checked out branch of the repository
// at root, or "" when there is none.
func Branch(root string) string {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil || !head.Name().IsBranch() {
		return ""
	}
	return head.Name().Short()
}

// EnsureDir creates the .sourcemind directory if it doesn't exist
func EnsureDir(workspacePath string) error {
	return os.MkdirAll(filepath.Join(workspacePath, config.DirName), 0755)
}
