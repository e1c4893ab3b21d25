// Package paths resolves the repository root and the locations derived from it.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"coderefs/internal/config"
	"coderefs/internal/errors"
)

// RepoRoot returns the folder holding every docset and code repository,
// taken from CODEREFS_REPO_ROOT.
func RepoRoot() (string, error) {
	root := strings.TrimSpace(os.Getenv(config.EnvRepoRoot))
	if root == "" {
		return "", errors.New(errors.ConfigInvalid, config.EnvRepoRoot+" is not set", nil).
			WithDetails(map[string]interface{}{"variable": config.EnvRepoRoot})
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errors.New(errors.ConfigInvalid, "Invalid repository root", err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", errors.New(errors.ConfigInvalid, "Repository root is not a directory", err).
			WithDetails(map[string]interface{}{"path": abs})
	}
	return abs, nil
}

// ResultsDir resolves the results folder. A relative folder lives under the
// working directory; an empty one falls back to the default.
func ResultsDir(folder string) (string, error) {
	if folder == "" {
		folder = config.DefaultResultsDir
	}
	return filepath.Abs(os.ExpandEnv(folder))
}

// EnsureDir creates dir and its parents.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// CanonicalizePath returns absolutePath relative to repoRoot with forward
// slashes. Symlinks are resolved on both sides when they exist.
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	resolved, err := evalIfExists(absolutePath)
	if err != nil {
		return "", err
	}
	root, err := evalIfExists(repoRoot)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(root, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func evalIfExists(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if os.IsNotExist(err) {
		return path, nil
	}
	return resolved, err
}

// IsWithinRepo reports whether path lies inside repoRoot.
func IsWithinRepo(path string, repoRoot string) bool {
	canonical, err := CanonicalizePath(path, repoRoot)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// NormalizePath converts backslashes to forward slashes.
func NormalizePath(path string) string {
	return strings.ReplaceAll(filepath.ToSlash(path), "\\", "/")
}
