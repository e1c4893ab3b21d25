// Package git reads commit dates from the local docs repository.
package git

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"coderefs/internal/errors"
	"coderefs/internal/logging"
	"coderefs/internal/paths"
)

// DefaultQueryTimeout is the default timeout for git operations (5000ms)
const DefaultQueryTimeout = 5000 * time.Millisecond

// commitDateLayout is the date part of git's %ci output.
const commitDateLayout = "2006-01-02"

// Adapter runs git commands against one working tree.
type Adapter struct {
	repoRoot     string
	queryTimeout time.Duration
	logger       *logging.Logger
}

// NewAdapter creates an adapter for the repository containing repoRoot.
func NewAdapter(repoRoot string, timeout time.Duration, logger *logging.Logger) *Adapter {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Adapter{
		repoRoot:     repoRoot,
		queryTimeout: timeout,
		logger:       logger,
	}
}

// IsAvailable checks if git is installed and repoRoot is inside a repository.
func (g *Adapter) IsAvailable(ctx context.Context) bool {
	_, err := g.executeGitCommand(ctx, "rev-parse", "--git-dir")
	return err == nil
}

// LastCommitDate returns the date of the last commit touching path.
func (g *Adapter) LastCommitDate(ctx context.Context, path string) (time.Time, error) {
	if path == "" {
		return time.Time{}, errors.New(errors.InternalError, "File path is required", nil)
	}

	rel := paths.NormalizePath(path)
	if filepath.IsAbs(path) {
		if r, err := paths.CanonicalizePath(path, g.repoRoot); err == nil {
			rel = r
		}
	}

	output, err := g.executeGitCommand(ctx, "log", "-1", "--format=%ci", "--", rel)
	if err != nil {
		return time.Time{}, err
	}

	fields := strings.Fields(output)
	if len(fields) == 0 {
		return time.Time{}, errors.New(errors.HistoryUnavailable, "No commits found for file", nil).
			WithDetails(map[string]interface{}{"filePath": rel})
	}

	date, err := time.Parse(commitDateLayout, fields[0])
	if err != nil {
		return time.Time{}, errors.New(errors.InternalError, "Unexpected git date format", err).
			WithDetails(map[string]interface{}{"output": output})
	}
	return date, nil
}

// executeGitCommand runs a git command with timeout and returns the output
func (g *Adapter) executeGitCommand(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.queryTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot

	g.logger.Debug("Executing git command", map[string]interface{}{
		"args":    args,
		"timeout": g.queryTimeout.String(),
	})

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.New(errors.Timeout, "Git command timed out", err)
		}

		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", errors.New(errors.InternalError, "Git command failed", err).
				WithDetails(map[string]interface{}{
					"args":   args,
					"stderr": strings.TrimSpace(string(exitErr.Stderr)),
				})
		}

		return "", errors.New(errors.InternalError, "Failed to execute git command", err)
	}

	return strings.TrimSpace(string(output)), nil
}
