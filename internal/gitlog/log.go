// Package gitlog mines change history from git: a numstat log feeds
// co-change coupling, per-file revision counts and volatility. The approach
// follows the change-coupling analysis popularized by "Your Code as a Crime
// Scene".
package gitlog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotGitRepo is returned when the analyzed path is not inside a git
// working tree.
var ErrNotGitRepo = errors.New("not a git repository")

// commitSeparator starts each commit header line in the generated log.
const commitSeparator = "--COMMIT--"

// Generate writes a numstat log for the repository containing path to
// logPath, restricted to commits newer than the since expression (git
// date syntax, e.g. "1 year ago"). It returns the repository root, which the
// log's file paths are relative to.
func Generate(ctx context.Context, path, logPath, since string) (string, error) {
	dir := path
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		dir = filepath.Dir(path)
	}

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotGitRepo, dir)
	}
	gitDir := strings.TrimSpace(string(out))

	cmd = exec.CommandContext(ctx, "git", "log",
		"--numstat",
		"--date=short",
		"--pretty=format:"+commitSeparator+"%ad--%aN",
		"--no-renames",
		"--since="+since,
	)
	cmd.Dir = dir
	out, err = cmd.Output()
	if err != nil {
		return "", fmt.Errorf("running git log in %s: %w", dir, err)
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return "", fmt.Errorf("creating log directory: %w", err)
	}
	if err := os.WriteFile(logPath, out, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", logPath, err)
	}
	return gitDir, nil
}
