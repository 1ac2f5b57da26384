// Package git enumerates repository history by shelling out to the git
// binary, for use when the relay runs as a post-receive hook process.
package git

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"jabber-relay/contract"
	"jabber-relay/domain"
)

var _ contract.HistoryWalker = (*CLIWalker)(nil)

// CLIWalker walks commit history with the git CLI. The unit separator
// keeps ids and commit subjects parseable without quoting games.
type CLIWalker struct {
	repoPath string
	log      *slog.Logger
}

func NewCLIWalker(repoPath string, log *slog.Logger) *CLIWalker {
	return &CLIWalker{repoPath: repoPath, log: log}
}

// CommitsBetween lists the commits reachable from newID but not from
// oldID, topologically ordered, oldest first.
func (w *CLIWalker) CommitsBetween(ctx context.Context, oldID, newID string) ([]domain.Commit, error) {
	out, err := exec.CommandContext(ctx, "git", "-C", w.repoPath,
		"log", "--topo-order", "--reverse", "--format=%H%x1f%s",
		oldID+".."+newID).Output()
	if err != nil {
		return nil, fmt.Errorf("git log %s..%s: %w", oldID, newID, gitError(err))
	}

	var commits []domain.Commit
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		id, subject, _ := strings.Cut(line, "\x1f")
		commits = append(commits, domain.Commit{ID: id, ShortMessage: subject})
	}
	w.log.Debug("Enumerated pushed commits", "range", oldID+".."+newID, "count", len(commits))
	return commits, nil
}

// IsAncestor reports whether oldID is an ancestor of newID, which is what
// separates a fast-forward update from a rewrite.
func (w *CLIWalker) IsAncestor(ctx context.Context, oldID, newID string) (bool, error) {
	err := exec.CommandContext(ctx, "git", "-C", w.repoPath,
		"merge-base", "--is-ancestor", oldID, newID).Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, fmt.Errorf("git merge-base: %w", gitError(err))
}

// gitError surfaces stderr from a failed git invocation.
func gitError(err error) error {
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return err
}
