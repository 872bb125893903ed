package git

import (
	"context"
	"strings"
)

// NumStat returns per-file added/deleted line counts for one commit
func (r *Repo) NumStat(ctx context.Context, sha string) ([]FileStat, error) {
	out, err := r.run(ctx, nil, "show", "--numstat", "--format=", sha)
	if err != nil {
		return nil, err
	}

	var stats []FileStat
	for _, line := range strings.Split(out, "\n") {
		if st, ok := parseNumStatLine(line); ok {
			stats = append(stats, st)
		}
	}
	return stats, nil
}

// NameStatus returns per-file change status (A, M, D, R, C, T) for one commit.
// Root commits are diffed against the empty tree.
func (r *Repo) NameStatus(ctx context.Context, sha string) ([]FileChange, error) {
	out, err := r.run(ctx, nil, "diff-tree", "--no-commit-id", "--name-status", "-r", "--root", sha)
	if err != nil {
		return nil, err
	}

	var changes []FileChange
	for _, line := range strings.Split(out, "\n") {
		if ch, ok := parseNameStatusLine(line); ok {
			changes = append(changes, ch)
		}
	}
	return changes, nil
}

// Totals sums additions and deletions
func Totals(stats []FileStat) (adds, dels int) {
	for _, st := range stats {
		adds += st.Additions
		dels += st.Deletions
	}
	return adds, dels
}
