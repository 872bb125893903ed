package git

import (
	"context"
	"fmt"
	"strings"
)

// DatedCommit pairs a commit id with its ISO-8601 author date, as printed by git.
type DatedCommit struct {
	SHA        string
	AuthorDate string
}

// CommitHeader holds the author metadata of one commit
type CommitHeader struct {
	SHA         string
	AuthorName  string
	AuthorEmail string
	AuthorDate  string
	Subject     string
}

// BranchIndex maps a commit id to the local branches it is reachable from.
type BranchIndex map[string][]string

// revArgs selects a single branch or every ref
func revArgs(branch string) []string {
	if branch != "" {
		return []string{branch}
	}
	return []string{"--all"}
}

// ListCommits returns every commit reachable from branch (or all refs), newest first.
func (r *Repo) ListCommits(ctx context.Context, branch string) ([]string, error) {
	args := append([]string{"rev-list"}, revArgs(branch)...)
	out, err := r.run(ctx, nil, args...)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// ListDatedCommits returns commit ids with their author date in git log order
// (newest first).
func (r *Repo) ListDatedCommits(ctx context.Context, branch string) ([]DatedCommit, error) {
	args := append([]string{"log"}, revArgs(branch)...)
	args = append(args, "--date=iso-strict", "--pretty=format:%H|%ad")
	out, err := r.run(ctx, nil, args...)
	if err != nil {
		return nil, err
	}

	var commits []DatedCommit
	for _, line := range splitLines(out) {
		sha, date, ok := strings.Cut(line, "|")
		if !ok {
			continue
		}
		sha, date = strings.TrimSpace(sha), strings.TrimSpace(date)
		if sha == "" || date == "" {
			continue
		}
		commits = append(commits, DatedCommit{SHA: sha, AuthorDate: date})
	}
	return commits, nil
}

// ListBranches returns local branch names
func (r *Repo) ListBranches(ctx context.Context) ([]string, error) {
	out, err := r.run(ctx, nil, "for-each-ref", "--format=%(refname:short)", "refs/heads")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// BranchMembership walks every local branch and records which branches reach
// each commit. Branch order follows ListBranches.
func (r *Repo) BranchMembership(ctx context.Context) (BranchIndex, error) {
	branches, err := r.ListBranches(ctx)
	if err != nil {
		return nil, err
	}

	index := make(BranchIndex)
	for _, br := range branches {
		shas, err := r.ListCommits(ctx, br)
		if err != nil {
			return nil, fmt.Errorf("rev-list %s: %w", br, err)
		}
		for _, sha := range shas {
			index[sha] = append(index[sha], br)
		}
	}
	return index, nil
}

// headerFormat separates fields with the ASCII unit separator so subjects may
// contain any printable character.
const headerFormat = "--format=%H%x1f%an%x1f%ae%x1f%aI%x1f%s"

// CommitHeader returns author metadata for a single commit
func (r *Repo) CommitHeader(ctx context.Context, sha string) (CommitHeader, error) {
	out, err := r.run(ctx, nil, "show", "-s", headerFormat, sha)
	if err != nil {
		return CommitHeader{}, err
	}
	h, ok := parseHeaderLine(strings.TrimSpace(out))
	if !ok {
		return CommitHeader{}, fmt.Errorf("unexpected header output for %s", sha)
	}
	return h, nil
}

func parseHeaderLine(line string) (CommitHeader, bool) {
	parts := strings.SplitN(line, "\x1f", 5)
	if len(parts) != 5 || !IsCommitID(parts[0]) {
		return CommitHeader{}, false
	}
	return CommitHeader{
		SHA:         parts[0],
		AuthorName:  parts[1],
		AuthorEmail: parts[2],
		AuthorDate:  parts[3],
		Subject:     parts[4],
	}, true
}
