// Package sampling reduces a commit history to the commits a run will scan.
package sampling

import (
	"context"
	"fmt"
	"time"

	"github.com/rohankatakam/depscan/internal/git"
)

// Order declares the traversal order of a commit list.
type Order int

const (
	OrderUnspecified Order = iota
	// NewestFirst is git log's native order
	NewestFirst
	OldestFirst
)

// Source lists history. *git.Repo satisfies it; both methods return newest first.
type Source interface {
	ListCommits(ctx context.Context, branch string) ([]string, error)
	ListDatedCommits(ctx context.Context, branch string) ([]git.DatedCommit, error)
}

// Bucket is one week or month and the commit chosen to represent it
type Bucket struct {
	Key        string
	SHA        string
	AuthorDate time.Time
}

// Selection is the sampled commit list, newest first
type Selection struct {
	Mode    Mode
	SHAs    []string
	Buckets []Bucket
	// Excluded lists commits whose author date could not be parsed
	Excluded []string
	// Considered is the number of commits in the traversed history
	Considered int
}

// Sampler applies a Mode to a Source
type Sampler struct {
	source Source
}

// New returns a Sampler reading from source
func New(source Source) *Sampler {
	return &Sampler{source: source}
}

// Select samples the history reachable from branch, or from every ref when
// branch is empty.
func (s *Sampler) Select(ctx context.Context, mode Mode, branch string) (*Selection, error) {
	if !mode.Periodic() {
		if mode != ModeAll {
			return nil, fmt.Errorf("unknown sampling mode %q", mode)
		}
		shas, err := s.source.ListCommits(ctx, branch)
		if err != nil {
			return nil, fmt.Errorf("list commits: %w", err)
		}
		return &Selection{Mode: ModeAll, SHAs: shas, Considered: len(shas)}, nil
	}

	dated, err := s.source.ListDatedCommits(ctx, branch)
	if err != nil {
		return nil, fmt.Errorf("list dated commits: %w", err)
	}
	return Periodic(dated, NewestFirst, mode)
}

// Periodic keeps one commit per bucket. Commits are visited newest first
// (OldestFirst input is reversed); the first commit seen opens a bucket and
// fixes its position in the output, and a later-visited commit in the same
// bucket replaces the representative only if its author date is strictly
// later. The representative is therefore the latest-authored commit of its
// bucket, and buckets come out newest first.
func Periodic(commits []git.DatedCommit, order Order, mode Mode) (*Selection, error) {
	if !mode.Periodic() {
		return nil, fmt.Errorf("mode %q is not periodic", mode)
	}

	visit := commits
	switch order {
	case NewestFirst:
	case OldestFirst:
		visit = make([]git.DatedCommit, len(commits))
		for i, c := range commits {
			visit[len(commits)-1-i] = c
		}
	default:
		return nil, fmt.Errorf("commit traversal order must be declared")
	}

	sel := &Selection{Mode: mode, Considered: len(commits)}
	position := make(map[string]int)

	for _, c := range visit {
		ts, ok := ParseAuthorDate(c.AuthorDate)
		if !ok {
			sel.Excluded = append(sel.Excluded, c.SHA)
			continue
		}
		key := BucketKey(mode, ts)

		i, seen := position[key]
		if !seen {
			position[key] = len(sel.Buckets)
			sel.Buckets = append(sel.Buckets, Bucket{Key: key, SHA: c.SHA, AuthorDate: ts})
			continue
		}
		if ts.After(sel.Buckets[i].AuthorDate) {
			sel.Buckets[i].SHA = c.SHA
			sel.Buckets[i].AuthorDate = ts
		}
	}

	sel.SHAs = make([]string, len(sel.Buckets))
	for i, b := range sel.Buckets {
		sel.SHAs[i] = b.SHA
	}
	return sel, nil
}

// Limit truncates the selection to at most n commits. n <= 0 keeps everything.
func (s *Selection) Limit(n int) {
	if n <= 0 || n >= len(s.SHAs) {
		return
	}
	s.SHAs = s.SHAs[:n]
	if len(s.Buckets) > n {
		s.Buckets = s.Buckets[:n]
	}
}
