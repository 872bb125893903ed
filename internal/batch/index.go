// Package batch resolves per-commit file lists and metadata with a constant
// number of bulk git queries, falling back to single-commit queries for any
// commit the bulk output did not cover.
package batch

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// FileSource is the subset of *git.Repo the file index needs
type FileSource interface {
	LogFileLists(ctx context.Context, shas []string, keep func(string) bool) (map[string][]string, error)
	CommitFiles(ctx context.Context, sha string, keep func(string) bool) ([]string, bool, error)
}

// Stats counts how commits were resolved
type Stats struct {
	Hits             int
	Fallbacks        int
	FallbackFailures int
}

// Index maps commit ids to their changed files
type Index struct {
	source FileSource
	keep   func(string) bool
	files  map[string][]string
	logger logrus.FieldLogger
	stats  Stats
}

// NewFileIndex prefetches file lists for shas in one bulk query. keep filters
// paths while parsing; nil keeps everything. A failed bulk query is fatal.
func NewFileIndex(ctx context.Context, source FileSource, shas []string, keep func(string) bool, logger logrus.FieldLogger) (*Index, error) {
	if logger == nil {
		logger = quietLogger()
	}

	files, err := source.LogFileLists(ctx, shas, keep)
	if err != nil {
		return nil, fmt.Errorf("bulk file list query: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"requested": len(shas),
		"resolved":  len(files),
	}).Debug("prefetched commit file lists")

	return &Index{source: source, keep: keep, files: files, logger: logger}, nil
}

// Len is the number of commits covered by the bulk query
func (ix *Index) Len() int {
	return len(ix.files)
}

// Files returns the changed files of sha. Commits missing from the bulk result
// are resolved with the single-commit query; if that fails too the commit gets
// an empty list. Both outcomes are logged and counted, never returned.
func (ix *Index) Files(ctx context.Context, sha string) []string {
	if files, ok := ix.files[sha]; ok {
		ix.stats.Hits++
		return files
	}

	ix.stats.Fallbacks++
	files, found, err := ix.source.CommitFiles(ctx, sha, ix.keep)
	switch {
	case err != nil:
		ix.stats.FallbackFailures++
		ix.logger.WithError(err).WithField("sha", sha).Warn("single-commit file query failed, using empty file list")
		files = []string{}
	case !found:
		ix.logger.WithField("sha", sha).Debug("commit has no file section, using empty file list")
		files = []string{}
	default:
		ix.logger.WithField("sha", sha).Debug("commit resolved by single-commit fallback")
	}

	ix.files[sha] = files
	return files
}

// Stats returns resolution counters so far
func (ix *Index) Stats() Stats {
	return ix.stats
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
