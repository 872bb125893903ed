package batch

import (
	"context"
	"fmt"

	"github.com/rohankatakam/depscan/internal/git"
	"github.com/sirupsen/logrus"
)

// MetaSource is the subset of *git.Repo used for commit reports
type MetaSource interface {
	LogHeaders(ctx context.Context, shas []string) (map[string]git.CommitHeader, error)
	LogNumStat(ctx context.Context, shas []string) (map[string][]git.FileStat, int, error)
	LogNameStatus(ctx context.Context, shas []string) (map[string][]git.FileChange, int, error)
	CommitHeader(ctx context.Context, sha string) (git.CommitHeader, error)
	NumStat(ctx context.Context, sha string) ([]git.FileStat, error)
	NameStatus(ctx context.Context, sha string) ([]git.FileChange, error)
}

// CommitMeta is everything the report needs for one commit
type CommitMeta struct {
	Header  git.CommitHeader
	Stats   []git.FileStat
	Changes []git.FileChange
}

// Metadata holds the three bulk query results for a commit set
type Metadata struct {
	source  MetaSource
	logger  logrus.FieldLogger
	headers map[string]git.CommitHeader
	numstat map[string][]git.FileStat
	status  map[string][]git.FileChange

	// SkippedLines counts malformed numstat/name-status lines
	SkippedLines int
	Fallbacks    int
	Failures     int
}

// PrefetchMetadata runs the header, numstat and name-status bulk queries.
// Any of them failing is fatal.
func PrefetchMetadata(ctx context.Context, source MetaSource, shas []string, logger logrus.FieldLogger) (*Metadata, error) {
	if logger == nil {
		logger = quietLogger()
	}

	headers, err := source.LogHeaders(ctx, shas)
	if err != nil {
		return nil, fmt.Errorf("bulk header query: %w", err)
	}
	numstat, skippedStat, err := source.LogNumStat(ctx, shas)
	if err != nil {
		return nil, fmt.Errorf("bulk numstat query: %w", err)
	}
	status, skippedStatus, err := source.LogNameStatus(ctx, shas)
	if err != nil {
		return nil, fmt.Errorf("bulk name-status query: %w", err)
	}

	m := &Metadata{
		source:       source,
		logger:       logger,
		headers:      headers,
		numstat:      numstat,
		status:       status,
		SkippedLines: skippedStat + skippedStatus,
	}
	if m.SkippedLines > 0 {
		logger.WithField("lines", m.SkippedLines).Warn("skipped malformed lines in bulk output")
	}
	return m, nil
}

// Get returns the metadata of sha, issuing single-commit queries for any part
// the bulk output lacked. Parts that still cannot be resolved stay empty.
func (m *Metadata) Get(ctx context.Context, sha string) CommitMeta {
	var meta CommitMeta
	log := m.logger.WithField("sha", sha)

	h, ok := m.headers[sha]
	if !ok {
		m.Fallbacks++
		var err error
		if h, err = m.source.CommitHeader(ctx, sha); err != nil {
			m.Failures++
			log.WithError(err).Warn("header fallback failed")
			h = git.CommitHeader{SHA: sha}
		}
	}
	meta.Header = h

	// Commits that touch nothing produce no numstat section; that is not a miss
	// worth a process when the header was found in bulk.
	if st, ok := m.numstat[sha]; ok {
		meta.Stats = st
	} else if _, bulk := m.headers[sha]; !bulk {
		m.Fallbacks++
		st, err := m.source.NumStat(ctx, sha)
		if err != nil {
			m.Failures++
			log.WithError(err).Warn("numstat fallback failed")
		}
		meta.Stats = st
	}

	if ch, ok := m.status[sha]; ok {
		meta.Changes = ch
	} else if _, bulk := m.headers[sha]; !bulk {
		m.Fallbacks++
		ch, err := m.source.NameStatus(ctx, sha)
		if err != nil {
			m.Failures++
			log.WithError(err).Warn("name-status fallback failed")
		}
		meta.Changes = ch
	}

	if meta.Stats == nil {
		meta.Stats = []git.FileStat{}
	}
	if meta.Changes == nil {
		meta.Changes = []git.FileChange{}
	}
	return meta
}
