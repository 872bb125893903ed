package ingestion

import (
	"context"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rohankatakam/depscan/internal/batch"
	errs "github.com/rohankatakam/depscan/internal/errors"
	"github.com/rohankatakam/depscan/internal/git"
	"github.com/rohankatakam/depscan/internal/models"
	"github.com/rohankatakam/depscan/internal/output"
	"github.com/rohankatakam/depscan/internal/sampling"
	"github.com/sirupsen/logrus"
)

var issueRef = regexp.MustCompile(`#(\d+)`)

// ReportPath is where the commit report of repository name is written
func ReportPath(dir, name string, mode sampling.Mode) string {
	file := name + "_commits"
	if mode.Periodic() {
		file += "_" + string(mode)
	}
	return filepath.Join(dir, file+".csv")
}

// Report is the outcome of BuildReport
type Report struct {
	Path string
	Rows []models.CommitMeta
	// Fallbacks counts commits that needed a single-commit query
	Fallbacks int
	Failures  int
	Duration  time.Duration
}

// BuildReport writes a per-commit metadata CSV for source. Commits are sampled
// like a scan; metadata comes from the three bulk queries plus the branch
// membership index.
func (o *Orchestrator) BuildReport(ctx context.Context, source, name string) (*Report, error) {
	start := time.Now()
	if name == "" {
		name = git.RepoName(source)
	}
	log := o.logger.WithField("repository", name)

	repo, err := git.EnsureClone(ctx, git.CloneOptions{
		Source:  source,
		WorkDir: o.opts.WorkDir,
		Name:    name,
		Token:   o.opts.Token,
	})
	if err != nil {
		return nil, errs.GitErrorf(err, "prepare working copy of %s", name)
	}

	sel, err := sampling.New(repo).Select(ctx, o.opts.Mode, o.opts.Branch)
	if err != nil {
		return nil, errs.GitError(err, "sample commits")
	}
	sel.Limit(o.opts.Limit)

	branches, err := repo.BranchMembership(ctx)
	if err != nil {
		return nil, errs.GitError(err, "index branch membership")
	}

	meta, err := batch.PrefetchMetadata(ctx, repo, sel.SHAs, log)
	if err != nil {
		return nil, errs.GitError(err, "prefetch commit metadata")
	}

	rows := make([]models.CommitMeta, 0, len(sel.SHAs))
	for _, sha := range sel.SHAs {
		rows = append(rows, commitRow(sha, meta.Get(ctx, sha), branches[sha]))
	}

	path := ReportPath(o.opts.OutputDir, name, o.opts.Mode)
	if err := output.WriteCommitReport(path, rows); err != nil {
		return nil, errs.FileSystemError(err, "write commit report")
	}

	report := &Report{
		Path:      path,
		Rows:      rows,
		Fallbacks: meta.Fallbacks,
		Failures:  meta.Failures,
		Duration:  time.Since(start),
	}
	log.WithFields(logrus.Fields{
		"output":    path,
		"commits":   len(rows),
		"fallbacks": report.Fallbacks,
		"duration":  report.Duration.Round(time.Millisecond),
	}).Info("commit report written")
	return report, nil
}

// commitRow merges name-status and numstat output by path. Files only present
// in numstat keep an empty status.
func commitRow(sha string, meta batch.CommitMeta, branches []string) models.CommitMeta {
	h := meta.Header
	adds, dels := git.Totals(meta.Stats)

	stats := make(map[string]git.FileStat, len(meta.Stats))
	for _, st := range meta.Stats {
		stats[st.Path] = st
	}

	files := make([]models.ChangedFile, 0, len(meta.Changes))
	seen := make(map[string]bool, len(meta.Changes))
	for _, ch := range meta.Changes {
		st := stats[ch.Path]
		files = append(files, models.ChangedFile{
			Path:      ch.Path,
			Status:    ch.Status,
			Additions: st.Additions,
			Deletions: st.Deletions,
		})
		seen[ch.Path] = true
	}
	for _, st := range meta.Stats {
		if seen[st.Path] {
			continue
		}
		files = append(files, models.ChangedFile{Path: st.Path, Additions: st.Additions, Deletions: st.Deletions})
	}

	if branches == nil {
		branches = []string{}
	}
	return models.CommitMeta{
		SHA:          sha,
		AuthorName:   h.AuthorName,
		AuthorEmail:  h.AuthorEmail,
		AuthorDate:   h.AuthorDate,
		Subject:      h.Subject,
		Branches:     branches,
		Issues:       issueNumbers(h.Subject),
		Additions:    adds,
		Deletions:    dels,
		ChangedFiles: files,
	}
}

// issueNumbers returns the numbers of #123 style references in order of appearance
func issueNumbers(subject string) []string {
	out := []string{}
	for _, m := range issueRef.FindAllStringSubmatch(subject, -1) {
		out = append(out, m[1])
	}
	return out
}
