package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/rohankatakam/depscan/internal/batch"
	"github.com/rohankatakam/depscan/internal/cache"
	"github.com/rohankatakam/depscan/internal/extract"
	"github.com/rohankatakam/depscan/internal/git"
	"github.com/rohankatakam/depscan/internal/models"
	"github.com/rohankatakam/depscan/internal/sampling"
	"github.com/sirupsen/logrus"
)

// Stats summarises a run
type Stats struct {
	Considered       int
	Commits          int
	Excluded         int
	Files            int
	SourceFiles      int
	Imports          int
	Fallbacks        int
	FallbackFailures int
	TreeFailures     int
	Unavailable      int
	Skipped          int
	CacheHits        int
	Duration         time.Duration
}

// Result is the ordered record list of a run
type Result struct {
	Mode    sampling.Mode
	Scope   Scope
	Records []*models.CommitRecord
	Stats   Stats
}

// Run scans repo. Only option errors, sampling failures and a failed bulk
// query abort the run; per-commit and per-file problems are reported to sink
// and counted.
func Run(ctx context.Context, repo *git.Repo, opts Options, sink Sink) (*Result, error) {
	start := time.Now()
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = NopSink{}
	}
	log := opts.Logger.WithFields(logrus.Fields{
		"repo":  repo.Path(),
		"mode":  opts.Mode,
		"scope": opts.Scope,
	})

	sel, err := sampling.New(repo).Select(ctx, opts.Mode, opts.Branch)
	if err != nil {
		return nil, fmt.Errorf("sample commits: %w", err)
	}
	for _, sha := range sel.Excluded {
		sink.Excluded(sha)
	}
	sel.Limit(opts.Limit)
	log.WithFields(logrus.Fields{
		"considered": sel.Considered,
		"selected":   len(sel.SHAs),
		"excluded":   len(sel.Excluded),
	}).Info("sampled commits")

	p := &pipeline{
		repo:   repo,
		opts:   opts,
		sink:   sink,
		log:    log,
		runner: extract.NewRunner(opts.Strict),
		cache:  opts.Cache,
	}
	p.stats.Considered = sel.Considered
	p.stats.Excluded = len(sel.Excluded)

	if opts.Scope == ScopeChanged {
		p.index, err = batch.NewFileIndex(ctx, repo, sel.SHAs, extract.IsSource, log)
		if err != nil {
			return nil, err
		}
	}

	p.reader, err = repo.NewBlobReader(ctx)
	if err != nil {
		log.WithError(err).Warn("blob reader unavailable, reading files one by one")
		p.reader = nil
	}
	defer p.closeReader()

	records := make([]*models.CommitRecord, 0, len(sel.SHAs))
	for i, sha := range sel.SHAs {
		records = append(records, p.commit(ctx, sha))
		if (i+1)%opts.ProgressEvery == 0 {
			sink.Progress(i+1, len(sel.SHAs))
		}
	}
	if len(sel.SHAs)%opts.ProgressEvery != 0 {
		sink.Progress(len(sel.SHAs), len(sel.SHAs))
	}

	if p.index != nil {
		is := p.index.Stats()
		p.stats.Fallbacks = is.Fallbacks
		p.stats.FallbackFailures = is.FallbackFailures
	}
	p.stats.Commits = len(records)
	p.stats.Duration = time.Since(start)

	log.WithFields(logrus.Fields{
		"commits":     p.stats.Commits,
		"imports":     p.stats.Imports,
		"fallbacks":   p.stats.Fallbacks,
		"unavailable": p.stats.Unavailable,
		"skipped":     p.stats.Skipped,
		"duration":    p.stats.Duration.Round(time.Millisecond),
	}).Info("scan finished")

	return &Result{Mode: opts.Mode, Scope: opts.Scope, Records: records, Stats: p.stats}, nil
}

type pipeline struct {
	repo   *git.Repo
	opts   Options
	sink   Sink
	log    logrus.FieldLogger
	runner *extract.Runner
	cache  *cache.Manager
	index  *batch.Index
	reader *git.BlobReader
	stats  Stats
}

// source is one file of a commit that will be extracted
type source struct {
	path string
	lang extract.Language
	// oid is known up front for snapshot scans
	oid string
}

func (p *pipeline) commit(ctx context.Context, sha string) *models.CommitRecord {
	var (
		files   []string
		sources []source
	)

	switch p.opts.Scope {
	case ScopeSnapshot:
		entries, err := p.repo.ListTree(ctx, sha)
		if err != nil {
			p.stats.TreeFailures++
			p.log.WithError(err).WithField("sha", sha).Warn("tree listing failed, recording commit without files")
		}
		files = make([]string, 0, len(entries))
		for _, e := range entries {
			files = append(files, e.Path)
			if e.Type != "blob" {
				continue
			}
			if lang, ok := extract.Classify(e.Path); ok {
				sources = append(sources, source{path: e.Path, lang: lang, oid: e.OID})
			}
		}
	default:
		files = p.index.Files(ctx, sha)
		for _, f := range files {
			if lang, ok := extract.Classify(f); ok {
				sources = append(sources, source{path: f, lang: lang})
			}
		}
	}

	rec := models.NewCommitRecord(sha, files)
	p.stats.Files += len(files)
	p.stats.SourceFiles += len(sources)

	for _, src := range sources {
		specs, ok := p.extract(ctx, sha, src)
		if !ok || len(specs) == 0 {
			continue
		}
		p.stats.Imports += len(specs)
		switch src.lang {
		case extract.TypeScript:
			rec.TypeScriptImports[src.path] = specs
		case extract.JavaScript:
			rec.JavaScriptImports[src.path] = specs
		case extract.Swift:
			rec.SwiftImports[src.path] = specs
		}
	}
	return rec
}

func (p *pipeline) extract(ctx context.Context, sha string, src source) ([]string, bool) {
	if p.cache != nil && src.oid != "" {
		if specs, ok := p.cache.Get(cache.Key(string(src.lang), src.oid)); ok {
			p.stats.CacheHits++
			return specs, true
		}
	}

	text, oid, ok := p.content(ctx, sha, src)
	if !ok {
		p.stats.Unavailable++
		p.sink.FileUnavailable(sha, src.path)
		return nil, false
	}

	if p.cache != nil && src.oid == "" && oid != "" {
		if specs, ok := p.cache.Get(cache.Key(string(src.lang), oid)); ok {
			p.stats.CacheHits++
			return specs, true
		}
	}

	res := p.runner.Run(src.lang, text)
	if res.Skipped != nil {
		p.stats.Skipped++
		p.sink.ExtractionSkipped(sha, src.path, res.Skipped)
		return nil, false
	}
	if p.cache != nil && oid != "" {
		p.cache.Put(cache.Key(string(src.lang), oid), res.Specifiers)
	}
	return res.Specifiers, true
}

// content reads a file through the blob reader, switching to one git show per
// file for the rest of the run once the reader fails.
func (p *pipeline) content(ctx context.Context, sha string, src source) (text, oid string, ok bool) {
	if p.reader != nil {
		spec := src.oid
		if spec == "" {
			spec = sha + ":" + src.path
		}
		blob, found, err := p.reader.Read(spec)
		if err == nil {
			return blob.Content, blob.OID, found
		}
		p.log.WithError(err).Warn("blob reader failed, reading files one by one")
		p.closeReader()
	}

	text, ok = p.repo.FileContent(ctx, sha, src.path)
	return text, src.oid, ok
}

func (p *pipeline) closeReader() {
	if p.reader == nil {
		return
	}
	if err := p.reader.Close(); err != nil {
		p.log.WithError(err).Debug("blob reader exited with error")
	}
	p.reader = nil
}
