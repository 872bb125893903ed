// Package ingestion drives scans end to end: clone, scan, write, persist.
package ingestion

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/rohankatakam/depscan/internal/cache"
	"github.com/rohankatakam/depscan/internal/config"
	errs "github.com/rohankatakam/depscan/internal/errors"
	"github.com/rohankatakam/depscan/internal/git"
	"github.com/rohankatakam/depscan/internal/github"
	"github.com/rohankatakam/depscan/internal/models"
	"github.com/rohankatakam/depscan/internal/output"
	"github.com/rohankatakam/depscan/internal/sampling"
	"github.com/rohankatakam/depscan/internal/scan"
	"github.com/rohankatakam/depscan/internal/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// RepositoryLister enumerates an organisation. *github.Client satisfies it.
type RepositoryLister interface {
	ListOrgRepos(ctx context.Context, org string, opts github.ListOptions) ([]models.Repository, error)
}

// Options are the per-run settings shared by every repository of an invocation
type Options struct {
	Mode          sampling.Mode
	Scope         string
	Branch        string
	Limit         int
	WorkDir       string
	OutputDir     string
	ProgressEvery int
	Strict        bool
	// Parallel bounds concurrent repositories in org mode
	Parallel int
	// Token is embedded into https clone URLs
	Token string
}

// OptionsFromConfig reads the scan and output sections of cfg
func OptionsFromConfig(cfg *config.Config, token string) (Options, error) {
	mode, err := sampling.ParseMode(cfg.Scan.Mode)
	if err != nil {
		return Options{}, errs.ValidationErrorf("scan.mode: %v", err)
	}
	if _, err := scan.ParseScope(cfg.Scan.Scope, mode); err != nil {
		return Options{}, errs.ValidationErrorf("scan.scope: %v", err)
	}
	return Options{
		Mode:          mode,
		Scope:         cfg.Scan.Scope,
		Branch:        cfg.Scan.Branch,
		Limit:         cfg.Scan.Limit,
		WorkDir:       cfg.Scan.WorkDir,
		OutputDir:     cfg.Output.Directory,
		ProgressEvery: cfg.Scan.ProgressEvery,
		Strict:        cfg.Scan.Strict,
		Parallel:      cfg.Scan.Parallel,
		Token:         token,
	}, nil
}

// OutputPath is where the records of repository name are written:
// <dir>/<name>_deps.json, with a _weekly or _monthly suffix for periodic modes.
func OutputPath(dir, name string, mode sampling.Mode) string {
	file := name + "_deps"
	if mode.Periodic() {
		file += "_" + string(mode)
	}
	return filepath.Join(dir, file+".json")
}

// Orchestrator coordinates repository scans
type Orchestrator struct {
	opts   Options
	cache  *cache.Manager
	store  storage.Store
	lister RepositoryLister
	logger logrus.FieldLogger
}

// NewOrchestrator creates an orchestrator. cacheMgr, store and lister may be
// nil; lister is only needed by ScanOrg.
func NewOrchestrator(
	opts Options,
	cacheMgr *cache.Manager,
	store storage.Store,
	lister RepositoryLister,
	logger logrus.FieldLogger,
) *Orchestrator {
	if opts.Parallel <= 0 {
		opts.Parallel = 1
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Orchestrator{
		opts:   opts,
		cache:  cacheMgr,
		store:  store,
		lister: lister,
		logger: logger,
	}
}

// ScanRepository clones or refreshes source, scans it and writes its records.
// The returned summary is never nil; on failure its Error is set as well.
func (o *Orchestrator) ScanRepository(ctx context.Context, source, name string) (*output.Summary, error) {
	start := time.Now()
	if name == "" {
		name = git.RepoName(source)
	}
	log := o.logger.WithField("repository", name)
	summary := &output.Summary{
		Repository: name,
		Mode:       string(o.opts.Mode),
		Branch:     o.opts.Branch,
		Owner:      repoOwner(source),
	}

	fail := func(err *errs.Error) (*output.Summary, error) {
		err.WithContext("repository", name)
		summary.Error = git.RedactSecrets(err.Error())
		summary.Duration = time.Since(start)
		log.WithFields(logrus.Fields{
			"error":    summary.Error,
			"type":     errs.GetType(err),
			"severity": errs.GetSeverity(err),
		}).Error("repository scan failed")
		return summary, err
	}

	log.WithField("source", git.RedactSecrets(source)).Info("starting repository scan")

	repo, err := git.EnsureClone(ctx, git.CloneOptions{
		Source:  source,
		WorkDir: o.opts.WorkDir,
		Name:    name,
		Token:   o.opts.Token,
	})
	if err != nil {
		return fail(errs.GitErrorf(err, "prepare working copy of %s", name))
	}

	scope, err := scan.ParseScope(o.opts.Scope, o.opts.Mode)
	if err != nil {
		return fail(errs.ValidationErrorf("scope: %v", err))
	}
	summary.Scope = string(scope)

	run := &models.Run{
		Repository: name,
		Mode:       string(o.opts.Mode),
		Scope:      string(scope),
		Branch:     o.opts.Branch,
	}
	if o.store != nil {
		if err := o.store.CreateRun(ctx, run); err != nil {
			return fail(errs.StorageError(err, "record run"))
		}
		log = log.WithField("run_id", run.ID)
	}

	res, err := scan.Run(ctx, repo, scan.Options{
		Mode:          o.opts.Mode,
		Branch:        o.opts.Branch,
		Limit:         o.opts.Limit,
		Scope:         scope,
		ProgressEvery: o.opts.ProgressEvery,
		Strict:        o.opts.Strict,
		Cache:         o.cache,
		Logger:        log,
	}, scan.NewLogSink(log))
	if err != nil {
		o.finishRun(ctx, log, run, models.RunFailed, 0, err)
		return fail(asError(err))
	}

	path := OutputPath(o.opts.OutputDir, name, o.opts.Mode)
	if err := output.WriteRecords(path, res.Records); err != nil {
		o.finishRun(ctx, log, run, models.RunFailed, 0, err)
		return fail(errs.FileSystemErrorf(err, "write %s", path))
	}
	summary.Output = path

	if o.store != nil {
		if err := o.store.SaveRecords(ctx, run.ID, res.Records); err != nil {
			o.finishRun(ctx, log, run, models.RunFailed, 0, err)
			return fail(errs.StorageError(err, "save records"))
		}
	}
	o.finishRun(ctx, log, run, models.RunCompleted, len(res.Records), nil)

	summary.Commits = res.Stats.Commits
	summary.Files = res.Stats.Files
	summary.Imports = res.Stats.Imports
	summary.Excluded = res.Stats.Excluded
	summary.Fallbacks = res.Stats.Fallbacks
	summary.Unavailable = res.Stats.Unavailable
	summary.Skipped = res.Stats.Skipped
	summary.CacheHits = res.Stats.CacheHits
	summary.Duration = time.Since(start)

	log.WithFields(logrus.Fields{
		"output":   path,
		"commits":  summary.Commits,
		"imports":  summary.Imports,
		"duration": summary.Duration.Round(time.Millisecond),
	}).Info("repository scan completed")

	return summary, nil
}

// asError keeps typed errors and classifies the rest as git failures
func asError(err error) *errs.Error {
	var e *errs.Error
	if errors.As(err, &e) {
		return e
	}
	return errs.GitError(err, "scan history")
}

// repoOwner is the account part of a hosted clone URL, empty for local paths
func repoOwner(source string) string {
	owner, _, err := git.ParseRepoURL(source)
	if err != nil {
		return ""
	}
	return owner
}

func (o *Orchestrator) finishRun(ctx context.Context, log logrus.FieldLogger, run *models.Run, status models.RunStatus, commits int, runErr error) {
	if o.store == nil || run.ID == "" {
		return
	}
	if err := o.store.FinishRun(ctx, run.ID, status, commits, runErr); err != nil {
		log.WithError(err).Warn("failed to record run outcome")
	}
}

// ScanOrg lists the repositories of org, writes repositories.csv and scans
// each repository. Listing failures are fatal; a repository failing is
// recorded in its summary and never stops the others. Summaries follow the
// listing order.
func (o *Orchestrator) ScanOrg(ctx context.Context, org string, listOpts github.ListOptions) ([]*output.Summary, error) {
	if o.lister == nil {
		return nil, errs.ConfigErrorf("scanning organisation %s needs a GitHub client", org)
	}
	log := o.logger.WithField("org", org)

	repos, err := o.lister.ListOrgRepos(ctx, org, listOpts)
	if err != nil {
		return nil, errs.NetworkError(err, "list organisation repositories")
	}
	log.WithFields(logrus.Fields{
		"repositories": len(repos),
		"parallel":     o.opts.Parallel,
	}).Info("scanning organisation")

	if err := output.WriteRepositories(filepath.Join(o.opts.OutputDir, "repositories.csv"), repos); err != nil {
		return nil, errs.FileSystemError(err, "write repositories.csv")
	}

	summaries := make([]*output.Summary, len(repos))
	var g errgroup.Group
	g.SetLimit(o.opts.Parallel)
	for i, repo := range repos {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				summaries[i] = &output.Summary{Repository: repo.Name, Mode: string(o.opts.Mode), Error: err.Error()}
				return nil
			}
			summaries[i], _ = o.ScanRepository(ctx, repo.CloneURL, repo.Name)
			return nil
		})
	}
	g.Wait()

	failed := 0
	for _, s := range summaries {
		if s.Failed() {
			failed++
		}
	}
	log.WithFields(logrus.Fields{
		"repositories": len(repos),
		"failed":       failed,
	}).Info("organisation scan finished")

	return summaries, nil
}
