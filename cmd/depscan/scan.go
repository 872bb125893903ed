package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rohankatakam/depscan/internal/config"
	"github.com/rohankatakam/depscan/internal/ingestion"
	"github.com/rohankatakam/depscan/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var scanCmd = &cobra.Command{
	Use:   "scan <repository> [repository...]",
	Short: "Extract the import history of one or more repositories",
	Long: `Extract the import history of one or more repositories.

A repository is either a path to a local working copy or a clone URL. Remote
repositories are cloned into the work directory on first use and fetched on
later runs.

Examples:
  # Every commit, files each commit changed
  depscan scan https://github.com/acme/web.git

  # One snapshot per month of the main branch
  depscan scan ./web --mode monthly --branch main

  # Persist results to SQLite as well
  depscan scan ./web --db ~/.depscan/depscan.db`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

var (
	scanMode          string
	scanBranch        string
	scanLimit         int
	scanScope         string
	scanWorkDir       string
	scanOutDir        string
	scanDBPath        string
	scanCachePath     string
	scanNoCache       bool
	scanStrict        bool
	scanProgressEvery int
)

func init() {
	addScanFlags(scanCmd.Flags())
	scanCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the run summary as JSON")
	rootCmd.AddCommand(scanCmd)
}

// addScanFlags registers the flags shared by scan, org and report
func addScanFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&scanMode, "mode", "m", "", "sampling mode: all, weekly or monthly")
	fs.StringVarP(&scanBranch, "branch", "b", "", "only traverse this branch (default: all refs)")
	fs.IntVar(&scanLimit, "limit", 0, "scan at most this many sampled commits (0 = no limit)")
	fs.StringVar(&scanScope, "scope", "", "files to analyse: changed or snapshot (default depends on mode)")
	fs.StringVar(&scanWorkDir, "workdir", "", "directory holding clones")
	fs.StringVarP(&scanOutDir, "out", "o", "", "output directory")
	fs.StringVar(&scanDBPath, "db", "", "also store results in this SQLite database")
	fs.StringVar(&scanCachePath, "cache", "", "persistent extraction cache file")
	fs.BoolVar(&scanNoCache, "no-cache", false, "disable the extraction cache")
	fs.BoolVar(&scanStrict, "strict", false, "abort on extractor failures instead of skipping the file")
	fs.IntVar(&scanProgressEvery, "progress-every", 0, "log progress every N commits")
}

// applyScanFlags copies explicitly set flags over the loaded configuration
func applyScanFlags(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("mode") {
		cfg.Scan.Mode = scanMode
	}
	if fs.Changed("branch") {
		cfg.Scan.Branch = scanBranch
	}
	if fs.Changed("limit") {
		cfg.Scan.Limit = scanLimit
	}
	if fs.Changed("scope") {
		cfg.Scan.Scope = scanScope
	}
	if fs.Changed("workdir") {
		cfg.Scan.WorkDir = scanWorkDir
	}
	if fs.Changed("out") {
		cfg.Output.Directory = scanOutDir
	}
	if fs.Changed("db") {
		cfg.Storage.Path = scanDBPath
	}
	if fs.Changed("cache") {
		cfg.Cache.Enabled = true
		cfg.Cache.Path = scanCachePath
	}
	if scanNoCache {
		cfg.Cache.Enabled = false
	}
	if fs.Changed("strict") {
		cfg.Scan.Strict = scanStrict
	}
	if fs.Changed("progress-every") {
		cfg.Scan.ProgressEvery = scanProgressEvery
	}
}

// newOrchestrator validates cfg for vctx and wires the cache, the optional
// SQLite sink and the GitHub client. The returned cleanup closes them.
func newOrchestrator(cmd *cobra.Command, vctx config.ValidationContext) (*ingestion.Orchestrator, func(), error) {
	applyScanFlags(cmd, cfg)

	result := cfg.Validate(vctx)
	for _, w := range result.Warnings {
		logger.Warn(w)
	}
	if err := result.Err(); err != nil {
		return nil, nil, err
	}

	opts, err := ingestion.OptionsFromConfig(cfg, cfg.GitHub.Token)
	if err != nil {
		return nil, nil, err
	}

	var lister ingestion.RepositoryLister
	if vctx == config.ValidationContextOrg {
		client, err := newGitHubClient()
		if err != nil {
			return nil, nil, err
		}
		lister = client
	}

	cacheMgr, err := openCache()
	if err != nil {
		return nil, nil, err
	}
	store, err := openStore()
	if err != nil {
		if cacheMgr != nil {
			cacheMgr.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		if cacheMgr != nil {
			st := cacheMgr.Stats()
			logger.WithField("hits", st.Hits).WithField("misses", st.Misses).Debug("extraction cache")
			if err := cacheMgr.Close(); err != nil {
				logger.WithError(err).Warn("failed to close cache")
			}
		}
		if store != nil {
			if err := store.Close(); err != nil {
				logger.WithError(err).Warn("failed to close database")
			}
		}
	}
	return ingestion.NewOrchestrator(opts, cacheMgr, store, lister, logger), cleanup, nil
}

// signalContext is cancelled on interrupt
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runScan(cmd *cobra.Command, args []string) error {
	orch, cleanup, err := newOrchestrator(cmd, config.ValidationContextScan)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	summaries := make([]*output.Summary, 0, len(args))
	for _, source := range args {
		summary, _ := orch.ScanRepository(ctx, source, "")
		summaries = append(summaries, summary)
		if ctx.Err() != nil {
			break
		}
	}
	return printSummaries(summaries)
}
