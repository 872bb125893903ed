package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rohankatakam/depscan/internal/cache"
	"github.com/rohankatakam/depscan/internal/config"
	errs "github.com/rohankatakam/depscan/internal/errors"
	"github.com/rohankatakam/depscan/internal/logging"
	"github.com/rohankatakam/depscan/internal/output"
	"github.com/rohankatakam/depscan/internal/storage"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile     string
	verbose     bool
	jsonOutput  bool
	logger      *logging.Logger
	cfg         *config.Config
	tokenSource config.TokenSource
)

func main() {
	err := rootCmd.Execute()
	if logger != nil {
		logger.Close()
	}
	if err != nil {
		reportError(os.Stderr, err, verbose)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for fatal configuration and validation errors, 1 otherwise
func exitCode(err error) int {
	if errs.IsFatal(err) {
		return 2
	}
	return 1
}

// reportError prints err, with type, context and stack when detailed
func reportError(w io.Writer, err error, detailed bool) {
	fmt.Fprintf(w, "Error: %v\n", err)
	var e *errs.Error
	if detailed && errors.As(err, &e) {
		fmt.Fprint(w, e.DetailedString())
	}
}

var rootCmd = &cobra.Command{
	Use:   "depscan",
	Short: "depscan - import history extraction for TypeScript, JavaScript and Swift",
	Long: `depscan walks the commit history of git repositories and records, for
every sampled commit, which modules each TypeScript, JavaScript and Swift file
imports. Results are written as JSON, one file per repository.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return errs.Wrap(err, errs.ErrorTypeConfig, errs.SeverityCritical, "load configuration")
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.NewLogger(logging.Config{
			Level:      level,
			OutputFile: cfg.Logging.File,
			MaxSize:    int64(cfg.Logging.MaxSizeMB) * 1024 * 1024,
			JSONFormat: cfg.Logging.Format == "json",
		})
		if err != nil {
			return err
		}

		km := config.NewKeyringManager(logger)
		tokenSource = config.NewCredentialManager(km).ResolveGitHubToken(cfg)
		logger.WithField("source", tokenSource).Debug("resolved GitHub credentials")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .depscan/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Set custom version template
	rootCmd.SetVersionTemplate(`depscan {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)
}

// openCache builds the extraction cache described by cfg, or nil when disabled
func openCache() (*cache.Manager, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	var disk cache.Store
	if cfg.Cache.Path != "" {
		bolt, err := cache.OpenBolt(cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		disk = bolt
	}
	return cache.NewManager(cfg.Cache.MemoryEntries, disk, logger)
}

// openStore opens the SQLite sink, or returns nil when no path is configured
func openStore() (storage.Store, error) {
	if cfg.Storage.Path == "" {
		return nil, nil
	}
	store, err := storage.NewSQLiteStore(cfg.Storage.Path, logger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// printSummaries renders the run results to stdout and fails when any
// repository failed
func printSummaries(summaries []*output.Summary) error {
	level := output.GetDefaultVerbosity()
	if jsonOutput {
		level = output.VerbosityJSON
	}
	if err := output.NewFormatter(level).Format(summaries, os.Stdout); err != nil {
		return err
	}

	failed := 0
	for _, s := range summaries {
		if s.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d repositories failed", failed, len(summaries))
	}
	return nil
}
