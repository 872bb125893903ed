package main

import (
	"github.com/rohankatakam/depscan/internal/config"
	"github.com/rohankatakam/depscan/internal/github"
	"github.com/spf13/cobra"
)

var orgCmd = &cobra.Command{
	Use:   "org <organisation>",
	Short: "Extract the import history of every repository of a GitHub organisation",
	Long: `List the repositories of a GitHub organisation and scan each one.

Results are written to <out>/<repo>_deps[_weekly|_monthly].json, and the
listing itself to <out>/repositories.csv. A repository that fails is reported
at the end and does not stop the others.

Examples:
  # Weekly snapshots of every private repository, four at a time
  depscan org acme --private-only --mode weekly --parallel 4`,
	Args: cobra.ExactArgs(1),
	RunE: runOrg,
}

var (
	orgPrivateOnly     bool
	orgIncludeArchived bool
	orgParallel        int
)

func init() {
	addScanFlags(orgCmd.Flags())
	orgCmd.Flags().BoolVar(&orgPrivateOnly, "private-only", false, "only scan private repositories")
	orgCmd.Flags().BoolVar(&orgIncludeArchived, "include-archived", false, "also scan archived repositories")
	orgCmd.Flags().IntVarP(&orgParallel, "parallel", "p", 0, "repositories scanned at once (default from config)")
	orgCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the run summary as JSON")
	rootCmd.AddCommand(orgCmd)
}

// newGitHubClient builds an API client from the resolved configuration
func newGitHubClient() (*github.Client, error) {
	var opts []github.Option
	if cfg.GitHub.BaseURL != "" {
		opts = append(opts, github.WithBaseURL(cfg.GitHub.BaseURL))
	}
	return github.NewClient(cfg.GitHub.Token, cfg.GitHub.RateLimit, opts...)
}

func runOrg(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("private-only") {
		cfg.GitHub.PrivateOnly = orgPrivateOnly
	}
	if cmd.Flags().Changed("parallel") {
		cfg.Scan.Parallel = orgParallel
	}

	orch, cleanup, err := newOrchestrator(cmd, config.ValidationContextOrg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	summaries, err := orch.ScanOrg(ctx, args[0], github.ListOptions{
		PrivateOnly:     cfg.GitHub.PrivateOnly,
		IncludeArchived: orgIncludeArchived,
	})
	if err != nil {
		return err
	}
	return printSummaries(summaries)
}
