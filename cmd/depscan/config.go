package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rohankatakam/depscan/internal/config"
	errs "github.com/rohankatakam/depscan/internal/errors"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect depscan configuration",
	Long:  `View, validate and initialise depscan configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long: `Print the configuration after merging defaults, the config file and the
environment. Tokens are masked.`,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors",
	RunE:  runConfigValidate,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write the default configuration to .depscan/config.yaml, or to the path
given with --config. Existing files are kept unless --force is set.`,
	// The target file may not exist yet, so skip loading it.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runConfigInit,
}

var configForce bool

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := cfg.Redacted().YAML()
	if err != nil {
		return err
	}
	fmt.Printf("# github token source: %s\n", tokenSource)
	_, err = os.Stdout.Write(data)
	return err
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	result := cfg.Validate(config.ValidationContextAll)
	for _, w := range result.Warnings {
		fmt.Printf("⚠️  %s\n", w)
	}
	if err := result.Err(); err != nil {
		return err
	}
	fmt.Println("✓ Configuration is valid")
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = filepath.Join(".depscan", "config.yaml")
	}
	if _, err := os.Stat(path); err == nil && !configForce {
		return errs.ConfigErrorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.Default().Save(path); err != nil {
		return err
	}
	fmt.Printf("✓ Wrote %s\n", path)
	return nil
}
