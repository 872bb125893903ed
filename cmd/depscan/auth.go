package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rohankatakam/depscan/internal/config"
	errs "github.com/rohankatakam/depscan/internal/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the GitHub token stored in the OS keychain",
	Long: `Manage the GitHub token used for cloning and organisation listings.

Tokens are looked up in this order: GITHUB_TOKEN (or GH_TOKEN), the OS
keychain, then github.token in the config file.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a GitHub token in the OS keychain",
	Long: `Store a GitHub token in the OS keychain.

The token is read from a hidden prompt, or from stdin when --stdin is given:
  echo "$TOKEN" | depscan auth login --stdin`,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the GitHub token from the OS keychain",
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which GitHub token is in use and who it belongs to",
	RunE:  runAuthStatus,
}

var authFromStdin bool

func init() {
	authLoginCmd.Flags().BoolVar(&authFromStdin, "stdin", false, "read the token from stdin")
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	km := config.NewKeyringManager(logger)
	if !km.IsAvailable() {
		return errs.ConfigError("OS keychain is not available; set GITHUB_TOKEN instead")
	}

	token, err := readToken()
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("no token provided")
	}

	if err := km.SetGitHubToken(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	fmt.Printf("✓ Token %s saved to OS keychain\n", config.MaskToken(token))
	return nil
}

// readToken reads from stdin with --stdin, otherwise prompts without echo
func readToken() (string, error) {
	if authFromStdin {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read token: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	if !config.DetectMode().AllowsPrompt() {
		return "", fmt.Errorf("not running interactively; use --stdin or set GITHUB_TOKEN")
	}
	fmt.Print("GitHub token: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	km := config.NewKeyringManager(logger)
	if err := km.DeleteGitHubToken(); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	fmt.Println("✓ Token removed from OS keychain")
	if tokenSource == config.SourceEnv {
		fmt.Println("→ GITHUB_TOKEN is still set in the environment")
	}
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	if cfg.GitHub.Token == "" {
		fmt.Println("⚠️  No GitHub token configured")
		fmt.Println()
		fmt.Println("Run 'depscan auth login' or set GITHUB_TOKEN")
		return nil
	}

	fmt.Printf("Token:   %s\n", config.MaskToken(cfg.GitHub.Token))
	fmt.Printf("Source:  %s\n", tokenSource)
	if !tokenSource.Secure() {
		fmt.Println("⚠️  Token is stored in plaintext; consider 'depscan auth login'")
	}

	client, err := newGitHubClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	login, err := client.AuthenticatedUser(ctx)
	if err != nil {
		return fmt.Errorf("token check failed: %w", err)
	}
	fmt.Printf("User:    %s\n", login)
	return nil
}
