package config

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// DeploymentMode represents the execution context
type DeploymentMode string

const (
	// ModeInteractive is a user at a terminal; prompts are allowed
	ModeInteractive DeploymentMode = "interactive"

	// ModeCI is a pipeline run: credentials come from the environment and
	// nothing prompts
	ModeCI DeploymentMode = "ci"
)

// DetectMode determines the execution context based on environment
func DetectMode() DeploymentMode {
	if mode := os.Getenv("DEPSCAN_DEPLOYMENT"); mode != "" {
		switch strings.ToLower(mode) {
		case "ci":
			return ModeCI
		case "interactive":
			return ModeInteractive
		}
	}

	if GetBool("CI", false) || os.Getenv("GITHUB_ACTIONS") != "" || os.Getenv("GITLAB_CI") != "" {
		return ModeCI
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ModeCI
	}
	return ModeInteractive
}

// AllowsPrompt reports whether the mode may read secrets from a terminal
func (m DeploymentMode) AllowsPrompt() bool {
	return m == ModeInteractive
}
