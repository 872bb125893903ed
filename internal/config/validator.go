package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rohankatakam/depscan/internal/errors"
	"github.com/rohankatakam/depscan/internal/sampling"
	"github.com/rohankatakam/depscan/internal/scan"
	"github.com/sirupsen/logrus"
)

// ValidationContext specifies what configuration is required
type ValidationContext string

const (
	// ValidationContextScan - scanning one repository
	ValidationContextScan ValidationContext = "scan"
	// ValidationContextOrg - scanning an organisation needs the GitHub API
	ValidationContextOrg ValidationContext = "org"
	// ValidationContextReport - commit metadata reports
	ValidationContextReport ValidationContext = "report"
	// ValidationContextAll - validate all configuration
	ValidationContextAll ValidationContext = "all"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  ❌ %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  ⚠️  %s\n", warn))
		}
	}

	return sb.String()
}

// Err converts a failed result into a critical validation error
func (vr *ValidationResult) Err() error {
	if !vr.HasErrors() {
		return nil
	}
	return errors.ValidationError(strings.TrimSpace(vr.Error()))
}

// Validate validates configuration for the given context
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextScan:
		c.validateScan(result)
		c.validateCache(result)
	case ValidationContextOrg:
		c.validateScan(result)
		c.validateCache(result)
		c.validateGitHub(result, true)
	case ValidationContextReport:
		c.validateScan(result)
	case ValidationContextAll:
		c.validateScan(result)
		c.validateCache(result)
		c.validateGitHub(result, false)
	}
	c.validateLogging(result)

	return result
}

func (c *Config) validateScan(result *ValidationResult) {
	mode, err := sampling.ParseMode(c.Scan.Mode)
	if err != nil {
		result.AddError("scan.mode: %v", err)
	} else if _, err := scan.ParseScope(c.Scan.Scope, mode); err != nil {
		result.AddError("scan.scope: %v", err)
	}

	if c.Scan.Limit < 0 {
		result.AddError("scan.limit must not be negative (got %d)", c.Scan.Limit)
	}
	if c.Scan.ProgressEvery <= 0 {
		result.AddError("scan.progress_every must be positive (got %d)", c.Scan.ProgressEvery)
	}
	if c.Scan.Parallel < 1 {
		result.AddError("scan.parallel must be at least 1 (got %d)", c.Scan.Parallel)
	} else if c.Scan.Parallel > 16 {
		result.AddWarning("scan.parallel is %d; each repository runs its own git processes", c.Scan.Parallel)
	}
	if c.Scan.WorkDir == "" {
		result.AddError("scan.workdir is required (set DEPSCAN_WORKDIR)")
	}
}

func (c *Config) validateCache(result *ValidationResult) {
	if !c.Cache.Enabled {
		return
	}
	if c.Cache.MemoryEntries <= 0 {
		result.AddError("cache.memory_entries must be positive (got %d)", c.Cache.MemoryEntries)
	}
}

func (c *Config) validateGitHub(result *ValidationResult, required bool) {
	if c.GitHub.Token == "" {
		switch {
		case c.GitHub.PrivateOnly:
			result.AddError("GITHUB_TOKEN is required to list private repositories")
		case required:
			result.AddWarning("GITHUB_TOKEN is not set; only public repositories are visible and the API allows 60 requests per hour")
		}
	}
	if c.GitHub.RateLimit <= 0 {
		result.AddError("github.rate_limit must be positive (got %v)", c.GitHub.RateLimit)
	}
	if c.GitHub.BaseURL != "" {
		u, err := url.Parse(c.GitHub.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			result.AddError("github.base_url is invalid: %q", c.GitHub.BaseURL)
		}
	}
}

func (c *Config) validateLogging(result *ValidationResult) {
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		result.AddError("logging.level: %v", err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		result.AddError("logging.format must be text or json (got %q)", c.Logging.Format)
	}
	if c.Logging.File != "" && c.Logging.MaxSizeMB <= 0 {
		result.AddWarning("logging.max_size_mb is %d; log file rotation disabled", c.Logging.MaxSizeMB)
	}
}
