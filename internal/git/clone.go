package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// CloneOptions describes where a repository comes from and where it is cached.
type CloneOptions struct {
	// Source is a clone URL or a path to an existing working copy.
	Source string
	// WorkDir holds one clone per repository name.
	WorkDir string
	// Name overrides the directory name derived from Source.
	Name string
	// Token is embedded into https URLs when set.
	Token string
}

// EnsureClone returns a Repo for opts.Source. Local working copies are used in
// place. Remote sources are cloned into WorkDir/<name> on first use and
// refreshed with fetch --all --prune afterwards.
func EnsureClone(ctx context.Context, opts CloneOptions) (*Repo, error) {
	if isLocalRepo(opts.Source) {
		return Open(ctx, opts.Source)
	}

	name := opts.Name
	if name == "" {
		name = RepoName(opts.Source)
	}
	if name == "" {
		return nil, fmt.Errorf("cannot derive repository name from %q", RedactSecrets(opts.Source))
	}

	workDir, err := filepath.Abs(opts.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("resolve work directory %s: %w", opts.WorkDir, err)
	}
	dest := filepath.Join(workDir, name)
	authURL := AuthURL(opts.Source, opts.Token)

	if isLocalRepo(dest) {
		if _, err := execGit(ctx, dest, nil, "remote", "set-url", "origin", authURL); err != nil {
			return nil, fmt.Errorf("set remote url: %w", err)
		}
	} else {
		if err := os.MkdirAll(workDir, 0755); err != nil {
			return nil, fmt.Errorf("create work directory %s: %w", workDir, err)
		}
		if _, err := execGit(ctx, workDir, nil, "clone", "--no-tags", "--quiet", authURL, dest); err != nil {
			return nil, fmt.Errorf("git clone failed: %w", err)
		}
	}

	if _, err := execGit(ctx, dest, nil, "fetch", "--all", "--prune"); err != nil {
		return nil, fmt.Errorf("git fetch failed: %w", err)
	}

	return Open(ctx, dest)
}

// isLocalRepo checks if path is an existing working copy
func isLocalRepo(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	if err != nil {
		return false
	}
	return info.IsDir()
}
