package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "all", cfg.Scan.Mode)
	assert.Equal(t, 500, cfg.Scan.ProgressEvery)
	assert.Equal(t, 1, cfg.Scan.Parallel)
	assert.Equal(t, float64(10), cfg.GitHub.RateLimit)
	assert.True(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Validate(ValidationContextAll).HasErrors())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scan:
  mode: weekly
  branch: develop
  progress_every: 50
github:
  rate_limit: 2.5
  private_only: true
storage:
  path: ~/runs.db
`), 0644))

	t.Setenv("DEPSCAN_SCAN_LIMIT", "7")
	t.Setenv("DEPSCAN_WORKDIR", "/tmp/clones")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "weekly", cfg.Scan.Mode)
	assert.Equal(t, "develop", cfg.Scan.Branch)
	assert.Equal(t, 50, cfg.Scan.ProgressEvery)
	assert.Equal(t, 7, cfg.Scan.Limit)
	assert.Equal(t, "/tmp/clones", cfg.Scan.WorkDir)
	assert.Equal(t, 2.5, cfg.GitHub.RateLimit)
	assert.True(t, cfg.GitHub.PrivateOnly)
	assert.False(t, strings.HasPrefix(cfg.Storage.Path, "~"))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DEPSCAN_SCAN_MODE", "")
	os.Unsetenv("DEPSCAN_SCAN_MODE")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DEPSCAN_SCAN_MODE=monthly\n"), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "monthly", cfg.Scan.Mode)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan: [unclosed"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Scan.Mode = "daily"
	cfg.Scan.ProgressEvery = 0
	cfg.Logging.Format = "xml"

	result := cfg.Validate(ValidationContextScan)
	assert.True(t, result.HasErrors())
	assert.Len(t, result.Errors, 3)
	assert.Contains(t, result.Error(), "scan.mode")
	assert.Error(t, result.Err())

	cfg = Default()
	cfg.Scan.Mode = "monthly"
	cfg.Scan.Scope = "everything"
	assert.Contains(t, cfg.Validate(ValidationContextScan).Error(), "scan.scope")

	cfg = Default()
	cfg.GitHub.PrivateOnly = true
	result = cfg.Validate(ValidationContextOrg)
	assert.Contains(t, result.Error(), "GITHUB_TOKEN is required")

	cfg = Default()
	result = cfg.Validate(ValidationContextOrg)
	assert.False(t, result.HasErrors())
	assert.Len(t, result.Warnings, 1)
	assert.NoError(t, result.Err())
}

func TestRedactedYAML(t *testing.T) {
	cfg := Default()
	cfg.GitHub.Token = "ghp_abcdefghijklmnop"

	data, err := cfg.Redacted().YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ghp_abcdefghijklmnop")
	assert.Equal(t, "ghp_abcdefghijklmnop", cfg.GitHub.Token, "original untouched")

	var back map[string]map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, "ghp_...mnop", back["github"]["token"])
}

func TestSaveRoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Scan.Mode = "monthly"
	cfg.Scan.Parallel = 4
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "monthly", loaded.Scan.Mode)
	assert.Equal(t, 4, loaded.Scan.Parallel)
}
