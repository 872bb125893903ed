package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings
type Config struct {
	GitHub  GitHubConfig  `yaml:"github" mapstructure:"github"`
	Scan    ScanConfig    `yaml:"scan" mapstructure:"scan"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

type GitHubConfig struct {
	Token       string  `yaml:"token" mapstructure:"token"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // Requests per second
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`     // GitHub Enterprise API root
	PrivateOnly bool    `yaml:"private_only" mapstructure:"private_only"`
}

type ScanConfig struct {
	Mode          string `yaml:"mode" mapstructure:"mode"` // "all", "weekly", "monthly"
	Branch        string `yaml:"branch" mapstructure:"branch"`
	Limit         int    `yaml:"limit" mapstructure:"limit"`
	Scope         string `yaml:"scope" mapstructure:"scope"` // "changed", "snapshot", "" for the mode default
	WorkDir       string `yaml:"workdir" mapstructure:"workdir"`
	ProgressEvery int    `yaml:"progress_every" mapstructure:"progress_every"`
	Strict        bool   `yaml:"strict" mapstructure:"strict"`
	Parallel      int    `yaml:"parallel" mapstructure:"parallel"` // Repositories scanned at once in org mode
}

type OutputConfig struct {
	Directory string `yaml:"directory" mapstructure:"directory"`
}

type CacheConfig struct {
	Enabled       bool   `yaml:"enabled" mapstructure:"enabled"`
	Path          string `yaml:"path" mapstructure:"path"` // bbolt file, empty for memory only
	MemoryEntries int    `yaml:"memory_entries" mapstructure:"memory_entries"`
}

type StorageConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // SQLite file, empty disables the sink
}

type LoggingConfig struct {
	Level     string `yaml:"level" mapstructure:"level"`
	Format    string `yaml:"format" mapstructure:"format"` // "text", "json"
	File      string `yaml:"file" mapstructure:"file"`
	MaxSizeMB int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		GitHub: GitHubConfig{
			RateLimit: 10,
		},
		Scan: ScanConfig{
			Mode:          "all",
			WorkDir:       filepath.Join(homeDir, ".depscan", "repos"),
			ProgressEvery: 500,
			Parallel:      1,
		},
		Output: OutputConfig{
			Directory: ".",
		},
		Cache: CacheConfig{
			Enabled:       true,
			MemoryEntries: 50000,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			MaxSizeMB: 10,
		},
	}
}

// Load reads configuration from path, or from the standard locations when
// path is empty. Precedence: environment, config file, defaults.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	setDefaults(v, cfg)

	v.SetEnvPrefix("DEPSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".depscan")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".depscan"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.Scan.WorkDir = expandPath(cfg.Scan.WorkDir)
	cfg.Cache.Path = expandPath(cfg.Cache.Path)
	cfg.Storage.Path = expandPath(cfg.Storage.Path)
	cfg.Logging.File = expandPath(cfg.Logging.File)

	return cfg, nil
}

// setDefaults registers every leaf key so AutomaticEnv can see it
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("github.token", cfg.GitHub.Token)
	v.SetDefault("github.rate_limit", cfg.GitHub.RateLimit)
	v.SetDefault("github.base_url", cfg.GitHub.BaseURL)
	v.SetDefault("github.private_only", cfg.GitHub.PrivateOnly)

	v.SetDefault("scan.mode", cfg.Scan.Mode)
	v.SetDefault("scan.branch", cfg.Scan.Branch)
	v.SetDefault("scan.limit", cfg.Scan.Limit)
	v.SetDefault("scan.scope", cfg.Scan.Scope)
	v.SetDefault("scan.workdir", cfg.Scan.WorkDir)
	v.SetDefault("scan.progress_every", cfg.Scan.ProgressEvery)
	v.SetDefault("scan.strict", cfg.Scan.Strict)
	v.SetDefault("scan.parallel", cfg.Scan.Parallel)

	v.SetDefault("output.directory", cfg.Output.Directory)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.path", cfg.Cache.Path)
	v.SetDefault("cache.memory_entries", cfg.Cache.MemoryEntries)

	v.SetDefault("storage.path", cfg.Storage.Path)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.max_size_mb", cfg.Logging.MaxSizeMB)
}

// applyEnvOverrides applies the unprefixed variables other tools already set
func applyEnvOverrides(cfg *Config) {
	if rate := GetFloat("GITHUB_RATE_LIMIT", 0); rate > 0 {
		cfg.GitHub.RateLimit = rate
	}
	if url := os.Getenv("GITHUB_API_URL"); url != "" && cfg.GitHub.BaseURL == "" {
		cfg.GitHub.BaseURL = url
	}
	if dir := os.Getenv("DEPSCAN_WORKDIR"); dir != "" {
		cfg.Scan.WorkDir = dir
	}
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Redacted returns a copy safe to print
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.GitHub.Token != "" {
		cp.GitHub.Token = MaskToken(cp.GitHub.Token)
	}
	return &cp
}

// YAML renders the configuration as a YAML document
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Save writes the configuration to path as YAML
func (c *Config) Save(path string) error {
	data, err := c.YAML()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
