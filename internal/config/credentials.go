package config

import "os"

// TokenSource says where a credential came from
type TokenSource string

const (
	SourceEnv      TokenSource = "env"
	SourceKeychain TokenSource = "keychain"
	SourceConfig   TokenSource = "config"
	SourceNone     TokenSource = "none"
)

// Secure reports whether the source keeps the secret out of plaintext files
func (s TokenSource) Secure() bool {
	return s == SourceEnv || s == SourceKeychain
}

// CredentialManager resolves credentials with a priority chain:
// environment variable, then keychain, then config file.
type CredentialManager struct {
	keyring *KeyringManager
}

// NewCredentialManager creates a credential manager over km
func NewCredentialManager(km *KeyringManager) *CredentialManager {
	return &CredentialManager{keyring: km}
}

// GitHubToken returns the token to use and where it came from
func (cm *CredentialManager) GitHubToken(cfg *Config) (string, TokenSource) {
	if token := GetString("GITHUB_TOKEN", os.Getenv("GH_TOKEN")); token != "" {
		return token, SourceEnv
	}

	if cm.keyring != nil {
		if token, err := cm.keyring.GetGitHubToken(); err == nil && token != "" {
			return token, SourceKeychain
		}
	}

	if cfg != nil && cfg.GitHub.Token != "" {
		return cfg.GitHub.Token, SourceConfig
	}
	return "", SourceNone
}

// ResolveGitHubToken fills cfg.GitHub.Token from the priority chain
func (cm *CredentialManager) ResolveGitHubToken(cfg *Config) TokenSource {
	token, source := cm.GitHubToken(cfg)
	cfg.GitHub.Token = token
	return source
}
