package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{
			name:      "HTTPS with .git",
			url:       "https://github.com/acme/mobile-app.git",
			wantOwner: "acme",
			wantRepo:  "mobile-app",
		},
		{
			name:      "HTTPS without .git",
			url:       "https://github.com/acme/mobile-app",
			wantOwner: "acme",
			wantRepo:  "mobile-app",
		},
		{
			name:      "HTTPS with embedded token",
			url:       "https://ghp_secret@github.com/acme/mobile-app.git",
			wantOwner: "acme",
			wantRepo:  "mobile-app",
		},
		{
			name:      "SSH format",
			url:       "git@github.com:acme/mobile-app.git",
			wantOwner: "acme",
			wantRepo:  "mobile-app",
		},
		{
			name:      "Git protocol",
			url:       "git://github.com/acme/mobile-app.git",
			wantOwner: "acme",
			wantRepo:  "mobile-app",
		},
		{
			name:    "Invalid URL",
			url:     "not-a-url",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ParseRepoURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}

func TestRepoName(t *testing.T) {
	assert.Equal(t, "mobile-app", RepoName("https://github.com/acme/mobile-app.git"))
	assert.Equal(t, "mobile-app", RepoName("https://github.com/acme/mobile-app/"))
	assert.Equal(t, "mobile-app", RepoName("git@github.com:acme/mobile-app.git"))
	assert.Equal(t, "checkout", RepoName("/tmp/work/checkout"))
}

func TestAuthURL(t *testing.T) {
	assert.Equal(t, "https://tok@github.com/acme/app.git", AuthURL("https://github.com/acme/app.git", "tok"))
	assert.Equal(t, "https://github.com/acme/app.git", AuthURL("https://github.com/acme/app.git", ""))
	assert.Equal(t, "git@github.com:acme/app.git", AuthURL("git@github.com:acme/app.git", "tok"))
}

func TestRedactSecrets(t *testing.T) {
	msg := "clone https://ghp_abc123@github.com/acme/app.git failed"
	assert.Equal(t, "clone https://***@github.com/acme/app.git failed", RedactSecrets(msg))
	assert.Equal(t, "no secrets here", RedactSecrets("no secrets here"))
}

func TestCommandErrorRedactsToken(t *testing.T) {
	err := &CommandError{
		Args:     []string{"clone", "https://ghp_abc123@github.com/acme/app.git"},
		ExitCode: 128,
		Stderr:   "fatal: could not read from https://ghp_abc123@github.com/acme/app.git\n",
		Err:      assert.AnError,
	}
	assert.NotContains(t, err.Error(), "ghp_abc123")
	assert.Contains(t, err.Error(), "fatal: could not read")
}
