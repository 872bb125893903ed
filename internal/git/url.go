package git

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	httpsRegex  = regexp.MustCompile(`https?://(?:[^@/]+@)?[^/]+/([^/]+)/([^/]+)`)
	sshRegex    = regexp.MustCompile(`git@[^:]+:([^/]+)/([^/]+)`)
	gitRegex    = regexp.MustCompile(`git://[^/]+/([^/]+)/([^/]+)`)
	secretRegex = regexp.MustCompile(`(https?://)[^/@\s]+@`)
)

// ParseRepoURL extracts owner and repo name from a remote URL
// Supports multiple URL formats:
//   - HTTPS: https://github.com/owner/repo.git
//   - SSH: git@github.com:owner/repo.git
//   - Git protocol: git://github.com/owner/repo.git
func ParseRepoURL(remoteURL string) (owner, repo string, err error) {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(strings.TrimSpace(remoteURL), "/"), ".git")

	for _, re := range []*regexp.Regexp{httpsRegex, sshRegex, gitRegex} {
		if matches := re.FindStringSubmatch(trimmed); len(matches) == 3 {
			return matches[1], matches[2], nil
		}
	}

	return "", "", fmt.Errorf("unrecognized git URL format: %s", RedactSecrets(remoteURL))
}

// RepoName returns the last path element of a clone URL or local path, without ".git".
func RepoName(source string) string {
	name := strings.TrimRight(strings.TrimSpace(source), "/")
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, ".git")
}

// AuthURL embeds a bearer token into an https clone URL. Other schemes are
// returned unchanged.
func AuthURL(cloneURL, token string) string {
	if token == "" || !strings.HasPrefix(cloneURL, "https://") {
		return cloneURL
	}
	return strings.Replace(cloneURL, "https://", "https://"+token+"@", 1)
}

// RedactSecrets masks credentials embedded in URLs.
func RedactSecrets(s string) string {
	return secretRegex.ReplaceAllString(s, "${1}***@")
}
