package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"

	"golang.org/x/text/encoding/unicode"
)

// baseArgs forces UTF-8 log output and unquoted non-ASCII paths on every call.
var baseArgs = []string{"-c", "i18n.logOutputEncoding=UTF-8", "-c", "core.quotePath=false"}

// CommandError is returned whenever the git process exits non-zero.
// It carries the captured stderr so callers can surface the diagnostic.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s: %v", RedactSecrets(strings.Join(e.Args, " ")), e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + RedactSecrets(stderr)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Repo runs read-only queries against a local working copy.
type Repo struct {
	path  string
	calls atomic.Int64
}

// Open returns a Repo for path after checking that git recognises it.
func Open(ctx context.Context, path string) (*Repo, error) {
	r := &Repo{path: path}
	out, err := r.run(ctx, nil, "rev-parse", "--git-dir")
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return nil, fmt.Errorf("not a git repository: %s", path)
	}
	return r, nil
}

// Path returns the working copy location
func (r *Repo) Path() string {
	return r.path
}

// Invocations reports how many git processes this Repo has spawned.
func (r *Repo) Invocations() int64 {
	return r.calls.Load()
}

func (r *Repo) run(ctx context.Context, stdin io.Reader, args ...string) (string, error) {
	r.calls.Add(1)
	out, err := execGit(ctx, r.path, stdin, args...)
	if err != nil {
		return "", err
	}
	return Decode(out), nil
}

// execGit runs git in dir and returns raw stdout.
func execGit(ctx context.Context, dir string, stdin io.Reader, args ...string) ([]byte, error) {
	full := make([]string, 0, len(baseArgs)+len(args))
	full = append(full, baseArgs...)
	full = append(full, args...)

	cmd := exec.CommandContext(ctx, "git", full...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return nil, &CommandError{
			Args:     args,
			ExitCode: code,
			Stderr:   Decode(stderr.Bytes()),
			Err:      err,
		}
	}
	return stdout.Bytes(), nil
}

// Decode converts raw git output to UTF-8, replacing every invalid byte
// sequence with U+FFFD. It never fails.
func Decode(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}

// splitLines returns the non-empty, trimmed lines of out
func splitLines(out string) []string {
	var lines []string
	for _, ln := range strings.Split(out, "\n") {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			lines = append(lines, ln)
		}
	}
	return lines
}
