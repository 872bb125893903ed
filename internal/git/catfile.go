package git

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// BlobReader streams object contents through one long-lived
// `git cat-file --batch` process. It is not safe for concurrent use.
type BlobReader struct {
	repo   *Repo
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	broken    bool
	closeOnce sync.Once
	closeErr  error
}

// Blob is a single object read through the batch protocol
type Blob struct {
	OID     string
	Content string
}

// NewBlobReader starts the cat-file process. Close must be called to reap it.
func (r *Repo) NewBlobReader(ctx context.Context) (*BlobReader, error) {
	args := append(append([]string{}, baseArgs...), "cat-file", "--batch")
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.path
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("cat-file stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("cat-file stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start cat-file: %w", err)
	}
	r.calls.Add(1)

	return &BlobReader{
		repo:   r,
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReaderSize(stdout, 64*1024),
	}, nil
}

// Read resolves spec (an object id or "<rev>:<path>") and returns the blob.
// ok is false when the object is missing or not a blob. A non-nil error means
// the process is unusable.
func (b *BlobReader) Read(spec string) (blob Blob, ok bool, err error) {
	if b.broken {
		return Blob{}, false, fmt.Errorf("cat-file process is no longer usable")
	}
	if strings.ContainsAny(spec, "\n") {
		return Blob{}, false, nil
	}

	if _, err := io.WriteString(b.stdin, spec+"\n"); err != nil {
		b.broken = true
		return Blob{}, false, fmt.Errorf("write cat-file request: %w", err)
	}

	header, err := b.stdout.ReadString('\n')
	if err != nil {
		b.broken = true
		return Blob{}, false, fmt.Errorf("read cat-file header: %w", err)
	}
	header = strings.TrimSuffix(header, "\n")

	// "<spec> missing" / "<spec> ambiguous"; spec may contain spaces
	if strings.HasSuffix(header, " missing") || strings.HasSuffix(header, " ambiguous") {
		return Blob{}, false, nil
	}

	fields := strings.Fields(header)
	if len(fields) != 3 || !isHexOID(fields[0]) {
		b.broken = true
		return Blob{}, false, fmt.Errorf("malformed cat-file header %q", header)
	}

	size, err := strconv.Atoi(fields[2])
	if err != nil || size < 0 {
		b.broken = true
		return Blob{}, false, fmt.Errorf("malformed cat-file header %q", header)
	}

	// Content is followed by a single LF.
	data := make([]byte, size+1)
	if _, err := io.ReadFull(b.stdout, data); err != nil {
		b.broken = true
		return Blob{}, false, fmt.Errorf("read cat-file content: %w", err)
	}

	if fields[1] != "blob" {
		return Blob{}, false, nil
	}
	return Blob{OID: fields[0], Content: Decode(data[:size])}, true, nil
}

func isHexOID(s string) bool {
	if len(s) != 40 && len(s) != 64 {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}

// FileContent mirrors Repo.FileContent. When the batch process fails it
// degrades to a per-file git show.
func (b *BlobReader) FileContent(ctx context.Context, sha, path string) (string, bool) {
	blob, ok, err := b.Read(sha + ":" + path)
	if err != nil {
		return b.repo.FileContent(ctx, sha, path)
	}
	return blob.Content, ok
}

// Close ends the cat-file process
func (b *BlobReader) Close() error {
	b.closeOnce.Do(func() {
		b.stdin.Close()
		b.closeErr = b.cmd.Wait()
	})
	return b.closeErr
}
