package git

import (
	"context"
	"strings"
)

// TreeEntry is one blob listed by ls-tree
type TreeEntry struct {
	Mode string
	Type string
	OID  string
	Path string
}

// ListFiles returns every path present at sha
func (r *Repo) ListFiles(ctx context.Context, sha string) ([]string, error) {
	out, err := r.run(ctx, nil, "ls-tree", "-r", "--name-only", sha)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// ListTree returns every entry at sha together with its object id.
// Lines that do not match the "<mode> <type> <oid>\t<path>" layout are dropped.
func (r *Repo) ListTree(ctx context.Context, sha string) ([]TreeEntry, error) {
	out, err := r.run(ctx, nil, "ls-tree", "-r", sha)
	if err != nil {
		return nil, err
	}

	var entries []TreeEntry
	for _, line := range strings.Split(out, "\n") {
		meta, path, ok := strings.Cut(line, "\t")
		if !ok || path == "" {
			continue
		}
		fields := strings.Fields(meta)
		if len(fields) != 3 {
			continue
		}
		entries = append(entries, TreeEntry{
			Mode: fields[0],
			Type: fields[1],
			OID:  fields[2],
			Path: path,
		})
	}
	return entries, nil
}

// FileContent returns the text of path at sha. A file that does not exist or
// cannot be read yields ("", false) rather than an error.
func (r *Repo) FileContent(ctx context.Context, sha, path string) (string, bool) {
	out, err := r.run(ctx, nil, "show", sha+":"+path)
	if err != nil {
		return "", false
	}
	return out, true
}
