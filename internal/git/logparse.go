package git

import (
	"strconv"
	"strings"
)

// FileStat is one numstat line: lines added and deleted in a file
type FileStat struct {
	Path      string
	Additions int
	Deletions int
}

// FileChange is one name-status line
type FileChange struct {
	Status string
	Path   string
	// OldPath is set for renames and copies
	OldPath string
}

// Section is the block of output belonging to one commit in a multi-commit log.
type Section struct {
	SHA   string
	Lines []string
}

// IsCommitID reports whether s is exactly 40 lowercase hex characters.
func IsCommitID(s string) bool {
	if len(s) != 40 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// ParseSections splits interleaved multi-commit output. A line consisting of
// exactly one commit id opens a section; blank lines are dropped and lines
// before the first header are ignored.
func ParseSections(out string) []Section {
	var sections []Section
	for _, raw := range strings.Split(out, "\n") {
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if IsCommitID(strings.TrimSpace(line)) {
			sections = append(sections, Section{SHA: strings.TrimSpace(line)})
			continue
		}
		if len(sections) == 0 {
			continue
		}
		cur := &sections[len(sections)-1]
		cur.Lines = append(cur.Lines, line)
	}
	return sections
}

// parseNumStatLine parses "<adds>\t<dels>\t<path>". Binary files report "-"
// and count as zero.
func parseNumStatLine(line string) (FileStat, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) != 3 || parts[2] == "" {
		return FileStat{}, false
	}
	return FileStat{
		Path:      resolveRenamePath(parts[2]),
		Additions: atoiOrZero(parts[0]),
		Deletions: atoiOrZero(parts[1]),
	}, true
}

// parseNameStatusLine parses "<status>\t<path>" or "<status>\t<old>\t<new>".
func parseNameStatusLine(line string) (FileChange, bool) {
	parts := strings.Split(line, "\t")
	switch {
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return FileChange{Status: parts[0][:1], Path: parts[1]}, true
	case len(parts) == 3 && parts[0] != "" && parts[2] != "":
		return FileChange{Status: parts[0][:1], Path: parts[2], OldPath: parts[1]}, true
	default:
		return FileChange{}, false
	}
}

// resolveRenamePath turns numstat rename notation into the new path:
// "a/{old => new}/b" becomes "a/new/b" and "old => new" becomes "new".
func resolveRenamePath(p string) string {
	if !strings.Contains(p, " => ") {
		return p
	}
	open := strings.Index(p, "{")
	closing := strings.LastIndex(p, "}")
	if open >= 0 && closing > open {
		inner := p[open+1 : closing]
		_, newPart, _ := strings.Cut(inner, " => ")
		joined := p[:open] + newPart + p[closing+1:]
		return strings.ReplaceAll(joined, "//", "/")
	}
	_, newPath, _ := strings.Cut(p, " => ")
	return newPath
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
