package git

import (
	"context"
	"strings"
)

// Bulk queries feed commit ids on stdin so a single git process covers any
// number of commits without hitting argument length limits.

func revStdin(shas []string) *strings.Reader {
	return strings.NewReader(strings.Join(shas, "\n") + "\n")
}

// LogFileLists returns the files changed by each commit in one git log call.
// Paths rejected by keep are dropped while parsing.
func (r *Repo) LogFileLists(ctx context.Context, shas []string, keep func(string) bool) (map[string][]string, error) {
	result := make(map[string][]string, len(shas))
	if len(shas) == 0 {
		return result, nil
	}

	out, err := r.run(ctx, revStdin(shas), "log", "--no-walk", "--stdin", "--name-only", "--format=%H")
	if err != nil {
		return nil, err
	}
	for _, sec := range ParseSections(out) {
		result[sec.SHA] = filterPaths(sec.Lines, keep)
	}
	return result, nil
}

// CommitFiles is the single-commit equivalent of LogFileLists. found is false
// when git printed no section for sha.
func (r *Repo) CommitFiles(ctx context.Context, sha string, keep func(string) bool) (files []string, found bool, err error) {
	out, err := r.run(ctx, nil, "log", "-1", "--name-only", "--format=%H", sha)
	if err != nil {
		return nil, false, err
	}
	for _, sec := range ParseSections(out) {
		if sec.SHA == sha {
			return filterPaths(sec.Lines, keep), true, nil
		}
	}
	return nil, false, nil
}

// LogNumStat returns per-file line counts for each commit. skipped counts data
// lines with the wrong column layout.
func (r *Repo) LogNumStat(ctx context.Context, shas []string) (stats map[string][]FileStat, skipped int, err error) {
	stats = make(map[string][]FileStat, len(shas))
	if len(shas) == 0 {
		return stats, 0, nil
	}

	out, err := r.run(ctx, revStdin(shas), "log", "--no-walk", "--stdin", "--numstat", "--format=%H")
	if err != nil {
		return nil, 0, err
	}
	for _, sec := range ParseSections(out) {
		list := make([]FileStat, 0, len(sec.Lines))
		for _, line := range sec.Lines {
			st, ok := parseNumStatLine(line)
			if !ok {
				skipped++
				continue
			}
			list = append(list, st)
		}
		stats[sec.SHA] = list
	}
	return stats, skipped, nil
}

// LogNameStatus returns per-file change status for each commit
func (r *Repo) LogNameStatus(ctx context.Context, shas []string) (changes map[string][]FileChange, skipped int, err error) {
	changes = make(map[string][]FileChange, len(shas))
	if len(shas) == 0 {
		return changes, 0, nil
	}

	out, err := r.run(ctx, revStdin(shas), "log", "--no-walk", "--stdin", "--name-status", "--format=%H")
	if err != nil {
		return nil, 0, err
	}
	for _, sec := range ParseSections(out) {
		list := make([]FileChange, 0, len(sec.Lines))
		for _, line := range sec.Lines {
			ch, ok := parseNameStatusLine(line)
			if !ok {
				skipped++
				continue
			}
			list = append(list, ch)
		}
		changes[sec.SHA] = list
	}
	return changes, skipped, nil
}

// LogHeaders returns author metadata for each commit
func (r *Repo) LogHeaders(ctx context.Context, shas []string) (map[string]CommitHeader, error) {
	headers := make(map[string]CommitHeader, len(shas))
	if len(shas) == 0 {
		return headers, nil
	}

	out, err := r.run(ctx, revStdin(shas), "log", "--no-walk", "--stdin", headerFormat)
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(out, "\n") {
		if h, ok := parseHeaderLine(strings.TrimRight(line, "\r")); ok {
			headers[h.SHA] = h
		}
	}
	return headers, nil
}

func filterPaths(lines []string, keep func(string) bool) []string {
	files := make([]string, 0, len(lines))
	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		if keep != nil && !keep(ln) {
			continue
		}
		files = append(files, ln)
	}
	return files
}
