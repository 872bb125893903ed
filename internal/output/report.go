package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rohankatakam/depscan/internal/models"
)

var commitColumns = []string{
	"sha", "author_name", "author_email", "author_date", "subject",
	"branches", "issues", "additions", "deletions", "total_changes", "changed_files",
}

var repositoryColumns = []string{
	"name", "full_name", "clone_url", "default_branch", "private", "archived", "language", "size", "pushed_at",
}

// WriteCommitReport writes one CSV row per commit
func WriteCommitReport(path string, rows []models.CommitMeta) error {
	return writeAtomic(path, func(w io.Writer) error {
		return EncodeCommitReport(w, rows)
	})
}

// EncodeCommitReport writes the commit CSV to w. Branches and issues are
// joined with ';', changed files are embedded as a JSON array.
func EncodeCommitReport(w io.Writer, rows []models.CommitMeta) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(commitColumns); err != nil {
		return err
	}
	for _, row := range rows {
		files := row.ChangedFiles
		if files == nil {
			files = []models.ChangedFile{}
		}
		changed, err := json.Marshal(files)
		if err != nil {
			return fmt.Errorf("encode changed files of %s: %w", row.SHA, err)
		}
		record := []string{
			row.SHA,
			row.AuthorName,
			row.AuthorEmail,
			row.AuthorDate,
			row.Subject,
			strings.Join(row.Branches, ";"),
			strings.Join(row.Issues, ";"),
			strconv.Itoa(row.Additions),
			strconv.Itoa(row.Deletions),
			strconv.Itoa(row.TotalChanges()),
			string(changed),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRepositories writes the organisation repository listing as CSV
func WriteRepositories(path string, repos []models.Repository) error {
	return writeAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(repositoryColumns); err != nil {
			return err
		}
		for _, r := range repos {
			pushed := ""
			if !r.PushedAt.IsZero() {
				pushed = r.PushedAt.UTC().Format("2006-01-02T15:04:05Z")
			}
			err := cw.Write([]string{
				r.Name,
				r.FullName,
				r.CloneURL,
				r.DefaultBranch,
				strconv.FormatBool(r.Private),
				strconv.FormatBool(r.Archived),
				r.Language,
				strconv.Itoa(r.Size),
				pushed,
			})
			if err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}
