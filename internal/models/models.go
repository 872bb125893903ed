package models

import (
	"fmt"
	"time"
)

// ImportMap maps a file path to the distinct specifiers it imports. A file
// only appears when it imports something.
type ImportMap map[string][]string

// CommitRecord is the per-commit output unit. Field order fixes the JSON key
// order.
type CommitRecord struct {
	SHA               string    `json:"sha"`
	Files             []string  `json:"files"`
	TypeScriptImports ImportMap `json:"typescript_imports"`
	JavaScriptImports ImportMap `json:"javascript_imports"`
	SwiftImports      ImportMap `json:"swift_imports"`
}

// NewCommitRecord returns a record with every collection allocated
func NewCommitRecord(sha string, files []string) *CommitRecord {
	if files == nil {
		files = []string{}
	}
	return &CommitRecord{
		SHA:               sha,
		Files:             files,
		TypeScriptImports: ImportMap{},
		JavaScriptImports: ImportMap{},
		SwiftImports:      ImportMap{},
	}
}

// Validate checks the record's structural invariants
func (r *CommitRecord) Validate() error {
	if !isHex40(r.SHA) {
		return fmt.Errorf("invalid commit id %q", r.SHA)
	}
	if r.Files == nil {
		return fmt.Errorf("commit %s: files is nil", r.SHA)
	}
	maps := []struct {
		name string
		m    ImportMap
	}{
		{"typescript_imports", r.TypeScriptImports},
		{"javascript_imports", r.JavaScriptImports},
		{"swift_imports", r.SwiftImports},
	}
	for _, entry := range maps {
		if entry.m == nil {
			return fmt.Errorf("commit %s: %s is nil", r.SHA, entry.name)
		}
		for path, specs := range entry.m {
			if len(specs) == 0 {
				return fmt.Errorf("commit %s: %s has empty entry for %s", r.SHA, entry.name, path)
			}
		}
	}
	return nil
}

// ImportCount is the number of (file, specifier) pairs in the record
func (r *CommitRecord) ImportCount() int {
	n := 0
	for _, m := range []ImportMap{r.TypeScriptImports, r.JavaScriptImports, r.SwiftImports} {
		for _, specs := range m {
			n += len(specs)
		}
	}
	return n
}

func isHex40(s string) bool {
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

// Repository is a repository of an organisation as listed by GitHub
type Repository struct {
	Name          string    `json:"name" yaml:"name"`
	FullName      string    `json:"full_name" yaml:"full_name"`
	CloneURL      string    `json:"clone_url" yaml:"clone_url"`
	DefaultBranch string    `json:"default_branch" yaml:"default_branch"`
	Private       bool      `json:"private" yaml:"private"`
	Archived      bool      `json:"archived" yaml:"archived"`
	Language      string    `json:"language" yaml:"language"`
	Size          int       `json:"size" yaml:"size"`
	PushedAt      time.Time `json:"pushed_at" yaml:"pushed_at"`
}

// CommitMeta is one row of the commit report
type CommitMeta struct {
	SHA          string
	AuthorName   string
	AuthorEmail  string
	AuthorDate   string
	Subject      string
	Branches     []string
	Issues       []string
	Additions    int
	Deletions    int
	ChangedFiles []ChangedFile
}

// TotalChanges is additions plus deletions
func (m CommitMeta) TotalChanges() int {
	return m.Additions + m.Deletions
}

// ChangedFile is one file entry of a commit report row
type ChangedFile struct {
	Path      string `json:"path"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// RunStatus is the state of a scan run
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run describes one scan of one repository
type Run struct {
	ID         string     `json:"id" db:"id"`
	Repository string     `json:"repository" db:"repository"`
	Mode       string     `json:"mode" db:"mode"`
	Scope      string     `json:"scope" db:"scope"`
	Branch     string     `json:"branch" db:"branch"`
	Status     RunStatus  `json:"status" db:"status"`
	Commits    int        `json:"commits" db:"commits"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at" db:"finished_at"`
	Error      string     `json:"error" db:"error"`
}
