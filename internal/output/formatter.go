package output

import (
	"encoding/json"
	"io"
	"os"
	"time"
)

// Summary describes one finished repository scan
type Summary struct {
	Repository  string        `json:"repository"`
	Owner       string        `json:"owner,omitempty"`
	Output      string        `json:"output,omitempty"`
	Mode        string        `json:"mode"`
	Scope       string        `json:"scope"`
	Branch      string        `json:"branch,omitempty"`
	Commits     int           `json:"commits"`
	Files       int           `json:"files"`
	Imports     int           `json:"imports"`
	Excluded    int           `json:"excluded,omitempty"`
	Fallbacks   int           `json:"fallbacks,omitempty"`
	Unavailable int           `json:"unavailable,omitempty"`
	Skipped     int           `json:"skipped,omitempty"`
	CacheHits   int           `json:"cache_hits,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
	Error       string        `json:"error,omitempty"`
}

// Name is owner/repository for hosted sources, the bare repository otherwise
func (s *Summary) Name() string {
	if s.Owner == "" {
		return s.Repository
	}
	return s.Owner + "/" + s.Repository
}

// Failed reports whether the scan ended in an error
func (s *Summary) Failed() bool {
	return s.Error != ""
}

// Formatter renders scan summaries
type Formatter interface {
	Format(summaries []*Summary, w io.Writer) error
}

// VerbosityLevel determines output detail
type VerbosityLevel int

const (
	VerbosityQuiet    VerbosityLevel = iota // one line per repository
	VerbosityStandard                       // counters per repository
	VerbosityJSON                           // machine-readable
)

// NewFormatter creates the formatter for level
func NewFormatter(level VerbosityLevel) Formatter {
	switch level {
	case VerbosityQuiet:
		return &QuietFormatter{}
	case VerbosityJSON:
		return &JSONFormatter{}
	default:
		return &StandardFormatter{}
	}
}

// GetDefaultVerbosity picks a level from the environment
func GetDefaultVerbosity() VerbosityLevel {
	if os.Getenv("CI") == "true" {
		return VerbosityQuiet
	}
	return VerbosityStandard
}

// JSONFormatter writes the summaries as a JSON array
type JSONFormatter struct{}

func (f *JSONFormatter) Format(summaries []*Summary, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summaries)
}
