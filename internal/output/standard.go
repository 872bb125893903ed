package output

import (
	"fmt"
	"io"
	"time"
)

// StandardFormatter prints counters for each repository and a failure list
type StandardFormatter struct{}

func (f *StandardFormatter) Format(summaries []*Summary, w io.Writer) error {
	var failed []*Summary
	for _, s := range summaries {
		if s.Failed() {
			failed = append(failed, s)
			continue
		}

		fmt.Fprintf(w, "%s (%s", s.Name(), s.Mode)
		if s.Branch != "" {
			fmt.Fprintf(w, ", branch %s", s.Branch)
		}
		fmt.Fprintf(w, ", %s scope)\n", s.Scope)
		fmt.Fprintf(w, "  commits:  %d\n", s.Commits)
		fmt.Fprintf(w, "  files:    %d\n", s.Files)
		fmt.Fprintf(w, "  imports:  %d\n", s.Imports)
		if s.Excluded > 0 {
			fmt.Fprintf(w, "  excluded: %d (unparsable author date)\n", s.Excluded)
		}
		if s.Fallbacks > 0 {
			fmt.Fprintf(w, "  fallbacks: %d\n", s.Fallbacks)
		}
		if s.Unavailable > 0 || s.Skipped > 0 {
			fmt.Fprintf(w, "  unavailable files: %d, skipped extractions: %d\n", s.Unavailable, s.Skipped)
		}
		if s.CacheHits > 0 {
			fmt.Fprintf(w, "  cache hits: %d\n", s.CacheHits)
		}
		fmt.Fprintf(w, "  took %s, wrote %s\n\n", s.Duration.Round(time.Millisecond), s.Output)
	}

	if len(failed) > 0 {
		fmt.Fprintf(w, "Failed repositories (%d):\n", len(failed))
		for _, s := range failed {
			fmt.Fprintf(w, "- %s: %s\n", s.Name(), s.Error)
		}
	}
	return nil
}
