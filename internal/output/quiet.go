package output

import (
	"fmt"
	"io"
)

// QuietFormatter outputs one line per repository
type QuietFormatter struct{}

func (f *QuietFormatter) Format(summaries []*Summary, w io.Writer) error {
	for _, s := range summaries {
		if s.Failed() {
			fmt.Fprintf(w, "✗ %s: %s\n", s.Name(), s.Error)
			continue
		}
		fmt.Fprintf(w, "✓ %s: %d commits -> %s\n", s.Name(), s.Commits, s.Output)
	}
	return nil
}
