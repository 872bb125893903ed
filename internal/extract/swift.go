package extract

import (
	"regexp"
	"strings"
)

// swiftImport matches one import declaration at the start of a statement.
// Leading attributes (@testable, @_exported, @preconcurrency, ...) and the
// declaration kind of a scoped import are consumed but not captured.
var swiftImport = regexp.MustCompile(
	`^\s*(?:@[A-Za-z_][A-Za-z0-9_]*(?:\([^)]*\))?\s+)*` +
		`import\s+` +
		`(?:(?:typealias|struct|class|enum|protocol|let|var|func)\s+)?` +
		`([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)`)

// SwiftImports extracts module paths from Swift sources. Several imports on
// one line separated by ';' are all reported.
type SwiftImports struct{}

func (SwiftImports) Extract(text string) []string {
	set := make(map[string]struct{})
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, "import") {
			continue
		}
		for _, stmt := range strings.Split(line, ";") {
			if m := swiftImport.FindStringSubmatch(stmt); m != nil {
				set[m[1]] = struct{}{}
			}
		}
	}
	return sortedSet(set)
}
