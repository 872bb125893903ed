// Package extract finds module specifiers in source text with per-language
// pattern sets. It does not parse; specifiers are whatever string literal a
// pattern captures.
package extract

import (
	"path"
	"sort"
	"strings"
)

// Language identifies a supported source family
type Language string

const (
	TypeScript Language = "typescript"
	JavaScript Language = "javascript"
	Swift      Language = "swift"
)

// Languages lists every supported family in output order
var Languages = []Language{TypeScript, JavaScript, Swift}

var suffixes = map[string]Language{
	".ts":    TypeScript,
	".tsx":   TypeScript,
	".mts":   TypeScript,
	".cts":   TypeScript,
	".js":    JavaScript,
	".jsx":   JavaScript,
	".mjs":   JavaScript,
	".cjs":   JavaScript,
	".swift": Swift,
}

// Classify maps a file path to its language by suffix, case-insensitively.
func Classify(filePath string) (Language, bool) {
	lang, ok := suffixes[strings.ToLower(path.Ext(filePath))]
	return lang, ok
}

// IsSource reports whether Classify accepts filePath
func IsSource(filePath string) bool {
	_, ok := Classify(filePath)
	return ok
}

// Extractor turns raw file text into the distinct specifiers it imports,
// sorted lexicographically.
type Extractor interface {
	Extract(text string) []string
}

// ExtractorFunc adapts a function to Extractor
type ExtractorFunc func(text string) []string

func (f ExtractorFunc) Extract(text string) []string { return f(text) }

// PatternVersion is bumped whenever the default extractors can return
// different specifiers for the same text. Persistent caches are keyed by it.
const PatternVersion = 1

// Registry selects the extractor for each language
type Registry map[Language]Extractor

// DefaultRegistry returns the pattern-based extractors
func DefaultRegistry() Registry {
	return Registry{
		TypeScript: ECMAScript{},
		JavaScript: ECMAScript{},
		Swift:      SwiftImports{},
	}
}

// sortedSet returns the keys of set in lexicographic order
func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
