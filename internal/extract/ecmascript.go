package extract

import "regexp"

// Specifier literal: single or double quoted, no line breaks.
const quoted = `['"]([^'"\r\n]+)['"]`

var ecmaPatterns = []*regexp.Regexp{
	// import X from, import { X } from, import * as X from, import type { X } from
	regexp.MustCompile(`\bimport\s+[^;'"]*?\bfrom\s*` + quoted),
	// import "side-effect"
	regexp.MustCompile(`\bimport\s+` + quoted),
	// import("dynamic")
	regexp.MustCompile(`\bimport\s*\(\s*` + quoted + `\s*\)`),
	// require("x"), const x = require("x"), import x = require("x")
	regexp.MustCompile(`\brequire\s*\(\s*` + quoted + `\s*\)`),
}

// ECMAScript extracts specifiers from TypeScript and JavaScript sources:
// static, type-only, side-effect and dynamic imports plus CommonJS require.
type ECMAScript struct{}

func (ECMAScript) Extract(text string) []string {
	set := make(map[string]struct{})
	for _, re := range ecmaPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if m[1] != "" {
				set[m[1]] = struct{}{}
			}
		}
	}
	return sortedSet(set)
}
