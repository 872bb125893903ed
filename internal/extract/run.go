package extract

import (
	"fmt"
	"runtime/debug"
)

// SkipError records a file whose extraction failed. The file contributes no
// specifiers and the run continues.
type SkipError struct {
	Language Language
	Reason   string
	Stack    string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("%s extraction skipped: %s", e.Language, e.Reason)
}

// Result is the outcome of extracting one file
type Result struct {
	Specifiers []string
	Skipped    *SkipError
}

// Runner applies a Registry with skip-and-count semantics.
type Runner struct {
	Registry Registry
	// Strict re-raises extractor panics instead of converting them to skips,
	// so programming errors surface in tests and development builds.
	Strict bool
}

// NewRunner returns a Runner over the default extractors
func NewRunner(strict bool) *Runner {
	return &Runner{Registry: DefaultRegistry(), Strict: strict}
}

// Run extracts specifiers from text. A language without an extractor yields an
// empty result.
func (r *Runner) Run(lang Language, text string) (res Result) {
	ex, ok := r.Registry[lang]
	if !ok {
		return Result{Skipped: &SkipError{Language: lang, Reason: "no extractor registered"}}
	}

	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if r.Strict {
			panic(rec)
		}
		res = Result{Skipped: &SkipError{
			Language: lang,
			Reason:   fmt.Sprint(rec),
			Stack:    string(debug.Stack()),
		}}
	}()

	return Result{Specifiers: ex.Extract(text)}
}
