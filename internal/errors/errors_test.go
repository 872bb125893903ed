package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("exit status 128")
	err := GitError(cause, "bulk file listing failed")

	assert.Equal(t, "bulk file listing failed: exit status 128", err.Error())
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, ErrorTypeGit, GetType(err))
	assert.Equal(t, SeverityHigh, GetSeverity(err))
	assert.False(t, IsFatal(err))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeGit, SeverityHigh, "unused"))
}

func TestIsFatalThroughWrapping(t *testing.T) {
	err := fmt.Errorf("loading: %w", ConfigErrorf("config file %s unreadable", "x.yaml"))
	assert.True(t, IsFatal(err))
	assert.Equal(t, ErrorTypeConfig, GetType(err))
}

func TestIsMatchesType(t *testing.T) {
	err := ValidationError("bad mode")
	assert.True(t, stderrors.Is(err, &Error{Type: ErrorTypeValidation}))
	assert.False(t, stderrors.Is(err, &Error{Type: ErrorTypeGit}))
}

func TestDetailedStringSortsContext(t *testing.T) {
	err := ExtractionError(fmt.Errorf("boom"), "extractor panicked").
		WithContext("path", "src/a.ts").
		WithContext("lang", "typescript")
	err.StackTrace = ""

	out := err.DetailedString()
	assert.Contains(t, out, "[LOW] [EXTRACTION] extractor panicked")
	assert.Contains(t, out, "Caused by: boom")
	assert.Less(t, strings.Index(out, "lang:"), strings.Index(out, "path:"))
}
