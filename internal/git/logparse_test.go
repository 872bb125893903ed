package git

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	shaA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	shaB = "0123456789abcdef0123456789abcdef01234567"
)

func TestIsCommitID(t *testing.T) {
	assert.True(t, IsCommitID(shaA))
	assert.True(t, IsCommitID(shaB))
	assert.False(t, IsCommitID(shaA[:39]))
	assert.False(t, IsCommitID(shaA+"a"))
	assert.False(t, IsCommitID(strings.ToUpper(shaB)))
	assert.False(t, IsCommitID("src/aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"))
}

func TestParseSections(t *testing.T) {
	out := strings.Join([]string{
		"garbage before any header",
		shaA,
		"",
		"src/a.ts",
		"README.md",
		shaB,
		"",
		"App.swift",
		"",
	}, "\n")

	sections := ParseSections(out)
	require.Len(t, sections, 2)
	assert.Equal(t, shaA, sections[0].SHA)
	assert.Equal(t, []string{"src/a.ts", "README.md"}, sections[0].Lines)
	assert.Equal(t, shaB, sections[1].SHA)
	assert.Equal(t, []string{"App.swift"}, sections[1].Lines)
}

func TestParseSectionsEmptyCommit(t *testing.T) {
	sections := ParseSections(shaA + "\n" + shaB + "\n\nx.js\n")
	require.Len(t, sections, 2)
	assert.Empty(t, sections[0].Lines)
	assert.Equal(t, []string{"x.js"}, sections[1].Lines)
}

func TestParseNumStatLine(t *testing.T) {
	st, ok := parseNumStatLine("12\t3\tsrc/index.ts")
	require.True(t, ok)
	assert.Equal(t, FileStat{Path: "src/index.ts", Additions: 12, Deletions: 3}, st)

	st, ok = parseNumStatLine("-\t-\tassets/logo.png")
	require.True(t, ok)
	assert.Equal(t, 0, st.Additions)
	assert.Equal(t, 0, st.Deletions)

	st, ok = parseNumStatLine("1\t1\tsrc/{old => new}/a.ts")
	require.True(t, ok)
	assert.Equal(t, "src/new/a.ts", st.Path)

	_, ok = parseNumStatLine("12\tsrc/index.ts")
	assert.False(t, ok)
	_, ok = parseNumStatLine("not a numstat line")
	assert.False(t, ok)
}

func TestParseNameStatusLine(t *testing.T) {
	ch, ok := parseNameStatusLine("M\tsrc/index.ts")
	require.True(t, ok)
	assert.Equal(t, FileChange{Status: "M", Path: "src/index.ts"}, ch)

	ch, ok = parseNameStatusLine("R087\tsrc/old.ts\tsrc/new.ts")
	require.True(t, ok)
	assert.Equal(t, FileChange{Status: "R", Path: "src/new.ts", OldPath: "src/old.ts"}, ch)

	_, ok = parseNameStatusLine("M")
	assert.False(t, ok)
	_, ok = parseNameStatusLine("A\tb\tc\td")
	assert.False(t, ok)
}

func TestResolveRenamePath(t *testing.T) {
	assert.Equal(t, "plain.ts", resolveRenamePath("plain.ts"))
	assert.Equal(t, "b.ts", resolveRenamePath("a.ts => b.ts"))
	assert.Equal(t, "src/b/x.ts", resolveRenamePath("src/{a => b}/x.ts"))
	assert.Equal(t, "src/x.ts", resolveRenamePath("src/{a => }/x.ts"))
}

func TestDecodeReplacesInvalidBytes(t *testing.T) {
	raw := []byte("import x from \"ok\";\n\xff\xfe garbage\nrequire('y')")
	text := Decode(raw)
	assert.Contains(t, text, "�")
	assert.Contains(t, text, `import x from "ok";`)
	assert.Contains(t, text, "require('y')")
}
