package scan

import (
	"bytes"
	"context"
	"testing"

	"github.com/rohankatakam/depscan/internal/cache"
	errs "github.com/rohankatakam/depscan/internal/errors"
	"github.com/rohankatakam/depscan/internal/extract"
	"github.com/rohankatakam/depscan/internal/git"
	"github.com/rohankatakam/depscan/internal/git/gittest"
	"github.com/rohankatakam/depscan/internal/models"
	"github.com/rohankatakam/depscan/internal/output"
	"github.com/rohankatakam/depscan/internal/sampling"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo           *git.Repo
	c1, c2, c3, c4 string
}

func newFixture(t *testing.T) *fixture {
	fx := gittest.New(t)
	f := &fixture{}
	f.c1 = fx.Commit("2024-01-02T10:00:00+00:00", "init", map[string]string{
		"src/a.ts":  "import { a } from \"pkg1\";\nimport b from \"pkg2\"\nconst c = require(\"pkg3\")\n",
		"README.md": "# readme\n",
	})
	f.c2 = fx.Commit("2024-01-20T10:00:00+00:00", "swift", map[string]string{
		"App/Main.swift": "import Foundation\n@testable import MyModule\n",
		"web/app.js":     "export const x = 1\n",
	})
	fx.WriteFile("src/bad.ts", []byte("\xff\xfeimport x from 'valid'\n\xc3(\n"))
	f.c3 = fx.Commit("2024-02-03T10:00:00+00:00", "bad bytes", nil)
	fx.Remove("src/a.ts")
	f.c4 = fx.Commit("2024-02-10T10:00:00+00:00", "remove a", nil)

	repo, err := git.Open(context.Background(), fx.Path)
	require.NoError(t, err)
	f.repo = repo
	return f
}

func bySHA(records []*models.CommitRecord) map[string]*models.CommitRecord {
	m := make(map[string]*models.CommitRecord, len(records))
	for _, r := range records {
		m[r.SHA] = r
	}
	return m
}

func TestChangedScopeAllCommits(t *testing.T) {
	f := newFixture(t)

	res, err := Run(context.Background(), f.repo, Options{Mode: sampling.ModeAll}, nil)
	require.NoError(t, err)
	assert.Equal(t, ScopeChanged, res.Scope)

	var order []string
	for _, r := range res.Records {
		require.NoError(t, r.Validate())
		order = append(order, r.SHA)
	}
	assert.Equal(t, []string{f.c4, f.c3, f.c2, f.c1}, order)

	recs := bySHA(res.Records)

	c1 := recs[f.c1]
	assert.Equal(t, []string{"src/a.ts"}, c1.Files, "non-source files are filtered")
	assert.Equal(t, models.ImportMap{"src/a.ts": {"pkg1", "pkg2", "pkg3"}}, c1.TypeScriptImports)
	assert.Empty(t, c1.SwiftImports)

	c2 := recs[f.c2]
	assert.ElementsMatch(t, []string{"App/Main.swift", "web/app.js"}, c2.Files)
	assert.Equal(t, models.ImportMap{"App/Main.swift": {"Foundation", "MyModule"}}, c2.SwiftImports)
	assert.NotNil(t, c2.JavaScriptImports)
	assert.Empty(t, c2.JavaScriptImports, "files without imports are omitted")

	c3 := recs[f.c3]
	assert.Equal(t, models.ImportMap{"src/bad.ts": {"valid"}}, c3.TypeScriptImports)

	c4 := recs[f.c4]
	assert.Equal(t, []string{"src/a.ts"}, c4.Files)
	assert.Empty(t, c4.TypeScriptImports)

	assert.Equal(t, 1, res.Stats.Unavailable, "deleted file has no content")
	assert.Equal(t, 0, res.Stats.Fallbacks)
	assert.Equal(t, 4, res.Stats.Commits)
	assert.Equal(t, 6, res.Stats.Imports)
}

func TestSnapshotScopeMonthly(t *testing.T) {
	f := newFixture(t)

	res, err := Run(context.Background(), f.repo, Options{Mode: sampling.ModeMonthly}, nil)
	require.NoError(t, err)
	assert.Equal(t, ScopeSnapshot, res.Scope)
	require.Len(t, res.Records, 2)

	feb, jan := res.Records[0], res.Records[1]
	assert.Equal(t, f.c4, feb.SHA)
	assert.Equal(t, f.c2, jan.SHA)

	assert.Equal(t, []string{"App/Main.swift", "README.md", "src/a.ts", "web/app.js"}, jan.Files)
	assert.Equal(t, models.ImportMap{"src/a.ts": {"pkg1", "pkg2", "pkg3"}}, jan.TypeScriptImports)
	assert.Equal(t, models.ImportMap{"App/Main.swift": {"Foundation", "MyModule"}}, jan.SwiftImports)

	assert.Equal(t, []string{"App/Main.swift", "README.md", "src/bad.ts", "web/app.js"}, feb.Files)
	assert.Equal(t, models.ImportMap{"src/bad.ts": {"valid"}}, feb.TypeScriptImports)
	assert.Equal(t, 0, res.Stats.Unavailable)
}

func TestRunsAreDeterministic(t *testing.T) {
	f := newFixture(t)

	for _, mode := range []sampling.Mode{sampling.ModeAll, sampling.ModeWeekly, sampling.ModeMonthly} {
		var docs [2]bytes.Buffer
		for i := range docs {
			res, err := Run(context.Background(), f.repo, Options{Mode: mode}, nil)
			require.NoError(t, err)
			require.NoError(t, output.EncodeRecords(&docs[i], res.Records))
		}
		assert.Equal(t, docs[0].String(), docs[1].String(), string(mode))
	}
}

func TestSnapshotUsesCache(t *testing.T) {
	f := newFixture(t)
	mgr, err := cache.NewManager(100, nil, nil)
	require.NoError(t, err)

	first, err := Run(context.Background(), f.repo, Options{Mode: sampling.ModeWeekly, Cache: mgr}, nil)
	require.NoError(t, err)
	// Unchanged blobs (src/a.ts, App/Main.swift) repeat across weekly snapshots.
	assert.Greater(t, first.Stats.CacheHits, 0)

	second, err := Run(context.Background(), f.repo, Options{Mode: sampling.ModeWeekly, Cache: mgr}, nil)
	require.NoError(t, err)
	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, second.Stats.SourceFiles, second.Stats.CacheHits)
}

func TestChangedScopeWithCacheMatchesUncached(t *testing.T) {
	f := newFixture(t)
	mgr, err := cache.NewManager(100, nil, nil)
	require.NoError(t, err)

	plain, err := Run(context.Background(), f.repo, Options{}, nil)
	require.NoError(t, err)
	cached, err := Run(context.Background(), f.repo, Options{Cache: mgr}, nil)
	require.NoError(t, err)
	assert.Equal(t, plain.Records, cached.Records)
}

func TestLimitAndBranch(t *testing.T) {
	f := newFixture(t)

	res, err := Run(context.Background(), f.repo, Options{Mode: sampling.ModeAll, Branch: "main", Limit: 2}, nil)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, f.c4, res.Records[0].SHA)
	assert.Equal(t, f.c3, res.Records[1].SHA)
}

func TestUnknownBranchFails(t *testing.T) {
	f := newFixture(t)
	_, err := Run(context.Background(), f.repo, Options{Branch: "does-not-exist"}, nil)
	assert.Error(t, err)
}

func TestOptionValidation(t *testing.T) {
	f := newFixture(t)

	_, err := Run(context.Background(), f.repo, Options{Mode: "hourly"}, nil)
	assert.Error(t, err)
	_, err = Run(context.Background(), f.repo, Options{Scope: "everything"}, nil)
	assert.Error(t, err)
	_, err = Run(context.Background(), f.repo, Options{Limit: -1}, nil)
	assert.Error(t, err)

	scope, err := ParseScope("", sampling.ModeWeekly)
	require.NoError(t, err)
	assert.Equal(t, ScopeSnapshot, scope)
	scope, err = ParseScope("Changed", sampling.ModeMonthly)
	require.NoError(t, err)
	assert.Equal(t, ScopeChanged, scope)
}

func TestLogSinkReportsProgress(t *testing.T) {
	f := newFixture(t)
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	sink := NewLogSink(logger)

	_, err := Run(context.Background(), f.repo, Options{ProgressEvery: 2}, sink)
	require.NoError(t, err)

	counts := sink.Counts()
	assert.Equal(t, 2, counts.Progress)
	assert.Equal(t, 1, counts.Unavailable)

	var progress []logrus.Fields
	for _, e := range hook.AllEntries() {
		if e.Message == "processed commits" {
			progress = append(progress, e.Data)
		}
	}
	require.Len(t, progress, 2)
	assert.Equal(t, 2, progress[0]["done"])
	assert.Equal(t, 4, progress[1]["done"])
	assert.Equal(t, 4, progress[1]["total"])
}

func TestLogSinkReportsSkipsWithContext(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	sink := NewLogSink(logger)

	sink.ExtractionSkipped("abc123", "src/a.ts", &extract.SkipError{Language: extract.TypeScript, Reason: "boom"})

	assert.Equal(t, 1, sink.Counts().Skipped)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "extraction skipped", entry.Message)
	assert.Equal(t, "abc123", entry.Data["sha"])
	assert.Equal(t, "src/a.ts", entry.Data["path"])
	assert.Equal(t, "typescript", entry.Data["language"])
	assert.Equal(t, errs.SeverityLow, entry.Data["severity"])
}

func TestProgressReportsRemainder(t *testing.T) {
	f := newFixture(t)
	logger, _ := logtest.NewNullLogger()
	sink := NewLogSink(logger)

	_, err := Run(context.Background(), f.repo, Options{ProgressEvery: 3}, sink)
	require.NoError(t, err)
	assert.Equal(t, 2, sink.Counts().Progress)
}
