package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rohankatakam/depscan/internal/models"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	shaA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	shaB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func newStore(t *testing.T) *SQLiteStore {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db", "depscan.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	run := &models.Run{Repository: "acme/web", Mode: "weekly", Scope: "snapshot"}
	require.NoError(t, s.CreateRun(ctx, run))
	assert.Len(t, run.ID, 36)
	assert.Equal(t, models.RunRunning, run.Status)

	require.NoError(t, s.FinishRun(ctx, run.ID, models.RunFailed, 3, errors.New("clone failed")))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunFailed, got.Status)
	assert.Equal(t, 3, got.Commits)
	assert.Equal(t, "clone failed", got.Error)
	require.NotNil(t, got.FinishedAt)

	runs, err := s.ListRuns(ctx, "acme/web")
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	_, err = s.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.FinishRun(ctx, "missing", models.RunCompleted, 0, nil), ErrNotFound)
}

func TestRecordsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	run := &models.Run{Repository: "acme/web", Mode: "all", Scope: "changed"}
	require.NoError(t, s.CreateRun(ctx, run))

	a := models.NewCommitRecord(shaA, []string{"src/a.ts", "App/Main.swift"})
	a.TypeScriptImports["src/a.ts"] = []string{"pkg1", "pkg2"}
	a.SwiftImports["App/Main.swift"] = []string{"Foundation"}
	b := models.NewCommitRecord(shaB, nil)
	b.JavaScriptImports["web/app.js"] = []string{"react"}

	require.NoError(t, s.SaveRecords(ctx, run.ID, []*models.CommitRecord{a}))
	require.NoError(t, s.SaveRecords(ctx, run.ID, []*models.CommitRecord{b}))
	require.NoError(t, s.SaveRecords(ctx, run.ID, nil))

	got, err := s.GetRecords(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a, got[0])
	assert.Equal(t, b, got[1])
	for _, r := range got {
		assert.NoError(t, r.Validate())
	}
}

func TestRecordsRequireRun(t *testing.T) {
	s := newStore(t)
	err := s.SaveRecords(context.Background(), "no-such-run", []*models.CommitRecord{models.NewCommitRecord(shaA, nil)})
	assert.Error(t, err, "foreign key enforced")
}

func TestPragmasAppliedAndFailuresLogged(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "depscan.db"), logger)
	require.NoError(t, err)
	defer s.Close()

	var mode string
	require.NoError(t, s.db.Get(&mode, "PRAGMA journal_mode"))
	assert.Equal(t, "wal", mode)
	assert.Empty(t, hook.AllEntries())

	s.pragma("PRAGMA journal_mode = (")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "PRAGMA journal_mode = (", hook.LastEntry().Data["pragma"])
}
