package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rohankatakam/depscan/internal/extract"
	"github.com/rohankatakam/depscan/internal/models"
	"github.com/sirupsen/logrus"
)

// SQLiteStore implements Store on a local SQLite file
type SQLiteStore struct {
	db     *sqlx.DB
	logger logrus.FieldLogger
}

// NewSQLiteStore opens (creating if needed) the database at path
func NewSQLiteStore(path string, logger logrus.FieldLogger) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}
	// One connection keeps :memory: databases and PRAGMAs consistent.
	db.SetMaxOpenConns(1)

	if logger == nil {
		logger = logrus.StandardLogger()
	}
	store := &SQLiteStore{db: db, logger: logger}
	store.pragma("PRAGMA foreign_keys = ON")
	store.pragma("PRAGMA journal_mode = WAL")
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// pragma applies a tuning statement. Failures leave SQLite defaults in place.
func (s *SQLiteStore) pragma(stmt string) {
	if _, err := s.db.Exec(stmt); err != nil {
		s.logger.WithError(err).WithField("pragma", stmt).Warn("failed to apply sqlite pragma")
	}
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		repository TEXT NOT NULL,
		mode TEXT NOT NULL,
		scope TEXT NOT NULL,
		branch TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		commits INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS commit_records (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		sha TEXT NOT NULL,
		files TEXT NOT NULL,
		PRIMARY KEY (run_id, position),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS commit_imports (
		run_id TEXT NOT NULL,
		sha TEXT NOT NULL,
		language TEXT NOT NULL,
		path TEXT NOT NULL,
		specifier TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_repository ON runs(repository);
	CREATE INDEX IF NOT EXISTS idx_imports_run_sha ON commit_imports(run_id, sha);
	CREATE INDEX IF NOT EXISTS idx_imports_specifier ON commit_imports(specifier);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRun inserts run, assigning an id and start time when missing
func (s *SQLiteStore) CreateRun(ctx context.Context, run *models.Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = models.RunRunning
	}

	query := `
		INSERT INTO runs (id, repository, mode, scope, branch, status, commits, started_at, error)
		VALUES (:id, :repository, :mode, :scope, :branch, :status, :commits, :started_at, :error)
	`
	if _, err := s.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a run
func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status models.RunStatus, commits int, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, commits = ?, finished_at = ?, error = ? WHERE id = ?`,
		status, commits, time.Now().UTC(), msg, runID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*models.Run, error) {
	var run models.Run
	err := s.db.GetContext(ctx, &run, `SELECT * FROM runs WHERE id = ?`, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the runs of repository, newest first
func (s *SQLiteStore) ListRuns(ctx context.Context, repository string) ([]*models.Run, error) {
	var runs []*models.Run
	err := s.db.SelectContext(ctx, &runs,
		`SELECT * FROM runs WHERE repository = ? ORDER BY started_at DESC`, repository)
	return runs, err
}

// SaveRecords stores records in order, one transaction per call
func (s *SQLiteStore) SaveRecords(ctx context.Context, runID string, records []*models.CommitRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var start int
	if err := tx.GetContext(ctx, &start,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM commit_records WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("next position: %w", err)
	}

	recordStmt, err := tx.PreparexContext(ctx,
		`INSERT INTO commit_records (run_id, position, sha, files) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer recordStmt.Close()

	importStmt, err := tx.PreparexContext(ctx,
		`INSERT INTO commit_imports (run_id, sha, language, path, specifier) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer importStmt.Close()

	for i, rec := range records {
		files, err := json.Marshal(rec.Files)
		if err != nil {
			return fmt.Errorf("encode files of %s: %w", rec.SHA, err)
		}
		if _, err := recordStmt.ExecContext(ctx, runID, start+i, rec.SHA, string(files)); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.SHA, err)
		}

		for lang, m := range importMaps(rec) {
			for path, specs := range m {
				for _, spec := range specs {
					if _, err := importStmt.ExecContext(ctx, runID, rec.SHA, lang, path, spec); err != nil {
						return fmt.Errorf("insert import %s %s: %w", rec.SHA, path, err)
					}
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"run": runID, "records": len(records)}).Debug("saved commit records")
	return nil
}

// GetRecords rebuilds the records of a run in their original order
func (s *SQLiteStore) GetRecords(ctx context.Context, runID string) ([]*models.CommitRecord, error) {
	var rows []struct {
		SHA   string `db:"sha"`
		Files string `db:"files"`
	}
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT sha, files FROM commit_records WHERE run_id = ? ORDER BY position`, runID); err != nil {
		return nil, err
	}

	records := make([]*models.CommitRecord, 0, len(rows))
	bySHA := make(map[string]*models.CommitRecord, len(rows))
	for _, row := range rows {
		var files []string
		if err := json.Unmarshal([]byte(row.Files), &files); err != nil {
			return nil, fmt.Errorf("decode files of %s: %w", row.SHA, err)
		}
		rec := models.NewCommitRecord(row.SHA, files)
		records = append(records, rec)
		bySHA[row.SHA] = rec
	}

	var imports []struct {
		SHA       string `db:"sha"`
		Language  string `db:"language"`
		Path      string `db:"path"`
		Specifier string `db:"specifier"`
	}
	if err := s.db.SelectContext(ctx, &imports,
		`SELECT sha, language, path, specifier FROM commit_imports WHERE run_id = ? ORDER BY rowid`, runID); err != nil {
		return nil, err
	}
	for _, imp := range imports {
		rec, ok := bySHA[imp.SHA]
		if !ok {
			continue
		}
		m := importMaps(rec)[imp.Language]
		if m == nil {
			continue
		}
		m[imp.Path] = append(m[imp.Path], imp.Specifier)
	}
	return records, nil
}

func importMaps(rec *models.CommitRecord) map[string]models.ImportMap {
	return map[string]models.ImportMap{
		string(extract.TypeScript): rec.TypeScriptImports,
		string(extract.JavaScript): rec.JavaScriptImports,
		string(extract.Swift):      rec.SwiftImports,
	}
}
