package storage

import (
	"context"
	"errors"

	"github.com/rohankatakam/depscan/internal/models"
)

// Common errors
var (
	ErrNotFound = errors.New("not found")
)

// Store persists scan runs and their records
type Store interface {
	// Run operations
	CreateRun(ctx context.Context, run *models.Run) error
	FinishRun(ctx context.Context, runID string, status models.RunStatus, commits int, runErr error) error
	GetRun(ctx context.Context, runID string) (*models.Run, error)
	ListRuns(ctx context.Context, repository string) ([]*models.Run, error)

	// Record operations
	SaveRecords(ctx context.Context, runID string, records []*models.CommitRecord) error
	GetRecords(ctx context.Context, runID string) ([]*models.CommitRecord, error)

	// Close connection
	Close() error
}
