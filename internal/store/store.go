// Package store persists batch run history, per-record results and the
// result cache in SQLite or Postgres.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/prism-mfg/prism-cli/internal/model"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = eris.New("run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status    model.RunStatus `json:"status,omitempty"`
	Operation model.Operation `json:"operation,omitempty"`
	Limit     int             `json:"limit,omitempty"`
	Offset    int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for batch runs and cached results.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, op model.Operation, input, schemaVersion string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, summary *model.RunSummary) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Per-record results
	SaveResults(ctx context.Context, runID string, results []model.ValidationResult) error
	ListResults(ctx context.Context, runID string, failedOnly bool) ([]model.ValidationResult, error)

	// Result cache
	GetCache(ctx context.Context, key string) ([]byte, error)
	SetCache(ctx context.Context, key, schemaVersion string, data []byte) error
	DeleteCacheExcept(ctx context.Context, schemaVersion string) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100
