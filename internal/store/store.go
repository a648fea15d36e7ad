// Package store persists the run ledger and database-backed stage caches.
package store

import (
	"context"

	"github.com/sells-group/doormap/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Command string          `json:"command,omitempty"`
	Status  model.RunStatus `json:"status,omitempty"`
	Limit   int             `json:"limit,omitempty"`
}

// Store defines the persistence interface for pipeline runs and cached stages.
type Store interface {
	// Runs
	StartRun(ctx context.Context, command string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, summary model.RunSummary) error
	FailRun(ctx context.Context, runID string, cause error) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Stage cache. GetStage reports false when the key was never stored.
	GetStage(ctx context.Context, key string) ([]byte, bool, error)
	PutStage(ctx context.Context, key string, payload []byte) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func defaultLimit(n int) int {
	if n <= 0 {
		return 100
	}
	return n
}
