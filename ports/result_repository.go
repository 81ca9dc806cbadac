// Package ports defines the interfaces between the application core
// and its adapters.
package ports

import (
	"context"

	"covary/domain/core"
	"covary/domain/dataset"
	"covary/domain/stats"
)

// ResultRepository persists sweep results so past runs stay queryable.
type ResultRepository interface {
	// EnsureSchema creates the backing tables if they do not exist.
	EnsureSchema(ctx context.Context) error

	// SaveSweep stores a sweep header plus all of its pair results.
	SaveSweep(ctx context.Context, sweep *SweepRecord, results []stats.TestResult) error

	// GetSweep returns a stored sweep with its results.
	GetSweep(ctx context.Context, id core.SweepID) (*SweepRecord, []stats.TestResult, error)

	// ListSweeps returns sweep headers, newest first.
	ListSweeps(ctx context.Context, limit, offset int) ([]*SweepRecord, error)
}

// SweepRecord is the persisted header of one analysis run.
type SweepRecord struct {
	ID          core.SweepID     `json:"id" db:"id"`
	Fingerprint core.DatasetHash `json:"fingerprint" db:"fingerprint"`
	ResultCount int              `json:"result_count" db:"result_count"`
	RuntimeMs   int64            `json:"runtime_ms" db:"runtime_ms"`
	CreatedAt   core.Timestamp   `json:"created_at" db:"created_at"`
}

// DatasetReader loads a tabular dataset from some source.
type DatasetReader interface {
	ReadDataset() (*dataset.Dataset, error)
}
