// Package app orchestrates full analysis runs: sweep execution,
// per-observable profiling and report assembly. It is the boundary the
// CLI and HTTP adapters talk to.
package app

import (
	"context"
	"time"

	"covary/adapters/stats/engine"
	"covary/domain/core"
	"covary/domain/dataset"
	"covary/domain/stats"
	"covary/internal"
)

// AnalysisService runs dependence sweeps and packages their output.
type AnalysisService struct {
	engine *engine.Engine
	logger *internal.Logger
}

// SweepSummary contains the complete output of one analysis run.
type SweepSummary struct {
	SweepID     core.SweepID          `json:"sweep_id"`
	Fingerprint core.DatasetHash      `json:"fingerprint"`
	Results     []stats.TestResult    `json:"results"`
	Profiles    []ObservableProfile   `json:"profiles"`
	Counts      map[stats.Verdict]int `json:"counts"`
	RuntimeMs   int64                 `json:"runtime_ms"`
	CreatedAt   core.Timestamp        `json:"created_at"`
}

// NewAnalysisService creates an analysis service with the given sweep
// options.
func NewAnalysisService(opts engine.Options) *AnalysisService {
	return &AnalysisService{
		engine: engine.New(opts),
		logger: internal.DefaultLogger.Named("analysis"),
	}
}

// Run executes the sweep and profiling over a dataset. Per-pair
// problems surface as Inconclusive results inside the summary; only a
// malformed dataset fails the run.
func (s *AnalysisService) Run(ctx context.Context, ds *dataset.Dataset) (*SweepSummary, error) {
	start := time.Now()

	results, err := s.engine.Sweep(ctx, ds)
	if err != nil {
		return nil, err
	}

	counts := map[stats.Verdict]int{
		stats.VerdictDependent:    0,
		stats.VerdictIndependent:  0,
		stats.VerdictInconclusive: 0,
	}
	for _, r := range results {
		counts[r.Verdict]++
	}

	summary := &SweepSummary{
		SweepID:     core.SweepID(core.NewID()),
		Fingerprint: ds.Fingerprint(),
		Results:     results,
		Profiles:    ProfileObservables(ds),
		Counts:      counts,
		RuntimeMs:   time.Since(start).Milliseconds(),
		CreatedAt:   core.Now(),
	}

	s.logger.Info("sweep %s: %d results (%d dependent, %d independent, %d inconclusive) in %dms",
		summary.SweepID, len(results),
		counts[stats.VerdictDependent], counts[stats.VerdictIndependent],
		counts[stats.VerdictInconclusive], summary.RuntimeMs)
	return summary, nil
}
