package app

import (
	"context"

	"covary/adapters/stats/engine"
	"covary/domain/stats"
	"covary/internal/config"
	apperrors "covary/internal/errors"
	"covary/ports"
)

// OptionsFromConfig maps the environment configuration onto sweep
// options.
func OptionsFromConfig(cfg config.AnalysisConfig) engine.Options {
	return engine.Options{
		Alpha:         cfg.Alpha,
		MinSampleSize: cfg.MinSampleSize,
		Bucketing: stats.Bucketing{
			Rule: cfg.BucketingRule,
			Bins: cfg.BucketingBins,
		},
		CategoricalIntervalTest: cfg.CategoricalIntervalTest,
		MaxWorkers:              cfg.MaxWorkers,
	}
}

// AnalyzeAndReport is the one-shot pipeline shared by the CLI and the
// server's batch mode: load the dataset, run the sweep, write the
// report set, and persist when a repository is wired in.
func (s *AnalysisService) AnalyzeAndReport(ctx context.Context, reader ports.DatasetReader, outputDir string, repo ports.ResultRepository) (*SweepSummary, error) {
	ds, err := reader.ReadDataset()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load dataset")
	}

	summary, err := s.Run(ctx, ds)
	if err != nil {
		return nil, apperrors.SweepFailed(err)
	}

	if err := NewReportWriter(outputDir).WriteAll(summary); err != nil {
		return nil, err
	}

	if repo != nil {
		record := &ports.SweepRecord{
			ID:          summary.SweepID,
			Fingerprint: summary.Fingerprint,
			ResultCount: len(summary.Results),
			RuntimeMs:   summary.RuntimeMs,
			CreatedAt:   summary.CreatedAt,
		}
		if err := repo.SaveSweep(ctx, record, summary.Results); err != nil {
			return nil, apperrors.Wrapf(err, "failed to persist sweep %s", summary.SweepID)
		}
	}
	return summary, nil
}
