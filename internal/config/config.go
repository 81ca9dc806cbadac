package config

import (
	"os"
	"strconv"

	"covary/domain/stats"
	"covary/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig
	Paths    PathConfig
	Server   ServerConfig
	Database DatabaseConfig
}

// AnalysisConfig holds the sweep parameters
type AnalysisConfig struct {
	// Alpha is the significance threshold separating Dependent from
	// Independent verdicts.
	Alpha float64
	// MinSampleSize is the complete-case floor per pair.
	MinSampleSize int
	// BucketingRule discretizes interval data for table-based tests.
	BucketingRule stats.BucketingRule
	// BucketingBins is the bin count for interval discretization.
	BucketingBins int
	// CategoricalIntervalTest routes categorical x interval pairs.
	CategoricalIntervalTest stats.TestKind
	// MaxWorkers bounds the pairwise worker pool (0 = GOMAXPROCS).
	MaxWorkers int
}

// PathConfig holds file system paths
type PathConfig struct {
	DataFile  string
	OutputDir string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds the optional result-store settings
type DatabaseConfig struct {
	// URL is empty when result persistence is disabled.
	URL string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Analysis: AnalysisConfig{
			Alpha:                   getEnvFloatOrDefault("ALPHA", 0.05),
			MinSampleSize:           getEnvIntOrDefault("MIN_SAMPLE_SIZE", 2),
			BucketingRule:           stats.BucketingRule(getEnvOrDefault("INTERVAL_BUCKETING", string(stats.BucketQuantile))),
			BucketingBins:           getEnvIntOrDefault("INTERVAL_BINS", 4),
			CategoricalIntervalTest: stats.TestKind(getEnvOrDefault("CATEGORICAL_INTERVAL_TEST", string(stats.TestKruskalWallis))),
			MaxWorkers:              getEnvIntOrDefault("MAX_WORKERS", 0),
		},
		Paths: PathConfig{
			DataFile:  getEnvOrDefault("DATA_FILE", ""),
			OutputDir: getEnvOrDefault("OUTPUT_DIR", "."),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Analysis.Alpha <= 0 || config.Analysis.Alpha >= 1 {
		return errors.ConfigInvalid("ALPHA must be in (0, 1)")
	}
	if config.Analysis.MinSampleSize < 2 {
		return errors.ConfigInvalid("MIN_SAMPLE_SIZE must be at least 2")
	}
	switch config.Analysis.BucketingRule {
	case stats.BucketQuantile, stats.BucketWidth:
	default:
		return errors.ConfigInvalid("INTERVAL_BUCKETING must be quantile or width")
	}
	if config.Analysis.BucketingBins < 2 {
		return errors.ConfigInvalid("INTERVAL_BINS must be at least 2")
	}
	switch config.Analysis.CategoricalIntervalTest {
	case stats.TestKruskalWallis, stats.TestChiSquare:
	default:
		return errors.ConfigInvalid("CATEGORICAL_INTERVAL_TEST must be kruskal_wallis or chi_square")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
