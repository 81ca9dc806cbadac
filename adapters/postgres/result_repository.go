// Package postgres persists sweep results. Storage is optional: the
// CLI and API run fine without a database, and wire this repository in
// only when DATABASE_URL is set.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"covary/domain/core"
	"covary/domain/stats"
	apperrors "covary/internal/errors"
	"covary/ports"
)

// resultRepository implements the ResultRepository interface
type resultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &resultRepository{db: db}
}

// Connect opens and pings a postgres connection.
func Connect(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to open database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.DatabaseError("failed to ping database", err)
	}
	return db, nil
}

// EnsureSchema creates the sweeps and sweep_results tables if needed.
func (r *resultRepository) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sweeps (
		id TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		result_count INTEGER NOT NULL,
		runtime_ms BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sweep_results (
		id TEXT NOT NULL,
		sweep_id TEXT NOT NULL REFERENCES sweeps(id) ON DELETE CASCADE,
		observable_a TEXT NOT NULL,
		observable_b TEXT NOT NULL,
		test TEXT NOT NULL,
		statistic DOUBLE PRECISION NOT NULL,
		stat_symbol TEXT NOT NULL,
		df INTEGER NOT NULL,
		p_value DOUBLE PRECISION NOT NULL,
		sample_size INTEGER NOT NULL,
		verdict TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT '',
		-- Result IDs are deterministic per dataset and configuration, so
		-- the same ID legitimately recurs across sweeps.
		PRIMARY KEY (sweep_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_sweep_results_sweep_id ON sweep_results(sweep_id);
	CREATE INDEX IF NOT EXISTS idx_sweep_results_verdict ON sweep_results(verdict);`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return apperrors.DatabaseError("failed to ensure schema", err)
	}
	return nil
}

// SaveSweep stores the sweep header and its results in one transaction.
func (r *resultRepository) SaveSweep(ctx context.Context, sweep *ports.SweepRecord, results []stats.TestResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO sweeps (id, fingerprint, result_count, runtime_ms, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, query,
		string(sweep.ID), string(sweep.Fingerprint), sweep.ResultCount, sweep.RuntimeMs, sweep.CreatedAt.Time(),
	); err != nil {
		return fmt.Errorf("failed to insert sweep: %w", err)
	}

	resultQuery := `INSERT INTO sweep_results (
		id, sweep_id, observable_a, observable_b, test, statistic, stat_symbol,
		df, p_value, sample_size, verdict, reason, detail
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	for _, result := range results {
		if _, err := tx.ExecContext(ctx, resultQuery,
			string(result.ID), string(sweep.ID), result.ObservableA, result.ObservableB,
			string(result.Test), result.Statistic, result.StatSymbol,
			result.DF, result.PValue, result.SampleSize,
			string(result.Verdict), string(result.Reason), result.Detail,
		); err != nil {
			return fmt.Errorf("failed to insert result %s: %w", result.PairName(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sweep: %w", err)
	}
	return nil
}

// GetSweep retrieves a sweep and its results by ID.
func (r *resultRepository) GetSweep(ctx context.Context, id core.SweepID) (*ports.SweepRecord, []stats.TestResult, error) {
	query := `SELECT id, fingerprint, result_count, runtime_ms, created_at
		FROM sweeps WHERE id = $1`

	record, err := r.scanSweep(r.db.QueryRowContext(ctx, query, string(id)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, fmt.Errorf("sweep not found: %s", id)
		}
		return nil, nil, fmt.Errorf("failed to get sweep: %w", err)
	}

	resultQuery := `SELECT id, observable_a, observable_b, test, statistic, stat_symbol,
		df, p_value, sample_size, verdict, reason, detail
	FROM sweep_results
	WHERE sweep_id = $1
	ORDER BY observable_a, observable_b`

	rows, err := r.db.QueryContext(ctx, resultQuery, string(id))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []stats.TestResult
	for rows.Next() {
		var result stats.TestResult
		var resultID, test, verdict, reason string
		if err := rows.Scan(
			&resultID, &result.ObservableA, &result.ObservableB, &test, &result.Statistic, &result.StatSymbol,
			&result.DF, &result.PValue, &result.SampleSize, &verdict, &reason, &result.Detail,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan result: %w", err)
		}
		result.ID = core.ResultID(resultID)
		result.Test = stats.TestKind(test)
		result.Verdict = stats.Verdict(verdict)
		result.Reason = stats.ReasonCode(reason)
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate results: %w", err)
	}

	return record, results, nil
}

// ListSweeps returns sweep headers, newest first.
func (r *resultRepository) ListSweeps(ctx context.Context, limit, offset int) ([]*ports.SweepRecord, error) {
	query := `SELECT id, fingerprint, result_count, runtime_ms, created_at
		FROM sweeps
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query sweeps: %w", err)
	}
	defer rows.Close()

	var records []*ports.SweepRecord
	for rows.Next() {
		record, err := r.scanSweep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sweep: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sweeps: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *resultRepository) scanSweep(row rowScanner) (*ports.SweepRecord, error) {
	var record ports.SweepRecord
	var sweepID, fingerprint string
	var createdAt time.Time

	if err := row.Scan(&sweepID, &fingerprint, &record.ResultCount, &record.RuntimeMs, &createdAt); err != nil {
		return nil, err
	}
	record.ID = core.SweepID(sweepID)
	record.Fingerprint = core.DatasetHash(fingerprint)
	record.CreatedAt = core.NewTimestamp(createdAt)
	return &record, nil
}
