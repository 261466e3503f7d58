// Package store - Probe-sample telemetry operations
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vigil-net/uptime-mon/pkg/types"
)

// =============================================================================
// PROBE SAMPLES
// =============================================================================

// InsertProbeSample writes a single sample directly. Used when no buffer is
// configured; the buffered path goes through InsertProbeSamples.
func (s *Store) InsertProbeSample(ctx context.Context, sample *types.ProbeSample) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO probe_samples (monitor_id, observed_at, kind, adverse, response_time_ms, agent_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (monitor_id, observed_at) DO NOTHING
	`, sample.MonitorID, sample.ObservedAt, sample.Kind, sample.Adverse, sample.ResponseTimeMs, sample.AgentURL)
	return err
}

// InsertProbeSamples bulk-inserts samples using COPY via a temp table.
// The temp-table indirection lets duplicates land gracefully
// (ON CONFLICT DO NOTHING) while keeping COPY throughput.
// Returns the number of rows actually inserted.
func (s *Store) InsertProbeSamples(ctx context.Context, samples []types.ProbeSample) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}

	// Use a transaction to ensure temp table cleanup
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		CREATE TEMP TABLE probe_samples_staging (
			monitor_id       TEXT NOT NULL,
			observed_at      TIMESTAMPTZ NOT NULL,
			kind             TEXT NOT NULL,
			adverse          BOOLEAN NOT NULL,
			response_time_ms BIGINT NOT NULL,
			agent_url        TEXT NOT NULL
		) ON COMMIT DROP
	`)
	if err != nil {
		return 0, err
	}

	rows := make([][]any, len(samples))
	for i, sm := range samples {
		rows[i] = []any{sm.MonitorID, sm.ObservedAt, string(sm.Kind), sm.Adverse, sm.ResponseTimeMs, sm.AgentURL}
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"probe_samples_staging"},
		[]string{"monitor_id", "observed_at", "kind", "adverse", "response_time_ms", "agent_url"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, err
	}

	// Samples for monitors deleted since the probe ran are dropped here
	// rather than failing the whole batch on the FK.
	result, err := tx.Exec(ctx, `
		INSERT INTO probe_samples (monitor_id, observed_at, kind, adverse, response_time_ms, agent_url)
		SELECT s.monitor_id, s.observed_at, s.kind, s.adverse, s.response_time_ms, s.agent_url
		FROM probe_samples_staging s
		JOIN monitors m ON s.monitor_id = m.id
		ON CONFLICT (monitor_id, observed_at) DO NOTHING
	`)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}

// ResponseTimeSeries returns a monitor's samples since the given time,
// oldest first.
func (s *Store) ResponseTimeSeries(ctx context.Context, monitorID string, since time.Time) ([]types.ResponseTimePoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT observed_at, response_time_ms, adverse, agent_url
		FROM probe_samples
		WHERE monitor_id = $1 AND observed_at >= $2
		ORDER BY observed_at
	`, monitorID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []types.ResponseTimePoint
	for rows.Next() {
		var p types.ResponseTimePoint
		if err := rows.Scan(&p.ObservedAt, &p.ResponseTimeMs, &p.Adverse, &p.AgentURL); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
