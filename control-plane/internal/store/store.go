// Package store provides database access for the control plane.
//
// # Design
//
// The store uses raw SQL with pgx. Writes driven by the probing pipeline are
// single-row statements; the scheduling and ordering invariants hold without
// multi-statement transactions (see the worker package).
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vigil-net/uptime-mon/pkg/types"
)

// Store provides database operations.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new store with the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewStoreFromURL creates a new store by connecting to the given database URL.
func NewStoreFromURL(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping tests database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Pool returns the underlying connection pool for advanced operations.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// =============================================================================
// MONITORS
// =============================================================================

const monitorColumns = `id, user_id, name, kind, url, port, frequency, alert_frequency,
	is_paused, contacts, last_alert_sent_at, created_at, updated_at`

func scanMonitor(row pgx.Row) (*types.Monitor, error) {
	var m types.Monitor
	err := row.Scan(
		&m.ID, &m.UserID, &m.Name, &m.Kind, &m.URL, &m.Port,
		&m.Frequency, &m.AlertFrequency, &m.IsPaused, &m.Contacts,
		&m.LastAlertSentAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMonitor inserts a new monitor. The ID and timestamps are assigned
// here; a freshly created monitor is immediately due for its first check.
func (s *Store) CreateMonitor(ctx context.Context, m *types.Monitor) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	// Backdate updated_at so the first tick of the monitor's bucket picks
	// it up without waiting out a full window.
	m.UpdatedAt = now.Add(-24 * time.Hour)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO monitors (id, user_id, name, kind, url, port, frequency, alert_frequency,
			is_paused, contacts, last_alert_sent_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		m.ID, m.UserID, m.Name, m.Kind, m.URL, m.Port, m.Frequency, m.AlertFrequency,
		m.IsPaused, m.Contacts, m.LastAlertSentAt, m.CreatedAt, m.UpdatedAt,
	)
	return err
}

// GetMonitor retrieves a monitor by ID. Returns (nil, nil) when not found.
func (s *Store) GetMonitor(ctx context.Context, id string) (*types.Monitor, error) {
	m, err := scanMonitor(s.pool.QueryRow(ctx, `
		SELECT `+monitorColumns+` FROM monitors WHERE id = $1
	`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return m, err
}

// ListMonitorsByUser returns all monitors owned by a user, newest first.
func (s *Store) ListMonitorsByUser(ctx context.Context, userID string) ([]types.Monitor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+monitorColumns+` FROM monitors
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var monitors []types.Monitor
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, err
		}
		monitors = append(monitors, *m)
	}
	return monitors, rows.Err()
}

// UpdateMonitor rewrites the editable fields of a monitor. The pipeline's
// bookkeeping fields (last_alert_sent_at, updated_at) are deliberately not
// touched here.
func (s *Store) UpdateMonitor(ctx context.Context, m *types.Monitor) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE monitors
		SET name = $2, kind = $3, url = $4, port = $5, frequency = $6,
			alert_frequency = $7, is_paused = $8, contacts = $9
		WHERE id = $1
	`, m.ID, m.Name, m.Kind, m.URL, m.Port, m.Frequency, m.AlertFrequency, m.IsPaused, m.Contacts)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("monitor %s not found", m.ID)
	}
	return nil
}

// DeleteMonitor removes a monitor; events, alerts and samples cascade.
func (s *Store) DeleteMonitor(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM monitors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("monitor %s not found", id)
	}
	return nil
}

// SetMonitorPaused flips the paused flag. A paused monitor is invisible to
// the scheduler and never produces events or alerts.
func (s *Store) SetMonitorPaused(ctx context.Context, id string, paused bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE monitors SET is_paused = $2 WHERE id = $1
	`, id, paused)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("monitor %s not found", id)
	}
	return nil
}

// =============================================================================
// SCHEDULING
// =============================================================================

// DueMonitors returns one keyset page of monitors due in a bucket: matching
// frequency, not paused, and last completed at least `window` ago. Pages are
// ordered by id and resume after `afterID`, so the per-check updated_at
// bumps cannot skip or repeat rows while a tick is paging.
func (s *Store) DueMonitors(ctx context.Context, frequency int, window time.Duration, afterID string, limit int) ([]types.Monitor, error) {
	cutoff := time.Now().UTC().Add(-window)
	rows, err := s.pool.Query(ctx, `
		SELECT `+monitorColumns+` FROM monitors
		WHERE frequency = $1
		  AND is_paused = FALSE
		  AND updated_at <= $2
		  AND id > $3
		ORDER BY id
		LIMIT $4
	`, frequency, cutoff, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var monitors []types.Monitor
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, err
		}
		monitors = append(monitors, *m)
	}
	return monitors, rows.Err()
}

// TouchMonitor bumps updated_at to now. Called after every completed check;
// GREATEST keeps the column monotonic even under clock hiccups.
func (s *Store) TouchMonitor(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE monitors SET updated_at = GREATEST(updated_at, NOW()) WHERE id = $1
	`, id)
	return err
}

// SetLastAlertSent records the alert emission time used by throttling.
func (s *Store) SetLastAlertSent(ctx context.Context, id string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE monitors SET last_alert_sent_at = $2 WHERE id = $1
	`, id, at)
	return err
}
