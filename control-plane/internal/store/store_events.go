package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vigil-net/uptime-mon/pkg/types"
)

// =============================================================================
// UPTIME EVENTS
// =============================================================================

const eventColumns = `id, monitor_id, user_id, kind, availability, ping, port,
	response_time_ms, confirmed_by_agent, reason, timestamp, end_time`

func scanEvent(row pgx.Row) (*types.UptimeEvent, error) {
	var e types.UptimeEvent
	err := row.Scan(
		&e.ID, &e.MonitorID, &e.UserID, &e.Kind, &e.Availability, &e.Ping, &e.Port,
		&e.ResponseTimeMs, &e.ConfirmedByAgent, &e.Reason, &e.Timestamp, &e.EndTime,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// LatestEvent returns the most recent event for a monitor, or (nil, nil)
// when the monitor has no recorded event yet.
func (s *Store) LatestEvent(ctx context.Context, monitorID string) (*types.UptimeEvent, error) {
	e, err := scanEvent(s.pool.QueryRow(ctx, `
		SELECT `+eventColumns+` FROM uptime_events
		WHERE monitor_id = $1
		ORDER BY timestamp DESC
		LIMIT 1
	`, monitorID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// InsertEvent appends a new event. Events are immutable after insert except
// for end_time, which the next transition sets via SetEventEndTime.
func (s *Store) InsertEvent(ctx context.Context, e *types.UptimeEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO uptime_events (id, monitor_id, user_id, kind, availability, ping, port,
			response_time_ms, confirmed_by_agent, reason, timestamp, end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		e.ID, e.MonitorID, e.UserID, e.Kind, e.Availability, e.Ping, e.Port,
		e.ResponseTimeMs, e.ConfirmedByAgent, e.Reason, e.Timestamp, e.EndTime,
	)
	return err
}

// SetEventEndTime closes an event's interval. Called exactly once per event,
// with the timestamp of the transition that supersedes it.
func (s *Store) SetEventEndTime(ctx context.Context, eventID string, endTime time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE uptime_events SET end_time = $2 WHERE id = $1
	`, eventID, endTime)
	return err
}

// EventsSince returns a monitor's events with timestamp >= since, ascending.
// Feeds the rolling-uptime computation.
func (s *Store) EventsSince(ctx context.Context, monitorID string, since time.Time) ([]types.UptimeEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+eventColumns+` FROM uptime_events
		WHERE monitor_id = $1 AND timestamp >= $2
		ORDER BY timestamp ASC
	`, monitorID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []types.UptimeEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// EventsPage returns one descending page of a monitor's history plus the
// total event count.
func (s *Store) EventsPage(ctx context.Context, monitorID string, offset, limit int) ([]types.UptimeEvent, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM uptime_events WHERE monitor_id = $1
	`, monitorID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+eventColumns+` FROM uptime_events
		WHERE monitor_id = $1
		ORDER BY timestamp DESC
		OFFSET $2 LIMIT $3
	`, monitorID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []types.UptimeEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, *e)
	}
	return events, total, rows.Err()
}

// LatestAdverseEvent returns the newest event that is adverse for its own
// kind, optionally scoped to one user. Non-authoritative fields are stored
// adverse-by-default, so the filter matches on the kind's field only.
func (s *Store) LatestAdverseEvent(ctx context.Context, userID string) (*types.UptimeEvent, error) {
	query := `
		SELECT ` + eventColumns + ` FROM uptime_events
		WHERE ((kind = 'web' AND availability = 'Down')
			OR (kind = 'ping' AND ping = 'Unreachable')
			OR (kind = 'port' AND port = 'Closed'))`
	args := []interface{}{}
	if userID != "" {
		query += ` AND user_id = $1`
		args = append(args, userID)
	}
	query += `
		ORDER BY timestamp DESC
		LIMIT 1`

	e, err := scanEvent(s.pool.QueryRow(ctx, query, args...))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return e, err
}
