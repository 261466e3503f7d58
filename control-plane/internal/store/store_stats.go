package store

import (
	"context"
	"fmt"
	"time"

	"github.com/vigil-net/uptime-mon/pkg/types"
)

// =============================================================================
// READ AGGREGATES
// =============================================================================

// MonitorStatusCounts classifies a user's monitors by their latest event:
// paused monitors count as Paused regardless of state, a monitor with no
// event counts as Down. The event's own kind picks the authoritative field,
// so history recorded before a kind change still classifies consistently.
func (s *Store) MonitorStatusCounts(ctx context.Context, userID string) (*types.MonitoringStats, error) {
	var stats types.MonitoringStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE m.is_paused),
			COUNT(*) FILTER (WHERE NOT m.is_paused AND e.positive),
			COUNT(*) FILTER (WHERE NOT m.is_paused AND e.positive IS NOT TRUE),
			COUNT(*)
		FROM monitors m
		LEFT JOIN LATERAL (
			SELECT CASE
				WHEN ev.kind = 'ping' THEN ev.ping = 'Reachable'
				WHEN ev.kind = 'port' THEN ev.port = 'Open'
				ELSE ev.availability = 'Up'
			END AS positive
			FROM uptime_events ev
			WHERE ev.monitor_id = m.id
			ORDER BY ev.timestamp DESC
			LIMIT 1
		) e ON TRUE
		WHERE m.user_id = $1
	`, userID).Scan(&stats.Paused, &stats.Up, &stats.Down, &stats.Total)
	if err != nil {
		return nil, fmt.Errorf("counting monitor statuses: %w", err)
	}
	return &stats, nil
}

// =============================================================================
// INFRASTRUCTURE COUNTERS
// =============================================================================

// CountMonitors returns total and paused monitor counts.
func (s *Store) CountMonitors(ctx context.Context) (total, paused int64, err error) {
	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_paused) FROM monitors
	`).Scan(&total, &paused)
	return total, paused, err
}

// CountDispatchableAgents returns the size of the dispatch pool source set.
func (s *Store) CountDispatchableAgents(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM monitor_agents WHERE type = $1 AND enabled = TRUE
	`, types.AgentTypeMonitor).Scan(&n)
	return n, err
}

// CountEventsSince returns how many events were appended after the cutoff.
func (s *Store) CountEventsSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM uptime_events WHERE timestamp >= $1
	`, since).Scan(&n)
	return n, err
}

// GetDatabaseSize returns the total size of the database in bytes.
func (s *Store) GetDatabaseSize(ctx context.Context) (int64, error) {
	var size int64
	err := s.pool.QueryRow(ctx, `
		SELECT pg_database_size(current_database())
	`).Scan(&size)
	return size, err
}

// GetPoolStats returns the current connection pool statistics.
func (s *Store) GetPoolStats() types.PoolStats {
	stat := s.pool.Stat()
	return types.PoolStats{
		TotalConnections:    stat.TotalConns(),
		IdleConnections:     stat.IdleConns(),
		AcquiredConnections: stat.AcquiredConns(),
		MaxConnections:      stat.MaxConns(),
	}
}

// FormatBytes converts bytes to a human-readable string.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
