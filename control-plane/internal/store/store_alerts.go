package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vigil-net/uptime-mon/pkg/types"
)

// =============================================================================
// ALERT QUEUE
// =============================================================================

const alertColumns = `id, user_id, monitor_id, url, tries, max_tries, created_at`

func scanAlert(row pgx.Row) (*types.Alert, error) {
	var a types.Alert
	err := row.Scan(&a.ID, &a.UserID, &a.MonitorID, &a.URL, &a.Tries, &a.MaxTries, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// InsertAlert appends an intent-to-notify record to the delivery queue.
func (s *Store) InsertAlert(ctx context.Context, a *types.Alert) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.MaxTries == 0 {
		a.MaxTries = types.DefaultAlertMaxTries
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO alerts (id, user_id, monitor_id, url, tries, max_tries, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.UserID, a.MonitorID, a.URL, a.Tries, a.MaxTries, a.CreatedAt)
	return err
}

// GetAlert retrieves an alert by ID. Returns (nil, nil) when not found.
func (s *Store) GetAlert(ctx context.Context, id string) (*types.Alert, error) {
	a, err := scanAlert(s.pool.QueryRow(ctx, `
		SELECT `+alertColumns+` FROM alerts WHERE id = $1
	`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// ListAlerts returns queue entries matching the filter, newest first, plus
// the unpaged total.
func (s *Store) ListAlerts(ctx context.Context, filter types.AlertFilter) (*types.AlertPage, error) {
	conditions := []string{}
	args := []interface{}{}
	argNum := 1

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argNum))
		args = append(args, filter.UserID)
		argNum++
	}
	if filter.MonitorID != "" {
		conditions = append(conditions, fmt.Sprintf("monitor_id = $%d", argNum))
		args = append(args, filter.MonitorID)
		argNum++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM alerts `+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT %s FROM alerts %s
		ORDER BY created_at DESC
		OFFSET $%d LIMIT $%d
	`, alertColumns, where, argNum, argNum+1)
	args = append(args, filter.Offset, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	page := &types.AlertPage{Total: total}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		page.Alerts = append(page.Alerts, *a)
	}
	return page, rows.Err()
}

// CountPendingAlerts reports queue entries still within their delivery
// budget. Feeds infrastructure health.
func (s *Store) CountPendingAlerts(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM alerts WHERE tries < max_tries
	`).Scan(&n)
	return n, err
}
