package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/vigil-net/uptime-mon/control-plane/internal/config"
	"github.com/vigil-net/uptime-mon/pkg/types"
)

// =============================================================================
// READ AGGREGATIONS
// =============================================================================

// MonitoringStats classifies a user's monitors as Up, Down or Paused from
// their latest event and returns the counts. A monitor with no event counts
// as Down unless paused.
func (s *Service) MonitoringStats(ctx context.Context, userID string) (*types.MonitoringStats, error) {
	return s.store.MonitorStatusCounts(ctx, userID)
}

// RollingUptime computes a monitor's uptime percentage over the trailing
// `days` days.
func (s *Service) RollingUptime(ctx context.Context, monitorID string, days int) (*types.UptimeReport, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive")
	}

	now := time.Now().UTC()
	from := now.Add(-time.Duration(days) * 24 * time.Hour)

	events, err := s.store.EventsSince(ctx, monitorID, from)
	if err != nil {
		return nil, fmt.Errorf("loading events for uptime window: %w", err)
	}

	return &types.UptimeReport{
		MonitorID:     monitorID,
		Days:          days,
		UptimePercent: computeUptimePercent(events, from, now),
		From:          from,
		To:            now,
	}, nil
}

// computeUptimePercent walks the window's events in timestamp order and sums
// up-time. Each event claims the interval between the cursor and its own
// timestamp for its own state; the tail from the last event to now counts
// only when that event is positive. An empty window reads as fully up.
//
// Attributing the preceding interval to the event's own state (rather than
// to the prior event's) is the contract this system has always had; a
// monitor observed Down halfway through an otherwise-up window therefore
// reports the first half as down too.
func computeUptimePercent(events []types.UptimeEvent, from, now time.Time) float64 {
	if len(events) == 0 {
		return 100
	}

	var upTime time.Duration
	cursor := from
	for _, e := range events {
		if e.Positive() {
			upTime += e.Timestamp.Sub(cursor)
		}
		cursor = e.Timestamp
	}
	if events[len(events)-1].Positive() {
		upTime += now.Sub(cursor)
	}

	window := now.Sub(from)
	if window <= 0 {
		return 100
	}

	pct := float64(upTime) / float64(window) * 100
	pct = math.Max(0, math.Min(100, pct))
	return math.Round(pct*100) / 100
}

// LatestDowntime returns the most recent adverse event, optionally scoped to
// one user, with its closed or still-running duration. Returns (nil, nil)
// when no adverse event exists.
func (s *Service) LatestDowntime(ctx context.Context, userID string) (*types.DowntimeReport, error) {
	e, err := s.store.LatestAdverseEvent(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading latest adverse event: %w", err)
	}
	if e == nil {
		return nil, nil
	}

	report := &types.DowntimeReport{Event: *e}
	if e.EndTime != nil {
		report.DurationMs = e.EndTime.Sub(e.Timestamp).Milliseconds()
	} else {
		report.DurationMs = time.Now().UTC().Sub(e.Timestamp).Milliseconds()
		report.Ongoing = true
	}
	return report, nil
}

// EventHistory returns one page of a monitor's events, newest first. Pages
// are 1-based and fixed at ten events.
func (s *Service) EventHistory(ctx context.Context, monitorID string, page int) (*types.EventPage, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * config.HistoryPageSize

	events, total, err := s.store.EventsPage(ctx, monitorID, offset, config.HistoryPageSize)
	if err != nil {
		return nil, fmt.Errorf("loading event history: %w", err)
	}

	return &types.EventPage{
		Events:   events,
		Total:    total,
		Page:     page,
		PageSize: config.HistoryPageSize,
	}, nil
}

// ResponseTimes returns a monitor's probe-sample series over the trailing
// `hours` hours, oldest first.
func (s *Service) ResponseTimes(ctx context.Context, monitorID string, hours int) ([]types.ResponseTimePoint, error) {
	if hours <= 0 {
		hours = 24
	}
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	return s.store.ResponseTimeSeries(ctx, monitorID, since)
}
