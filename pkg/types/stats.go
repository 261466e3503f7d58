// Package types - read models served by the aggregation endpoints.
package types

import "time"

// MonitorStatus classifies a monitor from its latest event.
type MonitorStatus string

const (
	MonitorStatusUp     MonitorStatus = "Up"
	MonitorStatusDown   MonitorStatus = "Down"
	MonitorStatusPaused MonitorStatus = "Paused"
)

// MonitoringStats are per-user monitor counts by current status. A monitor
// with no recorded event counts as Down unless it is paused.
type MonitoringStats struct {
	Up     int `json:"up"`
	Down   int `json:"down"`
	Paused int `json:"paused"`
	Total  int `json:"total"`
}

// UptimeReport is the rolling uptime percentage of one monitor over a
// trailing window of whole days.
type UptimeReport struct {
	MonitorID     string    `json:"monitor_id"`
	Days          int       `json:"days"`
	UptimePercent float64   `json:"uptime_percent"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
}

// DowntimeReport describes the most recent adverse event, with its duration
// if the interval is closed or the running duration if still open.
type DowntimeReport struct {
	Event      UptimeEvent `json:"event"`
	DurationMs int64       `json:"duration_ms"`
	Ongoing    bool        `json:"ongoing"`
}

// EventPage is one descending-timestamp page of a monitor's event history.
type EventPage struct {
	Events   []UptimeEvent `json:"events"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// ResponseTimePoint is one point of a monitor's response-time series.
type ResponseTimePoint struct {
	ObservedAt     time.Time `json:"observed_at"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	Adverse        bool      `json:"adverse"`
	AgentURL       string    `json:"agent_url,omitempty"`
}
