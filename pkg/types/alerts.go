// Package types - alert queue records.
//
// # Alerting Design
//
// The pipeline never delivers notifications itself. When a monitor is in an
// adverse state and the throttle allows it, the pipeline appends an Alert
// row. External delivery workers (mail, SMS) drain the queue, incrementing
// Tries until delivery succeeds or MaxTries is exhausted. Throttling is
// enforced on the monitor (LastAlertSentAt), not on this table, so a lost
// alert row cannot unthrottle a monitor.
package types

import "time"

// =============================================================================
// ALERT
// =============================================================================

// Alert is an intent-to-notify record; a durable queue entry for an external
// delivery worker.
type Alert struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	MonitorID string `json:"monitor_id"`

	// URL is copied from the monitor at emission time so delivery does not
	// need a join (and survives monitor edits).
	URL string `json:"url"`

	Tries    int `json:"tries"`
	MaxTries int `json:"max_tries"`

	CreatedAt time.Time `json:"created_at"`
}

// DefaultAlertMaxTries is the delivery attempt budget for new alerts.
const DefaultAlertMaxTries = 3

// AlertFilter narrows alert queue listings.
type AlertFilter struct {
	UserID    string
	MonitorID string
	Limit     int
	Offset    int
}

// AlertPage is one page of the alert queue plus the unpaged total.
type AlertPage struct {
	Alerts []Alert `json:"alerts"`
	Total  int     `json:"total"`
}
