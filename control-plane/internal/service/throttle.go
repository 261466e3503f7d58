package service

import (
	"time"

	"github.com/vigil-net/uptime-mon/pkg/types"
)

// =============================================================================
// ALERT THROTTLING
// =============================================================================
//
// Throttle state lives on the monitor (LastAlertSentAt), not on the alert
// queue. The monitor update is made even when the alert insert fails, so a
// lost queue row delays one notification instead of unthrottling the monitor.

// ShouldAlert reports whether a monitor in adverse state is allowed another
// alert: always when none has been sent, otherwise only after the monitor's
// alert frequency has elapsed since the last one.
func ShouldAlert(m *types.Monitor, now time.Time) bool {
	if m.LastAlertSentAt == nil {
		return true
	}
	gap := time.Duration(m.AlertFrequency) * time.Minute
	return now.Sub(*m.LastAlertSentAt) >= gap
}
