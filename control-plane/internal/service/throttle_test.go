package service

import (
	"testing"
	"time"

	"github.com/vigil-net/uptime-mon/control-plane/internal/testutil"
	"github.com/vigil-net/uptime-mon/pkg/types"
)

func TestShouldAlertFirstAlertAlwaysAllowed(t *testing.T) {
	m := testutil.FixtureMonitor(func(m *types.Monitor) {
		m.AlertFrequency = 60
		m.LastAlertSentAt = nil
	})
	if !ShouldAlert(m, time.Now()) {
		t.Error("expected first alert to be allowed")
	}
}

func TestShouldAlertGapBoundary(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name      string
		frequency int
		sinceLast time.Duration
		want      bool
	}{
		{"well within gap", 5, 2 * time.Minute, false},
		{"one second short", 5, 5*time.Minute - time.Second, false},
		{"exactly at gap", 5, 5 * time.Minute, true},
		{"past gap", 5, 6 * time.Minute, true},
		{"daily frequency within", 1440, 12 * time.Hour, false},
		{"daily frequency elapsed", 1440, 25 * time.Hour, true},
		{"minute frequency elapsed", 1, 61 * time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := now.Add(-tt.sinceLast)
			m := testutil.FixtureMonitor(func(m *types.Monitor) {
				m.AlertFrequency = tt.frequency
				m.LastAlertSentAt = &last
			})
			if got := ShouldAlert(m, now); got != tt.want {
				t.Errorf("ShouldAlert = %v, expected %v", got, tt.want)
			}
		})
	}
}
