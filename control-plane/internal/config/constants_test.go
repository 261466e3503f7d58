package config

import (
	"testing"
	"time"
)

func TestScheduleWindows(t *testing.T) {
	// Every due window must stay below its bucket period so a monitor is
	// never serviced twice within one period, but close enough to the
	// period that ticker jitter cannot starve a bucket.
	for _, b := range Buckets {
		period := time.Duration(b) * time.Minute
		w := ScheduleWindow(b)

		if w >= period {
			t.Errorf("ScheduleWindow(%d) = %v, must be below the %v period", b, w, period)
		}
		if period-w != ScheduleWindowJitter {
			t.Errorf("ScheduleWindow(%d) = %v, want period minus %v", b, w, ScheduleWindowJitter)
		}
		if w <= 0 {
			t.Errorf("ScheduleWindow(%d) = %v, must be positive", b, w)
		}
	}
}

func TestBucketsMatchMonitorFrequencies(t *testing.T) {
	if len(Buckets) != 5 {
		t.Fatalf("expected 5 scheduler buckets, got %d", len(Buckets))
	}
	want := []int{1, 5, 10, 30, 60}
	for i, b := range Buckets {
		if b != want[i] {
			t.Errorf("Buckets[%d] = %d, want %d", i, b, want[i])
		}
	}
}

func TestPaginationLimits(t *testing.T) {
	if DefaultPaginationLimit > MaxPaginationLimit {
		t.Errorf("DefaultPaginationLimit (%d) should not exceed MaxPaginationLimit (%d)",
			DefaultPaginationLimit, MaxPaginationLimit)
	}

	if HistoryPageSize <= 0 {
		t.Error("HistoryPageSize should be positive")
	}

	if SchedulerPageSize <= 0 {
		t.Error("SchedulerPageSize should be positive")
	}
}

func TestCacheTTLs(t *testing.T) {
	ttls := []struct {
		name string
		ttl  time.Duration
	}{
		{"Stats", CacheTTLStats},
		{"Uptime", CacheTTLUptime},
		{"InfraHealth", CacheTTLInfraHealth},
	}

	for _, tt := range ttls {
		t.Run(tt.name, func(t *testing.T) {
			if tt.ttl <= 0 {
				t.Errorf("Cache TTL for %s should be positive, got %v", tt.name, tt.ttl)
			}
			// Cache TTLs should generally be under 5 minutes to ensure freshness
			if tt.ttl > 5*time.Minute {
				t.Errorf("Cache TTL for %s (%v) seems too long", tt.name, tt.ttl)
			}
		})
	}
}

func TestProbeTimeoutBelowSmallestBucket(t *testing.T) {
	// Two sequential probes plus verification must fit comfortably inside
	// the 1-minute bucket with its worker grace.
	budget := time.Duration(Buckets[0])*time.Minute + WorkerGrace
	if 2*ProbeTimeout >= budget {
		t.Errorf("two probe timeouts (%v) must fit inside the smallest bucket budget (%v)",
			2*ProbeTimeout, budget)
	}
}
