// Package metrics provides infrastructure metrics collection for the control plane.
package metrics

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/vigil-net/uptime-mon/control-plane/internal/store"
	"github.com/vigil-net/uptime-mon/pkg/types"
)

// BufferStatsProvider is an interface for getting probe-sample buffer
// statistics.
type BufferStatsProvider interface {
	GetStats(ctx context.Context) (types.BufferStats, error)
}

// Collector gathers infrastructure metrics with caching.
type Collector struct {
	store  *store.Store
	buffer BufferStatsProvider // may be nil if buffer is disabled

	startTime time.Time

	mu            sync.RWMutex
	cachedHealth  *types.InfrastructureHealth
	cacheExpiry   time.Time
	cacheDuration time.Duration
}

// NewCollector creates a new metrics collector.
func NewCollector(store *store.Store, buffer BufferStatsProvider) *Collector {
	return &Collector{
		store:         store,
		buffer:        buffer,
		startTime:     time.Now(),
		cacheDuration: 30 * time.Second,
	}
}

// GetInfrastructureHealth returns the current infrastructure health metrics.
// Results are cached for 30 seconds to avoid expensive database queries.
func (c *Collector) GetInfrastructureHealth(ctx context.Context) (*types.InfrastructureHealth, error) {
	c.mu.RLock()
	if c.cachedHealth != nil && time.Now().Before(c.cacheExpiry) {
		health := *c.cachedHealth
		c.mu.RUnlock()
		return &health, nil
	}
	c.mu.RUnlock()

	health, err := c.collectHealth(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cachedHealth = health
	c.cacheExpiry = time.Now().Add(c.cacheDuration)
	c.mu.Unlock()

	return health, nil
}

func (c *Collector) collectHealth(ctx context.Context) (*types.InfrastructureHealth, error) {
	health := &types.InfrastructureHealth{
		Timestamp: time.Now().UTC(),
	}

	health.ControlPlane = c.collectControlPlaneHealth()

	dbHealth, err := c.collectDatabaseHealth(ctx)
	if err != nil {
		health.Database = types.DatabaseHealth{
			Status: "error",
		}
	} else {
		health.Database = *dbHealth
	}

	health.Buffer = c.collectBufferHealth(ctx)
	health.Pipeline = c.collectPipelineHealth(ctx)

	return health, nil
}

func (c *Collector) collectControlPlaneHealth() types.ControlPlaneHealth {
	health := types.ControlPlaneHealth{
		Status:        "healthy",
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: int64(time.Since(c.startTime).Seconds()),
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		if cpu, err := proc.CPUPercent(); err == nil {
			health.CPUPercent = cpu
		}
		if mem, err := proc.MemoryInfo(); err == nil {
			health.MemoryMB = float64(mem.RSS) / (1024 * 1024)
		}
		if memPct, err := proc.MemoryPercent(); err == nil {
			health.MemoryPercent = float64(memPct)
		}
	}

	if health.MemoryPercent > 90 || health.CPUPercent > 90 {
		health.Status = "degraded"
	}

	return health
}

func (c *Collector) collectDatabaseHealth(ctx context.Context) (*types.DatabaseHealth, error) {
	health := &types.DatabaseHealth{
		Status: "healthy",
	}

	health.Pool = c.store.GetPoolStats()
	if health.Pool.AcquiredConnections >= health.Pool.MaxConnections-2 {
		health.Status = "degraded"
	}

	size, err := c.store.GetDatabaseSize(ctx)
	if err != nil {
		return nil, err
	}
	health.SizeBytes = size
	health.SizeFormatted = store.FormatBytes(size)

	return health, nil
}

func (c *Collector) collectBufferHealth(ctx context.Context) types.BufferHealth {
	if c.buffer == nil {
		return types.BufferHealth{
			Enabled:   false,
			Connected: false,
		}
	}

	stats, err := c.buffer.GetStats(ctx)
	if err != nil {
		return types.BufferHealth{
			Enabled:   true,
			Connected: false,
		}
	}

	return types.BufferHealth{
		Enabled:    true,
		Connected:  stats.Connected,
		QueueDepth: stats.QueueDepth,
		FlushRate:  stats.FlushRate,
	}
}

// collectPipelineHealth reads the probing pipeline's counters. Each counter
// degrades independently to zero on error; a stats failure must not take the
// whole health endpoint down.
func (c *Collector) collectPipelineHealth(ctx context.Context) types.PipelineHealth {
	var health types.PipelineHealth

	if total, paused, err := c.store.CountMonitors(ctx); err == nil {
		health.Monitors = total
		health.PausedMonitors = paused
	}
	if agents, err := c.store.CountDispatchableAgents(ctx); err == nil {
		health.ActiveAgents = agents
	}
	if events, err := c.store.CountEventsSince(ctx, time.Now().UTC().Add(-24*time.Hour)); err == nil {
		health.EventsLast24h = events
	}
	if pending, err := c.store.CountPendingAlerts(ctx); err == nil {
		health.PendingAlerts = pending
	}

	return health
}
