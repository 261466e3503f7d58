package types

import "time"

// InfrastructureHealth contains all infrastructure health metrics.
type InfrastructureHealth struct {
	Timestamp    time.Time          `json:"timestamp"`
	ControlPlane ControlPlaneHealth `json:"control_plane"`
	Database     DatabaseHealth     `json:"database"`
	Buffer       BufferHealth       `json:"buffer"`
	Pipeline     PipelineHealth     `json:"pipeline"`
}

// ControlPlaneHealth contains control plane runtime metrics.
type ControlPlaneHealth struct {
	Status        string  `json:"status"` // healthy, degraded, down
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryMB      float64 `json:"memory_mb"`
	MemoryPercent float64 `json:"memory_percent"`
	Goroutines    int     `json:"goroutines"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

// DatabaseHealth contains database connection and size metrics.
type DatabaseHealth struct {
	Status        string    `json:"status"`
	Pool          PoolStats `json:"pool"`
	SizeBytes     int64     `json:"size_bytes"`
	SizeFormatted string    `json:"size_formatted"`
}

// PoolStats contains pgxpool connection pool statistics.
type PoolStats struct {
	TotalConnections    int32 `json:"total_connections"`
	IdleConnections     int32 `json:"idle_connections"`
	AcquiredConnections int32 `json:"acquired_connections"`
	MaxConnections      int32 `json:"max_connections"`
}

// BufferHealth contains probe-sample buffer metrics.
type BufferHealth struct {
	Enabled    bool    `json:"enabled"`
	Connected  bool    `json:"connected"`
	QueueDepth int64   `json:"queue_depth"`
	FlushRate  float64 `json:"flush_rate_per_second"`
}

// PipelineHealth contains counters describing the probing pipeline.
type PipelineHealth struct {
	Monitors       int64 `json:"monitors"`
	PausedMonitors int64 `json:"paused_monitors"`
	ActiveAgents   int64 `json:"active_agents"`
	EventsLast24h  int64 `json:"events_last_24h"`
	PendingAlerts  int64 `json:"pending_alerts"`
}

// BufferStats represents buffer statistics for health reporting.
type BufferStats struct {
	QueueDepth int64
	FlushRate  float64
	Connected  bool
}
