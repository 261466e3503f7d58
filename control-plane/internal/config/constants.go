// Package config provides configuration constants and file-based settings
// for the control plane.
//
// This package centralizes hardcoded values that were previously scattered
// throughout the codebase, making them easier to find, modify, and test.
package config

import "time"

// Scheduler buckets. Every monitor frequency maps to exactly one bucket,
// and every bucket runs on its own ticker.
var Buckets = []int{1, 5, 10, 30, 60}

// Scheduler tuning.
const (
	// ScheduleWindowJitter is subtracted from a bucket's period to form its
	// due window W(B) = B - jitter. Keeping W(B) slightly below B absorbs
	// ticker drift without double-servicing monitors inside one period.
	ScheduleWindowJitter = 5 * time.Second

	// SchedulerPageSize bounds how many due monitors one page holds. A page
	// is processed with full fan-out, so this is also the per-bucket
	// concurrency ceiling.
	SchedulerPageSize = 100

	// WorkerGrace is added to a bucket's period to form the per-monitor
	// deadline. A check that has not finished by then is cancelled before
	// its write phase.
	WorkerGrace = 2 * time.Second
)

// ScheduleWindow returns the due window W(B) for a bucket of the given
// period: monitors whose updatedAt is older than now-W(B) are due.
func ScheduleWindow(bucketMinutes int) time.Duration {
	return time.Duration(bucketMinutes)*time.Minute - ScheduleWindowJitter
}

// Probe dispatch configuration.
const (
	// ProbeTimeout is the hard per-call timeout for one agent probe. The
	// probe client never retries; failover is the caller's job.
	ProbeTimeout = 5 * time.Second

	// DefaultProbeRateLimit is the outbound probes-per-second ceiling across
	// all workers. Zero disables limiting.
	DefaultProbeRateLimit = 0
)

// Agent pool refresh cadence. Registry changes must converge well inside a
// day; eager refresh is allowed.
const (
	AgentPoolRefreshInterval = 15 * time.Minute
)

// Probe-sample buffering configuration.
const (
	// BufferFlushBatchSize is the number of samples to flush from the Redis
	// buffer to the database in a single operation.
	BufferFlushBatchSize = 5000

	// BufferFlushInterval is how often to flush the Redis buffer to database.
	BufferFlushInterval = 10 * time.Second
)

// Pagination for API list endpoints.
const (
	// HistoryPageSize is the fixed page size of the event-history endpoint.
	HistoryPageSize = 10

	// DefaultPaginationLimit is the default number of items returned
	// when no limit is specified.
	DefaultPaginationLimit = 50

	// MaxPaginationLimit is the maximum number of items that can be
	// requested in a single API call.
	MaxPaginationLimit = 500
)

// Cache TTLs for API response caching.
const (
	// CacheTTLStats is the TTL for monitoring stats data.
	CacheTTLStats = 30 * time.Second

	// CacheTTLUptime is the TTL for rolling uptime reports.
	CacheTTLUptime = 60 * time.Second

	// CacheTTLInfraHealth is the TTL for infrastructure health data.
	CacheTTLInfraHealth = 60 * time.Second
)

// Database connection configuration.
const (
	// DatabasePingTimeout is the timeout for database connectivity checks.
	DatabasePingTimeout = 5 * time.Second

	// RedisConnectionTimeout is the timeout for Redis connectivity checks.
	RedisConnectionTimeout = 5 * time.Second
)

// Agent liveness thresholds based on heartbeat age.
const (
	// AgentStaleThreshold - an agent with no heartbeat inside this window is
	// reported stale by the registry endpoints. Staleness never removes an
	// agent from the dispatch pool; only disabling does.
	AgentStaleThreshold = 10 * time.Minute
)
