// Package worker provides the background workers of the control plane: one
// scheduler per frequency bucket and the agent-pool refresher.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vigil-net/uptime-mon/control-plane/internal/config"
	"github.com/vigil-net/uptime-mon/control-plane/internal/service"
	"github.com/vigil-net/uptime-mon/pkg/types"
)

// SchedulerStore defines the storage interface for the bucket workers.
type SchedulerStore interface {
	// DueMonitors returns one keyset page of due monitors in the bucket,
	// ordered by id, resuming after afterID.
	DueMonitors(ctx context.Context, frequency int, window time.Duration, afterID string, limit int) ([]types.Monitor, error)
}

// Checker runs one monitor check end to end.
type Checker interface {
	CheckMonitor(ctx context.Context, m *types.Monitor) (*service.CheckReport, error)
}

// TickLocker arbitrates bucket ticks between control-plane replicas. A nil
// locker means single-instance mode: every tick runs.
type TickLocker interface {
	AcquireTickLock(ctx context.Context, bucketMinutes int, ttl time.Duration) (bool, error)
}

// BucketWorkerConfig holds configuration for one bucket worker.
type BucketWorkerConfig struct {
	// BucketMinutes is the frequency this worker serves. Monitors whose
	// frequency equals it are scheduled here and nowhere else.
	BucketMinutes int

	// PageSize bounds one due-monitor page. A page is fanned out in full,
	// so this is also the worker's concurrency ceiling.
	PageSize int

	// Grace is added to the bucket period to form the per-monitor check
	// deadline.
	Grace time.Duration
}

// DefaultBucketWorkerConfig returns the standard tuning for a bucket.
func DefaultBucketWorkerConfig(bucketMinutes int) BucketWorkerConfig {
	return BucketWorkerConfig{
		BucketMinutes: bucketMinutes,
		PageSize:      config.SchedulerPageSize,
		Grace:         config.WorkerGrace,
	}
}

// BucketWorker ticks once per bucket period, pages through the monitors due
// in its bucket, and fans each page out to the checker. Monitors are never
// reordered into other buckets; a worker only ever sees its own frequency.
type BucketWorker struct {
	store   SchedulerStore
	checker Checker
	locks   TickLocker // nil when Redis is not configured
	config  BucketWorkerConfig
	logger  *slog.Logger
	stopCh  chan struct{}
}

// NewBucketWorker creates a worker for one frequency bucket. locks may be nil.
func NewBucketWorker(store SchedulerStore, checker Checker, locks TickLocker, cfg BucketWorkerConfig, logger *slog.Logger) *BucketWorker {
	return &BucketWorker{
		store:   store,
		checker: checker,
		locks:   locks,
		config:  cfg,
		logger:  logger.With("component", "bucket_worker", "bucket_minutes", cfg.BucketMinutes),
		stopCh:  make(chan struct{}),
	}
}

// Start begins the worker in a goroutine.
func (w *BucketWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop signals the worker to stop.
func (w *BucketWorker) Stop() {
	close(w.stopCh)
}

func (w *BucketWorker) period() time.Duration {
	return time.Duration(w.config.BucketMinutes) * time.Minute
}

func (w *BucketWorker) run(ctx context.Context) {
	w.logger.Info("bucket worker started",
		"period", w.period(),
		"window", config.ScheduleWindow(w.config.BucketMinutes),
		"page_size", w.config.PageSize,
	)

	// Run immediately on start; the 60-minute bucket must not wait an hour
	// for its first pass.
	w.runOnce(ctx)

	ticker := time.NewTicker(w.period())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("bucket worker stopping (context cancelled)")
			return
		case <-w.stopCh:
			w.logger.Info("bucket worker stopping (stop signal)")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// tickTally aggregates one tick's counters across the page goroutines.
type tickTally struct {
	checked     atomic.Int64
	probes      atomic.Int64
	transitions atomic.Int64
	adverse     atomic.Int64
	alerts      atomic.Int64
	skipped     atomic.Int64
	noAgents    atomic.Bool
}

func (w *BucketWorker) runOnce(ctx context.Context) {
	start := time.Now()

	if w.locks != nil {
		// The lock TTL expires well inside the period so a crashed holder
		// cannot suppress the next tick.
		ok, err := w.locks.AcquireTickLock(ctx, w.config.BucketMinutes, w.period()/2)
		if err != nil {
			// Redis being down must not stall monitoring; run the tick and
			// let the due-window predicate absorb any overlap.
			w.logger.Warn("tick lock unavailable, running unlocked", "error", err)
		} else if !ok {
			w.logger.Debug("tick already owned by another instance")
			return
		}
	}

	window := config.ScheduleWindow(w.config.BucketMinutes)
	deadline := w.period() + w.config.Grace
	tally := &tickTally{}
	pages := 0
	afterID := ""

	for {
		if ctx.Err() != nil {
			return
		}

		page, err := w.store.DueMonitors(ctx, w.config.BucketMinutes, window, afterID, w.config.PageSize)
		if err != nil {
			w.logger.Error("failed to load due monitors", "error", err)
			break
		}
		if len(page) == 0 {
			break
		}
		afterID = page[len(page)-1].ID
		pages++

		w.processPage(ctx, page, deadline, tally)

		if len(page) < w.config.PageSize {
			break
		}
	}

	if tally.noAgents.Load() {
		// One line per tick, not one per monitor.
		w.logger.Warn("no agents available, all due monitors deferred")
	}

	if tally.checked.Load() > 0 || tally.skipped.Load() > 0 {
		w.logger.Info("bucket tick complete",
			"duration", time.Since(start),
			"pages", pages,
			"checked", tally.checked.Load(),
			"probes", tally.probes.Load(),
			"transitions", tally.transitions.Load(),
			"adverse", tally.adverse.Load(),
			"alerts", tally.alerts.Load(),
			"skipped", tally.skipped.Load(),
		)
	}
}

// processPage fans one page out to the checker and waits for all checks. Each
// check gets its own deadline so one hung probe cannot hold the tick past the
// next period.
func (w *BucketWorker) processPage(ctx context.Context, page []types.Monitor, deadline time.Duration, tally *tickTally) {
	var wg sync.WaitGroup
	for i := range page {
		m := page[i]
		wg.Add(1)
		go func() {
			defer wg.Done()

			cctx, cancel := context.WithTimeout(ctx, deadline)
			defer cancel()

			report, err := w.checker.CheckMonitor(cctx, &m)
			if report != nil {
				tally.probes.Add(int64(report.Probes))
				if report.Skipped {
					tally.skipped.Add(1)
				} else {
					tally.checked.Add(1)
				}
				if report.Transition {
					tally.transitions.Add(1)
				}
				if report.Adverse {
					tally.adverse.Add(1)
				}
				if report.Alerted {
					tally.alerts.Add(1)
				}
			}
			if err != nil {
				if service.IsNoAgents(err) {
					tally.noAgents.Store(true)
					return
				}
				w.logger.Warn("check skipped", "monitor_id", m.ID, "error", err)
			}
		}()
	}
	wg.Wait()
}
