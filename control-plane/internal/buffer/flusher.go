package buffer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vigil-net/uptime-mon/control-plane/internal/config"
	"github.com/vigil-net/uptime-mon/pkg/types"
)

// SampleQueue is the buffer side the flusher drains.
type SampleQueue interface {
	Len(ctx context.Context) (int64, error)
	Pop(ctx context.Context, maxSamples int) ([]types.ProbeSample, error)
}

// SampleStore is the subset of the store the flusher writes through.
type SampleStore interface {
	InsertProbeSamples(ctx context.Context, samples []types.ProbeSample) (int, error)
}

// Flusher drains the Redis buffer into the probe_samples table in batches.
type Flusher struct {
	buffer   SampleQueue
	store    SampleStore
	logger   *slog.Logger
	interval time.Duration
	batch    int

	// samples moved by the most recent flush, for health reporting
	lastFlushed atomic.Int64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewFlusher creates a new buffer flusher.
func NewFlusher(buffer SampleQueue, store SampleStore, logger *slog.Logger) *Flusher {
	return &Flusher{
		buffer:   buffer,
		store:    store,
		logger:   logger.With("component", "buffer_flusher"),
		interval: config.BufferFlushInterval,
		batch:    config.BufferFlushBatchSize,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background flushing loop.
func (f *Flusher) Start() {
	f.wg.Add(1)
	go f.run()
	f.logger.Info("buffer flusher started", "interval", f.interval, "batch_size", f.batch)
}

// Stop stops the flusher and waits for completion.
func (f *Flusher) Stop() {
	close(f.stopCh)
	f.wg.Wait()
	f.logger.Info("buffer flusher stopped")
}

// GetStats reports queue depth and recent flush throughput.
func (f *Flusher) GetStats(ctx context.Context) (types.BufferStats, error) {
	depth, err := f.buffer.Len(ctx)
	if err != nil {
		return types.BufferStats{Connected: false}, err
	}
	return types.BufferStats{
		QueueDepth: depth,
		FlushRate:  float64(f.lastFlushed.Load()) / f.interval.Seconds(),
		Connected:  true,
	}, nil
}

func (f *Flusher) run() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-f.stopCh:
			// Final flush before stopping
			f.flush()
			return
		case <-ticker.C:
			f.flush()
		}
	}
}

func (f *Flusher) flush() {
	ctx := context.Background()

	// Check buffer size
	size, err := f.buffer.Len(ctx)
	if err != nil {
		f.logger.Error("failed to get buffer size", "error", err)
		return
	}

	if size == 0 {
		f.lastFlushed.Store(0)
		return
	}

	// Pop samples from buffer
	samples, err := f.buffer.Pop(ctx, f.batch)
	if err != nil {
		f.logger.Error("failed to pop from buffer", "error", err)
		return
	}

	if len(samples) == 0 {
		f.lastFlushed.Store(0)
		return
	}

	start := time.Now()

	inserted, err := f.store.InsertProbeSamples(ctx, samples)
	if err != nil {
		f.logger.Error("failed to copy samples to database",
			"error", err,
			"count", len(samples),
		)
		// TODO: push the failed batch back onto the buffer instead of dropping it
		return
	}

	f.lastFlushed.Store(int64(len(samples)))

	f.logger.Info("flushed samples to database",
		"count", len(samples),
		"inserted", inserted,
		"remaining", size-int64(len(samples)),
		"duration", time.Since(start),
	)
}
