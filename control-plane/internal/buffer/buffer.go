// Package buffer provides a Redis-backed write-ahead buffer for probe
// samples. This decouples check execution from database writes, so a slow
// database stalls telemetry instead of the probe pipeline.
package buffer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vigil-net/uptime-mon/pkg/types"
)

const (
	// Redis key for the probe samples queue
	keyProbeSamples = "uptimemon:probe_samples"

	// Queue depth above which pushes start logging warnings. The buffer
	// keeps accepting samples; this is an early signal the flusher is
	// falling behind.
	warnQueueDepth = 50000
)

// SampleBuffer provides Redis-backed buffering for probe samples.
type SampleBuffer struct {
	client *redis.Client
	logger *slog.Logger
}

// NewSampleBuffer creates a new Redis-backed sample buffer.
func NewSampleBuffer(redisURL string, logger *slog.Logger) (*SampleBuffer, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &SampleBuffer{
		client: client,
		logger: logger,
	}, nil
}

// Push adds probe samples to the buffer.
// Samples are JSON-encoded and pushed to a Redis list.
func (b *SampleBuffer) Push(ctx context.Context, samples ...types.ProbeSample) error {
	if len(samples) == 0 {
		return nil
	}

	// Serialize each sample to JSON
	values := make([]interface{}, len(samples))
	for i, sm := range samples {
		data, err := json.Marshal(sm)
		if err != nil {
			return fmt.Errorf("failed to marshal sample: %w", err)
		}
		values[i] = data
	}

	// Push all samples atomically
	depth, err := b.client.LPush(ctx, keyProbeSamples, values...).Result()
	if err != nil {
		return fmt.Errorf("failed to push samples to redis: %w", err)
	}

	if depth > warnQueueDepth {
		b.logger.Warn("sample buffer depth above threshold",
			"depth", depth,
			"threshold", warnQueueDepth,
		)
	}

	return nil
}

// Pop retrieves and removes up to maxSamples from the buffer.
// Returns the samples in FIFO order.
func (b *SampleBuffer) Pop(ctx context.Context, maxSamples int) ([]types.ProbeSample, error) {
	// Use RPOP to get oldest items first (FIFO)
	pipe := b.client.Pipeline()
	cmds := make([]*redis.StringCmd, maxSamples)

	for i := 0; i < maxSamples; i++ {
		cmds[i] = pipe.RPop(ctx, keyProbeSamples)
	}

	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to pop samples from redis: %w", err)
	}

	samples := make([]types.ProbeSample, 0, maxSamples)
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err == redis.Nil {
			continue // No more items
		}
		if err != nil {
			continue // Skip errors for individual items
		}

		var sm types.ProbeSample
		if err := json.Unmarshal(data, &sm); err != nil {
			b.logger.Warn("failed to unmarshal probe sample", "error", err)
			continue
		}
		samples = append(samples, sm)
	}

	return samples, nil
}

// Len returns the number of buffered samples.
func (b *SampleBuffer) Len(ctx context.Context) (int64, error) {
	return b.client.LLen(ctx, keyProbeSamples).Result()
}

// Close closes the Redis connection.
func (b *SampleBuffer) Close() error {
	return b.client.Close()
}
