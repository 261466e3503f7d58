package service

import (
	"context"

	"github.com/vigil-net/uptime-mon/control-plane/internal/buffer"
	"github.com/vigil-net/uptime-mon/control-plane/internal/store"
	"github.com/vigil-net/uptime-mon/pkg/types"
)

// SampleWriter routes per-check telemetry to the Redis buffer when one is
// configured, falling back to a direct insert when the push fails or no
// buffer exists.
type SampleWriter struct {
	buffer *buffer.SampleBuffer // nil when Redis is not configured
	store  *store.Store
}

// NewSampleWriter creates a sample writer. buf may be nil.
func NewSampleWriter(buf *buffer.SampleBuffer, st *store.Store) *SampleWriter {
	return &SampleWriter{buffer: buf, store: st}
}

// RecordSample accepts one completed-check sample.
func (w *SampleWriter) RecordSample(ctx context.Context, sample types.ProbeSample) error {
	if w.buffer != nil {
		if err := w.buffer.Push(ctx, sample); err == nil {
			return nil
		}
		// Buffer unavailable; land the sample directly rather than drop it.
	}
	return w.store.InsertProbeSample(ctx, &sample)
}
