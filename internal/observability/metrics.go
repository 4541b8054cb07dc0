package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ProcessingMetrics records OTel instruments for chunk processing calls,
// the chunker's counterpart to the in-process ring buffers kept by
// internal/metrics for the adaptation control loop.
type ProcessingMetrics struct {
	chunksTotal      metric.Int64Counter
	chunkDuration    metric.Float64Histogram
	chunkErrorsTotal metric.Int64Counter
	inflightChunks   metric.Int64UpDownCounter
}

// NewProcessingMetrics registers the chunk-processing instrument set on mt.
func NewProcessingMetrics(mt metric.Meter) (*ProcessingMetrics, error) {
	chunksTotal, err := mt.Int64Counter("parallax.chunks.total",
		metric.WithDescription("Total chunk() invocations by strategy and outcome."))
	if err != nil {
		return nil, err
	}

	chunkDuration, err := mt.Float64Histogram("parallax.chunks.duration_seconds",
		metric.WithDescription("Chunk processing latency in seconds."))
	if err != nil {
		return nil, err
	}

	chunkErrorsTotal, err := mt.Int64Counter("parallax.chunks.errors_total",
		metric.WithDescription("Total chunk() invocations that returned an error."))
	if err != nil {
		return nil, err
	}

	inflightChunks, err := mt.Int64UpDownCounter("parallax.chunks.inflight",
		metric.WithDescription("Chunk calls currently in progress."))
	if err != nil {
		return nil, err
	}

	return &ProcessingMetrics{
		chunksTotal:      chunksTotal,
		chunkDuration:    chunkDuration,
		chunkErrorsTotal: chunkErrorsTotal,
		inflightChunks:   inflightChunks,
	}, nil
}

// RecordChunk reports the outcome of one chunk() call under the given
// strategy ("simple", "advanced", "emergency") and status ("ok", "error").
func (m *ProcessingMetrics) RecordChunk(ctx context.Context, strategy, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("strategy", strategy),
		attribute.String("status", status),
	)

	m.chunksTotal.Add(ctx, 1, attrs)
	m.chunkDuration.Record(ctx, duration.Seconds(), attrs)

	if status != "ok" {
		m.chunkErrorsTotal.Add(ctx, 1, attrs)
	}
}

// TrackInflight increments the inflight gauge for strategy and returns a
// func that decrements it; call it via defer at the call site.
func (m *ProcessingMetrics) TrackInflight(ctx context.Context, strategy string) func() {
	attrs := metric.WithAttributes(attribute.String("strategy", strategy))
	m.inflightChunks.Add(ctx, 1, attrs)

	return func() {
		m.inflightChunks.Add(ctx, -1, attrs)
	}
}
