// Package metrics implements the ring-buffer performance tracking and
// throughput regression consumed by the chunker and exposed to callers as a
// read-only snapshot, grounded on the teacher's EMA/observation-tracking
// style and reusing pkg/alg/stats directly.
package metrics

import (
	"sync"
	"time"

	"github.com/Sumatoshi-tech/parallax/pkg/alg/stats"
)

// Decision identifies which execution path the chunker took for a call.
type Decision string

const (
	DecisionSimple   Decision = "simple"
	DecisionAdvanced Decision = "advanced"
)

// Ring buffer capacities from spec.md §3.
const (
	processingTimesCap = 100
	throughputsCap     = 20
	batchSizesCap      = 50
	memorySamplesCap   = 20
	workloadHistoryCap = 50
)

const avgProcessingTimeAlpha = 0.1

// WorkloadSample is one (bytes, elapsed, throughput) observation used by the
// throughput regression.
type WorkloadSample struct {
	Bytes      float64
	Elapsed    float64
	Throughput float64
}

// Snapshot is an immutable, owned copy of the metrics counters, returned by
// [PerformanceMetrics.Snapshot] so callers never see a struct mutating out
// from under them.
type Snapshot struct {
	TotalChunks       int64
	TotalBytes        int64
	Errors            int64
	Retries           int64
	StrategySwitches  int64
	DecisionsSimple   int64
	DecisionsAdvanced int64
	AvgProcessingTime time.Duration
}

// PerformanceMetrics holds the bounded ring buffers and counters from
// spec.md §3/§4.6. All mutations go through a single mutex; readers copy out
// into an owned [Snapshot].
type PerformanceMetrics struct {
	mu sync.Mutex

	processingTimes *Ring[float64]
	throughputs     *Ring[float64]
	batchSizes      *Ring[int]
	memorySamples   *Ring[float64]
	workloadHistory *Ring[WorkloadSample]

	avgProcessingTime stats.EMA
	lastDecision      Decision

	totalChunks       int64
	totalBytes        int64
	errors            int64
	retries           int64
	strategySwitches  int64
	decisionsSimple   int64
	decisionsAdvanced int64
}

// New creates an empty PerformanceMetrics.
func New() *PerformanceMetrics {
	return &PerformanceMetrics{
		processingTimes:   NewRing[float64](processingTimesCap),
		throughputs:       NewRing[float64](throughputsCap),
		batchSizes:        NewRing[int](batchSizesCap),
		memorySamples:     NewRing[float64](memorySamplesCap),
		workloadHistory:   NewRing[WorkloadSample](workloadHistoryCap),
		avgProcessingTime: *stats.NewEMA(avgProcessingTimeAlpha),
	}
}

// RecordProcessing records one completed chunk() call: elapsed wall time,
// input byte count and number of output chunks produced. It feeds the
// processing-time ring, the throughput ring and the workload history used by
// throughput prediction.
func (m *PerformanceMetrics) RecordProcessing(elapsed time.Duration, bytesIn int64, chunksOut int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elapsedSeconds := elapsed.Seconds()
	m.processingTimes.Push(elapsedSeconds)
	m.avgProcessingTime.Update(elapsedSeconds)

	m.totalChunks += int64(chunksOut)
	m.totalBytes += bytesIn

	if elapsedSeconds <= 0 {
		return
	}

	throughput := float64(bytesIn) / elapsedSeconds
	m.throughputs.Push(throughput)
	m.workloadHistory.Push(WorkloadSample{
		Bytes:      float64(bytesIn),
		Elapsed:    elapsedSeconds,
		Throughput: throughput,
	})
}

// RecordDecision records which strategy a call used, incrementing
// strategy_switches when it differs from the previous decision.
func (m *PerformanceMetrics) RecordDecision(decision Decision) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastDecision != "" && m.lastDecision != decision {
		m.strategySwitches++
	}

	switch decision {
	case DecisionSimple:
		m.decisionsSimple++
	case DecisionAdvanced:
		m.decisionsAdvanced++
	}

	m.lastDecision = decision
}

// RecordError increments the error counter.
func (m *PerformanceMetrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errors++
}

// RecordRetry increments the retry counter.
func (m *PerformanceMetrics) RecordRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.retries++
}

// RecordBatchSize pushes the effective batch size used for a submission.
func (m *PerformanceMetrics) RecordBatchSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batchSizes.Push(n)
}

// RecordMemory pushes a memory-usage sample in [0,1].
func (m *PerformanceMetrics) RecordMemory(pct float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.memorySamples.Push(pct)
}

// PredictThroughput estimates throughput for a workload of the given byte
// size. With fewer than 3 workload-history samples it returns the
// arithmetic mean of observed throughputs; otherwise it fits a linear
// regression of throughput on bytes and clamps the prediction to
// [min_observed × 0.8, max_observed × 1.2], per spec.md §4.6.
func (m *PerformanceMetrics) PredictThroughput(bytesIn float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	samples := m.workloadHistory.Values()
	if len(samples) < 3 {
		return stats.Mean(m.throughputs.Values())
	}

	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))

	for i, s := range samples {
		xs[i] = s.Bytes
		ys[i] = s.Throughput
	}

	fit, ok := stats.FitLinear(xs, ys)
	if !ok {
		return stats.Mean(ys)
	}

	prediction := fit.Predict(bytesIn)

	minObserved := stats.Min(ys)
	maxObserved := stats.Max(ys)

	return stats.Clamp(prediction, minObserved*0.8, maxObserved*1.2)
}

// AvgProcessingTime returns the exponentially smoothed average processing
// time, zero until the first sample.
func (m *PerformanceMetrics) AvgProcessingTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	return time.Duration(m.avgProcessingTime.Value() * float64(time.Second))
}

// TruncateRingBuffers keeps only the most recent keepFraction of every ring
// buffer's contents. Wired as the constraint ladder's Critical-tier hook.
func (m *PerformanceMetrics) TruncateRingBuffers(keepFraction float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processingTimes.TruncateToFraction(keepFraction)
	m.throughputs.TruncateToFraction(keepFraction)
	m.batchSizes.TruncateToFraction(keepFraction)
	m.memorySamples.TruncateToFraction(keepFraction)
	m.workloadHistory.TruncateToFraction(keepFraction)
}

// Snapshot copies out the current counters.
func (m *PerformanceMetrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		TotalChunks:       m.totalChunks,
		TotalBytes:        m.totalBytes,
		Errors:            m.errors,
		Retries:           m.retries,
		StrategySwitches:  m.strategySwitches,
		DecisionsSimple:   m.decisionsSimple,
		DecisionsAdvanced: m.decisionsAdvanced,
		AvgProcessingTime: time.Duration(m.avgProcessingTime.Value() * float64(time.Second)),
	}
}

// Reset clears every counter and ring buffer, implementing the chunker's
// public reset_metrics() operation.
func (m *PerformanceMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processingTimes = NewRing[float64](processingTimesCap)
	m.throughputs = NewRing[float64](throughputsCap)
	m.batchSizes = NewRing[int](batchSizesCap)
	m.memorySamples = NewRing[float64](memorySamplesCap)
	m.workloadHistory = NewRing[WorkloadSample](workloadHistoryCap)
	m.avgProcessingTime = *stats.NewEMA(avgProcessingTimeAlpha)
	m.lastDecision = ""
	m.totalChunks = 0
	m.totalBytes = 0
	m.errors = 0
	m.retries = 0
	m.strategySwitches = 0
	m.decisionsSimple = 0
	m.decisionsAdvanced = 0
}
