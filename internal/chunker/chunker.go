// Package chunker implements the Smart Parallel Chunker: the public entry
// point that decides, per call, whether to run the Simple bounded-worker
// path or the Advanced persistent-pool path, retries once on failure,
// degrades to an emergency conservative split on timeout, and reports every
// decision to the Performance Metrics and Circuit Breaker collaborators.
package chunker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sumatoshi-tech/parallax/internal/breaker"
	"github.com/Sumatoshi-tech/parallax/internal/constraint"
	"github.com/Sumatoshi-tech/parallax/internal/health"
	"github.com/Sumatoshi-tech/parallax/internal/metrics"
	"github.com/Sumatoshi-tech/parallax/internal/resource"
	"github.com/Sumatoshi-tech/parallax/internal/segment"
	"github.com/Sumatoshi-tech/parallax/internal/tuning"
)

const errorRateWindow = time.Minute

const errorRateThreshold = 0.5 // events/minute, spec.md §4.8 rule 6

const memoryPressureThreshold = 0.80 // spec.md §4.8 rule 5

const oversizeMultiple = 10 // spec.md §4.8 rule 5: size > 10x threshold

// Chunker is the Smart Parallel Chunker. Construct with New; it owns a
// persistent worker pool and must be shut down with Shutdown.
type Chunker struct {
	cfg     Config
	params  *tuning.Store
	brk     *breaker.Breaker
	pm      *metrics.PerformanceMetrics
	probe   *resource.Probe
	pool    *pool
	health  *health.Monitor
	errRate *rateWindow

	lastModeMu sync.Mutex
	lastMode   metrics.Decision
}

func (c *Chunker) recordLastMode(mode metrics.Decision) {
	c.lastModeMu.Lock()
	c.lastMode = mode
	c.lastModeMu.Unlock()
}

func (c *Chunker) lastModeWas(mode metrics.Decision) bool {
	c.lastModeMu.Lock()
	defer c.lastModeMu.Unlock()

	return c.lastMode == mode
}

// New constructs a Chunker wired to the given collaborators. probe supplies
// resource readings for the memory-safety rule and the health probe; brk and
// pm may be shared with other components, and the Adaptation Manager takes
// the same pm for its ring-buffer truncation hook.
func New(cfg Config, params *tuning.Store, brk *breaker.Breaker, pm *metrics.PerformanceMetrics, probe *resource.Probe) *Chunker {
	c := &Chunker{
		cfg:     cfg,
		params:  params,
		brk:     brk,
		pm:      pm,
		probe:   probe,
		errRate: newRateWindow(errorRateWindow),
	}

	c.pool = newPool(params.Snapshot().MaxWorkers)

	c.health = health.New(func(ctx context.Context, text string) ([]string, error) {
		return c.executeSimple(ctx, text, func(s string) (string, error) { return s, nil })
	}, probe)

	return c
}

// Chunk splits text into segments, processes each through fn and returns
// the results in order, using the Normal QoS tier.
func (c *Chunker) Chunk(ctx context.Context, text string, fn ChunkFunc) ([]string, error) {
	return c.ChunkWithPriority(ctx, text, fn, PriorityNormal)
}

// ChunkWithPriority is Chunk under the given QoS tier: priority sets the
// per-call timeout, and a tier with a zero retry budget skips the single
// Simple retry. The tier's batch-size multiplier is not applied; batches use
// the published BatchSize unchanged.
func (c *Chunker) ChunkWithPriority(ctx context.Context, text string, fn ChunkFunc, priority Priority) ([]string, error) {
	if len(text) == 0 {
		return nil, ErrEmptyInput
	}

	if c.brk.IsOpen() {
		c.pm.RecordError()

		return nil, ErrCircuitOpen
	}

	tier := tierFor(priority)

	timeout := time.Duration(float64(tier.timeout) * c.params.Snapshot().TimeoutFactor)

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	result, mode, err := c.runWithRetry(callCtx, text, fn, tier)
	elapsed := time.Since(start)

	if err != nil {
		c.brk.RecordFailure(c.criticalPressure())
		c.pm.RecordError()

		if errors.Is(err, ErrTimeout) {
			return result, err
		}

		return nil, err
	}

	c.brk.RecordSuccess()
	c.pm.RecordProcessing(elapsed, int64(len(text)), len(result))
	c.pm.RecordDecision(mode)
	c.recordLastMode(mode)

	return result, nil
}

// StreamChunks consumes a pre-segmented generator channel and returns a
// channel of processed results, batching segments per the current BatchSize
// and running them through the Simple bounded-worker path. The returned
// channel is closed when segments closes or ctx is cancelled.
func (c *Chunker) StreamChunks(ctx context.Context, segments <-chan string, fn ChunkFunc) (<-chan string, error) {
	if c.brk.IsOpen() {
		return nil, ErrCircuitOpen
	}

	out := make(chan string)

	go c.streamLoop(ctx, segments, fn, out)

	return out, nil
}

func (c *Chunker) streamLoop(ctx context.Context, segments <-chan string, fn ChunkFunc, out chan<- string) {
	defer close(out)

	params := c.params.Snapshot()
	batch := make([]string, 0, params.BatchSize)

	flush := func() bool {
		if len(batch) == 0 {
			return true
		}

		start := time.Now()

		results, err := runBatch(batch, fn, params.MaxWorkers)
		if err != nil {
			c.pm.RecordError()
			c.brk.RecordFailure(c.criticalPressure())
			batch = batch[:0]

			return false
		}

		var bytesIn int64
		for _, seg := range batch {
			bytesIn += int64(len(seg))
		}

		c.pm.RecordProcessing(time.Since(start), bytesIn, len(results))
		c.pm.RecordBatchSize(len(batch))
		c.brk.RecordSuccess()

		for _, r := range results {
			select {
			case out <- r:
			case <-ctx.Done():
				return false
			}
		}

		batch = batch[:0]

		return true
	}

	for {
		select {
		case <-ctx.Done():
			flush()

			return
		case seg, ok := <-segments:
			if !ok {
				flush()

				return
			}

			batch = append(batch, seg)
			if len(batch) >= params.BatchSize {
				if !flush() {
					return
				}
			}
		}
	}
}

// GetMetrics returns a snapshot of the Performance Metrics collaborator.
func (c *Chunker) GetMetrics() metrics.Snapshot {
	return c.pm.Snapshot()
}

// ResetMetrics clears the Performance Metrics collaborator.
func (c *Chunker) ResetMetrics() {
	c.pm.Reset()
}

// Shutdown stops the persistent worker pool. The Chunker must not be used
// after Shutdown returns.
func (c *Chunker) Shutdown() {
	c.pool.Shutdown()
}

// runWithRetry executes text once under the decided mode, retries once via
// Simple on a non-timeout failure, and falls back to an emergency
// conservative split on timeout, per spec.md §4.8.
func (c *Chunker) runWithRetry(ctx context.Context, text string, fn ChunkFunc, tier qosTier) ([]string, metrics.Decision, error) {
	mode := c.decideMode(text)

	out, err := c.execute(ctx, mode, text, fn)
	if err == nil {
		return out, mode, nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return c.emergencyFallback(text, fn)
	}

	if tier.maxRetries < 1 {
		return nil, mode, fmt.Errorf("%w: %w", ErrStrategyFailure, err)
	}

	c.pm.RecordRetry()

	out2, err2 := c.execute(ctx, metrics.DecisionSimple, text, fn)
	if err2 == nil {
		return out2, metrics.DecisionSimple, nil
	}

	if errors.Is(err2, context.DeadlineExceeded) {
		return c.emergencyFallback(text, fn)
	}

	return nil, mode, fmt.Errorf("%w: %w", ErrStrategyFailure, err2)
}

// emergencyFallback processes the first size_threshold bytes of text with
// the conservative splitter, per spec.md §4.8's timeout behaviour. It
// always reports ErrTimeout alongside whatever partial result it managed,
// since the full input was never completed.
func (c *Chunker) emergencyFallback(text string, fn ChunkFunc) ([]string, metrics.Decision, error) {
	limit := len(text)
	if threshold := int(c.cfg.SizeThresholdBytes); threshold > 0 && threshold < limit {
		limit = threshold
	}

	segments := segment.SplitConservative(text[:limit], int(c.cfg.SizeThresholdBytes))

	out := make([]string, 0, len(segments))

	for _, seg := range segments {
		r, err := fn(seg)
		if err != nil {
			return out, metrics.DecisionSimple, ErrTimeout
		}

		out = append(out, r)
	}

	return out, metrics.DecisionSimple, ErrTimeout
}

// execute dispatches to the Simple or Advanced execution path.
func (c *Chunker) execute(ctx context.Context, mode metrics.Decision, text string, fn ChunkFunc) ([]string, error) {
	if mode == metrics.DecisionAdvanced {
		return c.executeAdvanced(ctx, text, fn)
	}

	return c.executeSimple(ctx, text, fn)
}

// executeSimple segments text with the Streaming Buffer and processes it in
// BatchSize-sized bounded-worker batches, halving the batch size whenever
// memory usage grows more than 10 percentage points between batches
// (adaptive_batch_sizing), per spec.md §4.8.
func (c *Chunker) executeSimple(ctx context.Context, text string, fn ChunkFunc) ([]string, error) {
	params := c.params.Snapshot()

	segments := segment.Split(text, int(params.ChunkSizeBytes))
	if len(segments) == 0 {
		return nil, nil
	}

	results := make([]string, len(segments))
	batchSize := max(params.BatchSize, 1)
	memBefore := c.currentMemPercent()

	for i := 0; i < len(segments); {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		end := min(i+batchSize, len(segments))

		out, err := runBatch(segments[i:end], fn, params.MaxWorkers)
		if err != nil {
			return nil, err
		}

		copy(results[i:end], out)
		c.pm.RecordBatchSize(end - i)

		if c.cfg.AdaptiveBatchSizing {
			memAfter := c.currentMemPercent()
			if memAfter-memBefore > 0.10 {
				batchSize = max(batchSize/2, 1)
			}

			memBefore = memAfter
		}

		i = end
	}

	return results, nil
}

// executeAdvanced submits the whole segmented text to the persistent worker
// pool in one shot. If the pool has no live workers it falls back to
// Simple, per spec.md §4.8.
func (c *Chunker) executeAdvanced(ctx context.Context, text string, fn ChunkFunc) ([]string, error) {
	if c.pool == nil || c.pool.Workers() == 0 {
		return c.executeSimple(ctx, text, fn)
	}

	params := c.params.Snapshot()

	segments := segment.Split(text, int(params.ChunkSizeBytes))
	if len(segments) == 0 {
		return nil, nil
	}

	type outcome struct {
		out []string
		err error
	}

	done := make(chan outcome, 1)

	go func() {
		out, err := c.pool.Run(segments, fn)
		done <- outcome{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.out, res.err
	}
}

// decideMode applies the 7-rule strategy-selection precedence from
// spec.md §4.8. The circuit-breaker open/rejected case is handled by the
// caller before decideMode runs; here a HalfOpen probe call is detected via
// the breaker's own state and forced onto the conservative Simple path.
func (c *Chunker) decideMode(text string) metrics.Decision {
	if c.cfg.ForceStrategy != "" {
		if c.cfg.ForceStrategy == "advanced" {
			return metrics.DecisionAdvanced
		}

		return metrics.DecisionSimple
	}

	if c.brk.State() == breaker.HalfOpen {
		return metrics.DecisionSimple
	}

	if c.cfg.HealthCheckEnabled {
		status := health.Classify(c.health.Check(context.Background()))
		if status == health.StatusCritical || status == health.StatusWarning {
			return metrics.DecisionSimple
		}
	}

	threshold := c.cfg.SizeThresholdBytes
	if int64(len(text)) < threshold {
		return metrics.DecisionSimple
	}

	memPercent := c.currentMemPercent()
	if c.cfg.MemorySafety && memPercent > memoryPressureThreshold && int64(len(text)) > threshold*oversizeMultiple {
		return metrics.DecisionSimple
	}

	if c.lastModeWas(metrics.DecisionAdvanced) && c.errRate.PerMinute(time.Now()) > errorRateThreshold {
		return metrics.DecisionSimple
	}

	if EstimateComplexity(text) >= c.cfg.ComplexityThreshold {
		return metrics.DecisionAdvanced
	}

	return metrics.DecisionSimple
}

func (c *Chunker) currentMemPercent() float64 {
	if c.probe == nil {
		return 0
	}

	snap := c.probe.Snapshot()
	c.pm.RecordMemory(snap.MemPercent)

	return snap.MemPercent
}

func (c *Chunker) criticalPressure() bool {
	c.errRate.Record(time.Now())

	return constraint.Classify(c.currentMemPercent()) == constraint.Critical
}
