package chunker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/parallax/internal/breaker"
	"github.com/Sumatoshi-tech/parallax/internal/metrics"
	"github.com/Sumatoshi-tech/parallax/internal/resource"
	"github.com/Sumatoshi-tech/parallax/internal/tuning"
)

func newTestChunker(t *testing.T, mutate func(*Config)) *Chunker {
	t.Helper()

	cfg := DefaultConfig()
	cfg.SizeThresholdBytes = 50
	cfg.ComplexityThreshold = 100 // never trips Advanced unless forced

	if mutate != nil {
		mutate(&cfg)
	}

	params := tuning.NewStore(tuning.Parameters{
		MaxWorkers:     4,
		ChunkSizeBytes: 32,
		BatchSize:      2,
		TimeoutFactor:  1.0,
	})

	c := New(cfg, params, breaker.New(), metrics.New(), resource.New(time.Second, nil))
	t.Cleanup(c.Shutdown)

	return c
}

func echo(s string) (string, error) { return s, nil }

func TestChunk_RejectsEmptyInput(t *testing.T) {
	t.Parallel()

	c := newTestChunker(t, nil)

	_, err := c.Chunk(context.Background(), "", echo)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestChunk_ProcessesEverySegmentAndPreservesOrder(t *testing.T) {
	t.Parallel()

	c := newTestChunker(t, nil)
	text := strings.Repeat("a", 40) + strings.Repeat("b", 40)

	out, err := c.Chunk(context.Background(), text, echo)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, text, strings.Join(out, ""))
}

func TestChunk_RespectsForceStrategySimple(t *testing.T) {
	t.Parallel()

	c := newTestChunker(t, func(cfg *Config) {
		cfg.ForceStrategy = "simple"
		cfg.ComplexityThreshold = 0 // would otherwise always select Advanced
	})

	text := strings.Repeat("x", 100)
	mode := c.decideMode(text)
	assert.Equal(t, metrics.DecisionSimple, mode)
}

func TestChunk_RespectsForceStrategyAdvanced(t *testing.T) {
	t.Parallel()

	c := newTestChunker(t, func(cfg *Config) {
		cfg.ForceStrategy = "advanced"
		cfg.ComplexityThreshold = 100 // would otherwise always select Simple
	})

	text := strings.Repeat("x", 100)
	mode := c.decideMode(text)
	assert.Equal(t, metrics.DecisionAdvanced, mode)
}

func TestChunk_SmallInputBelowSizeThresholdUsesSimple(t *testing.T) {
	t.Parallel()

	c := newTestChunker(t, func(cfg *Config) {
		cfg.ComplexityThreshold = 0 // would otherwise select Advanced if not for size rule
	})

	mode := c.decideMode("short")
	assert.Equal(t, metrics.DecisionSimple, mode)
}

func TestChunk_RejectsWhenCircuitOpen(t *testing.T) {
	t.Parallel()

	c := newTestChunker(t, nil)

	for range 10 {
		c.brk.RecordFailure(true)
	}

	require.Equal(t, breaker.Open, c.brk.State())

	_, err := c.Chunk(context.Background(), "hello world", echo)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestChunk_FailingFnReturnsStrategyFailureAfterRetry(t *testing.T) {
	t.Parallel()

	c := newTestChunker(t, nil)
	boom := func(string) (string, error) { return "", errors.New("boom") }

	_, err := c.Chunk(context.Background(), strings.Repeat("z", 100), boom)
	assert.ErrorIs(t, err, ErrStrategyFailure)
}

func TestChunk_TimeoutFallsBackToEmergencyConservativeSplit(t *testing.T) {
	t.Parallel()

	c := newTestChunker(t, func(cfg *Config) {
		cfg.SizeThresholdBytes = 200
	})

	slow := func(s string) (string, error) {
		time.Sleep(50 * time.Millisecond)

		return s, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	out, err := c.ChunkWithPriority(ctx, strings.Repeat("w", 1000), slow, PriorityHigh)
	assert.ErrorIs(t, err, ErrTimeout)
	// Emergency fallback only covers the first size_threshold bytes.
	assert.Equal(t, strings.Repeat("w", 200), strings.Join(out, ""))
}

func TestGetMetrics_ReflectsCompletedCalls(t *testing.T) {
	t.Parallel()

	c := newTestChunker(t, nil)

	_, err := c.Chunk(context.Background(), strings.Repeat("a", 100), echo)
	require.NoError(t, err)

	snap := c.GetMetrics()
	assert.Positive(t, snap.TotalChunks)
}

func TestResetMetrics_ClearsCounters(t *testing.T) {
	t.Parallel()

	c := newTestChunker(t, nil)

	_, err := c.Chunk(context.Background(), strings.Repeat("a", 100), echo)
	require.NoError(t, err)

	c.ResetMetrics()

	snap := c.GetMetrics()
	assert.Zero(t, snap.TotalChunks)
}

func TestStreamChunks_EmitsOneResultPerInputSegment(t *testing.T) {
	t.Parallel()

	c := newTestChunker(t, nil)

	in := make(chan string, 3)
	in <- "one"
	in <- "two"
	in <- "three"
	close(in)

	out, err := c.StreamChunks(context.Background(), in, echo)
	require.NoError(t, err)

	var got []string
	for s := range out {
		got = append(got, s)
	}

	assert.ElementsMatch(t, []string{"one", "two", "three"}, got)
}

func TestStreamChunks_RejectsWhenCircuitOpen(t *testing.T) {
	t.Parallel()

	c := newTestChunker(t, nil)

	for range 10 {
		c.brk.RecordFailure(true)
	}

	in := make(chan string)
	defer close(in)

	_, err := c.StreamChunks(context.Background(), in, echo)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestChunkWithPriority_HighTierUsesShorterTimeoutThanBackground(t *testing.T) {
	t.Parallel()

	assert.Less(t, tierFor(PriorityHigh).timeout, tierFor(PriorityBackground).timeout)
	assert.Greater(t, tierFor(PriorityHigh).maxRetries, 0)
}
