package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_RunsProbeOnFirstCall(t *testing.T) {
	t.Parallel()

	calls := 0
	probe := func(_ context.Context, _ string) ([]string, error) {
		calls++
		return []string{"ok"}, nil
	}

	m := New(probe, nil)
	result := m.Check(context.Background())

	require.Equal(t, 1, calls)
	assert.True(t, result.Success)
	assert.NoError(t, result.Err)
}

func TestCheck_ThrottlesRepeatedCallsWithinWindow(t *testing.T) {
	t.Parallel()

	calls := 0
	probe := func(_ context.Context, _ string) ([]string, error) {
		calls++
		return nil, nil
	}

	m := New(probe, nil)
	m.Check(context.Background())
	m.Check(context.Background())
	m.Check(context.Background())

	assert.Equal(t, 1, calls)
}

func TestCheck_ReportsFailureFromProbeError(t *testing.T) {
	t.Parallel()

	probe := func(_ context.Context, _ string) ([]string, error) {
		return nil, errors.New("boom")
	}

	m := New(probe, nil)
	result := m.Check(context.Background())

	assert.False(t, result.Success)
	assert.Error(t, result.Err)
}

func TestClassify_SuccessWithLowMemoryIsHealthy(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StatusHealthy, Classify(Result{Success: true, MemPercent: 0.3}))
}

func TestClassify_SuccessWithHighMemoryIsWarning(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StatusWarning, Classify(Result{Success: true, MemPercent: 0.8}))
}

func TestClassify_SuccessWithCriticalMemoryIsCritical(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StatusCritical, Classify(Result{Success: true, MemPercent: 0.97}))
}

func TestClassify_FailureIsAlwaysCritical(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StatusCritical, Classify(Result{Success: false, MemPercent: 0.1}))
}

func TestCheck_HonoursProbeTimeout(t *testing.T) {
	t.Parallel()

	probe := func(ctx context.Context, _ string) ([]string, error) {
		select {
		case <-time.After(10 * time.Second):
			return []string{"too slow"}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m := New(probe, nil)

	start := time.Now()
	result := m.Check(context.Background())
	elapsed := time.Since(start)

	assert.False(t, result.Success)
	assert.Less(t, elapsed, probeTimeout+time.Second)
}
