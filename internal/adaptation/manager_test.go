package adaptation

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/parallax/internal/metrics"
	"github.com/Sumatoshi-tech/parallax/internal/resource"
	"github.com/Sumatoshi-tech/parallax/internal/strategy"
	"github.com/Sumatoshi-tech/parallax/internal/tuning"
)

func TestAutoSelectStrategy_ContainerTakesPriority(t *testing.T) {
	t.Parallel()

	snap := resource.Snapshot{IsContainer: true, IsLaptop: true, OnBattery: true}
	assert.Equal(t, strategy.ContainerAware, AutoSelectStrategy(snap))
}

func TestAutoSelectStrategy_LaptopOnBatteryIsEnergyEfficient(t *testing.T) {
	t.Parallel()

	snap := resource.Snapshot{IsLaptop: true, OnBattery: true}
	assert.Equal(t, strategy.EnergyEfficient, AutoSelectStrategy(snap))
}

func TestAutoSelectStrategy_SpotInstanceIsConservative(t *testing.T) {
	t.Parallel()

	snap := resource.Snapshot{IsSpotInstance: true}
	assert.Equal(t, strategy.Conservative, AutoSelectStrategy(snap))
}

func TestAutoSelectStrategy_ServerIsAggressive(t *testing.T) {
	t.Parallel()

	snap := resource.Snapshot{IsLaptop: false, IsSpotInstance: false}
	assert.Equal(t, strategy.Aggressive, AutoSelectStrategy(snap))
}

func TestAutoSelectStrategy_LaptopOnACPowerIsBalanced(t *testing.T) {
	t.Parallel()

	snap := resource.Snapshot{IsLaptop: true, OnBattery: false}
	assert.Equal(t, strategy.Balanced, AutoSelectStrategy(snap))
}

func TestTick_PublishesNewParameters(t *testing.T) {
	t.Parallel()

	params := tuning.NewStore(tuning.Default())
	probe := resource.New(time.Second, nil)

	m := New(probe, params, time.Second, metrics.New(), nil)
	m.Tick()

	kind, level, appliedAt := m.LastDecision()
	assert.NotZero(t, appliedAt)
	assert.Contains(t, []strategy.Kind{strategy.Conservative, strategy.Balanced, strategy.Aggressive, strategy.EnergyEfficient, strategy.ContainerAware}, kind)
	_ = level
}

func TestSnapshotParams_ReturnsPublishedValue(t *testing.T) {
	t.Parallel()

	initial := tuning.Default()
	params := tuning.NewStore(initial)
	probe := resource.New(time.Second, nil)

	m := New(probe, params, time.Second, metrics.New(), nil)
	got := m.SnapshotParams()

	assert.Equal(t, initial, got)
}

func TestStartStop_RunsTicksAndStopsCleanly(t *testing.T) {
	t.Parallel()

	params := tuning.NewStore(tuning.Default())
	probe := resource.New(10 * time.Millisecond, nil)

	m := New(probe, params, 10*time.Millisecond, metrics.New(), nil)
	m.Start(context.Background())

	time.Sleep(50 * time.Millisecond)

	_, _, appliedAt := m.LastDecision()
	require.NotZero(t, appliedAt)

	m.Stop()
}

func TestNew_WiresCancelNonEssentialIntoCriticalLadder(t *testing.T) {
	t.Parallel()

	var called atomic.Bool

	params := tuning.NewStore(tuning.Default())
	probe := resource.New(time.Second, nil)

	m := New(probe, params, time.Second, metrics.New(), func() { called.Store(true) })

	m.ladder.Apply(0.99, params.Snapshot())

	assert.True(t, called.Load())
}
