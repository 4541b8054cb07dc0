// Package adaptation implements the Adaptation Manager: the control loop
// that ticks the Resource Probe, applies the emergency memory-pressure
// ladder, auto-selects and runs one of the five adaptation strategies, and
// publishes the result to the shared tuning.Store, grounded on the
// teacher's long-lived runner-goroutine-with-ticker shape.
package adaptation

import (
	"context"
	"sync"
	"time"

	"github.com/Sumatoshi-tech/parallax/internal/constraint"
	"github.com/Sumatoshi-tech/parallax/internal/metrics"
	"github.com/Sumatoshi-tech/parallax/internal/resource"
	"github.com/Sumatoshi-tech/parallax/internal/strategy"
	"github.com/Sumatoshi-tech/parallax/internal/tuning"
)

// DefaultInterval is how often the control loop ticks absent an override,
// matching resource_monitor_interval's default from spec.md §6.
const DefaultInterval = 5 * time.Second

// CancelNonEssentialFunc is invoked by the constraint ladder's Critical tier
// to cancel background/low-priority work in progress.
type CancelNonEssentialFunc func()

// Manager runs the adaptation control loop in its own goroutine.
type Manager struct {
	probe    *resource.Probe
	params   *tuning.Store
	ladder   *constraint.Adapter
	interval time.Duration

	mu          sync.Mutex
	lastKind    strategy.Kind
	lastLevel   constraint.Level
	lastApplied time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Manager. pm feeds the ladder's ring-buffer truncation
// hook and cancelNonEssential feeds its task-cancellation hook; either may
// be nil.
func New(probe *resource.Probe, params *tuning.Store, interval time.Duration, pm *metrics.PerformanceMetrics, cancelNonEssential CancelNonEssentialFunc) *Manager {
	if interval <= 0 {
		interval = DefaultInterval
	}

	hooks := constraint.Hooks{}
	if pm != nil {
		hooks.TruncateRingBuffers = pm.TruncateRingBuffers
	}

	if cancelNonEssential != nil {
		hooks.CancelNonEssential = func() { cancelNonEssential() }
	}

	return &Manager{
		probe:    probe,
		params:   params,
		ladder:   constraint.New(hooks),
		interval: interval,
	}
}

// Start launches the control loop goroutine. Calling Start twice without an
// intervening Stop is a programmer error and panics, matching the teacher's
// single-runner-instance convention.
func (m *Manager) Start(ctx context.Context) {
	if m.cancel != nil {
		panic("adaptation: Start called while already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.run(loopCtx)
}

// Stop signals the control loop to exit and blocks until it has.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}

	m.cancel()
	<-m.done
	m.cancel = nil
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Tick()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}

// Tick runs one control-loop iteration: probe, apply the emergency ladder,
// auto-select and apply a strategy, publish the result. It is exported so
// tests and callers that want synchronous control can drive it directly
// instead of waiting on the ticker.
func (m *Manager) Tick() {
	snap := m.probe.Snapshot()
	current := m.params.Snapshot()

	reduced, level := m.ladder.Apply(snap.MemPercent, current)

	kind := AutoSelectStrategy(snap)

	next := reduced
	if !level.Overrides() {
		next = strategy.Apply(kind, snap, reduced)
	}

	m.params.Set(next)

	m.mu.Lock()
	m.lastKind = kind
	m.lastLevel = level
	m.lastApplied = time.Now()
	m.mu.Unlock()
}

// SnapshotParams returns the currently published tuning parameters.
func (m *Manager) SnapshotParams() tuning.Parameters {
	return m.params.Snapshot()
}

// LastDecision reports the strategy kind and pressure level the most
// recent Tick applied, for observability/diagnostics endpoints.
func (m *Manager) LastDecision() (strategy.Kind, constraint.Level, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lastKind, m.lastLevel, m.lastApplied
}

// AutoSelectStrategy picks the adaptation strategy kind for the current
// resource snapshot, per spec.md §4.2's selection table: container-aware
// inside a container, energy-efficient on a draining laptop battery,
// conservative on a spot instance, aggressive on stable (non-laptop,
// non-spot) server capacity, and balanced otherwise.
func AutoSelectStrategy(snap resource.Snapshot) strategy.Kind {
	switch {
	case snap.IsContainer:
		return strategy.ContainerAware
	case snap.IsLaptop && snap.OnBattery:
		return strategy.EnergyEfficient
	case snap.IsSpotInstance:
		return strategy.Conservative
	case !snap.IsLaptop:
		return strategy.Aggressive
	default:
		return strategy.Balanced
	}
}
