// Package health implements the Health Monitor: a throttled synthetic probe
// that exercises the real chunking path on a small filler workload and
// reports whether the system is currently able to make progress. Its result
// feeds the chunker's health-status selection rule and the /readyz check;
// the circuit breaker's HalfOpen transition does not consult it.
package health

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Sumatoshi-tech/parallax/internal/resource"
)

// ProbeFunc runs one chunking call against text and returns the resulting
// segments. Injected by the caller (the chunker) so this package never
// imports it back, avoiding an import cycle.
type ProbeFunc func(ctx context.Context, text string) ([]string, error)

const (
	fillerWorkloadBytes = 2 * 1024
	probeTimeout        = 5 * time.Second
	throttleInterval    = 5 * time.Second
)

var fillerWorkload = strings.Repeat("healthcheck filler payload. ", fillerWorkloadBytes/len("healthcheck filler payload. ")+1)[:fillerWorkloadBytes]

// Result is the outcome of one probe run.
type Result struct {
	Success    bool
	Duration   time.Duration
	Err        error
	CPUPercent float64
	MemPercent float64
	CheckedAt  time.Time
}

// Status buckets a Result against resource.Snapshot pressure, matching the
// constraint ladder's bands.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Monitor throttles probe execution: repeated calls within throttleInterval
// of the last run return the cached Result instead of re-running the probe.
type Monitor struct {
	probe  ProbeFunc
	probeR *resource.Probe

	mu      sync.Mutex
	last    Result
	lastRun time.Time
	hasRun  bool
}

// New creates a Monitor that runs probe against a synthetic filler workload
// and reads resource pressure from probeR.
func New(probe ProbeFunc, probeR *resource.Probe) *Monitor {
	return &Monitor{probe: probe, probeR: probeR}
}

// Check runs the probe if the throttle window has elapsed, otherwise returns
// the cached Result.
func (m *Monitor) Check(ctx context.Context) Result {
	m.mu.Lock()
	if m.hasRun && time.Since(m.lastRun) < throttleInterval {
		cached := m.last
		m.mu.Unlock()

		return cached
	}
	m.mu.Unlock()

	result := m.run(ctx)

	m.mu.Lock()
	m.last = result
	m.lastRun = time.Now()
	m.hasRun = true
	m.mu.Unlock()

	return result
}

func (m *Monitor) run(ctx context.Context) Result {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	_, err := m.probe(probeCtx, fillerWorkload)
	elapsed := time.Since(start)

	result := Result{
		Success:   err == nil,
		Duration:  elapsed,
		Err:       err,
		CheckedAt: time.Now(),
	}

	if m.probeR != nil {
		snap := m.probeR.Snapshot()
		result.CPUPercent = snap.CPUPercent
		result.MemPercent = snap.MemPercent
	}

	return result
}

// Classify derives a Status from a Result, using the same pressure bands the
// constraint ladder uses for memory.
func Classify(r Result) Status {
	if !r.Success {
		return StatusCritical
	}

	switch {
	case r.MemPercent >= 0.95:
		return StatusCritical
	case r.MemPercent >= 0.70:
		return StatusWarning
	default:
		return StatusHealthy
	}
}
