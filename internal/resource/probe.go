package resource

import (
	"runtime"
	"sync"
	"time"
)

// DefaultInterval is the default probe tick interval (spec: probe_interval).
const DefaultInterval = 5 * time.Second

// Probe samples system health on demand and caches the last snapshot for up
// to half the configured interval, per spec.md §4.1. Collection must stay
// cheap (<50ms) and never panic; platform-specific collectors swallow their
// own errors and leave the affected field at zero.
type Probe struct {
	interval  time.Duration
	cloudHint CloudHintFunc

	mu       sync.Mutex
	cached   Snapshot
	cachedAt time.Time
	hasCache bool
}

// New creates a Probe with the given tick interval. A non-positive interval
// falls back to DefaultInterval.
func New(interval time.Duration, cloudHint CloudHintFunc) *Probe {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Probe{interval: interval, cloudHint: cloudHint}
}

// Snapshot returns a fresh reading, or the cached one if taken within the
// last interval/2.
func (p *Probe) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.hasCache && time.Since(p.cachedAt) < p.interval/2 {
		return p.cached
	}

	snap := collect()
	snap.LogicalCores = max(snap.LogicalCores, runtime.NumCPU())
	snap.CPUCount = max(snap.CPUCount, runtime.NumCPU())

	if p.cloudHint != nil {
		snap.IsSpotInstance = p.cloudHint()
	}

	snap.TakenAt = time.Now()

	p.cached = snap
	p.cachedAt = snap.TakenAt
	p.hasCache = true

	return snap
}
