// Package constraint implements the emergency memory-pressure ladder that
// runs ahead of the normal adaptation strategy on every control-loop tick.
package constraint

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Sumatoshi-tech/parallax/internal/tuning"
)

// Level classifies current memory pressure into one of four bands.
type Level int

const (
	Normal Level = iota
	Medium
	High
	Critical
)

// String returns the lower-case band name used in logs and metrics.
func (l Level) String() string {
	switch l {
	case Medium:
		return "medium"
	case High:
		return "high"
	case Critical:
		return "critical"
	default:
		return "normal"
	}
}

// Watermarks from spec.md §4.3.
const (
	mediumWatermark   = 0.50
	highWatermark     = 0.70
	criticalWatermark = 0.95
)

// Classify maps a memory-usage fraction to its pressure Level.
func Classify(memPercent float64) Level {
	switch {
	case memPercent >= criticalWatermark:
		return Critical
	case memPercent >= highWatermark:
		return High
	case memPercent >= mediumWatermark:
		return Medium
	default:
		return Normal
	}
}

// Overrides reports whether this level's reduction replaces the strategy's
// suggestion outright, per spec.md §4.3 ("the ladder wins").
func (l Level) Overrides() bool {
	return l == High || l == Critical
}

// Hooks are the side effects the Adapter triggers at High/Critical pressure.
// The Adaptation Manager wires these to the live metrics ring buffers and
// task registry; a nil hook is simply skipped.
type Hooks struct {
	TruncateRingBuffers func(keepFraction float64)
	CancelNonEssential  func()
}

// Adapter applies the memory-pressure ladder. It is safe for concurrent use;
// the only mutable state is the GC-hint throttle.
type Adapter struct {
	hooks Hooks

	mu         sync.Mutex
	lastHighGC time.Time
	lastCritGC time.Time
}

// New creates an Adapter with the given side-effect hooks.
func New(hooks Hooks) *Adapter {
	return &Adapter{hooks: hooks}
}

const (
	highGCInterval       = 60 * time.Second
	criticalGCInterval   = 30 * time.Second
	criticalKeepFraction = 0.2
)

// Apply classifies memPercent and, for Medium/High/Critical, returns the
// reduced parameters plus the level observed. Callers combine the returned
// level with [Level.Overrides] to decide whether the strategy's own
// suggestion should still run.
func (a *Adapter) Apply(memPercent float64, current tuning.Parameters) (tuning.Parameters, Level) {
	level := Classify(memPercent)

	switch level {
	case Medium:
		return reduce(current, 0.8, 0.7, 0.7, false), level
	case High:
		a.requestGC(false)

		return reduce(current, 0.6, 0.5, 0.5, false), level
	case Critical:
		a.requestGC(true)

		if a.hooks.TruncateRingBuffers != nil {
			a.hooks.TruncateRingBuffers(criticalKeepFraction)
		}

		if a.hooks.CancelNonEssential != nil {
			a.hooks.CancelNonEssential()
		}

		return reduce(current, 0.4, 0.3, 0, true), level
	default:
		return current, level
	}
}

// requestGC hints the runtime per spec.md §4.3, throttled so a sustained
// high-pressure period doesn't spin the collector. Go has no portable
// young-generation hook, so the High tier's "young-gen GC" request is a
// transient SetGCPercent squeeze rather than a forced collection; Critical
// asks for the real thing via runtime.GC().
func (a *Adapter) requestGC(full bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()

	if full {
		if now.Sub(a.lastCritGC) < criticalGCInterval {
			return
		}

		a.lastCritGC = now
		runtime.GC()

		return
	}

	if now.Sub(a.lastHighGC) < highGCInterval {
		return
	}

	a.lastHighGC = now

	prev := debug.SetGCPercent(10)
	runtime.GC()
	debug.SetGCPercent(prev)
}

// reduce applies multiplicative back-off to workers/chunk and either a
// multiplicative or a forced absolute reduction to batch size. forceBatchOne
// implements the Critical tier's "batch = 1" rule, which is an absolute
// floor rather than a ×0.3 scale.
func reduce(current tuning.Parameters, workersFactor, chunkFactor, batchFactor float64, forceBatchOne bool) tuning.Parameters {
	batch := current.BatchSize
	if forceBatchOne {
		batch = tuning.MinBatchSize
	} else {
		batch = max(int(float64(current.BatchSize)*batchFactor), tuning.MinBatchSize)
	}

	return tuning.Parameters{
		MaxWorkers:     max(int(float64(current.MaxWorkers)*workersFactor), tuning.MinWorkers),
		ChunkSizeBytes: max(int64(float64(current.ChunkSizeBytes)*chunkFactor), tuning.MinChunkSize),
		BatchSize:      batch,
		TimeoutFactor:  current.TimeoutFactor,
	}.Clamp()
}
