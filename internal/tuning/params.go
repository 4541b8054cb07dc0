// Package tuning owns the single instance of [Parameters] the Resource
// Adaptation Core mutates and the Smart Parallel Chunker reads.
package tuning

import (
	"sync/atomic"

	"github.com/Sumatoshi-tech/parallax/pkg/units"
)

// Minimum bounds enforced on every published value, per spec.md §3.
const (
	MinWorkers       = 1
	MinChunkSize     = units.KiB
	MinBatchSize     = 1
	MinTimeoutFactor = 1.0
)

// Parameters are the mutable tuning knobs the Adaptation Manager owns.
// A Parameters value is always treated as immutable once published: callers
// that want to change it build a new value and publish it through [Store].
type Parameters struct {
	MaxWorkers     int
	ChunkSizeBytes int64
	BatchSize      int
	TimeoutFactor  float64
}

// Clamp returns a copy of p with the universal bounds from spec.md §4.2
// rule 1 enforced; the receiver itself is not modified.
func (p Parameters) Clamp() Parameters {
	if p.MaxWorkers < MinWorkers {
		p.MaxWorkers = MinWorkers
	}

	if p.ChunkSizeBytes < MinChunkSize {
		p.ChunkSizeBytes = MinChunkSize
	}

	if p.BatchSize < MinBatchSize {
		p.BatchSize = MinBatchSize
	}

	if p.TimeoutFactor < MinTimeoutFactor {
		p.TimeoutFactor = MinTimeoutFactor
	}

	return p
}

// Default returns the conservative starting point used before the first
// adaptation tick runs.
func Default() Parameters {
	return Parameters{
		MaxWorkers:     4,
		ChunkSizeBytes: 256 * units.KiB,
		BatchSize:      8,
		TimeoutFactor:  1.0,
	}.Clamp()
}

// Store publishes [Parameters] atomically: a single writer (the Adaptation
// Manager) calls Set, many readers call Snapshot, per spec.md §3's
// "readers observe a consistent snapshot" invariant.
type Store struct {
	ptr atomic.Pointer[Parameters]
}

// NewStore creates a Store seeded with initial.
func NewStore(initial Parameters) *Store {
	s := &Store{}
	s.Set(initial)

	return s
}

// Snapshot returns the current published value.
func (s *Store) Snapshot() Parameters {
	p := s.ptr.Load()
	if p == nil {
		return Default()
	}

	return *p
}

// Set publishes a new value atomically, clamping it to the universal bounds
// first.
func (s *Store) Set(p Parameters) {
	clamped := p.Clamp()
	s.ptr.Store(&clamped)
}
