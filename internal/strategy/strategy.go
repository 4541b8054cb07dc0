// Package strategy implements the five pluggable adaptation strategies as a
// tagged enum dispatched through [Apply], per the redesign note in
// spec.md §9 ("recast as a tagged-enum... no virtual calls required").
package strategy

import (
	"github.com/Sumatoshi-tech/parallax/internal/resource"
	"github.com/Sumatoshi-tech/parallax/internal/tuning"
)

// Kind identifies one of the five adaptation strategy variants.
type Kind int

const (
	Conservative Kind = iota
	Balanced
	Aggressive
	EnergyEfficient
	ContainerAware
)

// String returns the lower-case name used in configuration and logs.
func (k Kind) String() string {
	switch k {
	case Conservative:
		return "conservative"
	case Balanced:
		return "balanced"
	case Aggressive:
		return "aggressive"
	case EnergyEfficient:
		return "energy_efficient"
	case ContainerAware:
		return "container_aware"
	default:
		return "unknown"
	}
}

// ParseKind maps a configuration string to a Kind. Unknown names fall back
// to Balanced, the safe default.
func ParseKind(name string) Kind {
	switch name {
	case "conservative":
		return Conservative
	case "aggressive":
		return Aggressive
	case "energy_efficient":
		return EnergyEfficient
	case "container_aware":
		return ContainerAware
	default:
		return Balanced
	}
}

// deltaBounds are the universal per-call change bounds from spec.md §4.2
// rule 3, applied regardless of which strategy produced the candidate.
const (
	maxWorkerDelta = 2
	maxBatchDelta  = 2
	minChunkRatio  = 0.3
	maxChunkRatio  = 1.3
)

// Apply computes the next tuning parameters for the given strategy kind,
// snapshot and current parameters. It enforces the three universal rules
// from spec.md §4.2 (never below the floors, never above 2×logical cores,
// bounded per-call deltas) regardless of what the per-strategy function
// proposes.
func Apply(kind Kind, snap resource.Snapshot, current tuning.Parameters) tuning.Parameters {
	var candidate tuning.Parameters

	switch kind {
	case Conservative:
		candidate = conservative(snap, current)
	case Aggressive:
		candidate = aggressive(snap, current)
	case EnergyEfficient:
		candidate = energyEfficient(snap, current)
	case ContainerAware:
		candidate = containerAware(snap, current)
	case Balanced:
		candidate = balanced(snap, current)
	default:
		candidate = balanced(snap, current)
	}

	return bound(current, candidate, snap)
}

// bound enforces the universal rules: clamp the per-call delta on workers
// and batch size, clamp the chunk-size ratio, cap workers at 2×logical
// cores, then clamp to the absolute floors.
func bound(current, candidate tuning.Parameters, snap resource.Snapshot) tuning.Parameters {
	workers := clampDelta(current.MaxWorkers, candidate.MaxWorkers, maxWorkerDelta)
	batch := clampDelta(current.BatchSize, candidate.BatchSize, maxBatchDelta)

	chunk := candidate.ChunkSizeBytes
	if current.ChunkSizeBytes > 0 {
		ratio := float64(chunk) / float64(current.ChunkSizeBytes)
		ratio = clampFloat(ratio, minChunkRatio, maxChunkRatio)
		chunk = int64(float64(current.ChunkSizeBytes) * ratio)
	}

	if snap.LogicalCores > 0 {
		ceiling := 2 * snap.LogicalCores
		if workers > ceiling {
			workers = ceiling
		}
	}

	return tuning.Parameters{
		MaxWorkers:     workers,
		ChunkSizeBytes: chunk,
		BatchSize:      batch,
		TimeoutFactor:  candidate.TimeoutFactor,
	}.Clamp()
}

func clampDelta(from, to, maxDelta int) int {
	if to > from+maxDelta {
		return from + maxDelta
	}

	if to < from-maxDelta {
		return from - maxDelta
	}

	return to
}

func clampFloat(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

// mulWorkers, mulChunk and mulBatch apply a multiplicative adjustment
// relative to current, truncating workers/batch toward zero and raising
// them to at least 1.
func mulWorkers(current tuning.Parameters, factor float64) int {
	v := int(float64(current.MaxWorkers) * factor)

	return max(v, tuning.MinWorkers)
}

func mulChunk(current tuning.Parameters, factor float64) int64 {
	return int64(float64(current.ChunkSizeBytes) * factor)
}

func mulBatch(current tuning.Parameters, factor float64) int {
	v := int(float64(current.BatchSize) * factor)

	return max(v, tuning.MinBatchSize)
}
