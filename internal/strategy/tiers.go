package strategy

import (
	"github.com/Sumatoshi-tech/parallax/internal/resource"
	"github.com/Sumatoshi-tech/parallax/internal/tuning"
)

// conservative favours stability: it reacts earlier than the other
// strategies (tighter thresholds) and backs off harder.
func conservative(snap resource.Snapshot, current tuning.Parameters) tuning.Parameters {
	mem, cpu := snap.MemPercent, snap.CPUPercent

	switch {
	case mem > 0.85 || cpu > 0.9:
		return scale(current, 0.8, 0.7, 0.7)
	case mem > 0.75 || cpu > 0.8:
		return scale(current, 0.9, 0.8, 0.8)
	case mem < 0.3 && cpu < 0.3:
		return grow(current, 1, 1.1, 1)
	default:
		return current
	}
}

// balanced uses the header thresholds from spec.md §4.2 directly and is the
// fallback for an unrecognised Kind.
func balanced(snap resource.Snapshot, current tuning.Parameters) tuning.Parameters {
	return balancedCore(snap.MemPercent, snap.CPUPercent, current)
}

func balancedCore(mem, cpu float64, current tuning.Parameters) tuning.Parameters {
	switch {
	case mem > 0.9 || cpu > 0.95:
		return scale(current, 0.7, 0.6, 0.6)
	case mem > 0.8 || cpu > 0.85:
		return scale(current, 0.8, 0.8, 0.8)
	case mem < 0.4 && cpu < 0.4:
		return grow(current, 1, 1.2, 1)
	case mem < 0.6 && cpu < 0.6:
		return grow(current, 1, 1.1, 1)
	default:
		return current
	}
}

// aggressive is the only strategy that also reacts to the Moderate tier, and
// scales up faster than Balanced at the Low/Very-low tiers.
func aggressive(snap resource.Snapshot, current tuning.Parameters) tuning.Parameters {
	mem, cpu := snap.MemPercent, snap.CPUPercent

	switch {
	case mem > 0.9 || cpu > 0.95:
		return scale(current, 0.6, 0.5, 0.5)
	case mem > 0.8 || cpu > 0.85:
		return scale(current, 0.7, 0.7, 0.7)
	case mem > 0.7 || cpu > 0.75:
		return scale(current, 0.9, 0.9, 0.9)
	case mem < 0.4 && cpu < 0.4:
		return grow(current, 2, 1.3, 2)
	case mem < 0.6 && cpu < 0.6:
		return grow(current, 1, 1.15, 1)
	default:
		return current
	}
}

// energyEfficient ignores the CPU/memory tiers entirely and instead keys on
// the battery level: below 15% on battery power it drops to the minimum
// viable footprint, otherwise it leaves the current parameters untouched.
func energyEfficient(snap resource.Snapshot, current tuning.Parameters) tuning.Parameters {
	const lowBattery = 0.15

	if !snap.OnBattery || snap.BatteryPercent >= lowBattery {
		return current
	}

	return tuning.Parameters{
		MaxWorkers:     tuning.MinWorkers,
		ChunkSizeBytes: mulChunk(current, 0.3),
		BatchSize:      tuning.MinBatchSize,
		TimeoutFactor:  current.TimeoutFactor,
	}
}

// containerAware reuses Balanced's shape but keys the memory reading on the
// container's own usage rather than the host's, and additionally caps
// worker count to the container's CPU quota when one is set.
func containerAware(snap resource.Snapshot, current tuning.Parameters) tuning.Parameters {
	mem := snap.MemPercent
	if snap.IsContainer {
		mem = snap.ContainerMemUsedPercent
	}

	next := balancedCore(mem, snap.CPUPercent, current)

	if snap.ContainerCPULimit > 0 {
		ceiling := int(0.8 * snap.ContainerCPULimit)
		if ceiling < tuning.MinWorkers {
			ceiling = tuning.MinWorkers
		}

		if next.MaxWorkers > ceiling {
			next.MaxWorkers = ceiling
		}
	}

	return next
}

// scale applies multiplicative back-off factors to all three knobs.
func scale(current tuning.Parameters, workersFactor, chunkFactor, batchFactor float64) tuning.Parameters {
	return tuning.Parameters{
		MaxWorkers:     mulWorkers(current, workersFactor),
		ChunkSizeBytes: mulChunk(current, chunkFactor),
		BatchSize:      mulBatch(current, batchFactor),
		TimeoutFactor:  current.TimeoutFactor,
	}
}

// grow applies an additive step to workers/batch and a multiplicative step
// to chunk size, used by the Low/Very-low scale-up tiers.
func grow(current tuning.Parameters, workersAdd int, chunkFactor float64, batchAdd int) tuning.Parameters {
	return tuning.Parameters{
		MaxWorkers:     current.MaxWorkers + workersAdd,
		ChunkSizeBytes: mulChunk(current, chunkFactor),
		BatchSize:      current.BatchSize + batchAdd,
		TimeoutFactor:  current.TimeoutFactor,
	}
}
