package chunker

import "time"

// ChunkFunc processes a single segment and returns its transformed result.
// Errors propagate to the caller through Chunk/StreamChunks/ChunkWithPriority.
type ChunkFunc func(segment string) (string, error)

// Priority selects the QoS tier a call runs under, per spec.md §4.8.
type Priority int

const (
	PriorityHigh Priority = iota
	PriorityNormal
	PriorityBackground
)

// qosTier bundles the per-priority timeout, retry budget and batch-size
// multiplier, keyed by Priority.
type qosTier struct {
	timeout         time.Duration
	maxRetries      int
	batchMultiplier float64
}

var qosTiers = map[Priority]qosTier{
	PriorityHigh:       {timeout: 60 * time.Second, maxRetries: 5, batchMultiplier: 0.5},
	PriorityNormal:     {timeout: 300 * time.Second, maxRetries: 3, batchMultiplier: 1.0},
	PriorityBackground: {timeout: 600 * time.Second, maxRetries: 1, batchMultiplier: 1.5},
}

func tierFor(p Priority) qosTier {
	if t, ok := qosTiers[p]; ok {
		return t
	}

	return qosTiers[PriorityNormal]
}

// Config holds every external option from spec.md §6. DefaultConfig returns
// the defaults; New uses a Config as given and does not replace zero-valued
// fields with defaults.
type Config struct {
	SizeThresholdBytes     int64
	ComplexityThreshold    float64
	ForceStrategy          string
	TimeoutSeconds         int
	MaxRetries             int
	MemorySafety           bool
	AdaptiveBatchSizing    bool
	HealthCheckEnabled     bool
	WorkerCountOverride    int
	ResourceMonitorSeconds int
	ProbeIntervalSeconds   int
}

// DefaultConfig returns the option values spec.md §6 documents as defaults.
func DefaultConfig() Config {
	return Config{
		SizeThresholdBytes:     100_000,
		ComplexityThreshold:    0.5,
		TimeoutSeconds:         300,
		MaxRetries:             3,
		MemorySafety:           true,
		AdaptiveBatchSizing:    true,
		HealthCheckEnabled:     true,
		ResourceMonitorSeconds: 5,
		ProbeIntervalSeconds:   5,
	}
}
