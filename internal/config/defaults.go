package config

// Default values from spec.md §6.
const (
	DefaultSizeThresholdBytes  = 100_000
	DefaultComplexityThreshold = 0.5
	DefaultTimeoutSeconds      = 300
	DefaultMaxRetries          = 3
	DefaultMemorySafety        = true
	DefaultAdaptiveBatchSizing = true
	DefaultHealthCheckEnabled  = true

	DefaultResourceMonitorSeconds    = 5
	DefaultProbeIntervalSeconds      = 5
	DefaultStrategy                  = "balanced"
	DefaultAdaptationIntervalSeconds = 5
)
