// Package config loads the adaptive parallel processing core's external
// configuration from file, environment and defaults, grounded on the
// teacher's viper-based loader.
package config

import "errors"

// Config is the top-level configuration struct. Field tags use mapstructure
// for viper unmarshalling.
type Config struct {
	Chunker    ChunkerConfig    `mapstructure:"chunker"`
	Adaptation AdaptationConfig `mapstructure:"adaptation"`
}

// ChunkerConfig holds every Smart Parallel Chunker option from spec.md §6.
type ChunkerConfig struct {
	SizeThresholdBytes     int64   `mapstructure:"size_threshold"`
	ComplexityThreshold    float64 `mapstructure:"complexity_threshold"`
	ForceStrategy          string  `mapstructure:"force_strategy"`
	TimeoutSeconds         int     `mapstructure:"timeout"`
	MaxRetries             int     `mapstructure:"max_retries"`
	MemorySafety           bool    `mapstructure:"memory_safety"`
	AdaptiveBatchSizing    bool    `mapstructure:"adaptive_batch_sizing"`
	HealthCheckEnabled     bool    `mapstructure:"health_check_enabled"`
	WorkerCountOverride    int     `mapstructure:"worker_count_override"`
	ResourceMonitorSeconds int     `mapstructure:"resource_monitor_interval"`
	ProbeIntervalSeconds   int     `mapstructure:"probe_interval"`
}

// AdaptationConfig holds Resource Adaptation Core options.
type AdaptationConfig struct {
	Strategy           string `mapstructure:"strategy"`
	AdaptationInterval int    `mapstructure:"adaptation_interval"`
}

// Sentinel errors for configuration validation.
var (
	ErrInvalidSizeThreshold    = errors.New("chunker.size_threshold must be positive")
	ErrInvalidComplexityRange  = errors.New("chunker.complexity_threshold must be between 0 and 2")
	ErrInvalidTimeout          = errors.New("chunker.timeout must be positive")
	ErrInvalidMaxRetries       = errors.New("chunker.max_retries must be non-negative")
	ErrInvalidWorkerOverride   = errors.New("chunker.worker_count_override must be non-negative")
	ErrInvalidResourceInterval = errors.New("chunker.resource_monitor_interval must be positive")
	ErrInvalidProbeInterval    = errors.New("chunker.probe_interval must be positive")
	ErrInvalidForceStrategy    = errors.New("chunker.force_strategy must be \"\", \"simple\" or \"advanced\"")
	ErrInvalidAdaptationPeriod = errors.New("adaptation.adaptation_interval must be positive")
)

// Validate reports the first configuration error found, mirroring the
// teacher's fail-fast, one-sentinel-per-field style.
func (c Config) Validate() error {
	switch {
	case c.Chunker.SizeThresholdBytes <= 0:
		return ErrInvalidSizeThreshold
	case c.Chunker.ComplexityThreshold < 0 || c.Chunker.ComplexityThreshold > 2:
		return ErrInvalidComplexityRange
	case c.Chunker.TimeoutSeconds <= 0:
		return ErrInvalidTimeout
	case c.Chunker.MaxRetries < 0:
		return ErrInvalidMaxRetries
	case c.Chunker.WorkerCountOverride < 0:
		return ErrInvalidWorkerOverride
	case c.Chunker.ResourceMonitorSeconds <= 0:
		return ErrInvalidResourceInterval
	case c.Chunker.ProbeIntervalSeconds <= 0:
		return ErrInvalidProbeInterval
	case c.Chunker.ForceStrategy != "" && c.Chunker.ForceStrategy != "simple" && c.Chunker.ForceStrategy != "advanced":
		return ErrInvalidForceStrategy
	case c.Adaptation.AdaptationInterval <= 0:
		return ErrInvalidAdaptationPeriod
	default:
		return nil
	}
}
