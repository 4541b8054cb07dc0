package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const configName = ".parallax"

const configType = "yaml"

const envPrefix = "PARALLAX"

const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults. If
// configPath is non-empty it is used as the explicit config file path,
// otherwise the config file is searched in CWD and $HOME. A missing config
// file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	if err := viperCfg.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("chunker.size_threshold", DefaultSizeThresholdBytes)
	viperCfg.SetDefault("chunker.complexity_threshold", DefaultComplexityThreshold)
	viperCfg.SetDefault("chunker.force_strategy", "")
	viperCfg.SetDefault("chunker.timeout", DefaultTimeoutSeconds)
	viperCfg.SetDefault("chunker.max_retries", DefaultMaxRetries)
	viperCfg.SetDefault("chunker.memory_safety", DefaultMemorySafety)
	viperCfg.SetDefault("chunker.adaptive_batch_sizing", DefaultAdaptiveBatchSizing)
	viperCfg.SetDefault("chunker.health_check_enabled", DefaultHealthCheckEnabled)
	viperCfg.SetDefault("chunker.worker_count_override", 0)
	viperCfg.SetDefault("chunker.resource_monitor_interval", DefaultResourceMonitorSeconds)
	viperCfg.SetDefault("chunker.probe_interval", DefaultProbeIntervalSeconds)

	viperCfg.SetDefault("adaptation.strategy", DefaultStrategy)
	viperCfg.SetDefault("adaptation.adaptation_interval", DefaultAdaptationIntervalSeconds)
}
