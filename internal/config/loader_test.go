package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/parallax/internal/config"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.EqualValues(t, config.DefaultSizeThresholdBytes, cfg.Chunker.SizeThresholdBytes)
	assert.Equal(t, config.DefaultStrategy, cfg.Adaptation.Strategy)
}

func TestLoadConfig_ReadsValuesFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "parallax.yaml")
	contents := []byte("chunker:\n  size_threshold: 250000\n  force_strategy: advanced\nadaptation:\n  strategy: aggressive\n")
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.EqualValues(t, 250_000, cfg.Chunker.SizeThresholdBytes)
	assert.Equal(t, "advanced", cfg.Chunker.ForceStrategy)
	assert.Equal(t, "aggressive", cfg.Adaptation.Strategy)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "parallax.yaml")
	contents := []byte("chunker:\n  size_threshold: -5\n")
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	_, err := config.LoadConfig(path)
	assert.Error(t, err)
}
