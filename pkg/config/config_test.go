package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anikeya9/stackscan/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 0.614, cfg.RTol)
	assert.Equal(t, 150.0, cfg.VoxelSize)
	assert.Equal(t, 3.0, cfg.SNeighborDistance)
	assert.Equal(t, int64(4), cfg.TargetType)
	assert.Equal(t, int64(6), cfg.BridgeType)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.True(t, cfg.Strict)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"voxel smaller than s_neighbor_distance", func(c *Config) { c.VoxelSize = 2.0 }},
		{"voxel smaller than r_tol", func(c *Config) {
			c.RTol = 5.0
			c.SNeighborDistance = 1.0
			c.VoxelSize = 4.0
		}},
		{"non-positive r_tol", func(c *Config) { c.RTol = 0 }},
		{"non-positive s_neighbor_distance", func(c *Config) { c.SNeighborDistance = -1 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"target equals bridge", func(c *Config) { c.BridgeType = c.TargetType }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stackscan.yaml")
	content := "r_tol: 0.7\nvoxel_size: 200\nworkers: 8\nstrict: false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.7, cfg.RTol)
	assert.Equal(t, 200.0, cfg.VoxelSize)
	assert.Equal(t, 8, cfg.Workers)
	assert.False(t, cfg.Strict)
	// Unset keys keep their defaults.
	assert.Equal(t, 3.0, cfg.SNeighborDistance)
	assert.Equal(t, int64(4), cfg.TargetType)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("STACKSCAN_VOXEL_SIZE", "175.5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 175.5, cfg.VoxelSize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
