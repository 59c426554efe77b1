// Package config provides the unified configuration surface for stackscan.
// A single Config structure carries every knob the classification pipeline
// consumes, with defaults matching the reference analysis parameters.
//
// Example usage:
//
//	cfg := config.Default()
//	cfg.VoxelSize = 200.0
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"math"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/anikeya9/stackscan/pkg/errors"
)

// Config is the single configuration structure consumed by the analysis
// pipeline. All distances are in the length units of the input snapshot
// (Angstroms for LAMMPS dumps).
type Config struct {
	// RTol is the in-plane distance tolerance for central-shell neighbor
	// identification
	RTol float64 `mapstructure:"r_tol" yaml:"r_tol" json:"r_tol"`

	// VoxelSize is the side length of the square spatial patches used to
	// parallelize the analysis. Must be at least max(RTol,
	// SNeighborDistance): the one-patch halo is only wide enough to cover
	// a full neighbor shell under that constraint.
	VoxelSize float64 `mapstructure:"voxel_size" yaml:"voxel_size" json:"voxel_size"`

	// SNeighborDistance is the distance threshold for bridging-species
	// neighbors in the secondary shell
	SNeighborDistance float64 `mapstructure:"s_neighbor_distance" yaml:"s_neighbor_distance" json:"s_neighbor_distance"`

	// TargetType is the atom type that receives a classification
	TargetType int64 `mapstructure:"target_type" yaml:"target_type" json:"target_type"`

	// BridgeType is the bridging-species atom type examined in the
	// secondary shell
	BridgeType int64 `mapstructure:"bridge_type" yaml:"bridge_type" json:"bridge_type"`

	// Workers is the number of concurrent patch workers
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers"`

	// Strict controls merge integrity behavior: when true, a target atom
	// left without a classification fails the run; when false it is
	// assigned the unclassified label with a warning.
	Strict bool `mapstructure:"strict" yaml:"strict" json:"strict"`

	// LogLevel sets the logging verbosity (debug, info, warn, error)
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
}

// Default returns a Config populated with the reference analysis defaults.
func Default() *Config {
	return &Config{
		RTol:              0.614,
		VoxelSize:         150.0,
		SNeighborDistance: 3.0,
		TargetType:        4,
		BridgeType:        6,
		Workers:           runtime.NumCPU(),
		Strict:            true,
		LogLevel:          "info",
	}
}

// Validate checks the configuration for consistency. It rejects voxel
// sizes smaller than the neighbor-shell thresholds, which would silently
// truncate neighbor shells at patch boundaries.
func (c *Config) Validate() error {
	if c.RTol <= 0 {
		return errors.New(errors.ErrorTypeConfig, "r_tol must be positive").
			WithDetail("r_tol", c.RTol)
	}
	if c.SNeighborDistance <= 0 {
		return errors.New(errors.ErrorTypeConfig, "s_neighbor_distance must be positive").
			WithDetail("s_neighbor_distance", c.SNeighborDistance)
	}
	if minVoxel := math.Max(c.RTol, c.SNeighborDistance); c.VoxelSize < minVoxel {
		return errors.Newf(errors.ErrorTypeConfig,
			"voxel_size %g is smaller than the neighbor threshold %g; patch halos would truncate neighbor shells",
			c.VoxelSize, minVoxel).
			WithDetail("voxel_size", c.VoxelSize).
			WithDetail("min_voxel_size", minVoxel)
	}
	if c.Workers < 1 {
		return errors.New(errors.ErrorTypeConfig, "workers must be at least 1").
			WithDetail("workers", c.Workers)
	}
	if c.TargetType == c.BridgeType {
		return errors.New(errors.ErrorTypeConfig, "target_type and bridge_type must differ").
			WithDetail("target_type", c.TargetType)
	}
	return nil
}

// Load builds a Config from defaults, an optional YAML config file, and
// STACKSCAN_* environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("r_tol", def.RTol)
	v.SetDefault("voxel_size", def.VoxelSize)
	v.SetDefault("s_neighbor_distance", def.SNeighborDistance)
	v.SetDefault("target_type", def.TargetType)
	v.SetDefault("bridge_type", def.BridgeType)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("strict", def.Strict)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix("STACKSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file").
				WithDetail("path", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to unmarshal config")
	}

	return &cfg, nil
}
