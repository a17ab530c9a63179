// Package pattern detects a known reference pattern in incoming point cloud
// scans. A Detector holds the densified reference pattern, read-only and safe
// for concurrent use; every Detect call is a pure function of the scan and
// the configuration passed in.
package pattern

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/patternmatch/pointcloud"
)

// UpsampleConfig controls the synthetic densification of the reference
// pattern performed once at detector construction.
type UpsampleConfig struct {
	ScalingFactor float64 `json:"scaling_factor"`
	Increment     float64 `json:"increment"`
	Offset        float64 `json:"offset"`
	Iterations    int     `json:"iterations"`
}

// Config holds the runtime parameters of the detection pipeline. A Config is
// passed explicitly into each Detect call; concurrent detections with
// different configs do not interfere.
type Config struct {
	MinCropX      float64 `json:"min_crop_x"`
	MaxCropX      float64 `json:"max_crop_x"`
	MinCropY      float64 `json:"min_crop_y"`
	MaxCropY      float64 `json:"max_crop_y"`
	MinCropHeight float64 `json:"min_crop_height"`
	MaxCropHeight float64 `json:"max_crop_height"`

	OutlierFilterMean   int     `json:"outlier_filter_mean"`
	OutlierFilterStddev float64 `json:"outlier_filter_stddev"`

	// ScoreTolerance is the base fitness score bound for a match;
	// DilationFactor scales it, so a smaller dilation accepts less noise.
	ScoreTolerance float64 `json:"score_tolerance"`
	DilationFactor float64 `json:"dilation_factor"`
	MinPointCount  int     `json:"min_point_count"`

	Upsample UpsampleConfig       `json:"upsample"`
	ICP      pointcloud.ICPConfig `json:"icp"`
}

// DefaultConfig returns a config with defaults suitable for a pattern a few
// units across. Crop bounds and thresholds are deployment specific and
// normally come from a config file.
func DefaultConfig() Config {
	return Config{
		MinCropX:            -10,
		MaxCropX:            10,
		MinCropY:            -10,
		MaxCropY:            10,
		MinCropHeight:       -10,
		MaxCropHeight:       10,
		OutlierFilterMean:   10,
		OutlierFilterStddev: 1.0,
		ScoreTolerance:      0.05,
		DilationFactor:      1.0,
		MinPointCount:       4,
		Upsample: UpsampleConfig{
			ScalingFactor: 1.0,
			Increment:     0.05,
			Offset:        0.025,
			Iterations:    2,
		},
		ICP: pointcloud.DefaultICPConfig(),
	}
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate() error {
	if c.MinCropX > c.MaxCropX || c.MinCropY > c.MaxCropY || c.MinCropHeight > c.MaxCropHeight {
		return errors.New("crop bounds are inverted")
	}
	if c.OutlierFilterMean <= 0 {
		return errors.New("outlier_filter_mean must be positive")
	}
	if c.OutlierFilterStddev <= 0 {
		return errors.New("outlier_filter_stddev must be positive")
	}
	if c.ScoreTolerance <= 0 {
		return errors.New("score_tolerance must be positive")
	}
	if c.DilationFactor <= 0 {
		return errors.New("dilation_factor must be positive")
	}
	if c.MinPointCount < 0 {
		return errors.New("min_point_count must be non-negative")
	}
	if c.Upsample.ScalingFactor == 0 {
		return errors.New("upsample.scaling_factor must be non-zero")
	}
	if c.Upsample.Iterations < 0 {
		return errors.New("upsample.iterations must be non-negative")
	}
	return nil
}

// ReadConfig loads a Config from a JSON file, overlaying the file's fields on
// top of the defaults.
func ReadConfig(path string) (Config, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "opening config")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	cfg := DefaultConfig()
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parsing config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
