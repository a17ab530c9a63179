// Package main is a one-shot driver for the pattern detection pipeline: load
// a reference pattern and a scan, run one detection, print the result.
package main

import (
	"encoding/json"
	"image/png"
	"os"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"go.viam.com/patternmatch/pattern"
	"go.viam.com/patternmatch/pointcloud"
)

const (
	flagReference    = "reference"
	flagScan         = "scan"
	flagConfig       = "config"
	flagOccupancyOut = "occupancy-out"
	flagResolution   = "resolution"
	flagGridWidth    = "grid-width"
	flagGridHeight   = "grid-height"
	flagDebug        = "debug"
)

func main() {
	app := &cli.App{
		Name:  "pattern-match",
		Usage: "detect a reference pattern in a point cloud scan",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagReference,
				Usage:    "reference pattern file (.ply, .pcd or .las)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     flagScan,
				Usage:    "scan file (.ply, .pcd or .las)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  flagConfig,
				Usage: "JSON config file; defaults are used when omitted",
			},
			&cli.StringFlag{
				Name:  flagOccupancyOut,
				Usage: "write an occupancy image of the preprocessed scan to this PNG path",
			},
			&cli.Float64Flag{
				Name:  flagResolution,
				Usage: "cells per unit for the occupancy image",
				Value: 20,
			},
			&cli.IntFlag{
				Name:  flagGridWidth,
				Usage: "occupancy grid width in units",
				Value: 100,
			},
			&cli.IntFlag{
				Name:  flagGridHeight,
				Usage: "occupancy grid height in units",
				Value: 100,
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "verbose logging",
			},
		},
		Action: runDetection,
	}
	if err := app.Run(os.Args); err != nil {
		golog.Global().Fatal(err)
	}
}

type resultSummary struct {
	Matched           bool        `json:"matched"`
	Converged         bool        `json:"converged"`
	Score             float64     `json:"score"`
	MatchedPointCount int         `json:"matched_point_count"`
	Transform         [][]float64 `json:"transform,omitempty"`
}

func runDetection(c *cli.Context) error {
	var logger golog.Logger
	if c.Bool(flagDebug) {
		logger = golog.NewDevelopmentLogger("pattern-match")
	} else {
		logger = golog.NewLogger("pattern-match")
	}

	cfg := pattern.DefaultConfig()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = pattern.ReadConfig(path); err != nil {
			return err
		}
	}

	detector, err := pattern.NewDetectorFromFile(c.String(flagReference), cfg, logger)
	if err != nil {
		// no pattern means nothing to match against; nothing to do but exit
		return err
	}

	scan, err := pointcloud.NewFromFile(c.String(flagScan), logger)
	if err != nil {
		return errors.Wrap(err, "loading scan")
	}

	result, err := detector.Detect(scan, cfg)
	if err != nil {
		return err
	}

	if outPath := c.String(flagOccupancyOut); outPath != "" {
		// a blank raster (for example when everything was cropped away) is
		// not worth aborting a finished detection over
		if err := writeOccupancyImage(detector, scan, cfg, c, outPath); err != nil {
			logger.Warnw("skipping occupancy image", "path", outPath, "error", err)
		} else {
			logger.Infow("wrote occupancy image", "path", outPath)
		}
	}

	summary := resultSummary{
		Matched:           result.Matched,
		Converged:         result.Registration.Converged,
		MatchedPointCount: result.MatchedPointCount,
	}
	if result.Registration.Converged {
		summary.Score = result.Registration.Score
		m := result.Registration.Transform.Matrix()
		summary.Transform = make([][]float64, 4)
		for i := 0; i < 4; i++ {
			summary.Transform[i] = make([]float64, 4)
			for j := 0; j < 4; j++ {
				summary.Transform[i][j] = m.At(i, j)
			}
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func writeOccupancyImage(
	detector *pattern.Detector,
	scan pointcloud.PointCloud,
	cfg pattern.Config,
	c *cli.Context,
	outPath string,
) (err error) {
	preprocessed, err := detector.Preprocess(scan, cfg)
	if err != nil {
		return err
	}
	organized, err := pointcloud.Organize(
		preprocessed,
		c.Float64(flagResolution),
		c.Int(flagGridWidth),
		c.Int(flagGridHeight),
	)
	if err != nil {
		return err
	}
	img, err := organized.ToOccupancyImage()
	if err != nil {
		return err
	}

	//nolint:gosec
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return png.Encode(f, img)
}
