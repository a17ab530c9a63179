package pattern

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"go.viam.com/patternmatch/pointcloud"
)

// Detector evaluates incoming scans against one fixed reference pattern. The
// pattern is densified and indexed once at construction and never mutated, so
// a single Detector may serve concurrent Detect calls.
type Detector struct {
	logger      golog.Logger
	pattern     pointcloud.PointCloud
	patternTree *pointcloud.KDTree
}

// NewDetector creates a Detector from an already loaded reference pattern.
// The pattern is densified with the config's upsample parameters.
func NewDetector(reference pointcloud.PointCloud, cfg Config, logger golog.Logger) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reference == nil || reference.Size() == 0 {
		return nil, errors.New("reference pattern is empty")
	}

	densified, err := pointcloud.Densify(
		reference,
		cfg.Upsample.ScalingFactor,
		cfg.Upsample.Increment,
		cfg.Upsample.Offset,
		cfg.Upsample.Iterations,
	)
	if err != nil {
		return nil, errors.Wrap(err, "densifying reference pattern")
	}
	logger.Infow("reference pattern ready",
		"points", reference.Size(),
		"densified_points", densified.Size())

	return &Detector{
		logger:      logger,
		pattern:     densified,
		patternTree: pointcloud.ToKDTree(densified),
	}, nil
}

// NewDetectorFromFile loads the reference pattern from a PLY, PCD or LAS file
// and creates a Detector. A load failure here is fatal to the system: there
// is nothing to match against without it.
func NewDetectorFromFile(path string, cfg Config, logger golog.Logger) (*Detector, error) {
	reference, err := pointcloud.NewFromFile(path, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "loading reference pattern from %q", path)
	}
	return NewDetector(reference, cfg, logger)
}

// Pattern returns the densified reference pattern.
func (d *Detector) Pattern() pointcloud.PointCloud {
	return d.pattern
}

// Preprocess crops the scan to the configured volume of interest and removes
// statistical outliers. Exposed so callers can rasterize the preprocessed
// cloud for visualization.
func (d *Detector) Preprocess(scan pointcloud.PointCloud, cfg Config) (pointcloud.PointCloud, error) {
	cropped, err := pointcloud.CropBox(scan,
		cfg.MinCropX, cfg.MaxCropX,
		cfg.MinCropY, cfg.MaxCropY,
		cfg.MinCropHeight, cfg.MaxCropHeight)
	if err != nil {
		return nil, err
	}
	if cropped.Size() == 0 {
		return cropped, nil
	}
	return pointcloud.RemoveStatisticalOutliers(cropped, cfg.OutlierFilterMean, cfg.OutlierFilterStddev)
}

// Detect runs the full pipeline on one scan: preprocess, register against the
// reference, evaluate. Expected-empty conditions (everything cropped away,
// registration not converging) produce a no-match result, never an error; a
// failure here never stops the pipeline for subsequent scans.
func (d *Detector) Detect(scan pointcloud.PointCloud, cfg Config) (MatchResult, error) {
	if err := cfg.Validate(); err != nil {
		return MatchResult{}, err
	}

	preprocessed, err := d.Preprocess(scan, cfg)
	if err != nil {
		return MatchResult{}, err
	}
	if preprocessed.Size() == 0 {
		d.logger.Debugw("scan empty after preprocessing", "scan_points", scan.Size())
	}

	registration, err := pointcloud.RegisterICP(preprocessed, d.patternTree, cfg.ICP)
	if err != nil {
		return MatchResult{}, err
	}
	if !registration.Converged {
		d.logger.Debugw("registration did not converge", "points", preprocessed.Size())
	} else {
		d.logger.Debugw("registration converged", "score", registration.Score)
	}

	return EvaluateMatch(registration, cfg), nil
}
