package pointcloud

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// CropBox retains only the points whose coordinates fall within the closed
// axis-aligned box. Retained points keep their source order. An empty input
// yields an empty output.
func CropBox(cloud PointCloud, minX, maxX, minY, maxY, minZ, maxZ float64) (PointCloud, error) {
	if minX > maxX || minY > maxY || minZ > maxZ {
		return nil, errors.Errorf("invalid crop box [%v,%v]x[%v,%v]x[%v,%v]", minX, maxX, minY, maxY, minZ, maxZ)
	}
	cropped := New()
	var err error
	cloud.Iterate(func(p r3.Vector) bool {
		if p.X < minX || p.X > maxX ||
			p.Y < minY || p.Y > maxY ||
			p.Z < minZ || p.Z > maxZ {
			return true
		}
		err = cropped.Set(p)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return cropped, nil
}

// RemoveStatisticalOutliers discards points whose mean distance to their
// neighborCount nearest neighbors exceeds the global mean of those distances
// by more than stddevMultiplier sample standard deviations. A cloud with
// neighborCount or fewer points is passed through unchanged, since the
// neighborhood statistic is meaningless there.
func RemoveStatisticalOutliers(cloud PointCloud, neighborCount int, stddevMultiplier float64) (PointCloud, error) {
	if neighborCount <= 0 {
		return nil, errors.Errorf("neighborCount must be positive, got %d", neighborCount)
	}
	if stddevMultiplier <= 0 {
		return nil, errors.Errorf("stddevMultiplier must be positive, got %v", stddevMultiplier)
	}
	if cloud.Size() <= neighborCount {
		return cloud, nil
	}

	kd := ToKDTree(cloud)
	points := CloudToVectors(cloud)
	meanDists := make([]float64, len(points))
	for i, p := range points {
		// the query point is in the tree, so ask for one extra neighbor
		// and drop the zero-distance self match.
		_, dists := kd.KNearest(p, neighborCount+1)
		sort.Float64s(dists)
		var sum float64
		var n int
		for _, d := range dists[1:] {
			sum += math.Sqrt(d)
			n++
		}
		meanDists[i] = sum / float64(n)
	}

	mean, err := stats.Mean(meanDists)
	if err != nil {
		return nil, err
	}
	stddev, err := stats.StandardDeviationSample(meanDists)
	if err != nil {
		return nil, err
	}
	threshold := mean + stddevMultiplier*stddev

	filtered := NewWithPrealloc(cloud.Size())
	for i, p := range points {
		if meanDists[i] > threshold {
			continue
		}
		if err := filtered.Set(p); err != nil {
			return nil, err
		}
	}
	return filtered, nil
}

// Demean subtracts the given centroid from every point. A no-op on an empty
// cloud.
func Demean(cloud PointCloud, centroid r3.Vector) (PointCloud, error) {
	demeaned := NewWithPrealloc(cloud.Size())
	var err error
	cloud.Iterate(func(p r3.Vector) bool {
		err = demeaned.Set(p.Sub(centroid))
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return demeaned, nil
}
