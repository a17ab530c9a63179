package pointcloud

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Densify emits a scaled copy of the cloud followed by iterations² further
// copies whose x and y are perturbed by offset plus a multiple of increment
// before scaling, z scaled only. The result holds 1 + iterations² overlapping
// copies of the input pattern, which gives the registration engine enough
// correspondences against densely sampled scan data.
//
// The returned cloud has set semantics, so copies that land on identical
// positions (offset and increment both zero) collapse together.
func Densify(cloud PointCloud, scalingFactor, increment, offset float64, iterations int) (PointCloud, error) {
	if scalingFactor == 0 {
		return nil, errors.New("scalingFactor must be non-zero")
	}
	if iterations < 0 {
		return nil, errors.Errorf("iterations must be non-negative, got %d", iterations)
	}

	densified := NewWithPrealloc((1 + iterations*iterations) * cloud.Size())
	var err error
	cloud.Iterate(func(p r3.Vector) bool {
		err = densified.Set(r3.Vector{
			X: p.X / scalingFactor,
			Y: p.Y / scalingFactor,
			Z: p.Z / scalingFactor,
		})
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	perturb := func(v float64, iter int) float64 {
		return v/scalingFactor + offset + float64(iter)*increment
	}
	for i := 0; i < iterations; i++ {
		for j := 0; j < iterations; j++ {
			cloud.Iterate(func(p r3.Vector) bool {
				err = densified.Set(r3.Vector{
					X: perturb(p.X, i),
					Y: perturb(p.Y, j),
					Z: p.Z / scalingFactor,
				})
				return err == nil
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return densified, nil
}
