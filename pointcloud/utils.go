package pointcloud

import (
	"github.com/golang/geo/r3"
)

// CloudContains is a silly helper to check if a point cloud contains a point
// at the given position.
func CloudContains(cloud PointCloud, x, y, z float64) bool {
	return cloud.At(x, y, z)
}

// CloudCentroid returns the mean position of all points in the cloud. An
// empty cloud has a centroid at the origin.
func CloudCentroid(cloud PointCloud) r3.Vector {
	if cloud.Size() == 0 {
		return r3.Vector{}
	}
	var sum r3.Vector
	cloud.Iterate(func(p r3.Vector) bool {
		sum = sum.Add(p)
		return true
	})
	return sum.Mul(1. / float64(cloud.Size()))
}

// CloudToVectors flattens the cloud into a slice of vectors, in iteration
// order.
func CloudToVectors(cloud PointCloud) []r3.Vector {
	vecs := make([]r3.Vector, 0, cloud.Size())
	cloud.Iterate(func(p r3.Vector) bool {
		vecs = append(vecs, p)
		return true
	})
	return vecs
}

// VectorsToCloud builds a cloud out of the given vectors.
func VectorsToCloud(vecs []r3.Vector) (PointCloud, error) {
	cloud := NewWithPrealloc(len(vecs))
	for _, v := range vecs {
		if err := cloud.Set(v); err != nil {
			return nil, err
		}
	}
	return cloud, nil
}
