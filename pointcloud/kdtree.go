package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// KDTree is a read-only spatial index over a point cloud used for nearest
// neighbor queries. Distances returned by its queries are squared Euclidean
// distances.
type KDTree struct {
	tree *kdtree.Tree
	size int
}

// ToKDTree creates a KDTree from a point cloud.
func ToKDTree(cloud PointCloud) *KDTree {
	pts := make(kdtree.Points, 0, cloud.Size())
	cloud.Iterate(func(p r3.Vector) bool {
		pts = append(pts, kdtree.Point{p.X, p.Y, p.Z})
		return true
	})
	return &KDTree{
		tree: kdtree.New(pts, false),
		size: len(pts),
	}
}

// Size returns the number of points in the tree.
func (kd *KDTree) Size() int {
	return kd.size
}

// Nearest returns the point in the tree closest to the given point, together
// with the squared distance to it. The second return is false if the tree is
// empty.
func (kd *KDTree) Nearest(p r3.Vector) (r3.Vector, float64, bool) {
	if kd.size == 0 {
		return r3.Vector{}, math.MaxFloat64, false
	}
	c, dist := kd.tree.Nearest(kdtree.Point{p.X, p.Y, p.Z})
	if c == nil {
		return r3.Vector{}, math.MaxFloat64, false
	}
	q := c.(kdtree.Point)
	return r3.Vector{X: q[0], Y: q[1], Z: q[2]}, dist, true
}

// KNearest returns up to k points in the tree closest to the given point and
// their squared distances, in no particular order.
func (kd *KDTree) KNearest(p r3.Vector, k int) ([]r3.Vector, []float64) {
	if kd.size == 0 || k <= 0 {
		return nil, nil
	}
	keep := kdtree.NewNKeeper(k)
	kd.tree.NearestSet(keep, kdtree.Point{p.X, p.Y, p.Z})

	neighbors := make([]r3.Vector, 0, k)
	dists := make([]float64, 0, k)
	for _, cd := range keep.Heap {
		if cd.Comparable == nil {
			continue
		}
		q := cd.Comparable.(kdtree.Point)
		neighbors = append(neighbors, r3.Vector{X: q[0], Y: q[1], Z: q[2]})
		dists = append(dists, cd.Dist)
	}
	return neighbors, dists
}
