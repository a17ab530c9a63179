package pointcloud

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestKDTreeNearest(t *testing.T) {
	pc := New()
	pts := []r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 4, Y: 4, Z: 4},
	}
	for _, p := range pts {
		test.That(t, pc.Set(p), test.ShouldBeNil)
	}

	kd := ToKDTree(pc)
	test.That(t, kd.Size(), test.ShouldEqual, 4)

	nearest, sqDist, ok := kd.Nearest(r3.Vector{X: 0.9, Y: 0.1, Z: 0})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, nearest, test.ShouldResemble, r3.Vector{X: 1, Y: 0, Z: 0})
	test.That(t, sqDist, test.ShouldAlmostEqual, 0.01+0.01, 1e-9)

	// exact hit
	nearest, sqDist, ok = kd.Nearest(r3.Vector{X: 4, Y: 4, Z: 4})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, nearest, test.ShouldResemble, r3.Vector{X: 4, Y: 4, Z: 4})
	test.That(t, sqDist, test.ShouldEqual, 0)
}

func TestKDTreeNearestEmpty(t *testing.T) {
	kd := ToKDTree(New())
	_, sqDist, ok := kd.Nearest(r3.Vector{X: 1, Y: 1, Z: 1})
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, sqDist, test.ShouldEqual, math.MaxFloat64)
}

func TestKDTreeKNearest(t *testing.T) {
	pc := New()
	for i := 0; i < 10; i++ {
		test.That(t, pc.Set(r3.Vector{X: float64(i)}), test.ShouldBeNil)
	}
	kd := ToKDTree(pc)

	neighbors, dists := kd.KNearest(r3.Vector{X: 0}, 3)
	test.That(t, len(neighbors), test.ShouldEqual, 3)
	test.That(t, len(dists), test.ShouldEqual, 3)
	var maxDist float64
	for _, d := range dists {
		if d > maxDist {
			maxDist = d
		}
	}
	// the three closest to x=0 are x=0,1,2
	test.That(t, maxDist, test.ShouldAlmostEqual, 4, 1e-9)

	// asking for more neighbors than points returns them all
	neighbors, _ = kd.KNearest(r3.Vector{X: 0}, 20)
	test.That(t, len(neighbors), test.ShouldEqual, 10)

	neighbors, _ = kd.KNearest(r3.Vector{X: 0}, 0)
	test.That(t, neighbors, test.ShouldBeNil)
}
