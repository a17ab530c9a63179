package pointcloud

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestOrganizeSinglePoint(t *testing.T) {
	pc := New()
	p := r3.Vector{X: 0.2, Y: -0.1, Z: 0.5}
	test.That(t, pc.Set(p), test.ShouldBeNil)

	organized, err := Organize(pc, 10, 10, 10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, organized.Width(), test.ShouldEqual, 100)
	test.That(t, organized.Height(), test.ShouldEqual, 100)
	test.That(t, organized.Size(), test.ShouldEqual, 100*100)
	test.That(t, organized.OccupiedCount(), test.ShouldEqual, 1)

	// round(0.2*10)+50 = 52, round(-0.1*10)+50 = 49
	got, occupied := organized.At(52, 49)
	test.That(t, occupied, test.ShouldBeTrue)
	test.That(t, got, test.ShouldResemble, p)
}

func TestOrganizeZBuffer(t *testing.T) {
	pc := New()
	low := r3.Vector{X: 0.2, Y: 0.1, Z: 0.5}
	high := r3.Vector{X: 0.21, Y: 0.1, Z: 0.9}
	test.That(t, pc.Set(low), test.ShouldBeNil)
	test.That(t, pc.Set(high), test.ShouldBeNil)

	organized, err := Organize(pc, 10, 10, 10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, organized.OccupiedCount(), test.ShouldEqual, 1)

	// both points land in the same cell, the higher z wins
	got, occupied := organized.At(52, 51)
	test.That(t, occupied, test.ShouldBeTrue)
	test.That(t, got, test.ShouldResemble, high)
}

func TestOrganizeDropsOutOfRange(t *testing.T) {
	pc := New()
	test.That(t, pc.Set(r3.Vector{X: 50, Y: 0, Z: 0}), test.ShouldBeNil)
	test.That(t, pc.Set(r3.Vector{X: 0, Y: -50, Z: 0}), test.ShouldBeNil)

	organized, err := Organize(pc, 10, 10, 10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, organized.OccupiedCount(), test.ShouldEqual, 0)
}

func TestOrganizeOriginPoint(t *testing.T) {
	// a genuine point at the origin is distinguishable from empty cells
	pc := New()
	test.That(t, pc.Set(r3.Vector{}), test.ShouldBeNil)

	organized, err := Organize(pc, 10, 10, 10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, organized.OccupiedCount(), test.ShouldEqual, 1)
	_, occupied := organized.At(50, 50)
	test.That(t, occupied, test.ShouldBeTrue)
}

func TestOrganizeInvalidArgs(t *testing.T) {
	pc := New()
	for _, tc := range []struct {
		resolution    float64
		width, height int
	}{
		{0, 10, 10},
		{-1, 10, 10},
		{10, 0, 10},
		{10, 10, -1},
	} {
		_, err := Organize(pc, tc.resolution, tc.width, tc.height)
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestToOccupancyImage(t *testing.T) {
	pc := New()
	p := r3.Vector{X: 0.2, Y: -0.1, Z: 0.5}
	test.That(t, pc.Set(p), test.ShouldBeNil)

	organized, err := Organize(pc, 10, 10, 10)
	test.That(t, err, test.ShouldBeNil)
	img, err := organized.ToOccupancyImage()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, 100)
	test.That(t, img.Bounds().Dy(), test.ShouldEqual, 100)

	white := 0
	for iy := 0; iy < 100; iy++ {
		for ix := 0; ix < 100; ix++ {
			if img.GrayAt(ix, iy).Y != 0 {
				white++
				test.That(t, ix, test.ShouldEqual, 52)
				test.That(t, iy, test.ShouldEqual, 49)
				test.That(t, img.GrayAt(ix, iy).Y, test.ShouldEqual, 255)
			}
		}
	}
	test.That(t, white, test.ShouldEqual, 1)
}

func TestToOccupancyImageEmpty(t *testing.T) {
	organized, err := Organize(New(), 10, 10, 10)
	test.That(t, err, test.ShouldBeNil)
	_, err = organized.ToOccupancyImage()
	test.That(t, err, test.ShouldNotBeNil)

	var nilCloud *OrganizedCloud
	_, err = nilCloud.ToOccupancyImage()
	test.That(t, err, test.ShouldNotBeNil)
}
