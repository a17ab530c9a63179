package pointcloud

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestIdentityTransform(t *testing.T) {
	rt := IdentityTransform()
	p := r3.Vector{X: 1, Y: -2, Z: 3}
	test.That(t, rt.Apply(p), test.ShouldResemble, p)
	test.That(t, rt.Translation(), test.ShouldResemble, r3.Vector{})
}

func TestTransformApplyAndCompose(t *testing.T) {
	// 90 degrees around z
	theta := math.Pi / 2
	rot := mat.NewDense(3, 3, []float64{
		math.Cos(theta), -math.Sin(theta), 0,
		math.Sin(theta), math.Cos(theta), 0,
		0, 0, 1,
	})
	rt := NewRigidTransform(rot, r3.Vector{X: 1})

	got := rt.Apply(r3.Vector{X: 1, Y: 0, Z: 0})
	test.That(t, got.X, test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, got.Y, test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, got.Z, test.ShouldAlmostEqual, 0, 1e-12)

	// composing with identity changes nothing
	composed := rt.Compose(IdentityTransform())
	p := r3.Vector{X: 0.3, Y: 0.7, Z: -0.2}
	direct := rt.Apply(p)
	viaCompose := composed.Apply(p)
	test.That(t, viaCompose.X, test.ShouldAlmostEqual, direct.X, 1e-12)
	test.That(t, viaCompose.Y, test.ShouldAlmostEqual, direct.Y, 1e-12)
	test.That(t, viaCompose.Z, test.ShouldAlmostEqual, direct.Z, 1e-12)

	// Compose applies the inner transform first
	inner := NewRigidTransform(mat.DenseCopyOf(IdentityTransform().Rotation()), r3.Vector{Y: 2})
	both := rt.Compose(inner)
	got = both.Apply(r3.Vector{})
	want := rt.Apply(inner.Apply(r3.Vector{}))
	test.That(t, got.X, test.ShouldAlmostEqual, want.X, 1e-12)
	test.That(t, got.Y, test.ShouldAlmostEqual, want.Y, 1e-12)
	test.That(t, got.Z, test.ShouldAlmostEqual, want.Z, 1e-12)
}

func TestTransformMatrix(t *testing.T) {
	rt := NewRigidTransform(mat.DenseCopyOf(IdentityTransform().Rotation()), r3.Vector{X: 1, Y: 2, Z: 3})
	m := rt.Matrix()
	r, c := m.Dims()
	test.That(t, r, test.ShouldEqual, 4)
	test.That(t, c, test.ShouldEqual, 4)
	test.That(t, m.At(0, 3), test.ShouldEqual, 1)
	test.That(t, m.At(1, 3), test.ShouldEqual, 2)
	test.That(t, m.At(2, 3), test.ShouldEqual, 3)
	test.That(t, m.At(3, 3), test.ShouldEqual, 1)
	test.That(t, m.At(3, 0), test.ShouldEqual, 0)
}

func TestTransformApplyToCloud(t *testing.T) {
	rt := NewRigidTransform(mat.DenseCopyOf(IdentityTransform().Rotation()), r3.Vector{X: 5})
	pc := New()
	test.That(t, pc.Set(r3.Vector{X: 1}), test.ShouldBeNil)
	test.That(t, pc.Set(r3.Vector{X: 2}), test.ShouldBeNil)

	moved, err := rt.ApplyToCloud(pc)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, moved.At(6, 0, 0), test.ShouldBeTrue)
	test.That(t, moved.At(7, 0, 0), test.ShouldBeTrue)
}
