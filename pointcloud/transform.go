package pointcloud

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// RigidTransform is a rotation and translation mapping source points onto
// target points.
type RigidTransform struct {
	rot   *mat.Dense // 3x3 rotation
	trans r3.Vector
}

// NewRigidTransform creates a RigidTransform from a 3x3 rotation matrix and a
// translation vector. The rotation is not copied.
func NewRigidTransform(rot *mat.Dense, trans r3.Vector) *RigidTransform {
	return &RigidTransform{rot: rot, trans: trans}
}

// IdentityTransform returns the transform that maps every point to itself.
func IdentityTransform() *RigidTransform {
	rot := mat.NewDense(3, 3, nil)
	rot.Set(0, 0, 1)
	rot.Set(1, 1, 1)
	rot.Set(2, 2, 1)
	return &RigidTransform{rot: rot}
}

// Rotation returns the 3x3 rotation matrix.
func (rt *RigidTransform) Rotation() *mat.Dense {
	return rt.rot
}

// Translation returns the translation vector.
func (rt *RigidTransform) Translation() r3.Vector {
	return rt.trans
}

// Apply maps the given point through the transform.
func (rt *RigidTransform) Apply(p r3.Vector) r3.Vector {
	return r3.Vector{
		X: rt.rot.At(0, 0)*p.X + rt.rot.At(0, 1)*p.Y + rt.rot.At(0, 2)*p.Z + rt.trans.X,
		Y: rt.rot.At(1, 0)*p.X + rt.rot.At(1, 1)*p.Y + rt.rot.At(1, 2)*p.Z + rt.trans.Y,
		Z: rt.rot.At(2, 0)*p.X + rt.rot.At(2, 1)*p.Y + rt.rot.At(2, 2)*p.Z + rt.trans.Z,
	}
}

// Compose returns the transform equivalent to applying inner first and then
// the receiver.
func (rt *RigidTransform) Compose(inner *RigidTransform) *RigidTransform {
	rot := mat.NewDense(3, 3, nil)
	rot.Mul(rt.rot, inner.rot)
	return &RigidTransform{
		rot:   rot,
		trans: rt.Apply(inner.trans),
	}
}

// Matrix returns the transform as a 4x4 homogeneous matrix.
func (rt *RigidTransform) Matrix() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, rt.rot.At(i, j))
		}
	}
	m.Set(0, 3, rt.trans.X)
	m.Set(1, 3, rt.trans.Y)
	m.Set(2, 3, rt.trans.Z)
	m.Set(3, 3, 1)
	return m
}

// ApplyToCloud maps every point of the cloud through the transform.
func (rt *RigidTransform) ApplyToCloud(cloud PointCloud) (PointCloud, error) {
	out := NewWithPrealloc(cloud.Size())
	var err error
	cloud.Iterate(func(p r3.Vector) bool {
		err = out.Set(rt.Apply(p))
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
