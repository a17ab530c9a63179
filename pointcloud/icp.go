package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// ICPConfig holds the termination parameters of the registration loop.
type ICPConfig struct {
	// MaxIterations caps the number of correspondence/estimation rounds.
	MaxIterations int `json:"max_iterations"`
	// TranslationEpsilon is the per-iteration translation magnitude below
	// which the loop is considered converged.
	TranslationEpsilon float64 `json:"translation_epsilon"`
	// RotationEpsilon is the per-iteration rotation angle, in radians, below
	// which the loop is considered converged.
	RotationEpsilon float64 `json:"rotation_epsilon"`
}

// DefaultICPConfig returns the termination parameters used when none are
// supplied.
func DefaultICPConfig() ICPConfig {
	return ICPConfig{
		MaxIterations:      30,
		TranslationEpsilon: 1e-6,
		RotationEpsilon:    1e-6,
	}
}

// RegistrationResult is the outcome of aligning a source cloud onto a target.
type RegistrationResult struct {
	// Transform maps source points onto the target.
	Transform *RigidTransform
	// Converged is false when the loop hit the iteration cap before the
	// transform delta became negligible, or when either cloud was empty.
	Converged bool
	// Score is the mean squared nearest-neighbor distance after alignment.
	Score float64
	// Aligned is the source cloud with the final transform applied.
	Aligned PointCloud
}

// RegisterICP aligns the source cloud onto the target via iterative closest
// point registration: nearest-neighbor correspondences from source to target,
// a rigid transform minimizing total squared correspondence distance, applied
// repeatedly until the per-iteration delta is negligible or the iteration cap
// is reached.
//
// An empty source or target is an expected outcome, not a fault: the result
// is non-converged with an identity transform and no error is returned.
func RegisterICP(source PointCloud, target *KDTree, cfg ICPConfig) (RegistrationResult, error) {
	defaults := DefaultICPConfig()
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaults.MaxIterations
	}
	if cfg.TranslationEpsilon <= 0 {
		cfg.TranslationEpsilon = defaults.TranslationEpsilon
	}
	if cfg.RotationEpsilon <= 0 {
		cfg.RotationEpsilon = defaults.RotationEpsilon
	}
	if source == nil || source.Size() == 0 || target == nil || target.Size() == 0 {
		return RegistrationResult{
			Transform: IdentityTransform(),
			Converged: false,
			Score:     math.MaxFloat64,
			Aligned:   New(),
		}, nil
	}

	working := CloudToVectors(source)
	matched := make([]r3.Vector, len(working))
	total := IdentityTransform()
	converged := false

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		for i, p := range working {
			q, _, _ := target.Nearest(p)
			matched[i] = q
		}

		step := estimateRigidTransform(working, matched)
		for i, p := range working {
			working[i] = step.Apply(p)
		}
		total = step.Compose(total)

		angle, shift := transformDelta(step)
		if angle <= cfg.RotationEpsilon && shift <= cfg.TranslationEpsilon {
			converged = true
			break
		}
	}

	var score float64
	for _, p := range working {
		_, sqDist, _ := target.Nearest(p)
		score += sqDist
	}
	score /= float64(len(working))

	aligned, err := VectorsToCloud(working)
	if err != nil {
		return RegistrationResult{}, err
	}
	return RegistrationResult{
		Transform: total,
		Converged: converged,
		Score:     score,
		Aligned:   aligned,
	}, nil
}

// estimateRigidTransform computes the rigid transform minimizing the total
// squared distance between corresponding src and dst points (Kabsch, via SVD
// of the cross covariance).
func estimateRigidTransform(src, dst []r3.Vector) *RigidTransform {
	n := float64(len(src))
	var srcCentroid, dstCentroid r3.Vector
	for i := range src {
		srcCentroid = srcCentroid.Add(src[i])
		dstCentroid = dstCentroid.Add(dst[i])
	}
	srcCentroid = srcCentroid.Mul(1. / n)
	dstCentroid = dstCentroid.Mul(1. / n)

	h := mat.NewDense(3, 3, nil)
	for i := range src {
		p := src[i].Sub(srcCentroid)
		q := dst[i].Sub(dstCentroid)
		pv := []float64{p.X, p.Y, p.Z}
		qv := []float64{q.X, q.Y, q.Z}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				h.Set(r, c, h.At(r, c)+pv[r]*qv[c])
			}
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(h, mat.SVDFull); !ok {
		return IdentityTransform()
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	rot := mat.NewDense(3, 3, nil)
	rot.Mul(&v, u.T())
	if mat.Det(rot) < 0 {
		// reflection, flip the axis of least variance
		for r := 0; r < 3; r++ {
			v.Set(r, 2, -v.At(r, 2))
		}
		rot.Mul(&v, u.T())
	}

	rotated := r3.Vector{
		X: rot.At(0, 0)*srcCentroid.X + rot.At(0, 1)*srcCentroid.Y + rot.At(0, 2)*srcCentroid.Z,
		Y: rot.At(1, 0)*srcCentroid.X + rot.At(1, 1)*srcCentroid.Y + rot.At(1, 2)*srcCentroid.Z,
		Z: rot.At(2, 0)*srcCentroid.X + rot.At(2, 1)*srcCentroid.Y + rot.At(2, 2)*srcCentroid.Z,
	}
	return NewRigidTransform(rot, dstCentroid.Sub(rotated))
}

// transformDelta measures how far a per-iteration step is from the identity:
// its rotation angle in radians and its translation magnitude.
func transformDelta(step *RigidTransform) (float64, float64) {
	trace := step.rot.At(0, 0) + step.rot.At(1, 1) + step.rot.At(2, 2)
	cos := (trace - 1) / 2
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos), step.trans.Norm()
}
