package pattern

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/patternmatch/pointcloud"
)

func registrationFixture(t *testing.T, converged bool, score float64, points int) pointcloud.RegistrationResult {
	t.Helper()
	aligned := pointcloud.New()
	for i := 0; i < points; i++ {
		test.That(t, aligned.Set(r3.Vector{X: float64(i)}), test.ShouldBeNil)
	}
	return pointcloud.RegistrationResult{
		Transform: pointcloud.IdentityTransform(),
		Converged: converged,
		Score:     score,
		Aligned:   aligned,
	}
}

func TestEvaluateMatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScoreTolerance = 1.0
	cfg.DilationFactor = 1.0
	cfg.MinPointCount = 4

	result := EvaluateMatch(registrationFixture(t, true, 0.5, 10), cfg)
	test.That(t, result.Matched, test.ShouldBeTrue)
	test.That(t, result.MatchedPointCount, test.ShouldEqual, 10)

	// not converged is never a match, whatever the score
	result = EvaluateMatch(registrationFixture(t, false, 0, 10), cfg)
	test.That(t, result.Matched, test.ShouldBeFalse)

	// too few aligned points
	result = EvaluateMatch(registrationFixture(t, true, 0, 3), cfg)
	test.That(t, result.Matched, test.ShouldBeFalse)

	// score outside the tolerance
	result = EvaluateMatch(registrationFixture(t, true, 1.5, 10), cfg)
	test.That(t, result.Matched, test.ShouldBeFalse)
}

func TestEvaluateMatchDilationMonotonic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScoreTolerance = 1.0
	cfg.MinPointCount = 1
	registration := registrationFixture(t, true, 0.5, 10)

	// a looser dilation admits the score, a tighter one rejects it
	cfg.DilationFactor = 1.0
	test.That(t, EvaluateMatch(registration, cfg).Matched, test.ShouldBeTrue)
	cfg.DilationFactor = 0.1
	test.That(t, EvaluateMatch(registration, cfg).Matched, test.ShouldBeFalse)
}

func TestEvaluateMatchNilAligned(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinPointCount = 0
	registration := pointcloud.RegistrationResult{
		Transform: pointcloud.IdentityTransform(),
		Converged: true,
		Score:     0,
	}
	result := EvaluateMatch(registration, cfg)
	test.That(t, result.MatchedPointCount, test.ShouldEqual, 0)
	test.That(t, result.Matched, test.ShouldBeTrue)
}
