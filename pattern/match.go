package pattern

import (
	"go.viam.com/patternmatch/pointcloud"
)

// MatchResult is the per-scan decision handed to the publishing collaborator.
type MatchResult struct {
	// Matched reports whether the pattern is considered found in the scan.
	Matched bool
	// Registration is the full registration outcome, transform included.
	Registration pointcloud.RegistrationResult
	// MatchedPointCount is the number of scan points that took part in the
	// final alignment.
	MatchedPointCount int
}

// EvaluateMatch combines a registration outcome with the count and score
// thresholds. A match requires a converged registration, at least
// MinPointCount aligned points, and a fitness score within
// ScoreTolerance × DilationFactor. The bound is monotonic in the dilation
// factor: shrinking it tightens the accepted score.
func EvaluateMatch(registration pointcloud.RegistrationResult, cfg Config) MatchResult {
	count := 0
	if registration.Aligned != nil {
		count = registration.Aligned.Size()
	}
	matched := registration.Converged &&
		count >= cfg.MinPointCount &&
		registration.Score <= cfg.ScoreTolerance*cfg.DilationFactor
	return MatchResult{
		Matched:           matched,
		Registration:      registration,
		MatchedPointCount: count,
	}
}
