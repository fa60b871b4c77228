package domain

import "math"

// ProgressSnapshot is the gateway-computed completion percentage for a project.
type ProgressSnapshot struct {
	PercentageProgression float64
}

// NewProgressSnapshot clamps p into [0,100]. NaN and infinities are rejected.
func NewProgressSnapshot(p float64) (ProgressSnapshot, bool) {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return ProgressSnapshot{}, false
	}
	return ProgressSnapshot{PercentageProgression: math.Min(100, math.Max(0, p))}, true
}
