package predictor

import "math"

const (
	// SignificantDeviationThreshold is the |ratio| above which a deviation is reported.
	SignificantDeviationThreshold = 0.30
	// OverdueThreshold is the one-sided overrun above which a task counts as overdue.
	OverdueThreshold = 0.20
)

// Deviation compares a task's actual duration with its estimate.
// A positive Ratio means the task took longer than estimated.
type Deviation struct {
	Significant bool
	Ratio       float64
}

// DetectDeviation returns the zero Deviation unless both durations are present and positive.
func DetectDeviation(estimated, actual *float64) Deviation {
	if !present(estimated) || !present(actual) {
		return Deviation{}
	}
	ratio := (*actual - *estimated) / *estimated
	return Deviation{
		Significant: math.Abs(ratio) > SignificantDeviationThreshold,
		Ratio:       ratio,
	}
}

// IsOverdue reports whether actual exceeds estimated by strictly more than OverdueThreshold.
// Under-runs are never overdue.
func IsOverdue(estimated, actual *float64) bool {
	if !present(estimated) || !present(actual) {
		return false
	}
	return *actual > *estimated*(1+OverdueThreshold)
}

func present(v *float64) bool {
	return v != nil && *v > 0
}
