package predictor

import "math"

// Stats summarizes a user's completed-task durations, in hours.
type Stats struct {
	Mean  float64
	Std   float64
	Count int
}

// DefaultStats is used for users without completed tasks: a one-hour prior.
var DefaultStats = Stats{Mean: 1.0, Std: 0.0, Count: 0}

// ComputeStats returns mean, population standard deviation and count of actual
// durations over completed tasks. It is recomputed on every call.
func ComputeStats(tasks []TaskRecord) Stats {
	var (
		sum   float64
		count int
	)
	for _, t := range tasks {
		if !t.Completed() {
			continue
		}
		sum += *t.ActualHours
		count++
	}
	if count == 0 {
		return DefaultStats
	}
	mean := sum / float64(count)

	var sq float64
	for _, t := range tasks {
		if !t.Completed() {
			continue
		}
		d := *t.ActualHours - mean
		sq += d * d
	}
	return Stats{Mean: mean, Std: math.Sqrt(sq / float64(count)), Count: count}
}

// meanActual averages actual durations of completed tasks accepted by keep.
func meanActual(tasks []TaskRecord, keep func(TaskRecord) bool) (float64, bool) {
	var (
		sum   float64
		count int
	)
	for _, t := range tasks {
		if !t.Completed() || (keep != nil && !keep(t)) {
			continue
		}
		sum += *t.ActualHours
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}
