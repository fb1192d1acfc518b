package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStatsDefaults(t *testing.T) {
	assert.Equal(t, Stats{Mean: 1.0, Std: 0, Count: 0}, ComputeStats(nil))

	pending := []TaskRecord{{TaskFields: TaskFields{Title: "open"}}}
	assert.Equal(t, DefaultStats, ComputeStats(pending))
}

func TestComputeStatsPopulationStd(t *testing.T) {
	tasks := []TaskRecord{done("work", 2), done("work", 4), done("home", 4), done("home", 4), done("x", 5), done("x", 5), done("y", 7), done("y", 9)}
	tasks = append(tasks, TaskRecord{TaskFields: TaskFields{Title: "pending"}})

	s := ComputeStats(tasks)
	assert.Equal(t, 8, s.Count)
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	assert.InDelta(t, 2.0, s.Std, 1e-12)
}

func TestComputeStatsRecomputedOnEveryCall(t *testing.T) {
	tasks := []TaskRecord{done("work", 2)}
	assert.InDelta(t, 2.0, ComputeStats(tasks).Mean, 1e-12)

	tasks = append(tasks, done("work", 4))
	assert.InDelta(t, 3.0, ComputeStats(tasks).Mean, 1e-12)
	assert.Equal(t, 2, ComputeStats(tasks).Count)
}
