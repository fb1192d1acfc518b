package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFeaturesLayout(t *testing.T) {
	codec := FitCategoryCodec([]string{"work", "home"})
	stats := Stats{Mean: 2.5, Std: 0.5, Count: 4}
	task := TaskFields{Title: "Отчёт", Description: "parser parser review", Category: "work", Priority: "high"}

	f := BuildFeatures(task, stats, codec)
	require.Len(t, f, FeatureCount)

	kw := EncodeKeywords([]string{"parser", "review"})
	assert.Equal(t, []float64{5, 20, 2, 3, 2.5, 0.5, 4, kw[0], kw[1], 0}, f)
}

func TestBuildFeaturesDefaultsForMissingFields(t *testing.T) {
	codec := FitCategoryCodec([]string{"general"})
	f := BuildFeatures(TaskFields{Title: "x"}, DefaultStats, codec)

	assert.Equal(t, []float64{1, 0, 1, 2, 1, 0, 0, 0, 0, 0}, f)
}

func TestBuildMatrixMatchesSingleRowPath(t *testing.T) {
	history := sampleHistory()
	codec := FitCategoryCodec([]string{"work", "health", "shopping"})
	stats := ComputeStats(history)

	matrix := BuildMatrix(history, stats, codec)
	require.Len(t, matrix, len(history))
	for i, task := range history {
		assert.Equal(t, BuildFeatures(task.TaskFields, stats, codec), matrix[i])
	}
}
