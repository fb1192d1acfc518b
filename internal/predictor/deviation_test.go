package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectDeviationMissingDurations(t *testing.T) {
	assert.Equal(t, Deviation{}, DetectDeviation(nil, hours(3)))
	assert.Equal(t, Deviation{}, DetectDeviation(hours(3), nil))
	assert.Equal(t, Deviation{}, DetectDeviation(nil, nil))
	assert.Equal(t, Deviation{}, DetectDeviation(hours(0), hours(3)))
}

func TestDetectDeviationThreshold(t *testing.T) {
	d := DetectDeviation(hours(10), hours(14))
	assert.True(t, d.Significant)
	assert.InDelta(t, 0.4, d.Ratio, 1e-12)

	d = DetectDeviation(hours(10), hours(12))
	assert.False(t, d.Significant)
	assert.InDelta(t, 0.2, d.Ratio, 1e-12)

	d = DetectDeviation(hours(10), hours(5))
	assert.True(t, d.Significant)
	assert.InDelta(t, -0.5, d.Ratio, 1e-12)
}

func TestIsOverdueIsOneSidedAndStrict(t *testing.T) {
	assert.True(t, IsOverdue(hours(10), hours(12.5)))
	assert.False(t, IsOverdue(hours(10), hours(12)))
	assert.False(t, IsOverdue(hours(10), hours(2)))
	assert.False(t, IsOverdue(nil, hours(20)))
	assert.False(t, IsOverdue(hours(10), nil))
}

func TestThresholdsAreDistinct(t *testing.T) {
	assert.NotEqual(t, SignificantDeviationThreshold, OverdueThreshold)

	// 25% over: overdue but not a significant deviation
	assert.True(t, IsOverdue(hours(4), hours(5)))
	assert.False(t, DetectDeviation(hours(4), hours(5)).Significant)
}
