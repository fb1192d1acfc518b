package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitCategoryCodecSortsAndDeduplicates(t *testing.T) {
	codec := FitCategoryCodec([]string{"work", "Health", "", "work", " health "})

	assert.Equal(t, []string{"general", "health", "work"}, codec.Classes)
	assert.Equal(t, 1, codec.Encode(""))
	assert.Equal(t, 2, codec.Encode("HEALTH"))
	assert.Equal(t, 3, codec.Encode("work"))
}

func TestCategoryCodecUnseenIsUnknown(t *testing.T) {
	codec := FitCategoryCodec([]string{"work"})

	assert.Equal(t, UnknownCategoryCode, codec.Encode("gardening"))

	var empty *CategoryCodec
	assert.NotPanics(t, func() { empty.Encode("work") })
	assert.Equal(t, UnknownCategoryCode, empty.Encode("work"))
}

func TestRefitReplacesPreviousClasses(t *testing.T) {
	first := FitCategoryCodec([]string{"a", "b"})
	second := FitCategoryCodec([]string{"c"})

	assert.Equal(t, 1, first.Encode("a"))
	assert.Equal(t, UnknownCategoryCode, second.Encode("a"))
	assert.Equal(t, 1, second.Encode("c"))
}

func TestEncodePriority(t *testing.T) {
	cases := map[string]int{
		"low":    1,
		"medium": 2,
		"high":   3,
		"HIGH":   3,
		"":       2,
		"urgent": 2,
	}
	for in, want := range cases {
		assert.Equal(t, want, EncodePriority(in), "priority %q", in)
	}
	assert.Equal(t, "medium", NormalizePriority("urgent"))
	assert.Equal(t, "low", NormalizePriority(" Low "))
}
