package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywordsDropsStopwordsAndShortTokens(t *testing.T) {
	got := ExtractKeywords("Fix the DB and go to the parser: parser, parser, db fix", 3)
	assert.Equal(t, []string{"parser", "fix"}, got)
}

func TestExtractKeywordsTiesKeepFirstSeenOrder(t *testing.T) {
	got := ExtractKeywords("zeta alpha beta gamma", 3)
	assert.Equal(t, []string{"zeta", "alpha", "beta"}, got)
}

func TestExtractKeywordsUnicode(t *testing.T) {
	got := ExtractKeywords("Подготовить отчёт, отчёт к пятнице", 3)
	assert.Equal(t, []string{"отчёт", "подготовить", "пятнице"}, got)
}

func TestExtractKeywordsEmpty(t *testing.T) {
	assert.Empty(t, ExtractKeywords("", 3))
	assert.Empty(t, ExtractKeywords("a an the", 3))
	assert.Nil(t, ExtractKeywords("something", 0))
}

func TestEncodeKeywordsStableAndPadded(t *testing.T) {
	first := EncodeKeywords([]string{"parser"})
	second := EncodeKeywords([]string{"parser"})

	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first[0], 0.0)
	assert.Less(t, first[0], 1.0)
	assert.Equal(t, 0.0, first[1])
	assert.Equal(t, 0.0, first[2])

	full := EncodeKeywords([]string{"one", "two", "three", "four"})
	assert.Len(t, full, KeywordSlots)
}
