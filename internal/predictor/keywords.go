package predictor

import (
	"hash/fnv"
	"regexp"
	"strings"
	"unicode/utf8"
)

// KeywordSlots is the number of keyword signals appended to every feature vector.
const KeywordSlots = 3

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "to": {}, "of": {}, "in": {}, "for": {}, "on": {}, "at": {},
	"a": {}, "an": {}, "is": {}, "with": {}, "by": {}, "as": {}, "it": {}, "from": {},
	"this": {}, "that": {}, "be": {}, "are": {}, "was": {}, "were": {}, "or": {},
	"but": {}, "not": {}, "your": {}, "you": {},
}

// ExtractKeywords returns up to n of the most frequent non-stopword tokens longer
// than two characters. Ties keep the order in which tokens first appeared.
func ExtractKeywords(text string, n int) []string {
	if n <= 0 {
		return nil
	}
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	counts := make(map[string]int, len(words))
	order := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) <= 2 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	// stable selection keeps first-seen order among equal counts
	picked := make([]string, 0, n)
	used := make(map[string]bool, n)
	for len(picked) < n {
		best, bestCount := "", 0
		for _, w := range order {
			if used[w] {
				continue
			}
			if counts[w] > bestCount {
				best, bestCount = w, counts[w]
			}
		}
		if bestCount == 0 {
			break
		}
		used[best] = true
		picked = append(picked, best)
	}
	return picked
}

// EncodeKeywords maps each keyword to a value in [0,1) via FNV-1a modulo 1000.
// Missing slots stay zero.
func EncodeKeywords(keywords []string) [KeywordSlots]float64 {
	var vec [KeywordSlots]float64
	for i, kw := range keywords {
		if i >= KeywordSlots {
			break
		}
		vec[i] = float64(keywordHash(kw)%1000) / 1000
	}
	return vec
}

func keywordHash(kw string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(kw))
	return h.Sum32()
}
