package predictor

import (
	"sort"
	"strings"
)

const (
	// DefaultCategory is used whenever a task has no category.
	DefaultCategory = "general"
	// UnknownCategoryCode is returned for categories absent from the fitted codec.
	UnknownCategoryCode = 0
)

var priorityCodes = map[string]int{
	"low":    1,
	"medium": 2,
	"high":   3,
}

const defaultPriorityCode = 2

// NormalizeCategory trims and lower-cases a category, falling back to DefaultCategory.
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return DefaultCategory
	}
	return c
}

// NormalizePriority returns one of low, medium or high; anything else becomes medium.
func NormalizePriority(priority string) string {
	p := strings.ToLower(strings.TrimSpace(priority))
	if _, ok := priorityCodes[p]; ok {
		return p
	}
	return "medium"
}

// EncodePriority maps low/medium/high to 1/2/3. Unrecognized values map to medium.
func EncodePriority(priority string) int {
	if code, ok := priorityCodes[strings.ToLower(strings.TrimSpace(priority))]; ok {
		return code
	}
	return defaultPriorityCode
}

// CategoryCodec maps the categories seen during a training run to stable codes.
// Classes are kept sorted; class i encodes to i+1 so that 0 stays free for unknown.
type CategoryCodec struct {
	Classes []string `json:"classes"`
}

// FitCategoryCodec builds a codec from scratch over the given categories.
func FitCategoryCodec(categories []string) *CategoryCodec {
	seen := make(map[string]struct{}, len(categories))
	classes := make([]string, 0, len(categories))
	for _, c := range categories {
		c = NormalizeCategory(c)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return &CategoryCodec{Classes: classes}
}

// Encode never fails: a nil codec or an unseen category yields UnknownCategoryCode.
func (c *CategoryCodec) Encode(category string) int {
	if c == nil || len(c.Classes) == 0 {
		return UnknownCategoryCode
	}
	category = NormalizeCategory(category)
	i := sort.SearchStrings(c.Classes, category)
	if i < len(c.Classes) && c.Classes[i] == category {
		return i + 1
	}
	return UnknownCategoryCode
}

// Len returns the number of fitted categories.
func (c *CategoryCodec) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Classes)
}
