package predictor

import "unicode/utf8"

// FeatureCount is the length of every feature vector.
const FeatureCount = 7 + KeywordSlots

// BuildFeatures encodes a task and its owner's statistics. Training and
// inference both go through here so the layout cannot drift:
//
//	0 title length (runes)
//	1 description length (runes)
//	2 category code
//	3 priority code
//	4 user mean duration
//	5 user duration std
//	6 user completed count
//	7..9 keyword signals
func BuildFeatures(task TaskFields, stats Stats, codec *CategoryCodec) []float64 {
	keywords := EncodeKeywords(ExtractKeywords(task.Description, KeywordSlots))

	features := make([]float64, 0, FeatureCount)
	features = append(features,
		float64(utf8.RuneCountInString(task.Title)),
		float64(utf8.RuneCountInString(task.Description)),
		float64(codec.Encode(task.Category)),
		float64(EncodePriority(task.Priority)),
		stats.Mean,
		stats.Std,
		float64(stats.Count),
	)
	features = append(features, keywords[:]...)
	return features
}

// BuildMatrix encodes a batch of tasks that share the same owner statistics.
func BuildMatrix(tasks []TaskRecord, stats Stats, codec *CategoryCodec) [][]float64 {
	rows := make([][]float64, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, BuildFeatures(t.TaskFields, stats, codec))
	}
	return rows
}
