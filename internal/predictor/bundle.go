package predictor

import (
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// BundleFormat is bumped whenever the feature layout or encoding changes.
const BundleFormat = 1

var ErrModelUntrained = errors.New("model bundle is not trained")

// Bundle is the unit persisted per user: the regression model, the category
// codec it was trained with and the trained flag. A committed bundle is never
// mutated; retraining produces a new one.
type Bundle struct {
	Format    int            `json:"format"`
	Version   string         `json:"version"`
	UserID    uint           `json:"user_id"`
	Model     *Forest        `json:"model"`
	Codec     *CategoryCodec `json:"codec"`
	Trained   bool           `json:"trained"`
	Samples   int            `json:"samples"`
	TrainedAt time.Time      `json:"trained_at"`
}

// NewBundle wraps a freshly fitted model and codec.
func NewBundle(userID uint, model *Forest, codec *CategoryCodec, samples int, trainedAt time.Time) *Bundle {
	return &Bundle{
		Format:    BundleFormat,
		Version:   uuid.NewString(),
		UserID:    userID,
		Model:     model,
		Codec:     codec,
		Trained:   true,
		Samples:   samples,
		TrainedAt: trainedAt.UTC(),
	}
}

// Predict runs the bundle's model on a single task.
func (b *Bundle) Predict(task TaskFields, stats Stats) (float64, error) {
	if b == nil || !b.Trained {
		return 0, ErrModelUntrained
	}
	return b.Model.Predict(BuildFeatures(task, stats, b.Codec))
}

// EncodeBundle serializes a bundle.
func EncodeBundle(b *Bundle) ([]byte, error) {
	if b == nil {
		return nil, errors.New("encode bundle: nil bundle")
	}
	data, err := sonic.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	return data, nil
}

// DecodeBundle parses a bundle written by EncodeBundle.
func DecodeBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := sonic.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if b.Format != BundleFormat {
		return nil, fmt.Errorf("decode bundle: unsupported format %d", b.Format)
	}
	return &b, nil
}
