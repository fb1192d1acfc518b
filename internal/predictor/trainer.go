package predictor

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// MinTrainingSamples is the number of completed tasks needed before a model is fitted.
const MinTrainingSamples = 5

var ErrUserRequired = errors.New("user id is required for per-user model training")

// Trainer fits a user's model from their completed tasks and commits it.
type Trainer struct {
	source TaskSource
	models *Registry
	config ForestConfig
	now    func() time.Time
}

func NewTrainer(source TaskSource, models *Registry) *Trainer {
	return &Trainer{source: source, models: models, config: DefaultForestConfig, now: time.Now}
}

// WithForestConfig overrides how the forest is grown.
func (t *Trainer) WithForestConfig(cfg ForestConfig) *Trainer {
	t.config = cfg
	return t
}

// Train reports false without error when the user has fewer than
// MinTrainingSamples completed tasks; the stored bundle is then left alone.
// Store failures are returned.
func (t *Trainer) Train(ctx context.Context, userID uint) (bool, error) {
	if userID == 0 {
		return false, ErrUserRequired
	}
	if t.source == nil || t.models == nil {
		return false, errors.New("trainer is not wired to a task source and model registry")
	}

	tasks, err := t.source.CompletedTasks(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load completed tasks: %w", err)
	}
	completed := make([]TaskRecord, 0, len(tasks))
	for _, task := range tasks {
		if task.Completed() {
			completed = append(completed, task)
		}
	}
	if len(completed) < MinTrainingSamples {
		log.WithField("user", userID).WithField("samples", len(completed)).Debug("not enough completed tasks to train")
		return false, nil
	}

	categories := make([]string, 0, len(completed))
	targets := make([]float64, 0, len(completed))
	for _, task := range completed {
		categories = append(categories, task.Category)
		targets = append(targets, *task.ActualHours)
	}
	codec := FitCategoryCodec(categories)
	stats := ComputeStats(completed)

	forest, err := FitForest(BuildMatrix(completed, stats, codec), targets, t.config)
	if err != nil {
		return false, fmt.Errorf("fit model for user %d: %w", userID, err)
	}

	bundle := NewBundle(userID, forest, codec, len(completed), t.now())
	if err := t.models.Commit(ctx, userID, bundle); err != nil {
		return false, fmt.Errorf("commit model for user %d: %w", userID, err)
	}

	log.WithFields(log.Fields{
		"user":       userID,
		"samples":    len(completed),
		"categories": codec.Len(),
		"version":    bundle.Version,
	}).Info("model trained")
	return true, nil
}
