package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
)

const (
	// MinEstimateHours floors model output at six minutes.
	MinEstimateHours = 0.1
	// DefaultEstimateHours is returned for users without any completed task.
	DefaultEstimateHours = 1.0
)

var (
	ErrNoModel           = errors.New("no model for user")
	ErrNoCategoryHistory = errors.New("no completed tasks in category")
	ErrNoHistory         = errors.New("no completed tasks")
	ErrBadPrediction     = errors.New("model returned a non-finite estimate")
)

// Stage identifies which rule of the fallback chain produced an estimate.
type Stage int

const (
	StageModel Stage = iota
	StageCategoryMean
	StageUserMean
	StageDefault
)

func (s Stage) String() string {
	switch s {
	case StageModel:
		return "model"
	case StageCategoryMean:
		return "category_mean"
	case StageUserMean:
		return "user_mean"
	case StageDefault:
		return "default"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StageError records why a stage was passed over.
type StageError struct {
	Stage Stage
	Err   error
}

func (e StageError) Error() string { return e.Stage.String() + ": " + e.Err.Error() }

func (e StageError) Unwrap() error { return e.Err }

// Estimate is the outcome of the fallback chain.
type Estimate struct {
	Hours   float64
	Stage   Stage
	Skipped []StageError
}

// Predictor estimates task durations. Rules are tried in order, each only when
// the previous one failed:
//
//  1. the user's trained model, floored at MinEstimateHours
//  2. mean actual duration of the user's completed tasks in the same category
//  3. mean actual duration of all the user's completed tasks
//  4. DefaultEstimateHours
type Predictor struct {
	models *Registry
}

func NewPredictor(models *Registry) *Predictor {
	return &Predictor{models: models}
}

// Predict always returns a positive estimate in hours.
func (p *Predictor) Predict(ctx context.Context, task TaskFields, user UserHistory) float64 {
	return p.Estimate(ctx, task, user).Hours
}

// Estimate runs the fallback chain and reports which rule answered.
func (p *Predictor) Estimate(ctx context.Context, task TaskFields, user UserHistory) Estimate {
	stages := []struct {
		stage Stage
		run   func() (float64, error)
	}{
		{StageModel, func() (float64, error) { return p.fromModel(ctx, task, user) }},
		{StageCategoryMean, func() (float64, error) { return fromCategoryMean(task, user) }},
		{StageUserMean, func() (float64, error) { return fromUserMean(user) }},
		{StageDefault, func() (float64, error) { return DefaultEstimateHours, nil }},
	}

	var est Estimate
	for _, s := range stages {
		hours, err := s.run()
		if err == nil {
			est.Hours, est.Stage = hours, s.stage
			return est
		}
		est.Skipped = append(est.Skipped, StageError{Stage: s.stage, Err: err})
		entry := log.WithField("user", user.UserID).WithField("stage", s.stage.String()).WithError(err)
		if errors.Is(err, ErrNoModel) || errors.Is(err, ErrModelUntrained) ||
			errors.Is(err, ErrNoCategoryHistory) || errors.Is(err, ErrNoHistory) {
			entry.Debug("estimate stage skipped")
		} else {
			entry.Warn("estimate stage failed")
		}
	}
	est.Hours, est.Stage = DefaultEstimateHours, StageDefault
	return est
}

func (p *Predictor) fromModel(ctx context.Context, task TaskFields, user UserHistory) (hours float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			hours, err = 0, fmt.Errorf("model panicked: %v", r)
		}
	}()
	if p == nil || p.models == nil {
		return 0, ErrNoModel
	}
	b, err := p.models.Get(ctx, user.UserID)
	if err != nil {
		if errors.Is(err, ErrBundleNotFound) {
			return 0, ErrNoModel
		}
		return 0, err
	}
	v, err := b.Predict(task, ComputeStats(user.Tasks))
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrBadPrediction
	}
	return math.Max(MinEstimateHours, v), nil
}

func fromCategoryMean(task TaskFields, user UserHistory) (float64, error) {
	category := NormalizeCategory(task.Category)
	mean, ok := meanActual(user.Tasks, func(t TaskRecord) bool {
		return NormalizeCategory(t.Category) == category
	})
	if !ok {
		return 0, ErrNoCategoryHistory
	}
	return mean, nil
}

func fromUserMean(user UserHistory) (float64, error) {
	mean, ok := meanActual(user.Tasks, nil)
	if !ok {
		return 0, ErrNoHistory
	}
	return mean, nil
}
