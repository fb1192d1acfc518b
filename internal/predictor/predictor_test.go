package predictor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictNoHistoryReturnsDefault(t *testing.T) {
	p := NewPredictor(NewRegistry(newMemStore()))

	est := p.Estimate(context.Background(), TaskFields{Title: "new"}, UserHistory{UserID: 1})
	assert.Equal(t, 1.0, est.Hours)
	assert.Equal(t, StageDefault, est.Stage)
	require.Len(t, est.Skipped, 3)
	assert.ErrorIs(t, est.Skipped[0], ErrNoModel)
	assert.ErrorIs(t, est.Skipped[1], ErrNoCategoryHistory)
	assert.ErrorIs(t, est.Skipped[2], ErrNoHistory)

	pending := UserHistory{UserID: 1, Tasks: []TaskRecord{{TaskFields: TaskFields{Title: "open"}}}}
	assert.Equal(t, 1.0, p.Predict(context.Background(), TaskFields{Title: "new"}, pending))
}

func TestPredictUserMeanWhenNoModelAndNoCategoryHistory(t *testing.T) {
	p := NewPredictor(NewRegistry(newMemStore()))
	user := UserHistory{UserID: 1, Tasks: []TaskRecord{done("work", 2), done("home", 4)}}

	est := p.Estimate(context.Background(), TaskFields{Title: "x", Category: "study"}, user)
	assert.Equal(t, StageUserMean, est.Stage)
	assert.InDelta(t, 3.0, est.Hours, 1e-12)
}

func TestPredictCategoryMean(t *testing.T) {
	p := NewPredictor(NewRegistry(newMemStore()))
	user := UserHistory{UserID: 1, Tasks: []TaskRecord{done("work", 2), done("work", 3), done("home", 10)}}

	est := p.Estimate(context.Background(), TaskFields{Title: "x", Category: "Work"}, user)
	assert.Equal(t, StageCategoryMean, est.Stage)
	assert.InDelta(t, 2.5, est.Hours, 1e-12)

	// missing category matches tasks stored under the default
	user.Tasks = append(user.Tasks, done("", 6))
	est = p.Estimate(context.Background(), TaskFields{Title: "x"}, user)
	assert.Equal(t, StageCategoryMean, est.Stage)
	assert.InDelta(t, 6.0, est.Hours, 1e-12)
}

func TestPredictUsesTrainedModel(t *testing.T) {
	store := newMemStore()
	reg := NewRegistry(store)
	source := &stubSource{tasks: map[uint][]TaskRecord{1: sampleHistory()}}
	trained, err := NewTrainer(source, reg).Train(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, trained)

	p := NewPredictor(reg)
	est := p.Estimate(context.Background(), TaskFields{Title: "Deploy", Description: "deploy parser", Category: "work", Priority: "high"}, UserHistory{UserID: 1, Tasks: sampleHistory()})
	assert.Equal(t, StageModel, est.Stage)
	assert.Empty(t, est.Skipped)
	assert.GreaterOrEqual(t, est.Hours, MinEstimateHours)
	assert.LessOrEqual(t, est.Hours, 4.0)
}

func TestPredictModelOutputIsFloored(t *testing.T) {
	store := newMemStore()
	reg := NewRegistry(store)
	negative := &Forest{Features: FeatureCount, Trees: []Tree{{Nodes: []Node{{Feature: -1, Value: -3}}}}}
	require.NoError(t, reg.Commit(context.Background(), 1, NewBundle(1, negative, FitCategoryCodec(nil), 5, timeZero)))

	est := NewPredictor(reg).Estimate(context.Background(), TaskFields{Title: "x"}, UserHistory{UserID: 1})
	assert.Equal(t, StageModel, est.Stage)
	assert.Equal(t, MinEstimateHours, est.Hours)
}

func TestPredictFallsBackOnModelFailures(t *testing.T) {
	ctx := context.Background()
	user := UserHistory{UserID: 1, Tasks: []TaskRecord{done("work", 2), done("work", 4)}}
	task := TaskFields{Title: "x", Category: "work"}

	t.Run("untrained bundle", func(t *testing.T) {
		reg := NewRegistry(newMemStore())
		b := trainedBundle(t, 1)
		b.Trained = false
		require.NoError(t, reg.Commit(ctx, 1, b))

		est := NewPredictor(reg).Estimate(ctx, task, user)
		assert.Equal(t, StageCategoryMean, est.Stage)
		assert.InDelta(t, 3.0, est.Hours, 1e-12)
		assert.ErrorIs(t, est.Skipped[0], ErrModelUntrained)
	})

	t.Run("incompatible features", func(t *testing.T) {
		reg := NewRegistry(newMemStore())
		narrow := &Forest{Features: 3, Trees: []Tree{{Nodes: []Node{{Feature: -1, Value: 9}}}}}
		require.NoError(t, reg.Commit(ctx, 1, NewBundle(1, narrow, nil, 5, timeZero)))

		est := NewPredictor(reg).Estimate(ctx, task, user)
		assert.Equal(t, StageCategoryMean, est.Stage)
		assert.ErrorIs(t, est.Skipped[0], ErrFeatureShape)
	})

	t.Run("store failure", func(t *testing.T) {
		store := newMemStore()
		store.stampErr = errors.New("disk unreadable")

		est := NewPredictor(NewRegistry(store)).Estimate(ctx, task, user)
		assert.Equal(t, StageCategoryMean, est.Stage)
		require.Len(t, est.Skipped, 1)
		assert.Equal(t, StageModel, est.Skipped[0].Stage)
		assert.NotErrorIs(t, est.Skipped[0], ErrNoModel)
	})

	t.Run("nil model in bundle", func(t *testing.T) {
		reg := NewRegistry(newMemStore())
		require.NoError(t, reg.Commit(ctx, 1, &Bundle{Format: BundleFormat, Trained: true}))

		est := NewPredictor(reg).Estimate(ctx, task, user)
		assert.Equal(t, StageCategoryMean, est.Stage)
		assert.ErrorIs(t, est.Skipped[0], ErrModelNotFitted)
	})

	t.Run("no registry", func(t *testing.T) {
		assert.InDelta(t, 3.0, NewPredictor(nil).Predict(ctx, task, user), 1e-12)
	})
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "model", StageModel.String())
	assert.Equal(t, "category_mean", StageCategoryMean.String())
	assert.Equal(t, "user_mean", StageUserMean.String())
	assert.Equal(t, "default", StageDefault.String())
	assert.Equal(t, "stage(9)", Stage(9).String())
}
