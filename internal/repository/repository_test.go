package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"timeguard/internal/model"
	"timeguard/internal/predictor"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, db *gorm.DB, telegramID int64) *model.User {
	t.Helper()
	user, err := NewUserRepository(db).UpsertFromTelegram(context.Background(), telegramID, "Ann", "", "ann")
	require.NoError(t, err)
	return user
}

func ptr(v float64) *float64 { return &v }

func TestUpsertFromTelegramUpdatesProfile(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first, err := repo.UpsertFromTelegram(ctx, 42, "Ann", "Lee", "ann")
	require.NoError(t, err)
	second, err := repo.UpsertFromTelegram(ctx, 42, "Anna", "Lee", "anna")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "anna", second.Username)

	byTelegram, err := repo.FindByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, first.ID, byTelegram.ID)

	got, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.FirstName)

	users, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCategoryTouchCountsUses(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, 1)
	other := seedUser(t, db, 2)
	repo := NewCategoryRepository(db)
	ctx := context.Background()
	at := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Touch(ctx, user.ID, "health", at))
	require.NoError(t, repo.Touch(ctx, user.ID, "work", at))
	require.NoError(t, repo.Touch(ctx, user.ID, "work", at.Add(time.Hour)))
	require.NoError(t, repo.Touch(ctx, user.ID, "", at))
	require.NoError(t, repo.Touch(ctx, other.ID, "study", at))

	list, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "work", list[0].Name)
	assert.Equal(t, 2, list[0].Uses)
	assert.Equal(t, "health", list[1].Name)
	assert.Equal(t, 1, list[1].Uses)

	names, err := repo.TopNames(ctx, user.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, names)
}

func TestTaskLifecycle(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, 1)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := &model.Task{UserID: user.ID, Title: "Write", Category: "work", Priority: "high", Status: model.StatusPending, EstimatedHours: ptr(2)}
	require.NoError(t, repo.Create(ctx, task))

	open, err := repo.ListOpen(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, open, 1)

	start := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkStarted(ctx, task, start))
	assert.ErrorIs(t, repo.MarkStarted(ctx, task, start), ErrTaskNotPending)

	require.NoError(t, repo.MarkCompleted(ctx, task, 3, start.Add(3*time.Hour)))
	assert.ErrorIs(t, repo.MarkCompleted(ctx, task, 5, start.Add(5*time.Hour)), ErrTaskAlreadyCompleted)

	stored, err := repo.FindByID(ctx, user.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	require.NotNil(t, stored.ActualHours)
	assert.Equal(t, 3.0, *stored.ActualHours)
	require.NotNil(t, stored.EstimatedHours)
	assert.Equal(t, 2.0, *stored.EstimatedHours)
	assert.InDelta(t, 180.0, stored.DurationMinutes(), 1e-6)

	open, err = repo.ListOpen(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestCompletedTasksIsScopedToUser(t *testing.T) {
	db := openTestDB(t)
	ann := seedUser(t, db, 1)
	bob := seedUser(t, db, 2)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	for i, u := range []*model.User{ann, ann, bob} {
		task := &model.Task{UserID: u.ID, Title: "t", Category: "work", Status: model.StatusPending}
		require.NoError(t, repo.Create(ctx, task))
		require.NoError(t, repo.MarkCompleted(ctx, task, float64(i+1), time.Now()))
	}
	require.NoError(t, repo.Create(ctx, &model.Task{UserID: ann.ID, Title: "open", Status: model.StatusPending}))

	records, err := repo.CompletedTasks(ctx, ann.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.True(t, r.Completed())
	}

	all, err := repo.ListByUser(ctx, ann.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDeleteTask(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, 1)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := &model.Task{UserID: user.ID, Title: "x", Status: model.StatusPending}
	require.NoError(t, repo.Create(ctx, task))

	assert.ErrorIs(t, repo.Delete(ctx, user.ID+1, task.ID), gorm.ErrRecordNotFound)
	require.NoError(t, repo.Delete(ctx, user.ID, task.ID))
	_, err := repo.FindByID(ctx, user.ID, task.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func bundleFor(t *testing.T, userID uint, actual float64) *predictor.Bundle {
	t.Helper()
	tasks := make([]predictor.TaskRecord, 0, 5)
	for i := 0; i < 5; i++ {
		tasks = append(tasks, predictor.TaskRecord{
			TaskFields:  predictor.TaskFields{Title: "task", Category: "work"},
			ActualHours: ptr(actual + float64(i)),
		})
	}
	codec := predictor.FitCategoryCodec([]string{"work"})
	stats := predictor.ComputeStats(tasks)
	y := make([]float64, 0, len(tasks))
	for _, task := range tasks {
		y = append(y, *task.ActualHours)
	}
	forest, err := predictor.FitForest(predictor.BuildMatrix(tasks, stats, codec), y, predictor.ForestConfig{Trees: 10, Seed: 42})
	require.NoError(t, err)
	return predictor.NewBundle(userID, forest, codec, len(tasks), time.Now())
}

func TestBundleRepositoryRoundTripAndReplace(t *testing.T) {
	db := openTestDB(t)
	repo := NewBundleRepository(db)
	ctx := context.Background()

	_, err := repo.Load(ctx, 1)
	assert.ErrorIs(t, err, predictor.ErrBundleNotFound)
	stamp, err := repo.Stamp(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, stamp)

	first := bundleFor(t, 1, 1)
	require.NoError(t, repo.Save(ctx, 1, first))
	stamp, err = repo.Stamp(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.Version, stamp)
	got, err := repo.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.Version, got.Version)
	assert.Equal(t, first.Model, got.Model)

	second := bundleFor(t, 1, 10)
	require.NoError(t, repo.Save(ctx, 1, second))
	got, err = repo.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, second.Version, got.Version)
	stamp, err = repo.Stamp(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, second.Version, stamp)

	var rows int64
	require.NoError(t, db.Model(&model.ModelBundle{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	task := predictor.TaskFields{Title: "task", Category: "work"}
	want, err := second.Predict(task, predictor.DefaultStats)
	require.NoError(t, err)
	have, err := got.Predict(task, predictor.DefaultStats)
	require.NoError(t, err)
	assert.Equal(t, want, have)
}

func TestBundleRepositoryUnconfigured(t *testing.T) {
	var repo *BundleRepository
	assert.ErrorIs(t, repo.Save(context.Background(), 1, &predictor.Bundle{}), predictor.ErrStoreUnconfigured)
}
