package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeguard/internal/config"
	"timeguard/internal/predictor"
	"timeguard/internal/repository"
	"timeguard/internal/service"
)

func testConfig(t *testing.T, store string) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		DatabaseURL: filepath.Join(dir, "test.db"),
		ModelStore:  store,
		ModelDir:    filepath.Join(dir, "models"),
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig(t, config.StoreFile)
	store, rc, err := openStore(ctx, cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, rc)
	assert.IsType(t, &predictor.FileStore{}, store)

	cfg = testConfig(t, config.StoreDB)
	db, err := repository.NewDB(cfg.DatabaseURL)
	require.NoError(t, err)
	store, _, err = openStore(ctx, cfg, db)
	require.NoError(t, err)
	assert.IsType(t, &repository.BundleRepository{}, store)
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	mr := miniredis.RunT(t)
	cfg = testConfig(t, config.StoreRedis)
	cfg.RedisAddr = mr.Addr()
	store, rc, err = openStore(ctx, cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, rc)
	defer rc.Close()
	assert.IsType(t, &predictor.RedisStore{}, store)

	_, _, err = openStore(ctx, testConfig(t, "s3"), nil)
	assert.Error(t, err)
}

func TestOpenStoreRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t, config.StoreRedis)
	cfg.RedisAddr = addr
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := openStore(ctx, cfg, nil)
	assert.Error(t, err)
}

func TestNewAppWiresRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, config.StoreRedis)
	cfg.RedisAddr = mr.Addr()

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	user, err := a.users.UpsertFromTelegram(ctx, 42, "Ann", "", "")
	require.NoError(t, err)
	for i := 0; i < predictor.MinTrainingSamples; i++ {
		task, _, err := a.tasks.CreateTask(ctx, user, service.TaskInput{Title: "write report", Category: "work"})
		require.NoError(t, err)
		_, err = a.tasks.CompleteTask(ctx, user, task.ID, float64(i+1))
		require.NoError(t, err)
	}
	assert.True(t, mr.Exists("tm:1"))
}

func TestPrintAnalytics(t *testing.T) {
	var buf bytes.Buffer
	printAnalytics(&buf, service.UserAnalytics{
		TotalCompleted:     2,
		AvgCompletionHours: 1.5,
		AccuracyRate:       1,
		Categories:         map[string]service.CategoryStats{"work": {Count: 2, AvgHours: 1.5}},
	}, []service.DayActivity{{Day: time.Monday, TaskCount: 2, TotalHours: 3}})

	out := buf.String()
	assert.Contains(t, out, "Completed tasks: 2")
	assert.Contains(t, out, "Within estimate: 100%")
	assert.Contains(t, out, "work")
	assert.Contains(t, out, "Monday")

	buf.Reset()
	printAnalytics(&buf, service.UserAnalytics{}, nil)
	assert.Equal(t, "Completed tasks: 0\n", buf.String())
}
