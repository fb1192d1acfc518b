package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_TOKEN", "DATABASE_URL", "MODEL_STORE", "MODEL_DIR", "REDIS_ADDR",
		"REDIS_PASSWORD", "REDIS_DB", "REPORT_INTERVAL_HOURS", "RETRAIN_SCHEDULE", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "timeguard.db", cfg.DatabaseURL)
	assert.Equal(t, StoreFile, cfg.ModelStore)
	assert.Equal(t, "models", cfg.ModelDir)
	assert.Equal(t, 5*time.Hour, cfg.ReportInterval)
	assert.Equal(t, "0 30 3 * * *", cfg.RetrainSchedule)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Error(t, cfg.RequireTelegram())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", " token ")
	t.Setenv("MODEL_STORE", "Redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REPORT_INTERVAL_HOURS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "token", cfg.TelegramToken)
	assert.Equal(t, StoreRedis, cfg.ModelStore)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 3*time.Hour, cfg.ReportInterval)
	assert.NoError(t, cfg.RequireTelegram())
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODEL_STORE", "redis")
	_, err := Load()
	assert.ErrorContains(t, err, "REDIS_ADDR")

	clearEnv(t)
	t.Setenv("MODEL_STORE", "s3")
	_, err = Load()
	assert.ErrorContains(t, err, "unknown MODEL_STORE")

	clearEnv(t)
	t.Setenv("REDIS_DB", "-1")
	_, err = Load()
	assert.Error(t, err)
}

func TestParseInterval(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseInterval(""))
	assert.Equal(t, time.Duration(0), parseInterval("abc"))
	assert.Equal(t, time.Duration(0), parseInterval("-2"))
	assert.Equal(t, 90*time.Minute, parseInterval("1.5"))
}
