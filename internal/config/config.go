package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreFile  = "file"
	StoreDB    = "db"
	StoreRedis = "redis"
)

// Config keeps runtime settings.
type Config struct {
	TelegramToken   string
	DatabaseURL     string
	ModelStore      string
	ModelDir        string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ReportInterval  time.Duration
	RetrainSchedule string
	LogLevel        string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken:   env("TELEGRAM_TOKEN"),
		DatabaseURL:     env("DATABASE_URL"),
		ModelStore:      strings.ToLower(env("MODEL_STORE")),
		ModelDir:        env("MODEL_DIR"),
		RedisAddr:       env("REDIS_ADDR"),
		RedisPassword:   env("REDIS_PASSWORD"),
		ReportInterval:  parseInterval(env("REPORT_INTERVAL_HOURS")),
		RetrainSchedule: env("RETRAIN_SCHEDULE"),
		LogLevel:        strings.ToLower(env("LOG_LEVEL")),
	}

	if raw := env("REDIS_DB"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("REDIS_DB must be a non-negative integer, got %q", raw)
		}
		cfg.RedisDB = n
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "timeguard.db"
	}
	if cfg.ModelStore == "" {
		cfg.ModelStore = StoreFile
	}
	if cfg.ModelDir == "" {
		cfg.ModelDir = "models"
	}
	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = 5 * time.Hour
	}
	if cfg.RetrainSchedule == "" {
		cfg.RetrainSchedule = "0 30 3 * * *"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, cfg.Validate()
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	switch c.ModelStore {
	case StoreFile:
		if c.ModelDir == "" {
			return fmt.Errorf("MODEL_DIR is required for the file model store")
		}
	case StoreDB:
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis model store")
		}
	default:
		return fmt.Errorf("unknown MODEL_STORE %q (want file, db or redis)", c.ModelStore)
	}
	return nil
}

// RequireTelegram is checked only by commands that talk to Telegram.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
