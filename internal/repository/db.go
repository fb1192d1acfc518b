package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"timeguard/internal/model"
)

const busyTimeoutMillis = 5000

// NewDB opens the SQLite database, prepares it for the bot and the retrain
// sweep writing at the same time, and migrates the schema.
func NewDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "timeguard.db"
	}

	path, onDisk := sqliteFile(dsn)
	if onDisk {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir %q: %w", dir, err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.New(log.StandardLogger(), logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one connection keeps the pragmas below in effect for every query
	sqlDB.SetMaxOpenConns(1)

	pragmas := []string{fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMillis)}
	if onDisk {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := db.AutoMigrate(&model.User{}, &model.Category{}, &model.Task{}, &model.ModelBundle{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	log.WithField("dsn", dsn).Debug("database ready")
	return db, nil
}

// sqliteFile extracts the file path from a DSN; in-memory databases report false.
func sqliteFile(dsn string) (string, bool) {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return "", false
	}
	path := strings.TrimPrefix(dsn, "file:")
	path, _, _ = strings.Cut(path, "?")
	return path, path != ""
}
