package commands

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"timeguard/internal/config"
	"timeguard/internal/predictor"
	"timeguard/internal/repository"
	"timeguard/internal/service"
)

// app holds every wired dependency a command may need.
type app struct {
	db    *gorm.DB
	redis *redis.Client

	users      *repository.UserRepository
	categories *repository.CategoryRepository
	taskRepo   *repository.TaskRepository

	registry *predictor.Registry
	trainer  *predictor.Trainer

	tasks     *service.TaskService
	training  *service.TrainingService
	analytics *service.AnalyticsService
	reminder  *service.ReminderService
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	a := &app{db: db}

	store, rc, err := openStore(ctx, cfg, db)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.redis = rc

	a.users = repository.NewUserRepository(db)
	a.categories = repository.NewCategoryRepository(db)
	a.taskRepo = repository.NewTaskRepository(db)

	a.registry = predictor.NewRegistry(store)
	a.trainer = predictor.NewTrainer(a.taskRepo, a.registry)

	a.tasks = service.NewTaskService(a.taskRepo, a.categories, predictor.NewPredictor(a.registry), a.trainer)
	a.training = service.NewTrainingService(a.users, a.trainer)
	a.analytics = service.NewAnalyticsService(a.taskRepo)
	a.reminder = service.NewReminderService(a.taskRepo, a.analytics)

	log.WithFields(log.Fields{
		"database":    cfg.DatabaseURL,
		"model_store": cfg.ModelStore,
	}).Debug("application wired")
	return a, nil
}

// openStore picks where trained models live. The redis client is returned so
// it can be closed with the app.
func openStore(ctx context.Context, cfg config.Config, db *gorm.DB) (predictor.Store, *redis.Client, error) {
	switch cfg.ModelStore {
	case config.StoreFile:
		return predictor.NewFileStore(cfg.ModelDir), nil, nil
	case config.StoreDB:
		return repository.NewBundleRepository(db), nil, nil
	case config.StoreRedis:
		rc := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rc.Ping(ctx).Err(); err != nil {
			_ = rc.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return predictor.NewRedisStore(rc, ""), rc, nil
	default:
		return nil, nil, fmt.Errorf("unknown model store %q", cfg.ModelStore)
	}
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.WithError(err).Warn("close redis")
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
