package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"timeguard/internal/model"
	"timeguard/internal/predictor"
	"timeguard/internal/repository"
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrInvalidActual = errors.New("actual time must be a positive number of hours")
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string
	Description string
	Category    string
	Priority    string
}

// CompletionResult is what a caller learns when a task is completed.
type CompletionResult struct {
	Task      *model.Task
	Deviation predictor.Deviation
	Overdue   bool
	Retrained bool
}

// TaskService wraps task-related business logic and calls into the predictor
// at creation and completion time.
type TaskService struct {
	taskRepo     *repository.TaskRepository
	categoryRepo *repository.CategoryRepository
	predictor    *predictor.Predictor
	trainer      *predictor.Trainer
	now          func() time.Time
}

func NewTaskService(taskRepo *repository.TaskRepository, categoryRepo *repository.CategoryRepository, p *predictor.Predictor, trainer *predictor.Trainer) *TaskService {
	return &TaskService{
		taskRepo:     taskRepo,
		categoryRepo: categoryRepo,
		predictor:    p,
		trainer:      trainer,
		now:          time.Now,
	}
}

// CreateTask stores a new task with its estimate attached.
func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, predictor.Estimate, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, predictor.Estimate{}, ErrTitleRequired
	}

	fields := predictor.TaskFields{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Category:    predictor.NormalizeCategory(input.Category),
		Priority:    predictor.NormalizePriority(input.Priority),
	}

	if err := s.categoryRepo.Touch(ctx, user.ID, fields.Category, s.now()); err != nil {
		return nil, predictor.Estimate{}, err
	}

	history, err := s.taskRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, predictor.Estimate{}, fmt.Errorf("load task history: %w", err)
	}
	est := s.predictor.Estimate(ctx, fields, predictor.UserHistory{UserID: user.ID, Tasks: model.Records(history)})
	estimated := est.Hours

	task := model.Task{
		UserID:         user.ID,
		Title:          fields.Title,
		Description:    fields.Description,
		Category:       fields.Category,
		Priority:       fields.Priority,
		EstimatedHours: &estimated,
		Status:         model.StatusPending,
	}
	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, predictor.Estimate{}, err
	}

	log.WithFields(log.Fields{
		"user":     user.ID,
		"task":     task.ID,
		"estimate": estimated,
		"stage":    est.Stage.String(),
	}).Info("task created")
	return &task, est, nil
}

func (s *TaskService) GetTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, user.ID, taskID)
}

func (s *TaskService) ListOpen(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.taskRepo.ListOpen(ctx, user.ID)
}

// History returns all of the user's tasks, newest first.
func (s *TaskService) History(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.taskRepo.ListByUser(ctx, user.ID)
}

// StartTask moves a pending task to in_progress.
func (s *TaskService) StartTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.taskRepo.MarkStarted(ctx, task, s.now()); err != nil {
		return nil, err
	}
	return task, nil
}

// CompleteTask records the actual duration, checks it against the estimate and
// retrains the user's model. When retraining fails the completion is still
// stored; the result is returned together with the error.
func (s *TaskService) CompleteTask(ctx context.Context, user *model.User, taskID uint, actualHours float64) (*CompletionResult, error) {
	if actualHours <= 0 || math.IsNaN(actualHours) || math.IsInf(actualHours, 0) {
		return nil, ErrInvalidActual
	}
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.taskRepo.MarkCompleted(ctx, task, actualHours, s.now()); err != nil {
		return nil, err
	}

	result := &CompletionResult{
		Task:      task,
		Deviation: predictor.DetectDeviation(task.EstimatedHours, task.ActualHours),
		Overdue:   task.IsOverdue(),
	}

	entry := log.WithFields(log.Fields{
		"user":        user.ID,
		"task":        task.ID,
		"ratio":       result.Deviation.Ratio,
		"significant": result.Deviation.Significant,
	})
	trained, err := s.trainer.Train(ctx, user.ID)
	if err != nil {
		entry.WithError(err).Error("retrain after completion failed")
		return result, fmt.Errorf("retrain model: %w", err)
	}
	result.Retrained = trained
	entry.WithField("retrained", trained).Info("task completed")
	return result, nil
}

// DeleteTask removes a task completely.
func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, taskID uint) error {
	return s.taskRepo.Delete(ctx, user.ID, taskID)
}
