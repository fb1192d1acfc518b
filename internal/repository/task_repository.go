package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"timeguard/internal/model"
	"timeguard/internal/predictor"
)

var (
	ErrTaskAlreadyCompleted = errors.New("task is already completed")
	ErrTaskNotPending       = errors.New("task is not pending")
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByUser returns every task of the user, newest first.
func (r *TaskRepository) ListByUser(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListOpen returns pending and in-progress tasks, oldest first.
func (r *TaskRepository) ListOpen(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND status <> ?", userID, model.StatusCompleted).
		Order("created_at ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListCompleted returns tasks with a recorded actual duration.
func (r *TaskRepository) ListCompleted(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND actual_hours IS NOT NULL", userID).
		Order("completed_at ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// CompletedTasks lets the repository serve as the trainer's task source.
func (r *TaskRepository) CompletedTasks(ctx context.Context, userID uint) ([]predictor.TaskRecord, error) {
	tasks, err := r.ListCompleted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list completed tasks: %w", err)
	}
	return model.Records(tasks), nil
}

// MarkStarted moves a pending task to in_progress.
func (r *TaskRepository) MarkStarted(ctx context.Context, task *model.Task, startedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND user_id = ? AND status = ?", task.ID, task.UserID, model.StatusPending).
		Updates(map[string]interface{}{
			"status":     model.StatusInProgress,
			"started_at": startedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("start task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTaskNotPending
	}
	task.Status = model.StatusInProgress
	task.StartedAt = &startedAt
	return nil
}

// MarkCompleted records the actual duration. It only succeeds once per task.
func (r *TaskRepository) MarkCompleted(ctx context.Context, task *model.Task, actualHours float64, completedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND user_id = ? AND actual_hours IS NULL", task.ID, task.UserID).
		Updates(map[string]interface{}{
			"status":       model.StatusCompleted,
			"actual_hours": actualHours,
			"completed_at": completedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("complete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTaskAlreadyCompleted
	}
	task.Status = model.StatusCompleted
	task.ActualHours = &actualHours
	task.CompletedAt = &completedAt
	return nil
}

// Delete removes a task for the given user.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
