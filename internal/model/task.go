package model

import (
	"time"

	"timeguard/internal/predictor"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Task is a single tracked unit of work. Durations are in hours.
// EstimatedHours is written once at creation, ActualHours once at completion.
type Task struct {
	ID             uint   `gorm:"primaryKey"`
	UserID         uint   `gorm:"index;not null"`
	Title          string `gorm:"size:200;not null"`
	Description    string
	Category       string `gorm:"size:50;index;default:general"`
	Priority       string `gorm:"size:10;default:medium"`
	EstimatedHours *float64
	ActualHours    *float64
	Status         string `gorm:"size:20;index;default:pending"`
	CreatedAt      time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
	UpdatedAt      time.Time
}

func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// DurationMinutes is the wall-clock time between start and completion.
func (t Task) DurationMinutes() float64 {
	if t.StartedAt == nil || t.CompletedAt == nil {
		return 0
	}
	return t.CompletedAt.Sub(*t.StartedAt).Minutes()
}

// IsOverdue reports whether the task ran more than 20% over its estimate.
func (t Task) IsOverdue() bool {
	return predictor.IsOverdue(t.EstimatedHours, t.ActualHours)
}

func (t Task) Fields() predictor.TaskFields {
	return predictor.TaskFields{
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Priority:    t.Priority,
	}
}

func (t Task) Record() predictor.TaskRecord {
	return predictor.TaskRecord{
		TaskFields:     t.Fields(),
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		CompletedAt:    t.CompletedAt,
	}
}

// Records converts tasks for the predictor.
func Records(tasks []Task) []predictor.TaskRecord {
	out := make([]predictor.TaskRecord, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Record())
	}
	return out
}
