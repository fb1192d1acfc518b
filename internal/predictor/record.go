// Package predictor estimates how long a task will take a given user and learns
// from that user's completed-task history.
package predictor

import (
	"context"
	"time"
)

// TaskFields are the attributes of a task known at creation time.
type TaskFields struct {
	Title       string
	Description string
	Category    string
	Priority    string
}

// TaskRecord is a task as seen by the predictor: creation fields plus outcome.
type TaskRecord struct {
	TaskFields
	EstimatedHours *float64
	ActualHours    *float64
	CompletedAt    *time.Time
}

// Completed reports whether the task carries a usable actual duration.
func (r TaskRecord) Completed() bool {
	return r.ActualHours != nil && *r.ActualHours > 0
}

// UserHistory is the owning user together with the tasks they have recorded.
type UserHistory struct {
	UserID uint
	Tasks  []TaskRecord
}

// TaskSource supplies a user's tasks that have a recorded actual duration.
type TaskSource interface {
	CompletedTasks(ctx context.Context, userID uint) ([]TaskRecord, error)
}
