package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestDurationMinutes(t *testing.T) {
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	assert.Equal(t, 90.0, Task{StartedAt: &start, CompletedAt: &end}.DurationMinutes())
	assert.Equal(t, 0.0, Task{CompletedAt: &end}.DurationMinutes())
	assert.Equal(t, 0.0, Task{StartedAt: &start}.DurationMinutes())
}

func TestIsOverdue(t *testing.T) {
	assert.True(t, Task{EstimatedHours: ptr(10), ActualHours: ptr(12.5)}.IsOverdue())
	assert.False(t, Task{EstimatedHours: ptr(10), ActualHours: ptr(12)}.IsOverdue())
	assert.False(t, Task{ActualHours: ptr(12)}.IsOverdue())
}

func TestRecord(t *testing.T) {
	task := Task{Title: "a", Description: "b", Category: "work", Priority: "high", ActualHours: ptr(2)}
	r := task.Record()

	assert.Equal(t, "work", r.Category)
	assert.Equal(t, "high", r.Priority)
	assert.True(t, r.Completed())
	assert.Len(t, Records([]Task{task, task}), 2)
}
