package service

import (
	"context"
	"math"
	"time"

	"timeguard/internal/model"
	"timeguard/internal/predictor"
	"timeguard/internal/repository"
)

// CategoryStats aggregates completed tasks of one category.
type CategoryStats struct {
	Count    int
	AvgHours float64
}

// UserAnalytics summarizes a user's completed tasks.
type UserAnalytics struct {
	TotalCompleted     int
	AvgCompletionHours float64
	// AccuracyRate is the share of completed tasks that were not overdue.
	AccuracyRate float64
	Categories   map[string]CategoryStats
}

// DayActivity is the work completed on one weekday.
type DayActivity struct {
	Day        time.Weekday
	TotalHours float64
	TaskCount  int
}

// AnalyticsService computes per-user statistics over completed tasks.
type AnalyticsService struct {
	taskRepo *repository.TaskRepository
}

func NewAnalyticsService(taskRepo *repository.TaskRepository) *AnalyticsService {
	return &AnalyticsService{taskRepo: taskRepo}
}

func (s *AnalyticsService) UserAnalytics(ctx context.Context, userID uint) (UserAnalytics, error) {
	tasks, err := s.taskRepo.ListCompleted(ctx, userID)
	if err != nil {
		return UserAnalytics{}, err
	}
	return summarize(tasks), nil
}

// WeeklyActivity returns totals for Monday through Sunday.
func (s *AnalyticsService) WeeklyActivity(ctx context.Context, userID uint) ([]DayActivity, error) {
	tasks, err := s.taskRepo.ListCompleted(ctx, userID)
	if err != nil {
		return nil, err
	}
	return weekly(tasks), nil
}

func summarize(tasks []model.Task) UserAnalytics {
	out := UserAnalytics{Categories: make(map[string]CategoryStats)}
	if len(tasks) == 0 {
		return out
	}

	var total float64
	accurate := 0
	sums := make(map[string]float64)
	for _, t := range tasks {
		actual := 0.0
		if t.ActualHours != nil {
			actual = *t.ActualHours
		}
		total += actual
		if !t.IsOverdue() {
			accurate++
		}
		cat := predictor.NormalizeCategory(t.Category)
		cs := out.Categories[cat]
		cs.Count++
		out.Categories[cat] = cs
		sums[cat] += actual
	}
	for cat, cs := range out.Categories {
		cs.AvgHours = sums[cat] / float64(cs.Count)
		out.Categories[cat] = cs
	}

	out.TotalCompleted = len(tasks)
	out.AvgCompletionHours = total / float64(len(tasks))
	out.AccuracyRate = float64(accurate) / float64(len(tasks))
	return out
}

func weekly(tasks []model.Task) []DayActivity {
	days := make([]DayActivity, 7)
	for i := range days {
		days[i].Day = time.Weekday((i + 1) % 7)
	}
	for _, t := range tasks {
		if t.CompletedAt == nil {
			continue
		}
		// Monday first
		idx := (int(t.CompletedAt.Weekday()) + 6) % 7
		if t.ActualHours != nil {
			days[idx].TotalHours += *t.ActualHours
		}
		days[idx].TaskCount++
	}
	for i := range days {
		days[i].TotalHours = math.Round(days[i].TotalHours*100) / 100
	}
	return days
}
