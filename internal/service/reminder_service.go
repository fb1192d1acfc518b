package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"timeguard/internal/model"
	"timeguard/internal/repository"
)

// ReminderService builds human-readable summaries for periodic notifications.
type ReminderService struct {
	taskRepo  *repository.TaskRepository
	analytics *AnalyticsService
}

func NewReminderService(taskRepo *repository.TaskRepository, analytics *AnalyticsService) *ReminderService {
	return &ReminderService{taskRepo: taskRepo, analytics: analytics}
}

func (s *ReminderService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	open, err := s.taskRepo.ListOpen(ctx, user.ID)
	if err != nil {
		return "", err
	}
	stats, err := s.analytics.UserAnalytics(ctx, user.ID)
	if err != nil {
		return "", err
	}

	// in-progress first, then by estimate descending
	sort.SliceStable(open, func(i, j int) bool {
		a, b := open[i], open[j]
		if (a.Status == model.StatusInProgress) != (b.Status == model.StatusInProgress) {
			return a.Status == model.StatusInProgress
		}
		return estimateOf(a) > estimateOf(b)
	})

	var builder strings.Builder
	builder.WriteString("📋 <b>Ежедневный отчёт</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006")))

	builder.WriteString("🔥 <b>Открытые задачи</b>\n")
	if len(open) == 0 {
		builder.WriteString("— нет открытых задач\n")
	} else {
		var planned float64
		for _, task := range open {
			builder.WriteString(formatOpenTask(task, now))
			planned += estimateOf(task)
		}
		builder.WriteString(fmt.Sprintf("\n⏱ Всего запланировано: <b>%s</b>\n", FormatHours(planned)))
	}

	builder.WriteString("\n🎯 <b>Точность оценок</b>\n")
	if stats.TotalCompleted == 0 {
		builder.WriteString("— пока нет выполненных задач\n")
	} else {
		builder.WriteString(fmt.Sprintf("Выполнено: %d · в среднем %s · в срок: %.0f%%\n",
			stats.TotalCompleted, FormatHours(stats.AvgCompletionHours), stats.AccuracyRate*100))
	}

	return strings.TrimSpace(builder.String()), nil
}

func estimateOf(task model.Task) float64 {
	if task.EstimatedHours == nil {
		return 0
	}
	return *task.EstimatedHours
}

func formatOpenTask(task model.Task, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	if task.Status == model.StatusInProgress {
		icon = "⏳"
		if task.StartedAt != nil && task.EstimatedHours != nil {
			elapsed := now.Sub(*task.StartedAt).Hours()
			if elapsed > *task.EstimatedHours {
				icon = "⚠️"
			}
		}
	}

	title := html.EscapeString(strings.TrimSpace(task.Title))
	sb.WriteString(fmt.Sprintf("%s #%d %s", icon, task.ID, title))
	if cat := strings.TrimSpace(task.Category); cat != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(cat)))
	}
	if task.EstimatedHours != nil {
		sb.WriteString(fmt.Sprintf("\n   ⏱ оценка: %s", FormatHours(*task.EstimatedHours)))
	}
	if task.Status == model.StatusInProgress && task.StartedAt != nil {
		sb.WriteString(fmt.Sprintf(" · в работе с %s", task.StartedAt.In(now.Location()).Format("02.01 15:04")))
	}

	sb.WriteByte('\n')
	return sb.String()
}

// FormatHours renders a duration in hours as "1 ч 30 мин" or "45 мин".
func FormatHours(h float64) string {
	total := int(h*60 + 0.5)
	hours, minutes := total/60, total%60
	switch {
	case hours == 0:
		return fmt.Sprintf("%d мин", minutes)
	case minutes == 0:
		return fmt.Sprintf("%d ч", hours)
	default:
		return fmt.Sprintf("%d ч %d мин", hours, minutes)
	}
}
