package bot

import (
	"errors"
	"fmt"
	"html"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"timeguard/internal/model"
	"timeguard/internal/predictor"
	"timeguard/internal/service"
)

const historyLimit = 15

var errBadArgs = errors.New("bad arguments")

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "Пн",
	time.Tuesday:   "Вт",
	time.Wednesday: "Ср",
	time.Thursday:  "Чт",
	time.Friday:    "Пт",
	time.Saturday:  "Сб",
	time.Sunday:    "Вс",
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func parseTaskID(data, prefix string) (uint, error) {
	raw := strings.TrimPrefix(data, prefix)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

// parseTaskArgs reads "<id> [hours]".
func parseTaskArgs(args string) (uint, *float64, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 2 {
		return 0, nil, errBadArgs
	}
	id, err := parseTaskID(strings.TrimPrefix(fields[0], "#"), "")
	if err != nil || id == 0 {
		return 0, nil, errBadArgs
	}
	if len(fields) == 1 {
		return id, nil, nil
	}
	hours, err := parseHours(fields[1])
	if err != nil {
		return 0, nil, err
	}
	return id, &hours, nil
}

// parseHours accepts "1.5" as well as "1,5".
func parseHours(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
	if err != nil || value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, errBadArgs
	}
	return value, nil
}

func parsePriority(text string) (string, bool) {
	switch strings.TrimSpace(strings.ToLower(text)) {
	case strings.ToLower(btnPriorityLow), "низкий", "low":
		return "low", true
	case strings.ToLower(btnPriorityMid), "средний", "medium":
		return "medium", true
	case strings.ToLower(btnPriorityHigh), "высокий", "high":
		return "high", true
	default:
		return "", false
	}
}

func priorityLabel(priority string) string {
	switch priority {
	case "low":
		return "низкий"
	case "high":
		return "высокий"
	default:
		return "средний"
	}
}

func stageLabel(stage predictor.Stage) string {
	switch stage {
	case predictor.StageModel:
		return "личная модель"
	case predictor.StageCategoryMean:
		return "среднее по категории"
	case predictor.StageUserMean:
		return "среднее по всем задачам"
	default:
		return "значение по умолчанию"
	}
}

func categoryLabel(name string) string {
	base := strings.TrimSpace(name)
	var icon string
	switch strings.ToLower(base) {
	case "учеба":
		icon = "🎓"
	case "работа", "work":
		icon = "💼"
	case "покупки", "shopping":
		icon = "🛒"
	case "здоровье", "health":
		icon = "🩺"
	case predictor.DefaultCategory:
		icon = "📁"
	default:
		icon = "🏷️"
	}
	return fmt.Sprintf("%s %s", icon, escape(normalizeTitle(base)))
}

func formatCreated(task model.Task, est predictor.Estimate) string {
	var summary strings.Builder
	summary.WriteString("✅ <b>Задача сохранена</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	summary.WriteString(fmt.Sprintf("• <b>Название:</b> %s\n", escape(normalizeTitle(task.Title))))
	if task.Description != "" {
		summary.WriteString(fmt.Sprintf("• <b>Описание:</b> %s\n", escape(task.Description)))
	}
	summary.WriteString(fmt.Sprintf("• <b>Категория:</b> %s\n", categoryLabel(task.Category)))
	summary.WriteString(fmt.Sprintf("• <b>Приоритет:</b> %s\n", priorityLabel(task.Priority)))
	summary.WriteString(fmt.Sprintf("\n⏱ <b>Оценка:</b> %s <i>(%s)</i>", service.FormatHours(est.Hours), stageLabel(est.Stage)))
	return summary.String()
}

func formatCompletion(res service.CompletionResult, retrainFailed bool) string {
	task := res.Task
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✅ Задача «%s» выполнена.\n", escape(normalizeTitle(task.Title))))
	if task.ActualHours != nil {
		sb.WriteString(fmt.Sprintf("• Факт: %s\n", service.FormatHours(*task.ActualHours)))
	}
	if task.EstimatedHours != nil {
		sb.WriteString(fmt.Sprintf("• Оценка: %s\n", service.FormatHours(*task.EstimatedHours)))
	}

	switch {
	case res.Overdue:
		sb.WriteString(fmt.Sprintf("⚠️ Дольше оценки на %.0f%%.\n", res.Deviation.Ratio*100))
	case res.Deviation.Significant && res.Deviation.Ratio < 0:
		sb.WriteString(fmt.Sprintf("⚡️ Быстрее оценки на %.0f%%.\n", -res.Deviation.Ratio*100))
	case res.Deviation.Significant:
		sb.WriteString(fmt.Sprintf("📈 Отклонение от оценки: +%.0f%%.\n", res.Deviation.Ratio*100))
	default:
		sb.WriteString("🎯 В пределах оценки.\n")
	}

	switch {
	case retrainFailed:
		sb.WriteString("Модель не удалось обновить, попробуй /retrain позже.")
	case res.Retrained:
		sb.WriteString("🧠 Модель обновлена.")
	}
	return strings.TrimSpace(sb.String())
}

type categoryGroup struct {
	name  string
	tasks []model.Task
}

// groupByCategory keeps tasks in their original order inside alphabetically sorted groups.
func groupByCategory(tasks []model.Task) []categoryGroup {
	index := make(map[string]int)
	var groups []categoryGroup
	for _, task := range tasks {
		key := predictor.NormalizeCategory(task.Category)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, categoryGroup{name: key})
		}
		groups[i].tasks = append(groups[i].tasks, task)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].name < groups[j].name })
	return groups
}

func elapsedHours(task model.Task, now time.Time) (float64, bool) {
	if task.Status != model.StatusInProgress || task.StartedAt == nil {
		return 0, false
	}
	spent := now.Sub(*task.StartedAt).Hours()
	if spent <= 0 {
		return 0, false
	}
	return spent, true
}

func formatTask(task model.Task, now time.Time) string {
	var b strings.Builder
	icon := "🟢"
	if task.Status == model.StatusInProgress {
		icon = "⏳"
	}
	spent, running := elapsedHours(task, now)
	if running && task.EstimatedHours != nil && spent > *task.EstimatedHours {
		icon = "⚠️"
	}
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s\n", icon, task.ID, escape(normalizeTitle(task.Title))))
	if task.EstimatedHours != nil {
		b.WriteString(fmt.Sprintf("   ⏱ Оценка: %s", service.FormatHours(*task.EstimatedHours)))
		if running {
			b.WriteString(fmt.Sprintf(" · прошло %s", service.FormatHours(spent)))
		}
		b.WriteByte('\n')
	}
	if task.Description != "" {
		b.WriteString(fmt.Sprintf("   📝 %s\n", escape(task.Description)))
	}
	return b.String()
}

func formatHistory(tasks []model.Task, limit int) string {
	var b strings.Builder
	b.WriteString("🗂 <b>Последние задачи</b>\n")
	for i, task := range tasks {
		if i == limit {
			b.WriteString(fmt.Sprintf("… и ещё %d\n", len(tasks)-limit))
			break
		}
		b.WriteString(fmt.Sprintf("#%d %s", task.ID, escape(shortTitle(task.Title, 32))))
		done := task.IsCompleted() && task.ActualHours != nil
		switch {
		case done && task.EstimatedHours != nil:
			b.WriteString(fmt.Sprintf(" · %s из %s", service.FormatHours(*task.ActualHours), service.FormatHours(*task.EstimatedHours)))
			if task.IsOverdue() {
				b.WriteString(" ⚠️")
			}
		case done:
			b.WriteString(fmt.Sprintf(" · %s", service.FormatHours(*task.ActualHours)))
		case task.Status == model.StatusInProgress:
			b.WriteString(" · в работе")
		default:
			b.WriteString(" · ожидает")
		}
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}

func formatStats(stats service.UserAnalytics, week []service.DayActivity) string {
	var b strings.Builder
	b.WriteString("📊 <b>Статистика</b>\n")
	if stats.TotalCompleted == 0 {
		b.WriteString("Пока нет выполненных задач.")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Выполнено задач: %d\n", stats.TotalCompleted))
	b.WriteString(fmt.Sprintf("Среднее время: %s\n", service.FormatHours(stats.AvgCompletionHours)))
	b.WriteString(fmt.Sprintf("В пределах оценки: %.0f%%\n", stats.AccuracyRate*100))

	names := make([]string, 0, len(stats.Categories))
	for name := range stats.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	b.WriteString("\n<b>По категориям</b>\n")
	for _, name := range names {
		cs := stats.Categories[name]
		b.WriteString(fmt.Sprintf("%s: %d · в среднем %s\n", categoryLabel(name), cs.Count, service.FormatHours(cs.AvgHours)))
	}

	b.WriteString("\n<b>По дням недели</b>\n")
	for _, day := range week {
		b.WriteString(fmt.Sprintf("%s: %d · %.2f ч\n", weekdayNames[day.Day], day.TaskCount, day.TotalHours))
	}
	return strings.TrimSpace(b.String())
}
