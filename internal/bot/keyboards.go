package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	btnSkip          = "⏭️ Пропустить"
	btnConfirm       = "✅ Подтвердить"
	btnCancel        = "↩️ Отмена"
	btnCancelDialog  = "⏪ Отменить ввод"
	btnPriorityLow   = "🔹 Низкий"
	btnPriorityMid   = "🔸 Средний"
	btnPriorityHigh  = "🔺 Высокий"
	menuLabelNewTask = "➕ Новая задача"
	menuLabelTasks   = "📋 Задачи"
	menuLabelStats   = "📊 Статистика"
	menuLabelHelp    = "ℹ️ Помощь"
)

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelStats),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

var defaultCategories = []string{"учеба", "работа", "покупки", "здоровье"}

const suggestedCategoryCount = 4

// suggestedCategories puts the user's most used categories first and fills the
// rest from the defaults.
func suggestedCategories(used []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, suggestedCategoryCount)
	for _, name := range append(append([]string{}, used...), defaultCategories...) {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
		if len(out) == suggestedCategoryCount {
			break
		}
	}
	return out
}

func categoryKeyboard(names []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(names); i += 2 {
		row := []tgbotapi.KeyboardButton{tgbotapi.NewKeyboardButton(normalizeTitle(names[i]))}
		if i+1 < len(names) {
			row = append(row, tgbotapi.NewKeyboardButton(normalizeTitle(names[i+1])))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnSkip),
		tgbotapi.NewKeyboardButton(btnCancelDialog),
	))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func priorityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnPriorityLow),
			tgbotapi.NewKeyboardButton(btnPriorityMid),
			tgbotapi.NewKeyboardButton(btnPriorityHigh),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "пропустить" || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "подтвердить" || value == "да"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "отмена"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "отменить ввод"
}
