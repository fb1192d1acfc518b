package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"timeguard/internal/model"
	"timeguard/internal/repository"
	"timeguard/internal/service"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён. Можно начать заново.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.WithFields(log.Fields{
			"from":    msg.From.ID,
			"command": msg.Command(),
			"args":    msg.CommandArguments(),
		}).Info("command received")
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		log.WithField("from", msg.From.ID).WithField("stage", b.getConversation(msg.From.ID).stage).Debug("conversation step")
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Набери /newtask, чтобы добавить задачу, или /help для списка команд.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "newtask":
		return b.startNewTaskConversation(ctx, msg)
	case "tasks":
		return b.handleListTasks(ctx, msg)
	case "begin":
		return b.handleBegin(ctx, msg)
	case "complete":
		return b.handleComplete(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "history":
		return b.handleHistory(ctx, msg)
	case "stats":
		return b.handleStats(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "retrain":
		return b.handleRetrain(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "interval":
		return b.handleInterval(msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён.")
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "друг"
	}

	text := fmt.Sprintf(
		"👋 Привет, %s!\n<b>Я оцениваю, сколько времени займут твои задачи, и учусь на твоей истории.</b>\n\n%s",
		escape(name), commandList,
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Подсказки</b>\n"+commandList+
		"\n\nПосле пяти выполненных задач я обучаю личную модель. До этого оценка берётся из средних по категории и по всем задачам.")
}

const commandList = "• /newtask — добавить задачу и получить оценку\n" +
	"• /tasks — открытые задачи с кнопками\n" +
	"• /begin &lt;id&gt; — взять задачу в работу\n" +
	"• /complete &lt;id&gt; &lt;часы&gt; — завершить и указать фактическое время\n" +
	"• /delete &lt;id&gt; — удалить задачу\n" +
	"• /history — последние задачи\n" +
	"• /stats — точность оценок и активность по дням недели\n" +
	"• /report — отчёт прямо сейчас\n" +
	"• /retrain — переобучить модель\n" +
	"• /categories — мои категории\n" +
	"• /interval &lt;часы&gt; — как часто присылать отчёт\n" +
	"• /cancel — отменить текущий ввод"

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.svc.Reminder.DailySummary(ctx, *user, time.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось сформировать отчёт: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.clearConfirmation(msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 Создаём новую задачу.\n<b>Шаг 1:</b> как её назвать?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Название не может быть пустым.", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Добавь короткое описание (или нажми «Пропустить»).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stageCategory
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Выбери категорию или отправь свою (можно «Пропустить»).", categoryKeyboard(b.categorySuggestions(ctx, msg.From)))
	case stageCategory:
		if !isSkipInput(text) {
			state.input.Category = text
		}
		state.stage = stagePriority
		return b.sendWithReplyMarkup(msg.Chat.ID, "⚡️ Какой приоритет?", priorityKeyboard())
	case stagePriority:
		if !isSkipInput(text) {
			priority, ok := parsePriority(text)
			if !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Выбери приоритет кнопкой.", priorityKeyboard())
			}
			state.input.Priority = priority
		}
		err := b.finishTaskCreation(ctx, msg.From, state.input, msg.Chat.ID)
		b.clearConversation(msg.From.ID)
		return err
	case stageActualHours:
		hours, err := parseHours(text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Укажи положительное число часов, например <code>1.5</code>.", cancelKeyboard())
		}
		b.clearConversation(msg.From.ID)
		return b.completeTaskAndRefresh(ctx, msg.Chat.ID, msg.From, state.taskID, hours)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Диалог сброшен. Попробуй ещё раз через /newtask.")
	}
}

func (b *Bot) categorySuggestions(ctx context.Context, from *tgbotapi.User) []string {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return suggestedCategories(nil)
	}
	used, err := b.svc.Category.TopNames(ctx, user.ID, suggestedCategoryCount)
	if err != nil {
		log.WithField("user", user.ID).WithError(err).Warn("load category suggestions")
	}
	return suggestedCategories(used)
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, input service.TaskInput, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, est, err := b.svc.Tasks.CreateTask(ctx, user, input)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось сохранить задачу: %s", escape(err.Error())))
	}

	if err := b.sendTextWithRemove(chatID, formatCreated(*task, est)); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.sendTaskList(ctx, msg.Chat.ID, user)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	tasks, err := b.svc.Tasks.ListOpen(ctx, user)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось получить задачи: %s", escape(err.Error())))
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "У тебя нет открытых задач. Добавь новую через /newtask.")
	}

	now := time.Now()
	var builder strings.Builder
	builder.WriteString("📋 <b>Открытые задачи</b>\n")
	builder.WriteString("Кнопки: ▶️ начать, ✅ завершить, 🗑 удалить.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, group := range groupByCategory(tasks) {
		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", categoryLabel(group.name)))
		for _, task := range group.tasks {
			builder.WriteString(formatTask(task, now))
			var row []tgbotapi.InlineKeyboardButton
			if task.Status == model.StatusPending {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("▶️ #%d", task.ID), fmt.Sprintf("%s%d", cbStartPrefix, task.ID)))
			}
			row = append(row,
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 20)), fmt.Sprintf("%s%d", cbCompletePrefix, task.ID)),
				tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)),
			)
			buttons = append(buttons, row)
		}
		builder.WriteByte('\n')
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleBegin(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, _, err := parseTaskArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Укажи ID задачи: /begin 12")
	}
	return b.startTask(ctx, msg.Chat.ID, msg.From, taskID)
}

func (b *Bot) startTask(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.svc.Tasks.StartTask(ctx, user, taskID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return b.sendText(chatID, "Задача не найдена.")
	case errors.Is(err, repository.ErrTaskNotPending):
		return b.sendText(chatID, "Задача уже в работе или завершена.")
	case err != nil:
		return b.sendText(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}
	return b.sendText(chatID, fmt.Sprintf("▶️ Задача «%s» в работе. Засекаю время.", escape(normalizeTitle(task.Title))))
}

func (b *Bot) handleComplete(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, hours, err := parseTaskArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Формат: /complete 12 1.5 (ID задачи и фактические часы).")
	}
	if hours == nil {
		return b.askActualHours(ctx, msg.Chat.ID, msg.From, taskID)
	}
	return b.completeTaskAndRefresh(ctx, msg.Chat.ID, msg.From, taskID, *hours)
}

func (b *Bot) askActualHours(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.svc.Tasks.GetTask(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(chatID, "Задача не найдена.")
		}
		return err
	}
	if task.IsCompleted() {
		return b.sendText(chatID, "Задача уже выполнена.")
	}

	prompt := fmt.Sprintf("Сколько часов заняла задача «%s» (#%d)?", escape(normalizeTitle(task.Title)), task.ID)
	if spent, ok := elapsedHours(*task, time.Now()); ok {
		prompt += fmt.Sprintf("\nС момента старта прошло %s.", service.FormatHours(spent))
	}
	b.clearConfirmation(from.ID)
	b.setConversation(from.ID, &conversationState{stage: stageActualHours, taskID: task.ID})
	return b.sendWithReplyMarkup(chatID, prompt, cancelKeyboard())
}

func (b *Bot) completeTaskAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint, hours float64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	result, err := b.svc.Tasks.CompleteTask(ctx, user, taskID, hours)
	switch {
	case result != nil:
		// stored even if retraining failed
		if err != nil {
			log.WithField("user", user.ID).WithError(err).Warn("completion stored without retrain")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return b.sendTextWithRemove(chatID, "Задача не найдена или уже удалена.")
	case errors.Is(err, repository.ErrTaskAlreadyCompleted):
		return b.sendTextWithRemove(chatID, "Задача уже была выполнена.")
	case errors.Is(err, service.ErrInvalidActual):
		return b.sendTextWithRemove(chatID, "Фактическое время должно быть положительным числом часов.")
	default:
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}

	if err := b.sendTextWithRemove(chatID, formatCompletion(*result, err != nil)); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, _, err := parseTaskArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Укажи ID задачи: /delete 12")
	}
	return b.askDeleteConfirmation(ctx, msg.Chat.ID, msg.From, taskID)
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.svc.Tasks.GetTask(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(chatID, "Задача не найдена.")
		}
		return err
	}

	text := fmt.Sprintf("Удалить задачу \"%s\" (#%d)?", escape(normalizeTitle(task.Title)), task.ID)
	b.clearConversation(from.ID)
	b.setConfirmation(from.ID, confirmationRequest{taskID: task.ID})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.deleteTaskAndRefresh(ctx, msg.Chat.ID, msg.From, req.taskID)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Подтверди или отмени удаление задачи.", confirmKeyboard())
	}
}

func (b *Bot) deleteTaskAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.svc.Tasks.GetTask(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendTextWithRemove(chatID, "Задача не найдена или уже удалена.")
		}
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}

	if err := b.svc.Tasks.DeleteTask(ctx, user, taskID); err != nil {
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}

	log.WithFields(log.Fields{"task": task.ID, "user": user.ID}).Info("task deleted")
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("🗑 Задача \"%s\" удалена.", escape(normalizeTitle(task.Title)))); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) handleHistory(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	tasks, err := b.svc.Tasks.History(ctx, user)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось получить историю: %s", escape(err.Error())))
	}
	if len(tasks) == 0 {
		return b.sendText(msg.Chat.ID, "История пуста. Добавь первую задачу через /newtask.")
	}
	return b.sendText(msg.Chat.ID, formatHistory(tasks, historyLimit))
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	stats, err := b.svc.Analytics.UserAnalytics(ctx, user.ID)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось посчитать статистику: %s", escape(err.Error())))
	}
	week, err := b.svc.Analytics.WeeklyActivity(ctx, user.ID)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось посчитать статистику: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, formatStats(stats, week))
}

func (b *Bot) handleRetrain(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	trained, err := b.svc.Training.RetrainUser(ctx, user.ID)
	switch {
	case err != nil:
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось переобучить модель: %s", escape(err.Error())))
	case !trained:
		return b.sendText(msg.Chat.ID, "Пока мало данных: нужно хотя бы 5 выполненных задач.")
	default:
		return b.sendText(msg.Chat.ID, "🧠 Модель переобучена на твоей истории.")
	}
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	categories, err := b.svc.Category.ListByUser(ctx, user.ID)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось получить категории: %s", escape(err.Error())))
	}
	if len(categories) == 0 {
		return b.sendText(msg.Chat.ID, "Категории пока пусты. Добавь их при создании задачи.")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Категории</b>\n")
	for _, cat := range categories {
		builder.WriteString(fmt.Sprintf("• %s\n", categoryLabel(cat.Name)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleInterval(msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	b.mu.Lock()
	current := b.config.ReportInterval
	apply := b.onInterval
	b.mu.Unlock()

	if args == "" {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Текущий интервал отчётов: %d ч. Укажи число часов, например: /interval 4", int(current.Hours())))
	}
	hours, err := strconv.Atoi(args)
	if err != nil || hours <= 0 {
		return b.sendText(msg.Chat.ID, "Интервал должен быть положительным числом часов, например /interval 6")
	}
	interval := time.Duration(hours) * time.Hour
	if apply != nil {
		if err := apply(interval); err != nil {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось обновить расписание: %s", escape(err.Error())))
		}
	}
	b.mu.Lock()
	b.config.ReportInterval = interval
	b.mu.Unlock()
	return b.sendText(msg.Chat.ID, fmt.Sprintf("Интервал отчётов обновлён: каждые %d ч.", hours))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	b.ack(cb)

	data := cb.Data
	entry := log.WithField("from", cb.From.ID).WithField("data", data)
	switch {
	case strings.HasPrefix(data, cbStartPrefix):
		entry.Info("callback start")
		taskID, err := parseTaskID(data, cbStartPrefix)
		if err != nil {
			return nil
		}
		return b.startTask(ctx, cb.Message.Chat.ID, cb.From, taskID)
	case strings.HasPrefix(data, cbCompletePrefix):
		entry.Info("callback complete")
		taskID, err := parseTaskID(data, cbCompletePrefix)
		if err != nil {
			return nil
		}
		return b.askActualHours(ctx, cb.Message.Chat.ID, cb.From, taskID)
	case strings.HasPrefix(data, cbDeletePrefix):
		entry.Info("callback delete")
		taskID, err := parseTaskID(data, cbDeletePrefix)
		if err != nil {
			return nil
		}
		return b.askDeleteConfirmation(ctx, cb.Message.Chat.ID, cb.From, taskID)
	default:
		return nil
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(ctx, msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.handleListTasks(ctx, msg)
	case strings.ToLower(menuLabelStats):
		return true, b.handleStats(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}
