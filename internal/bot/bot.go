package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"timeguard/internal/config"
	"timeguard/internal/model"
	"timeguard/internal/repository"
	"timeguard/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageCategory
	stagePriority
	stageActualHours
)

const (
	cbStartPrefix    = "start:"
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
)

type conversationState struct {
	stage  conversationStage
	input  service.TaskInput
	taskID uint
}

type confirmationRequest struct {
	taskID uint
}

// IntervalFunc applies a new report interval to the running scheduler.
type IntervalFunc func(time.Duration) error

// Services groups what the bot calls into.
type Services struct {
	Users     *repository.UserRepository
	Category  *repository.CategoryRepository
	Tasks     *service.TaskService
	Training  *service.TrainingService
	Analytics *service.AnalyticsService
	Reminder  *service.ReminderService
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           *tgbotapi.BotAPI
	svc           Services
	config        *config.Config
	onInterval    IntervalFunc
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

func New(token string, svc Services, cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.WithField("account", api.Self.UserName).Info("bot authorized")

	return &Bot{
		api:           api,
		svc:           svc,
		config:        cfg,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}, nil
}

// OnIntervalChange registers the hook used by /interval.
func (b *Bot) OnIntervalChange(fn IntervalFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onInterval = fn
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.WithError(err).Error("handle callback")
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.WithError(err).Error("handle message")
			}
		}
	}

	return nil
}

// SendDailyReports sends a summary to every known user.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.svc.Users.ListAll(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		entry := log.WithField("telegram_id", user.TelegramID)
		text, err := b.svc.Reminder.DailySummary(ctx, user, now)
		if err != nil {
			entry.WithError(err).Error("build summary")
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			entry.WithError(err).Warn("send summary")
		}
	}
	return nil
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.svc.Users.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.sendMenuPlaceholder(chatID)
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendMenuPlaceholder(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "🔹 Главное меню")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) ack(cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.WithError(err).Warn("callback ack")
	}
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}
