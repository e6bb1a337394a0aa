package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"dating_bot/internal/cities"
	"dating_bot/internal/config"
	"dating_bot/internal/dialog"
	"dating_bot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMediaGroup(c tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram dating bot: it drives the profile dialogue, recommends
// partners and relays likes between users.
type Bot struct {
	api       telegramAPI
	store     storage.Storage
	states    *dialog.Store
	gazetteer *cities.Gazetteer
	cfg       *config.Config
	log       *slog.Logger
	limiter   *rate.Limiter
	now       func() time.Time
}

// New creates a Bot with the given Telegram token, storage, and config.
func New(token string, store storage.Storage, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	gazetteer, err := cities.Load()
	if err != nil {
		return nil, fmt.Errorf("load gazetteer: %w", err)
	}

	return &Bot{
		api:       api,
		store:     store,
		states:    dialog.NewStore(),
		gazetteer: gazetteer,
		cfg:       cfg,
		log:       log,
		limiter:   rate.NewLimiter(rate.Limit(cfg.SendRatePerSecond), 1),
		now:       time.Now,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
// Updates from different chats are handled in parallel; a per-chat lock
// serializes handling within one chat.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			chatID, ok := updateChatID(update)
			if !ok {
				continue
			}
			go func(update tgbotapi.Update) {
				unlock := b.states.Lock(chatID)
				defer unlock()
				b.handleUpdate(ctx, update)
			}(update)
		}
	}
}

func updateChatID(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID, true
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		return update.CallbackQuery.Message.Chat.ID, true
	default:
		return 0, false
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message.IsCommand() {
		b.handleCommand(ctx, update.Message)
		return
	}
	b.handleMessage(ctx, update.Message)
}

// send pushes any outgoing request through the shared rate limiter so the bot
// stays under Telegram's flood limits.
func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return tgbotapi.Message{}, err
	}
	return b.api.Send(c)
}

func (b *Bot) request(ctx context.Context, c tgbotapi.Chattable) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := b.api.Request(c)
	return err
}

func (b *Bot) sendMediaGroup(ctx context.Context, c tgbotapi.MediaGroupConfig) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := b.api.SendMediaGroup(c)
	return err
}

// reply sends a plain text message, logging instead of returning an error.
func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.send(ctx, msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

// isBotBlocked reports whether the error means the user blocked the bot.
func isBotBlocked(err error) bool {
	return err != nil && strings.Contains(err.Error(), "bot was blocked by the user")
}

// isMessageNotModifiable reports whether an edit failed because the target
// message is gone or already in the requested state. Both cases are safe to
// ignore.
func isMessageNotModifiable(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "message to edit not found") ||
		strings.Contains(err.Error(), "message is not modified")
}
