package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"dating_bot/internal/dialog"
	"dating_bot/internal/model"
	"dating_bot/internal/storage"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(ctx, chatID)
	case "help":
		b.reply(ctx, chatID, textHelp)
	case "create":
		b.handleCreate(ctx, chatID, senderName(msg.From))
	case "profile":
		b.handleProfile(ctx, chatID)
	case "edit":
		b.handleEdit(ctx, chatID)
	case "date":
		b.handleDate(ctx, chatID)
	case "enable":
		b.handleSetActive(ctx, chatID, true)
	case "disable":
		b.handleSetActive(ctx, chatID, false)
	default:
		b.reply(ctx, chatID, textUnknownCommand)
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID int64) {
	text := textStart
	if b.cfg.ContactUsername != "" {
		text += fmt.Sprintf(textContactFooter, b.cfg.ContactUsername)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = startKeyboard()
	if _, err := b.send(ctx, msg); err != nil {
		b.log.Error("send start", "chat_id", chatID, "error", err)
	}
}

// handleCreate starts the full profile dialogue from scratch. Old photos are
// dropped so a re-created profile does not inherit attachments.
func (b *Bot) handleCreate(ctx context.Context, chatID int64, firstName string) {
	if err := b.store.CleanImages(ctx, chatID); err != nil {
		b.log.Error("clean images", "chat_id", chatID, "error", err)
		return
	}

	state := &dialog.State{
		Step:      dialog.StepSetName,
		Draft:     model.NewDraft(chatID),
		CreateNew: true,
		FirstName: firstName,
	}
	b.states.Set(chatID, state)

	b.reply(ctx, chatID, textProfileCreationStarted)
	b.renderPrompt(ctx, chatID, state)
}

func (b *Bot) handleProfile(ctx context.Context, chatID int64) {
	user, ok := b.requireProfile(ctx, chatID)
	if !ok {
		return
	}
	b.sendProfileTo(ctx, chatID, user, nil)
}

func (b *Bot) handleEdit(ctx context.Context, chatID int64) {
	if _, ok := b.requireProfile(ctx, chatID); !ok {
		return
	}

	msg := tgbotapi.NewMessage(chatID, textRequestEdit)
	msg.ReplyMarkup = editMenuKeyboard()
	if _, err := b.send(ctx, msg); err != nil {
		b.log.Error("send edit menu", "chat_id", chatID, "error", err)
		return
	}
	b.states.Set(chatID, &dialog.State{Step: dialog.StepEdit})
}

func (b *Bot) handleDate(ctx context.Context, chatID int64) {
	user, ok := b.requireProfile(ctx, chatID)
	if !ok {
		return
	}
	if err := b.sendRecommendation(ctx, user); err != nil {
		b.log.Error("send recommendation", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleSetActive(ctx context.Context, chatID int64, active bool) {
	if _, ok := b.requireProfile(ctx, chatID); !ok {
		return
	}

	upd := &model.ProfileUpdate{ID: chatID, Active: &active}
	if err := b.store.UpsertUser(ctx, upd); err != nil {
		b.log.Error("set active", "chat_id", chatID, "active", active, "error", err)
		return
	}

	if active {
		b.reply(ctx, chatID, textProfileEnabled)
	} else {
		b.reply(ctx, chatID, textProfileDisabled)
	}
}

func senderName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return u.FirstName
}

// requireProfile loads the user's profile or asks them to create one first.
func (b *Bot) requireProfile(ctx context.Context, chatID int64) (*model.UserProfile, bool) {
	user, err := b.store.GetUser(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(ctx, chatID, textPleaseCreateProfile)
		return nil, false
	}
	if err != nil {
		b.log.Error("get user", "chat_id", chatID, "error", err)
		return nil, false
	}
	return user, true
}
