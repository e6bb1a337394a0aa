package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"dating_bot/internal/dialog"
	"dating_bot/internal/model"
	"dating_bot/internal/storage"
)

// handleCallback routes an inline button press by the first rune of its
// callback data. The rest of the data is the payload: a bitset value, a
// dating attempt id or an edit menu item.
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	runes := []rune(cb.Data)
	if len(runes) == 0 {
		return
	}
	key, payload := runes[0], string(runes[1:])

	b.log.Debug("callback", "chat_id", chatID, "key", string(key), "payload", payload)

	if err := b.request(ctx, tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Error("answer callback", "chat_id", chatID, "error", err)
	}

	switch key {
	case cbCreateProfile:
		b.handleCreate(ctx, chatID, senderName(cb.From))
	case cbFindPartner:
		b.handleDate(ctx, chatID)
	case cbEdit:
		b.callbackEdit(ctx, cb, payload)
	case cbSubjects:
		b.callbackSubjects(ctx, cb, payload)
	case cbSubjectsFilter:
		b.callbackSubjectsFilter(ctx, cb, payload)
	case cbPurpose:
		b.callbackPurpose(ctx, cb, payload)
	case cbDislike:
		b.callbackInitiatorReaction(ctx, cb, payload, false, false)
	case cbLike:
		b.callbackInitiatorReaction(ctx, cb, payload, true, false)
	case cbLikeWithMsg:
		b.callbackInitiatorReaction(ctx, cb, payload, true, true)
	case cbResponseNo:
		b.callbackPartnerReaction(ctx, cb, payload, false)
	case cbResponseYes:
		b.callbackPartnerReaction(ctx, cb, payload, true)
	default:
		b.log.Warn("unknown callback", "chat_id", chatID, "data", cb.Data)
	}
}

var editSteps = map[string]dialog.Step{
	"Имя":      dialog.StepSetName,
	"Предметы": dialog.StepSetSubjects,
	"О себе":   dialog.StepSetAbout,
	"Город":    dialog.StepSetCity,
	"Фото":     dialog.StepSetPhotos,
}

// callbackEdit starts a single-field edit: the draft is pre-populated from
// the stored profile so only the chosen field changes.
func (b *Bot) callbackEdit(ctx context.Context, cb *tgbotapi.CallbackQuery, item string) {
	chatID := cb.Message.Chat.ID
	b.clearButtons(ctx, chatID, cb.Message.MessageID)

	if item == btnEditCancel {
		b.states.Clear(chatID)
		return
	}

	step, ok := editSteps[item]
	if !ok {
		b.log.Warn("unknown edit item", "chat_id", chatID, "item", item)
		return
	}

	user, ok := b.requireProfile(ctx, chatID)
	if !ok {
		return
	}

	grade := model.GradeFromGraduationYear(user.GraduationYear, b.now())
	state := &dialog.State{
		Step:  step,
		Draft: model.DraftFromProfile(user, grade),
	}
	if step == dialog.StepSetCity {
		// The stored city must be re-confirmed or replaced, not inherited.
		state.Draft.City = nil
		state.Draft.LocationFilter = nil
	}
	b.states.Set(chatID, state)
	b.renderPrompt(ctx, chatID, state)
}

func (b *Bot) callbackSubjects(ctx context.Context, cb *tgbotapi.CallbackQuery, payload string) {
	chatID := cb.Message.Chat.ID
	state := b.states.Get(chatID)
	if state.Step != dialog.StepSetSubjects || state.Draft == nil {
		return
	}

	if payload == cbContinuePayload {
		selected := draftSubjects(state.Draft)
		state.Draft.Subjects = &selected

		summary := textSubjectsNone
		if !selected.IsEmpty() {
			summary = fmt.Sprintf(textSubjectsChosen, selected)
		}
		b.editText(ctx, chatID, cb.Message.MessageID, summary)
		b.advance(ctx, chatID, state)
		return
	}

	selected, ok := b.toggleSubjects(chatID, draftSubjects(state.Draft), payload)
	if !ok {
		return
	}
	state.Draft.Subjects = &selected
	b.states.Set(chatID, state)
	b.editButtons(ctx, chatID, cb.Message.MessageID, subjectsKeyboard(selected, cbSubjects, true))
}

func (b *Bot) callbackSubjectsFilter(ctx context.Context, cb *tgbotapi.CallbackQuery, payload string) {
	chatID := cb.Message.Chat.ID
	state := b.states.Get(chatID)
	if state.Step != dialog.StepSetSubjectsFilter || state.Draft == nil {
		return
	}

	if payload == cbContinuePayload {
		selected := draftSubjectsFilter(state.Draft)
		state.Draft.SubjectsFilter = &selected

		summary := textSubjectsFilterAny
		if !selected.IsEmpty() {
			summary = fmt.Sprintf(textSubjectsFilterChosen, selected)
		}
		b.editText(ctx, chatID, cb.Message.MessageID, summary)
		b.advance(ctx, chatID, state)
		return
	}

	selected, ok := b.toggleSubjects(chatID, draftSubjectsFilter(state.Draft), payload)
	if !ok {
		return
	}
	state.Draft.SubjectsFilter = &selected
	b.states.Set(chatID, state)
	b.editButtons(ctx, chatID, cb.Message.MessageID, subjectsKeyboard(selected, cbSubjectsFilter, false))
}

func (b *Bot) toggleSubjects(chatID int64, selected model.Subjects, payload string) (model.Subjects, bool) {
	bits, err := strconv.ParseInt(payload, 10, 32)
	if err != nil {
		b.log.Warn("bad subjects payload", "chat_id", chatID, "payload", payload)
		return 0, false
	}
	bit, err := model.SubjectsFromBits(int32(bits))
	if err != nil {
		b.log.Warn("bad subjects payload", "chat_id", chatID, "payload", payload)
		return 0, false
	}
	return selected.Toggle(bit), true
}

// callbackPurpose toggles purpose bits. Unlike subjects, an empty selection
// cannot be confirmed.
func (b *Bot) callbackPurpose(ctx context.Context, cb *tgbotapi.CallbackQuery, payload string) {
	chatID := cb.Message.Chat.ID
	state := b.states.Get(chatID)
	if state.Step != dialog.StepSetDatingPurpose || state.Draft == nil {
		return
	}

	if payload == cbContinuePayload {
		selected := draftPurpose(state.Draft)
		if selected.IsEmpty() {
			b.log.Warn("empty purpose on continue", "chat_id", chatID)
			alert := tgbotapi.NewCallbackWithAlert(cb.ID, textMustChoosePurpose)
			if err := b.request(ctx, alert); err != nil {
				b.log.Error("answer callback", "chat_id", chatID, "error", err)
			}
			return
		}
		state.Draft.DatingPurpose = &selected
		b.editText(ctx, chatID, cb.Message.MessageID, fmt.Sprintf(textPurposeChosen, selected))
		b.advance(ctx, chatID, state)
		return
	}

	bits, err := strconv.ParseInt(payload, 10, 16)
	if err != nil {
		b.log.Warn("bad purpose payload", "chat_id", chatID, "payload", payload)
		return
	}
	bit, err := model.PurposeFromBits(int16(bits))
	if err != nil {
		b.log.Warn("bad purpose payload", "chat_id", chatID, "payload", payload)
		return
	}

	selected := draftPurpose(state.Draft).Toggle(bit)
	state.Draft.DatingPurpose = &selected
	b.states.Set(chatID, state)
	b.editButtons(ctx, chatID, cb.Message.MessageID, purposeKeyboard(selected))
}

// callbackInitiatorReaction records the initiator's verdict on a
// recommendation. The storage guard makes the reaction single-shot, so a
// double tap or a forged repeat never notifies the partner twice.
func (b *Bot) callbackInitiatorReaction(ctx context.Context, cb *tgbotapi.CallbackQuery, payload string, liked, withMessage bool) {
	chatID := cb.Message.Chat.ID
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		b.log.Warn("bad dating payload", "chat_id", chatID, "payload", payload)
		return
	}

	attempt, err := b.store.GetDating(ctx, id)
	if err != nil {
		b.log.Error("get dating", "dating_id", id, "error", err)
		return
	}
	if attempt.InitiatorID != chatID {
		b.log.Warn("reaction from wrong chat", "dating_id", id, "chat_id", chatID)
		return
	}

	err = b.store.SetInitiatorReaction(ctx, id, liked)
	if errors.Is(err, storage.ErrReactionAlreadySet) {
		b.log.Warn("user abuses likes", "dating_id", id, "chat_id", chatID)
		return
	}
	if err != nil {
		b.log.Error("set initiator reaction", "dating_id", id, "error", err)
		return
	}

	// The recommendation message keeps its buttons if the reaction came
	// from an older message, so clear by the remembered id when there is one.
	msgID := cb.Message.MessageID
	if attempt.InitiatorMsgID != nil {
		msgID = *attempt.InitiatorMsgID
	}
	b.clearButtons(ctx, chatID, msgID)

	if liked && withMessage {
		state := &dialog.State{Step: dialog.StepLikeWithMessage, AttemptID: id}
		b.states.Set(chatID, state)
		b.renderPrompt(ctx, chatID, state)
		return
	}

	if liked {
		if err := b.sendLike(ctx, attempt, nil); err != nil {
			b.log.Error("send like", "dating_id", id, "error", err)
		}
	}

	// Either way the user keeps browsing.
	if user, ok := b.requireProfile(ctx, chatID); ok {
		if err := b.sendRecommendation(ctx, user); err != nil {
			b.log.Error("send recommendation", "chat_id", chatID, "error", err)
		}
	}
}

// callbackPartnerReaction records the liked user's response. A mutual like
// exchanges contact cards.
func (b *Bot) callbackPartnerReaction(ctx context.Context, cb *tgbotapi.CallbackQuery, payload string, liked bool) {
	chatID := cb.Message.Chat.ID
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		b.log.Warn("bad dating payload", "chat_id", chatID, "payload", payload)
		return
	}

	attempt, err := b.store.GetDating(ctx, id)
	if err != nil {
		b.log.Error("get dating", "dating_id", id, "error", err)
		return
	}
	if attempt.PartnerID != chatID {
		b.log.Warn("reaction from wrong chat", "dating_id", id, "chat_id", chatID)
		return
	}

	err = b.store.SetPartnerReaction(ctx, id, liked)
	if errors.Is(err, storage.ErrReactionAlreadySet) {
		b.log.Warn("user abuses likes", "dating_id", id, "chat_id", chatID)
		return
	}
	if err != nil {
		b.log.Error("set partner reaction", "dating_id", id, "error", err)
		return
	}

	b.clearButtons(ctx, chatID, cb.Message.MessageID)

	if liked {
		if err := b.mutualLike(ctx, attempt); err != nil {
			b.log.Error("mutual like", "dating_id", id, "error", err)
		}
	}
}

func (b *Bot) editButtons(ctx context.Context, chatID int64, messageID int, keyboard tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, keyboard)
	if err := b.request(ctx, edit); err != nil && !isMessageNotModifiable(err) {
		b.log.Error("edit buttons", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) clearButtons(ctx context.Context, chatID int64, messageID int) {
	empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	b.editButtons(ctx, chatID, messageID, empty)
}

func (b *Bot) editText(ctx context.Context, chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if err := b.request(ctx, edit); err != nil && !isMessageNotModifiable(err) {
		b.log.Error("edit text", "chat_id", chatID, "error", err)
	}
}
