package bot

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"dating_bot/internal/dialog"
	"dating_bot/internal/model"
)

// handleMessage routes a plain message by the chat's current dialogue step.
// Input that cannot be parsed re-renders the same prompt, so the step stays
// idempotent.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	state := b.states.Get(chatID)

	b.log.Debug("message", "chat_id", chatID, "step", state.Step)

	switch state.Step {
	case dialog.StepStart:
		// Nothing in progress, plain text is ignored.
	case dialog.StepSetName:
		b.stepSetName(ctx, chatID, state, msg.Text)
	case dialog.StepSetGender:
		b.stepSetGender(ctx, chatID, state, msg.Text)
	case dialog.StepSetGenderFilter:
		b.stepSetGenderFilter(ctx, chatID, state, msg.Text)
	case dialog.StepSetGraduationYear:
		b.stepSetGraduationYear(ctx, chatID, state, msg.Text)
	case dialog.StepSetCity:
		b.stepSetCity(ctx, chatID, state, msg.Text)
	case dialog.StepSetLocationFilter:
		b.stepSetLocationFilter(ctx, chatID, state, msg.Text)
	case dialog.StepSetAbout:
		b.stepSetAbout(ctx, chatID, state, msg.Text)
	case dialog.StepSetPhotos:
		b.stepSetPhotos(ctx, chatID, state, msg)
	case dialog.StepLikeWithMessage:
		b.stepLikeWithMessage(ctx, chatID, state, msg.Text)
	default:
		// Inline-keyboard steps expect a callback, not a message.
		b.renderPrompt(ctx, chatID, state)
	}
}

func (b *Bot) stepSetName(ctx context.Context, chatID int64, state *dialog.State, text string) {
	if err := model.ValidateName(text); err != nil {
		b.log.Debug("invalid name", "chat_id", chatID, "error", err)
		b.renderPrompt(ctx, chatID, state)
		return
	}
	state.Draft.Name = &text
	b.advance(ctx, chatID, state)
}

func (b *Bot) stepSetGender(ctx context.Context, chatID int64, state *dialog.State, text string) {
	gender, err := model.ParseGender(text)
	if err != nil {
		b.renderPrompt(ctx, chatID, state)
		return
	}
	state.Draft.Gender = &gender
	b.advance(ctx, chatID, state)
}

func (b *Bot) stepSetGenderFilter(ctx context.Context, chatID int64, state *dialog.State, text string) {
	filter, err := model.ParseGenderFilter(text)
	if err != nil {
		b.renderPrompt(ctx, chatID, state)
		return
	}
	state.Draft.GenderFilter = &filter
	b.advance(ctx, chatID, state)
}

func (b *Bot) stepSetGraduationYear(ctx context.Context, chatID int64, state *dialog.State, text string) {
	n, err := strconv.Atoi(text)
	if err != nil {
		b.renderPrompt(ctx, chatID, state)
		return
	}
	grade, err := model.GradeFromInt(n)
	if err != nil {
		b.renderPrompt(ctx, chatID, state)
		return
	}
	state.Draft.Grade = &grade
	b.advance(ctx, chatID, state)
}

// stepSetCity runs a two-phase protocol: typed text is fuzzy-matched and the
// best candidate is stashed into the draft pending confirmation. "Верно"
// accepts the stashed candidate, "Не указывать" clears the city and forces a
// country-wide search.
func (b *Bot) stepSetCity(ctx context.Context, chatID int64, state *dialog.State, text string) {
	switch text {
	case btnCityUnspecified:
		state.Draft.City = &model.UserCity{}
		filter := model.LocationCountry
		state.Draft.LocationFilter = &filter
		b.reply(ctx, chatID, textNoCity)
		b.advance(ctx, chatID, state)
	case btnCityCorrect:
		if state.Draft.City == nil || state.Draft.City.ID == nil {
			b.renderPrompt(ctx, chatID, state)
			return
		}
		b.advance(ctx, chatID, state)
	default:
		id, ok := b.gazetteer.FindCity(text)
		if !ok {
			b.reply(ctx, chatID, textCantFindCity)
			return
		}
		state.Draft.City = &model.UserCity{ID: &id}
		b.states.Set(chatID, state)

		formatted, err := b.gazetteer.FormatCity(id)
		if err != nil {
			b.log.Error("format city", "city", id, "error", err)
			return
		}
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(textCityConfirm, formatted))
		msg.ReplyMarkup = cityConfirmKeyboard()
		if _, err := b.send(ctx, msg); err != nil {
			b.log.Error("send city confirm", "chat_id", chatID, "error", err)
		}
	}
}

func (b *Bot) stepSetLocationFilter(ctx context.Context, chatID int64, state *dialog.State, text string) {
	filter, err := b.gazetteer.ParseLocationFilter(text)
	if err != nil {
		b.renderPrompt(ctx, chatID, state)
		return
	}
	state.Draft.LocationFilter = &filter
	b.advance(ctx, chatID, state)
}

func (b *Bot) stepSetAbout(ctx context.Context, chatID int64, state *dialog.State, text string) {
	if err := model.ValidateAbout(text); err != nil {
		b.log.Debug("invalid about", "chat_id", chatID, "error", err)
		b.renderPrompt(ctx, chatID, state)
		return
	}
	state.Draft.About = &text
	b.advance(ctx, chatID, state)
}

func (b *Bot) stepSetPhotos(ctx context.Context, chatID int64, state *dialog.State, msg *tgbotapi.Message) {
	switch {
	case msg.Text == btnNoPhotos:
		if err := b.store.CleanImages(ctx, chatID); err != nil {
			b.log.Error("clean images", "chat_id", chatID, "error", err)
			return
		}
		b.advance(ctx, chatID, state)
	case msg.Text == btnSavePhotos:
		b.advance(ctx, chatID, state)
	case len(msg.Photo) > 0:
		// Telegram sends several sizes, the last is the largest.
		b.addImage(ctx, chatID, state, msg.Photo[len(msg.Photo)-1].FileID, model.ImageKindPhoto)
	case msg.Video != nil:
		b.addImage(ctx, chatID, state, msg.Video.FileID, model.ImageKindVideo)
	default:
		b.renderPrompt(ctx, chatID, state)
	}
}

func (b *Bot) addImage(ctx context.Context, chatID int64, state *dialog.State, fileID string, kind model.ImageKind) {
	if state.PhotosCount >= model.MaxImages {
		b.reply(ctx, chatID, textTooManyPhotos)
		return
	}
	// A fresh photo session replaces the stored set instead of appending.
	if state.PhotosCount == 0 {
		if err := b.store.CleanImages(ctx, chatID); err != nil {
			b.log.Error("clean images", "chat_id", chatID, "error", err)
			return
		}
	}
	if err := b.store.CreateImage(ctx, chatID, fileID, kind); err != nil {
		b.log.Error("create image", "chat_id", chatID, "error", err)
		return
	}
	state.PhotosCount++
	b.states.Set(chatID, state)

	counter := tgbotapi.NewMessage(chatID, fmt.Sprintf(textPhotosAdded, state.PhotosCount))
	counter.ReplyMarkup = savePhotosKeyboard()
	if _, err := b.send(ctx, counter); err != nil {
		b.log.Error("send photo counter", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) stepLikeWithMessage(ctx context.Context, chatID int64, state *dialog.State, text string) {
	if text == "" {
		b.renderPrompt(ctx, chatID, state)
		return
	}

	attempt, err := b.store.GetDating(ctx, state.AttemptID)
	if err != nil {
		b.log.Error("get dating", "dating_id", state.AttemptID, "error", err)
		b.states.Clear(chatID)
		return
	}

	if err := b.sendLike(ctx, attempt, &text); err != nil {
		b.log.Error("send like", "dating_id", attempt.ID, "error", err)
	}
	b.states.Clear(chatID)

	msg := tgbotapi.NewMessage(chatID, textLikeMessageSent)
	msg.ReplyMarkup = removeKeyboard()
	if _, err := b.send(ctx, msg); err != nil {
		b.log.Error("send like ack", "chat_id", chatID, "error", err)
	}

	// A like with a message keeps the user browsing just like a plain one.
	if user, ok := b.requireProfile(ctx, chatID); ok {
		if err := b.sendRecommendation(ctx, user); err != nil {
			b.log.Error("send recommendation", "chat_id", chatID, "error", err)
		}
	}
}

// advance moves the dialogue to the next step and performs the transition's
// side effects. The finished profile is persisted before the photo step so a
// user who abandons photos still has a working profile. Reaching Start
// persists whatever the draft collected and shows the resulting profile.
func (b *Bot) advance(ctx context.Context, chatID int64, state *dialog.State) {
	state.Step = dialog.Next(state)

	if state.Step == dialog.StepSetPhotos && state.CreateNew {
		year := model.GraduationYearFromGrade(*state.Draft.Grade, b.now())
		upd, err := state.Draft.Finalize(year)
		if err != nil {
			b.log.Error("finalize draft", "chat_id", chatID, "error", err)
			b.states.Clear(chatID)
			return
		}
		if err := b.store.UpsertUser(ctx, upd); err != nil {
			b.log.Error("upsert user", "chat_id", chatID, "error", err)
			b.states.Clear(chatID)
			return
		}
	}

	if state.Step == dialog.StepStart {
		if state.Draft != nil && !state.CreateNew {
			upd := state.Draft.Update(b.draftYear(state.Draft))
			if err := b.store.UpsertUser(ctx, upd); err != nil {
				b.log.Error("upsert user", "chat_id", chatID, "error", err)
				b.states.Clear(chatID)
				return
			}
		}
		b.states.Clear(chatID)

		user, err := b.store.GetUser(ctx, chatID)
		if err != nil {
			b.log.Error("get user", "chat_id", chatID, "error", err)
			return
		}
		b.sendProfileTo(ctx, chatID, user, removeKeyboard())
		return
	}

	b.states.Set(chatID, state)
	b.renderPrompt(ctx, chatID, state)
}

func (b *Bot) draftYear(d *model.Draft) *model.GraduationYear {
	if d.Grade == nil {
		return nil
	}
	year := model.GraduationYearFromGrade(*d.Grade, b.now())
	return &year
}

// renderPrompt sends the prompt for the current step. Rendering has no side
// effects, so an invalid answer can simply re-render.
func (b *Bot) renderPrompt(ctx context.Context, chatID int64, state *dialog.State) {
	var msg tgbotapi.MessageConfig

	switch state.Step {
	case dialog.StepSetName:
		msg = tgbotapi.NewMessage(chatID, textRequestName)
		if name := state.FirstName; name != "" && model.ValidateName(name) == nil {
			msg.ReplyMarkup = replyKeyboard([]string{name})
		} else {
			msg.ReplyMarkup = removeKeyboard()
		}
	case dialog.StepSetGender:
		msg = tgbotapi.NewMessage(chatID, textRequestGender)
		msg.ReplyMarkup = genderKeyboard()
	case dialog.StepSetGenderFilter:
		msg = tgbotapi.NewMessage(chatID, textRequestGenderFilter)
		msg.ReplyMarkup = genderFilterKeyboard()
	case dialog.StepSetGraduationYear:
		msg = tgbotapi.NewMessage(chatID, textRequestGrade)
		msg.ReplyMarkup = removeKeyboard()
	case dialog.StepSetSubjects:
		msg = tgbotapi.NewMessage(chatID, textEditSubjects)
		msg.ReplyMarkup = subjectsKeyboard(draftSubjects(state.Draft), cbSubjects, true)
	case dialog.StepSetSubjectsFilter:
		msg = tgbotapi.NewMessage(chatID, textEditPartnerSubjects)
		msg.ReplyMarkup = subjectsKeyboard(draftSubjectsFilter(state.Draft), cbSubjectsFilter, false)
	case dialog.StepSetDatingPurpose:
		msg = tgbotapi.NewMessage(chatID, textRequestDatingPurpose)
		msg.ReplyMarkup = purposeKeyboard(draftPurpose(state.Draft))
	case dialog.StepSetCity:
		msg = tgbotapi.NewMessage(chatID, textRequestCity)
		msg.ReplyMarkup = cityKeyboard()
	case dialog.StepSetLocationFilter:
		keyboard, err := b.locationChoices(state.Draft)
		if err != nil {
			b.log.Error("location choices", "chat_id", chatID, "error", err)
			return
		}
		msg = tgbotapi.NewMessage(chatID, textRequestLocationFilter)
		msg.ReplyMarkup = keyboard
	case dialog.StepSetAbout:
		msg = tgbotapi.NewMessage(chatID, textRequestAbout)
		msg.ReplyMarkup = removeKeyboard()
	case dialog.StepSetPhotos:
		msg = tgbotapi.NewMessage(chatID, textRequestPhotos)
		msg.ReplyMarkup = photosKeyboard()
	case dialog.StepLikeWithMessage:
		msg = tgbotapi.NewMessage(chatID, textRequestLikeMessage)
		msg.ReplyMarkup = removeKeyboard()
	case dialog.StepEdit:
		msg = tgbotapi.NewMessage(chatID, textRequestEdit)
		msg.ReplyMarkup = editMenuKeyboard()
	default:
		return
	}

	if _, err := b.send(ctx, msg); err != nil {
		b.log.Error("send prompt", "chat_id", chatID, "step", state.Step, "error", err)
	}
}

func (b *Bot) locationChoices(d *model.Draft) (tgbotapi.ReplyKeyboardMarkup, error) {
	if d == nil || d.City == nil || d.City.ID == nil {
		return tgbotapi.ReplyKeyboardMarkup{}, fmt.Errorf("draft has no city")
	}
	id := *d.City.ID

	county, err := b.gazetteer.CountyName(id)
	if err != nil {
		return tgbotapi.ReplyKeyboardMarkup{}, err
	}
	subject, err := b.gazetteer.SubjectName(id)
	if err != nil {
		return tgbotapi.ReplyKeyboardMarkup{}, err
	}
	city, err := b.gazetteer.CityName(id)
	if err != nil {
		return tgbotapi.ReplyKeyboardMarkup{}, err
	}
	return locationFilterKeyboard(county, subject, city), nil
}

func draftSubjects(d *model.Draft) model.Subjects {
	if d == nil || d.Subjects == nil {
		return 0
	}
	return *d.Subjects
}

func draftSubjectsFilter(d *model.Draft) model.Subjects {
	if d == nil || d.SubjectsFilter == nil {
		return 0
	}
	return *d.SubjectsFilter
}

func draftPurpose(d *model.Draft) model.DatingPurpose {
	if d == nil || d.DatingPurpose == nil {
		return 0
	}
	return *d.DatingPurpose
}
