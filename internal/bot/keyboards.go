package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"dating_bot/internal/cities"
	"dating_bot/internal/model"
)

// Callback data prefixes. The first rune of the data selects the handler,
// the rest carries the payload (bit value, dating id or menu item).
const (
	cbCreateProfile  = '✍'
	cbFindPartner    = '🚀'
	cbEdit           = 'e'
	cbSubjects       = 's'
	cbSubjectsFilter = 'd'
	cbPurpose        = 'p'
	cbDislike        = '👎'
	cbLike           = '👍'
	cbLikeWithMsg    = '💌'
	cbResponseNo     = '💔'
	cbResponseYes    = '❤'

	cbContinuePayload = "continue"
)

func replyKeyboard(rows ...[]string) tgbotapi.ReplyKeyboardMarkup {
	keyboardRows := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, title := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(title))
		}
		keyboardRows = append(keyboardRows, buttons)
	}
	keyboard := tgbotapi.NewReplyKeyboard(keyboardRows...)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func removeKeyboard() tgbotapi.ReplyKeyboardRemove {
	return tgbotapi.NewRemoveKeyboard(false)
}

func genderKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard([]string{textGenderMale, textGenderFemale})
}

func genderFilterKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(
		[]string{textGenderFilterMale, textGenderFilterFemale},
		[]string{textGenderFilterAny},
	)
}

func cityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard([]string{btnCityUnspecified})
}

func cityConfirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard([]string{btnCityCorrect, btnCityUnspecified})
}

// locationFilterKeyboard offers the whole country, the user's county, its
// subject, and the city itself. City-states like Moscow share the subject
// name with the city, so the duplicate button is dropped.
func locationFilterKeyboard(county, subject, city string) tgbotapi.ReplyKeyboardMarkup {
	second := []string{subject}
	if subject != city {
		second = append(second, city)
	}
	return replyKeyboard(
		[]string{cities.CountryLabel, county + " ФО"},
		second,
	)
}

func photosKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard([]string{btnNoPhotos})
}

func savePhotosKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard([]string{btnSavePhotos})
}

func startKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnCreateProfile, string(cbCreateProfile)),
		),
	)
}

// subjectsKeyboard renders the multi-select subject grid. Selected subjects
// are marked with a check, the continue button text depends on whether the
// keyboard edits the user's own subjects or the partner filter.
func subjectsKeyboard(selected model.Subjects, prefix rune, own bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, bit := range model.SubjectCatalog {
		name, _ := bit.Name()
		if selected.Contains(bit) {
			name = "✅ " + name
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			name, fmt.Sprintf("%c%d", prefix, int32(bit)),
		))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	continueText := btnContinue + " ➡️"
	if selected.IsEmpty() {
		if own {
			continueText = "Никакие 🙅"
		} else {
			continueText = "Не важно 🤷"
		}
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(
			continueText, fmt.Sprintf("%c%s", prefix, cbContinuePayload),
		),
	})
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func purposeKeyboard(selected model.DatingPurpose) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, bit := range model.PurposeCatalog {
		name, _ := bit.Name()
		if selected.Contains(bit) {
			name = "✅ " + name
		}
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(
				name, fmt.Sprintf("%c%d", cbPurpose, int16(bit)),
			),
		})
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(
			btnContinue+" ➡️", fmt.Sprintf("%c%s", cbPurpose, cbContinuePayload),
		),
	})
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

var editMenuItems = []string{"Имя", "Предметы", "О себе", "Город", "Фото", btnEditCancel}

func editMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, item := range editMenuItems {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			item, fmt.Sprintf("%c%s", cbEdit, item),
		))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func datingKeyboard(datingID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👎", fmt.Sprintf("%c%d", cbDislike, datingID)),
			tgbotapi.NewInlineKeyboardButtonData("💌", fmt.Sprintf("%c%d", cbLikeWithMsg, datingID)),
			tgbotapi.NewInlineKeyboardButtonData("👍", fmt.Sprintf("%c%d", cbLike, datingID)),
		),
	)
}

func likeResponseKeyboard(datingID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💔", fmt.Sprintf("%c%d", cbResponseNo, datingID)),
			tgbotapi.NewInlineKeyboardButtonData("❤", fmt.Sprintf("%c%d", cbResponseYes, datingID)),
		),
	)
}

func openChatKeyboard(userID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(btnOpenChat, userURL(userID)),
		),
	)
}

func userURL(userID int64) string {
	return fmt.Sprintf("tg://user?id=%d", userID)
}
