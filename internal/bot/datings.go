package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"dating_bot/internal/model"
	"dating_bot/internal/storage"
)

// sendRecommendation picks a candidate for the user and shows their card with
// reaction buttons. The sent message id is remembered so the buttons can be
// cleared later.
func (b *Bot) sendRecommendation(ctx context.Context, user *model.UserProfile) error {
	attempt, partner, err := b.store.GetPartner(ctx, user)
	if errors.Is(err, storage.ErrNoCandidates) {
		b.reply(ctx, user.ID, textPartnerNotFound)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get partner: %w", err)
	}

	sent, err := b.sendProfileCard(ctx, user.ID, partner, datingKeyboard(attempt.ID))
	if err != nil {
		return fmt.Errorf("send card: %w", err)
	}

	if err := b.store.SetDatingMsgID(ctx, attempt.ID, sent.MessageID); err != nil {
		b.log.Error("set dating msg id", "dating_id", attempt.ID, "error", err)
	}
	return nil
}

// sendLike notifies the partner that someone liked them, with the initiator's
// card and an optional message. A partner who blocked the bot is deactivated
// instead of failing the flow.
func (b *Bot) sendLike(ctx context.Context, attempt *model.DatingAttempt, message *string) error {
	initiator, err := b.store.GetUser(ctx, attempt.InitiatorID)
	if err != nil {
		return fmt.Errorf("get initiator: %w", err)
	}

	if _, err := b.send(ctx, tgbotapi.NewMessage(attempt.PartnerID, textSomeoneLikedYou)); err != nil {
		if isBotBlocked(err) {
			return b.deactivate(ctx, attempt.PartnerID)
		}
		return fmt.Errorf("send like notice: %w", err)
	}

	if _, err := b.sendProfileCard(ctx, attempt.PartnerID, initiator, likeResponseKeyboard(attempt.ID)); err != nil {
		if isBotBlocked(err) {
			return b.deactivate(ctx, attempt.PartnerID)
		}
		return fmt.Errorf("send initiator card: %w", err)
	}

	if message != nil {
		text := fmt.Sprintf(textLikeMessageFor, *message)
		if _, err := b.send(ctx, tgbotapi.NewMessage(attempt.PartnerID, text)); err != nil && !isBotBlocked(err) {
			return fmt.Errorf("send like message: %w", err)
		}
	}
	return nil
}

// mutualLike exchanges contact cards after both sides liked each other.
func (b *Bot) mutualLike(ctx context.Context, attempt *model.DatingAttempt) error {
	initiator, err := b.store.GetUser(ctx, attempt.InitiatorID)
	if err != nil {
		return fmt.Errorf("get initiator: %w", err)
	}
	partner, err := b.store.GetUser(ctx, attempt.PartnerID)
	if err != nil {
		return fmt.Errorf("get partner: %w", err)
	}

	if err := b.sendMatch(ctx, partner.ID, initiator); err != nil {
		return err
	}
	return b.sendMatch(ctx, initiator.ID, partner)
}

func (b *Bot) sendMatch(ctx context.Context, chatID int64, match *model.UserProfile) error {
	if _, err := b.send(ctx, tgbotapi.NewMessage(chatID, textMutualLike)); err != nil {
		if isBotBlocked(err) {
			return b.deactivate(ctx, chatID)
		}
		return fmt.Errorf("send match notice: %w", err)
	}
	if _, err := b.sendProfileCard(ctx, chatID, match, openChatKeyboard(match.ID)); err != nil {
		if isBotBlocked(err) {
			return b.deactivate(ctx, chatID)
		}
		return fmt.Errorf("send match card: %w", err)
	}
	return nil
}

// deactivate turns the profile off after the user blocked the bot, so they
// stop showing up in recommendations.
func (b *Bot) deactivate(ctx context.Context, chatID int64) error {
	b.log.Info("deactivating blocked user", "chat_id", chatID)
	active := false
	if err := b.store.UpsertUser(ctx, &model.ProfileUpdate{ID: chatID, Active: &active}); err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	return nil
}

// sendProfileCard sends the profile's attachments followed by its text card
// carrying the given reply markup, and returns the card message.
func (b *Bot) sendProfileCard(ctx context.Context, chatID int64, user *model.UserProfile, markup any) (tgbotapi.Message, error) {
	if err := b.sendImages(ctx, chatID, user.ID); err != nil {
		return tgbotapi.Message{}, err
	}

	msg := tgbotapi.NewMessage(chatID, FormatProfile(user, b.gazetteer, b.now()))
	msg.ReplyMarkup = markup
	return b.send(ctx, msg)
}

// sendProfileTo is sendProfileCard for the user's own profile, logging
// instead of returning errors.
func (b *Bot) sendProfileTo(ctx context.Context, chatID int64, user *model.UserProfile, markup any) {
	if _, err := b.sendProfileCard(ctx, chatID, user, markup); err != nil {
		b.log.Error("send profile", "chat_id", chatID, "error", err)
	}
}

// sendImages sends the profile's attachments: nothing for zero, a single
// photo or video for one, a media group for two and more.
func (b *Bot) sendImages(ctx context.Context, chatID, userID int64) error {
	images, err := b.store.GetImages(ctx, userID)
	if err != nil {
		return fmt.Errorf("get images: %w", err)
	}

	switch len(images) {
	case 0:
		return nil
	case 1:
		img := images[0]
		var c tgbotapi.Chattable
		if img.Kind == model.ImageKindVideo {
			c = tgbotapi.NewVideo(chatID, tgbotapi.FileID(img.FileID))
		} else {
			c = tgbotapi.NewPhoto(chatID, tgbotapi.FileID(img.FileID))
		}
		_, err := b.send(ctx, c)
		return err
	default:
		media := make([]any, 0, len(images))
		for _, img := range images {
			if img.Kind == model.ImageKindVideo {
				media = append(media, tgbotapi.NewInputMediaVideo(tgbotapi.FileID(img.FileID)))
			} else {
				media = append(media, tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(img.FileID)))
			}
		}
		return b.sendMediaGroup(ctx, tgbotapi.NewMediaGroup(chatID, media))
	}
}
