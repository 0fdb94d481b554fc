package bot

import (
	"context"
	"fmt"
	"strings"

	"clawgram/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (u *chatUI) send(text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	message := tgbotapi.NewMessage(u.chatID, u.validUTF8(text))

	// See https://core.telegram.org/bots/api#markdownv2-style.
	message.ParseMode = tgbotapi.ModeMarkdownV2

	message.DisableWebPagePreview = true
	if keyboard != nil {
		message.ReplyMarkup = *keyboard
	}

	sent, err := u.sender.Send(message)
	if err != nil {
		return tgbotapi.Message{}, fmt.Errorf("send message: %w", err)
	}

	return sent, nil
}

func (u *chatUI) sendPhoto(image, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	photo := tgbotapi.NewPhoto(u.chatID, tgbotapi.FileURL(image))
	photo.Caption = u.validUTF8(caption)
	photo.ParseMode = tgbotapi.ModeMarkdownV2
	if keyboard != nil {
		photo.ReplyMarkup = *keyboard
	}

	sent, err := u.sender.Send(photo)
	if err != nil {
		return tgbotapi.Message{}, fmt.Errorf("send photo: %w", err)
	}

	return sent, nil
}

// sendOutgoing sends a packed message. A photo Telegram cannot fetch falls
// back to a text message with a link to the image.
func (u *chatUI) sendOutgoing(ctx context.Context, out outgoing) (*sentMessage, error) {
	if out.image != "" {
		sent, err := u.sendPhoto(out.image, out.text, u.keyboardRows(ctx, out.rows))
		if err == nil {
			return &sentMessage{id: sent.MessageID, rows: out.rows}, nil
		}

		u.log.WarnContext(ctx, "Failed to send photo, falling back to link",
			"error", err,
			"image", out.image)

		out.rows = withAttachmentLink(out.rows, out.image)
	}

	sent, err := u.send(out.text, u.keyboardRows(ctx, out.rows))
	if err != nil {
		return nil, err
	}

	return &sentMessage{id: sent.MessageID, rows: out.rows}, nil
}

func (u *chatUI) keyboardRows(ctx context.Context, rows [][]view.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}

	markup := u.keyboard(ctx, rows)
	if len(markup.InlineKeyboard) == 0 {
		return nil
	}

	return &markup
}

// keyboard converts view buttons. Buttons whose callback data Telegram would
// reject are dropped.
func (u *chatUI) keyboard(ctx context.Context, rows [][]view.Button) tgbotapi.InlineKeyboardMarkup {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))

	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))

		for _, button := range row {
			if button.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(button.Label, button.URL))
				continue
			}

			data := button.Action.Data()
			if button.Action.IsZero() || len(data) > view.MaxActionDataLen {
				u.log.WarnContext(ctx, "Skipping button with invalid callback data",
					"label", button.Label,
					"dataLen", len(data))
				continue
			}

			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(button.Label, data))
		}

		if len(buttons) > 0 {
			keyboard = append(keyboard, buttons)
		}
	}

	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

func (u *chatUI) validUTF8(text string) string {
	normalizedText := strings.ToValidUTF8(text, "?")
	if normalizedText != text {
		u.log.Warn("Message text had invalid UTF-8 and was normalized",
			"originalLen", len(text),
			"normalizedLen", len(normalizedText))
	}

	return normalizedText
}

func withAttachmentLink(rows [][]view.Button, url string) [][]view.Button {
	link := view.Button{Label: "📎 View Attachment", URL: url}

	if len(rows) == 0 {
		return [][]view.Button{{link}}
	}

	out := make([][]view.Button, len(rows))
	copy(out, rows)
	out[0] = append(append([]view.Button{}, rows[0]...), link)

	return out
}
