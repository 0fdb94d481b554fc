package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message.IsCommand() {
		return b.handleCommand(ctx, message)
	}

	text := strings.TrimSpace(message.Text)
	if text == "" {
		return nil
	}

	b.chat(ctx, message.Chat.ID).client.HandleText(ctx, text)

	return nil
}
