// Package bot binds chats to actions clients and materializes their screens
// as Telegram messages.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"clawgram/internal/actions"
	"clawgram/internal/claw"
	"clawgram/internal/ratelimiter"
	"clawgram/internal/session"
	"clawgram/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	maxBackoffSeconds         = 60
	initialBackoffSeconds     = 3
	backoffGrowthFactor       = 2
	resetOffsetBackoffSeconds = 30
	updateProcessingTimeout   = 60 * time.Second

	BotUpdateTimeout = 60

	defaultNotificationTTL = 3 * time.Second
)

type Options struct {
	FeedLimit       int
	NotificationTTL time.Duration
	Location        *time.Location
	// LoginURL builds the sign in link for a chat.
	LoginURL func(chatID int64) string
	// Summarizer adds a summary to scheduled digests when set.
	Summarizer actions.Summarizer
}

type chat struct {
	client *actions.Client
	ui     *chatUI
}

type Bot struct {
	api          *tgbotapi.BotAPI
	rateLimiter  *ratelimiter.RateLimiter
	storage      session.Storage
	claw         *claw.Client
	renderer     *view.Renderer
	options      Options
	allowedUsers []int64
	log          *slog.Logger

	mu    sync.Mutex
	chats map[int64]*chat
}

func New(
	token string,
	storage session.Storage,
	clawClient *claw.Client,
	allowedUsers []int64,
	options Options,
	log *slog.Logger,
) (*Bot, error) {
	token = strings.TrimSpace(token)

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	if options.NotificationTTL <= 0 {
		options.NotificationTTL = defaultNotificationTTL
	}

	return &Bot{
		api:          api,
		rateLimiter:  ratelimiter.New(api, log),
		storage:      storage,
		claw:         clawClient,
		renderer:     view.NewRenderer(options.Location),
		options:      options,
		allowedUsers: allowedUsers,
		log:          log,
		chats:        make(map[int64]*chat),
	}, nil
}

// Username is the bot's Telegram username.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// SetLoginURL replaces the sign in link builder. It must be called before
// Start.
func (b *Bot) SetLoginURL(fn func(chatID int64) string) {
	b.options.LoginURL = fn
}

func (b *Bot) Start(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = BotUpdateTimeout

	backoffSeconds := initialBackoffSeconds

	for {
		select {
		case <-ctx.Done():
			b.log.InfoContext(ctx, "Bot context is done",
				"error", ctx.Err())
			return
		default:
		}

		updates := b.api.GetUpdatesChan(updateConfig)
		updatesClosed := false

		for !updatesClosed {
			select {
			case <-ctx.Done():
				b.log.InfoContext(ctx, "Bot context is done",
					"error", ctx.Err())
				return

			case update, ok := <-updates:
				if !ok {
					updatesClosed = true
					continue
				}
				updateConfig.Offset = update.UpdateID + 1

				b.handleUpdate(ctx, &update)
			}
		}

		if ctx.Err() != nil {
			return
		}

		b.log.WarnContext(ctx, "Update channel is closed, reconnecting...",
			"offset", updateConfig.Offset,
			"backoffSeconds", backoffSeconds)

		time.Sleep(time.Duration(backoffSeconds) * time.Second)

		backoffSeconds = updateBackoffSeconds(backoffSeconds)

		if backoffSeconds >= resetOffsetBackoffSeconds {
			updateConfig.Offset = 0
		}
	}
}

// Authenticate completes a chat's sign in with a token delivered out of band.
func (b *Bot) Authenticate(ctx context.Context, chatID int64, token string) {
	b.chat(ctx, chatID).client.Initialize(ctx, token)
}

// SendDigest pushes the following feed to a chat. It reports whether anything
// was sent.
func (b *Bot) SendDigest(ctx context.Context, chatID int64) bool {
	return b.chat(ctx, chatID).client.FollowingDigest(ctx)
}

func (b *Bot) Stop() {
	b.mu.Lock()
	for _, c := range b.chats {
		c.client.Dispose()
		c.ui.dispose()
	}
	clear(b.chats)
	b.mu.Unlock()

	if b.rateLimiter != nil {
		b.rateLimiter.Stop()
	}
}

// chat returns the chat's client, resuming a stored session on first use.
func (b *Bot) chat(ctx context.Context, chatID int64) *chat {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.chats[chatID]; ok {
		return c
	}

	ui := newChatUI(chatID, b.rateLimiter, b.options.NotificationTTL, b.log)
	client := actions.New(chatID, ui, actions.Options{
		API:        b.claw,
		Storage:    b.storage,
		Renderer:   b.renderer,
		FeedLimit:  b.options.FeedLimit,
		LoginURL:   b.options.LoginURL,
		Summarizer: b.options.Summarizer,
		Log:        b.log,
	})

	authenticated := client.Resume(ctx)
	b.log.DebugContext(ctx, "Chat client is created",
		"chatID", chatID,
		"authenticated", authenticated)

	c := &chat{client: client, ui: ui}
	b.chats[chatID] = c

	return c
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	switch {
	case update.Message != nil:
		chatID, chatType := chatContext(update.Message.Chat)

		if update.Message.From == nil {
			return
		}

		userID := update.Message.From.ID
		if !b.userAllowed(userID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", userID,
				"chatID", chatID,
				"username", update.Message.From.UserName,
				"chatType", chatType)

			return
		}

		if err := b.handleMessage(updateCtx, update.Message); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle message",
				"error", err,
				"chatID", chatID,
				"userID", userID,
				"chatType", chatType,
				"messageID", update.Message.MessageID)
		}

	case update.CallbackQuery != nil:
		chatID := callbackChatID(update.CallbackQuery)

		if !b.userAllowed(update.CallbackQuery.From.ID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", update.CallbackQuery.From.ID,
				"chatID", chatID,
				"username", update.CallbackQuery.From.UserName,
				"data", update.CallbackQuery.Data)

			return
		}

		if err := b.handleCallbackQuery(updateCtx, update.CallbackQuery); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle callback query",
				"error", err,
				"chatID", chatID,
				"userID", update.CallbackQuery.From.ID,
				"data", update.CallbackQuery.Data,
				"messageID", callbackMessageID(update.CallbackQuery))
		}
	}
}

// An empty allow list lets everyone in.
func (b *Bot) userAllowed(userID int64) bool {
	return len(b.allowedUsers) == 0 || slices.Contains(b.allowedUsers, userID)
}

func chatContext(chat *tgbotapi.Chat) (int64, string) {
	if chat == nil {
		return 0, ""
	}

	return chat.ID, chat.Type
}

func callbackChatID(cb *tgbotapi.CallbackQuery) int64 {
	if cb != nil && cb.Message != nil && cb.Message.Chat != nil {
		return cb.Message.Chat.ID
	}

	return 0
}

func callbackMessageID(cb *tgbotapi.CallbackQuery) int {
	if cb != nil && cb.Message != nil {
		return cb.Message.MessageID
	}

	return 0
}

func updateBackoffSeconds(backoffSeconds int) int {
	if backoffSeconds < maxBackoffSeconds {
		backoffSeconds *= backoffGrowthFactor
		if backoffSeconds > maxBackoffSeconds {
			backoffSeconds = maxBackoffSeconds
		}
	}
	return backoffSeconds
}
