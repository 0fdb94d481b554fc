// Package ratelimiter paces outgoing Telegram messages per chat and for the
// bot as a whole.
package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

var ErrTooManyPending = errors.New("too many pending messages")

// API is the part of tgbotapi.BotAPI the limiter drives.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type RateLimiter struct {
	api     API
	global  *rate.Limiter
	pending chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	log     *slog.Logger

	mu    sync.Mutex
	chats map[int64]*rate.Limiter
}

func New(api API, log *slog.Logger) *RateLimiter {
	ctx, cancel := context.WithCancel(context.Background())

	return &RateLimiter{
		api:     api,
		global:  rate.NewLimiter(rate.Limit(globalPerSecond), globalPerSecond),
		pending: make(chan struct{}, maxPending),
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
		chats:   make(map[int64]*rate.Limiter),
	}
}

// Send blocks until the chat and the bot are both under their limits, then
// sends. It fails fast once Stop was called or too many sends are waiting.
func (rl *RateLimiter) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := rl.ctx.Err(); err != nil {
		return tgbotapi.Message{}, err
	}

	select {
	case rl.pending <- struct{}{}:
		defer func() { <-rl.pending }()
	default:
		return tgbotapi.Message{}, ErrTooManyPending
	}

	chatID := getChatID(c)
	if err := rl.wait(chatID, c); err != nil {
		return tgbotapi.Message{}, err
	}

	return rl.api.Send(c)
}

// Request bypasses the limits. It is meant for chat actions, callback answers
// and deletions.
func (rl *RateLimiter) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return rl.api.Request(c)
}

// Stop cancels every waiting Send.
func (rl *RateLimiter) Stop() {
	rl.cancel()
}

func (rl *RateLimiter) wait(chatID int64, c tgbotapi.Chattable) error {
	limiter := rl.limiter(chatID)

	reservation := limiter.Reserve()
	if delay := reservation.Delay(); delay > 0 {
		rl.log.DebugContext(rl.ctx, "Rate limiting message",
			"chatID", chatID,
			"delay", delay,
			"chattableType", fmt.Sprintf("%T", c),
			"pending", len(rl.pending))

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-rl.ctx.Done():
			reservation.Cancel()
			return rl.ctx.Err()
		}
	}

	if err := rl.global.Wait(rl.ctx); err != nil {
		return fmt.Errorf("wait for global limiter: %w", err)
	}

	return nil
}

func (rl *RateLimiter) limiter(chatID int64) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.chats[chatID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(getInterval(chatID)), 1)
		rl.chats[chatID] = limiter
	}

	return limiter
}

func getChatID(c tgbotapi.Chattable) int64 {
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		return m.ChatID
	case tgbotapi.PhotoConfig:
		return m.ChatID
	case tgbotapi.EditMessageTextConfig:
		return m.ChatID
	case tgbotapi.EditMessageReplyMarkupConfig:
		return m.ChatID
	case tgbotapi.DeleteMessageConfig:
		return m.ChatID
	case tgbotapi.ChatActionConfig:
		return m.ChatID
	default:
		return 0
	}
}

// Group and channel chat ids are negative.
func getInterval(chatID int64) time.Duration {
	if chatID < 0 {
		return groupChatInterval
	}
	return privateChatInterval
}
