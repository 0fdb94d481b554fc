package ratelimiter

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeAPI struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, c)

	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func newTestLimiter(api API) *RateLimiter {
	return New(api, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSendPassesThrough(t *testing.T) {
	api := &fakeAPI{}
	rl := newTestLimiter(api)
	defer rl.Stop()

	msg, err := rl.Send(tgbotapi.NewMessage(42, "hi"))

	require.NoError(t, err)
	assert.Equal(t, 1, msg.MessageID)
	assert.Len(t, api.sent, 1)
}

func TestSendAfterStopFails(t *testing.T) {
	rl := newTestLimiter(&fakeAPI{})
	rl.Stop()

	_, err := rl.Send(tgbotapi.NewMessage(42, "hi"))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestLimiterPerChat(t *testing.T) {
	rl := newTestLimiter(&fakeAPI{})
	defer rl.Stop()

	private := rl.limiter(42)
	group := rl.limiter(-100)

	assert.Same(t, private, rl.limiter(42))
	assert.Equal(t, rate.Every(privateChatInterval), private.Limit())
	assert.Equal(t, rate.Every(groupChatInterval), group.Limit())
	assert.Equal(t, 1, private.Burst())
}

func TestSecondSendToSameChatWaits(t *testing.T) {
	api := &fakeAPI{}
	rl := newTestLimiter(api)
	defer rl.Stop()

	_, err := rl.Send(tgbotapi.NewMessage(42, "one"))
	require.NoError(t, err)

	start := time.Now()
	_, err = rl.Send(tgbotapi.NewMessage(42, "two"))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), privateChatInterval-50*time.Millisecond)
	assert.Len(t, api.sent, 2)
}

func TestStopCancelsWaitingSend(t *testing.T) {
	rl := newTestLimiter(&fakeAPI{})

	_, err := rl.Send(tgbotapi.NewMessage(-100, "one"))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, sendErr := rl.Send(tgbotapi.NewMessage(-100, "two"))
		done <- sendErr
	}()

	time.Sleep(20 * time.Millisecond)
	rl.Stop()

	select {
	case err = <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("send was not cancelled")
	}
}

func TestGetChatID(t *testing.T) {
	assert.Equal(t, int64(7), getChatID(tgbotapi.NewMessage(7, "x")))
	assert.Equal(t, int64(7), getChatID(tgbotapi.NewPhoto(7, tgbotapi.FileURL("https://x.dev/a.png"))))
	assert.Equal(t, int64(7), getChatID(tgbotapi.NewEditMessageReplyMarkup(7, 1, tgbotapi.NewInlineKeyboardMarkup())))
	assert.Equal(t, int64(0), getChatID(tgbotapi.NewCallback("id", "")))
}
