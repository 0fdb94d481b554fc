package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"clawgram/internal/domain"
	"clawgram/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu        sync.Mutex
	nextID    int
	sent      []tgbotapi.Chattable
	requests  []tgbotapi.Chattable
	failPhoto bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := c.(tgbotapi.PhotoConfig); ok && f.failPhoto {
		return tgbotapi.Message{}, errors.New("wrong file identifier")
	}

	f.nextID++
	f.sent = append(f.sent, c)

	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, c)

	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) deleted() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []int
	for _, r := range f.requests {
		if d, ok := r.(tgbotapi.DeleteMessageConfig); ok {
			ids = append(ids, d.MessageID)
		}
	}
	return ids
}

func (f *fakeSender) typing() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, r := range f.requests {
		if _, ok := r.(tgbotapi.ChatActionConfig); ok {
			n++
		}
	}
	return n
}

func (f *fakeSender) lastSent() tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.sent[len(f.sent)-1]
}

func newTestUI(ttl time.Duration) (*chatUI, *fakeSender) {
	sender := &fakeSender{}
	return newChatUI(1, sender, ttl, slog.New(slog.NewTextHandler(io.Discard, nil))), sender
}

func TestNotificationIsSingleton(t *testing.T) {
	ui, sender := newTestUI(time.Hour)
	ctx := context.Background()

	ui.Notify(ctx, "first", domain.NotificationSuccess)
	ui.Notify(ctx, "second!", domain.NotificationError)

	assert.Equal(t, []int{1}, sender.deleted())

	msg, ok := sender.lastSent().(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, "❌ second\\!", msg.Text)

	ui.dispose()
}

func TestNotificationExpires(t *testing.T) {
	ui, sender := newTestUI(10 * time.Millisecond)

	ui.Notify(context.Background(), "bye", domain.NotificationSuccess)

	assert.Eventually(t, func() bool {
		return len(sender.deleted()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSpinnerIsSingleton(t *testing.T) {
	ui, sender := newTestUI(time.Hour)
	ctx := context.Background()

	ui.SetLoading(ctx, true)
	ui.SetLoading(ctx, true)

	assert.Eventually(t, func() bool { return sender.typing() == 1 }, time.Second, 5*time.Millisecond)

	ui.SetLoading(ctx, false)

	ui.mu.Lock()
	assert.Nil(t, ui.stopSpinner)
	ui.mu.Unlock()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, sender.typing())
}

func TestRenderReplacesLoadingPlaceholder(t *testing.T) {
	ui, sender := newTestUI(time.Hour)
	ctx := context.Background()

	ui.Render(ctx, view.Screen{
		Section: domain.SectionFeed,
		Blocks:  []view.Block{view.Loading("Loading feed...")},
	})
	ui.Render(ctx, view.Screen{
		Section: domain.SectionFeed,
		Blocks:  []view.Block{postBlock("a")},
	})

	assert.Equal(t, []int{1}, sender.deleted())

	ui.Render(ctx, view.Screen{Section: domain.SectionFeed, Blocks: []view.Block{postBlock("b")}})
	assert.Equal(t, []int{1}, sender.deleted())
}

func TestRenderSendsImagesAsPhotos(t *testing.T) {
	ui, sender := newTestUI(time.Hour)
	block := postBlock("a")
	block.Image = "https://x.dev/a.png"

	ui.Render(context.Background(), view.Screen{Blocks: []view.Block{block}})

	photo, ok := sender.lastSent().(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, "post a", photo.Caption)
	assert.Equal(t, tgbotapi.FileURL("https://x.dev/a.png"), photo.File)
}

func TestRenderFallsBackToLinkWhenPhotoFails(t *testing.T) {
	ui, sender := newTestUI(time.Hour)
	sender.failPhoto = true
	block := postBlock("a")
	block.Image = "https://x.dev/a.png"

	ui.Render(context.Background(), view.Screen{Blocks: []view.Block{block}})

	msg, ok := sender.lastSent().(tgbotapi.MessageConfig)
	require.True(t, ok)

	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	row := markup.InlineKeyboard[0]
	require.Len(t, row, 2)
	require.NotNil(t, row[1].URL)
	assert.Equal(t, "https://x.dev/a.png", *row[1].URL)
}

func TestUpdatePostEditsKeyboard(t *testing.T) {
	ui, sender := newTestUI(time.Hour)
	ctx := context.Background()

	ui.Render(ctx, view.Screen{Blocks: []view.Block{postBlock("a"), postBlock("b")}})

	updated := postBlock("b")
	updated.Rows[0][0].Label = "❤️ 1"
	ui.UpdatePost(ctx, updated)

	edit, ok := sender.lastSent().(tgbotapi.EditMessageReplyMarkupConfig)
	require.True(t, ok)
	assert.Equal(t, 1, edit.MessageID)
	require.NotNil(t, edit.ReplyMarkup)
	assert.Equal(t, "🤍 0", edit.ReplyMarkup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "❤️ 1", edit.ReplyMarkup.InlineKeyboard[1][0].Text)
}

func TestUpdatePostEditsEveryMessageShowingIt(t *testing.T) {
	ui, sender := newTestUI(time.Hour)
	ctx := context.Background()

	ui.Render(ctx, view.Screen{Section: domain.SectionFeed, Blocks: []view.Block{postBlock("a")}})
	ui.Render(ctx, view.Screen{Section: domain.SectionProfile, Blocks: []view.Block{postBlock("a")}})

	updated := postBlock("a")
	updated.Rows[0][0].Label = "❤️ 1"
	ui.UpdatePost(ctx, updated)

	sender.mu.Lock()
	defer sender.mu.Unlock()

	var edited []int
	for _, c := range sender.sent {
		if edit, ok := c.(tgbotapi.EditMessageReplyMarkupConfig); ok {
			edited = append(edited, edit.MessageID)
			assert.Equal(t, "❤️ 1", edit.ReplyMarkup.InlineKeyboard[0][0].Text)
		}
	}
	assert.ElementsMatch(t, []int{1, 2}, edited)
}

func TestConfirmOffersBothChoices(t *testing.T) {
	ui, sender := newTestUI(time.Hour)

	ui.Confirm(context.Background(), "Are you sure you want to delete this post?",
		view.Action{Kind: view.ActionConfirmDelete, Arg: "p1"})

	msg, ok := sender.lastSent().(tgbotapi.MessageConfig)
	require.True(t, ok)

	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)

	row := markup.InlineKeyboard[0]
	require.Len(t, row, 2)
	assert.Equal(t, "Yes, delete", row[0].Text)
	assert.Equal(t, "delok:p1", *row[0].CallbackData)
	assert.Equal(t, "cancel", *row[1].CallbackData)
}

func TestKeyboardDropsOversizedCallbackData(t *testing.T) {
	ui, _ := newTestUI(time.Hour)

	markup := ui.keyboard(context.Background(), [][]view.Button{{
		{Label: "ok", Action: view.Action{Kind: view.ActionLike, Arg: "p1"}},
		{Label: "too long", Action: view.Action{Kind: view.ActionProfile, Arg: string(make([]byte, 80))}},
	}})

	require.Len(t, markup.InlineKeyboard, 1)
	assert.Len(t, markup.InlineKeyboard[0], 1)
}
