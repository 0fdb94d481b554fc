package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"clawgram/internal/domain"
	"clawgram/internal/markdown"
	"clawgram/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	sendSpinnerInterval = 3 * time.Second
	maxTrackedPosts     = 1000
)

// sender is satisfied by ratelimiter.RateLimiter.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// postMessage locates the keyboard row of a rendered post.
type postMessage struct {
	message *sentMessage
	row     int
}

type sentMessage struct {
	id   int
	rows [][]view.Button
}

// chatUI renders one chat. The spinner and the notification are singletons:
// showing either again replaces the previous instance.
type chatUI struct {
	chatID          int64
	sender          sender
	notificationTTL time.Duration
	log             *slog.Logger

	mu                sync.Mutex
	stopSpinner       context.CancelFunc
	notificationID    int
	notificationTimer *time.Timer
	placeholders      map[domain.Section][]int
	posts             map[string][]postMessage
	trackedPosts      int
}

func newChatUI(chatID int64, sender sender, notificationTTL time.Duration, log *slog.Logger) *chatUI {
	return &chatUI{
		chatID:          chatID,
		sender:          sender,
		notificationTTL: notificationTTL,
		log:             log.With("chatID", chatID),
		placeholders:    make(map[domain.Section][]int),
		posts:           make(map[string][]postMessage),
	}
}

// SetLoading starts or stops the typing indicator.
func (u *chatUI) SetLoading(ctx context.Context, visible bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !visible {
		if u.stopSpinner != nil {
			u.stopSpinner()
			u.stopSpinner = nil
		}
		return
	}

	if u.stopSpinner != nil {
		return
	}

	spinnerCtx, cancel := context.WithCancel(ctx)
	u.stopSpinner = cancel

	go u.spin(spinnerCtx)
}

func (u *chatUI) spin(ctx context.Context) {
	u.sendTyping(ctx)

	t := time.NewTicker(sendSpinnerInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			u.sendTyping(ctx)
		}
	}
}

func (u *chatUI) sendTyping(ctx context.Context) {
	config := tgbotapi.NewChatAction(u.chatID, tgbotapi.ChatTyping)
	if _, err := u.sender.Request(config); err != nil {
		u.log.ErrorContext(ctx, "Failed to send chat action",
			"error", err)
	}
}

// Notify replaces the current notification and deletes the new one after the
// notification TTL.
func (u *chatUI) Notify(ctx context.Context, text string, kind domain.NotificationKind) {
	glyph := "✅"
	if kind == domain.NotificationError {
		glyph = "❌"
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	u.dropNotification(ctx)

	message, err := u.send(glyph+" "+markdown.EscapeV2(text), nil)
	if err != nil {
		u.log.ErrorContext(ctx, "Failed to send notification",
			"error", err,
			"kind", kind)
		return
	}

	id := message.MessageID
	u.notificationID = id
	u.notificationTimer = time.AfterFunc(u.notificationTTL, func() {
		u.mu.Lock()
		defer u.mu.Unlock()

		if u.notificationID == id {
			u.dropNotification(context.Background())
		}
	})
}

func (u *chatUI) dropNotification(ctx context.Context) {
	if u.notificationTimer != nil {
		u.notificationTimer.Stop()
		u.notificationTimer = nil
	}

	if u.notificationID != 0 {
		u.deleteMessage(ctx, u.notificationID)
		u.notificationID = 0
	}
}

// Render sends a screen. A screen replacing its section deletes the loading
// placeholder that was shown for it.
func (u *chatUI) Render(ctx context.Context, screen view.Screen) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !screen.Push {
		for _, id := range u.placeholders[screen.Section] {
			u.deleteMessage(ctx, id)
		}
		delete(u.placeholders, screen.Section)
	}

	messages := packScreen(screen)
	sentIDs := make([]int, 0, len(messages))

	for _, out := range messages {
		sent, err := u.sendOutgoing(ctx, out)
		if err != nil {
			u.log.ErrorContext(ctx, "Failed to send screen message",
				"error", err,
				"section", screen.Section)
			continue
		}

		sentIDs = append(sentIDs, sent.id)
		u.trackPosts(sent, out.posts)
	}

	if screen.IsLoading() {
		u.placeholders[screen.Section] = sentIDs
	}
}

// UpdatePost swaps the keyboard row of a post in every message showing it.
func (u *chatUI) UpdatePost(ctx context.Context, block view.Block) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if len(block.Rows) == 0 {
		return
	}

	for _, ref := range u.posts[block.PostID] {
		ref.message.rows[ref.row] = block.Rows[0]

		edit := tgbotapi.NewEditMessageReplyMarkup(u.chatID, ref.message.id, u.keyboard(ctx, ref.message.rows))
		if _, err := u.sender.Send(edit); err != nil {
			u.log.ErrorContext(ctx, "Failed to edit message keyboard",
				"error", err,
				"postID", block.PostID,
				"messageID", ref.message.id)
		}
	}
}

func (u *chatUI) Confirm(ctx context.Context, prompt string, confirm view.Action) {
	rows := [][]view.Button{{
		{Label: "Yes, delete", Action: confirm},
		{Label: "Cancel", Action: view.Action{Kind: view.ActionCancel}},
	}}

	u.mu.Lock()
	defer u.mu.Unlock()

	if _, err := u.send("❔ "+markdown.EscapeV2(prompt), u.keyboardRows(ctx, rows)); err != nil {
		u.log.ErrorContext(ctx, "Failed to send confirmation",
			"error", err,
			"action", confirm.Data())
	}
}

// Delete removes a message of the chat, e.g. a settled confirmation prompt.
func (u *chatUI) Delete(ctx context.Context, messageID int) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.deleteMessage(ctx, messageID)
}

func (u *chatUI) dispose() {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.stopSpinner != nil {
		u.stopSpinner()
		u.stopSpinner = nil
	}
	if u.notificationTimer != nil {
		u.notificationTimer.Stop()
		u.notificationTimer = nil
	}
}

func (u *chatUI) trackPosts(sent *sentMessage, posts map[string]int) {
	if u.trackedPosts+len(posts) > maxTrackedPosts {
		clear(u.posts)
		u.trackedPosts = 0
	}

	for id, row := range posts {
		u.posts[id] = append(u.posts[id], postMessage{message: sent, row: row})
	}
	u.trackedPosts += len(posts)
}

func (u *chatUI) deleteMessage(ctx context.Context, messageID int) {
	if _, err := u.sender.Request(tgbotapi.NewDeleteMessage(u.chatID, messageID)); err != nil {
		u.log.WarnContext(ctx, "Failed to delete message",
			"error", err,
			"messageID", messageID)
	}
}
