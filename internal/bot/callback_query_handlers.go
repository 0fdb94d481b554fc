package bot

import (
	"context"
	"errors"
	"fmt"

	"clawgram/internal/domain"
	"clawgram/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var errUnknownAction = errors.New("unknown action")

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	chatID := callbackChatID(callback)
	if chatID == 0 {
		return b.errorCallbackAnswer(callback, errors.New("callback without message"))
	}

	action, ok := view.ParseAction(callback.Data)
	if !ok {
		return b.errorCallbackAnswer(callback, fmt.Errorf("parse %q: %w", callback.Data, errUnknownAction))
	}

	c := b.chat(ctx, chatID)

	return b.withEmptyCallbackAnswer(callback, func() error {
		b.dispatch(ctx, c, action, callbackMessageID(callback))
		return nil
	})
}

func (b *Bot) dispatch(ctx context.Context, c *chat, action view.Action, messageID int) {
	client := c.client

	switch action.Kind {
	case view.ActionLike:
		client.ToggleLike(ctx, action.Arg)
	case view.ActionDelete:
		client.DeletePost(ctx, action.Arg, false)
	case view.ActionConfirmDelete:
		c.ui.Delete(ctx, messageID)
		client.DeletePost(ctx, action.Arg, true)
	case view.ActionCancel:
		c.ui.Delete(ctx, messageID)
	case view.ActionProfile:
		client.ViewProfile(ctx, action.Arg)
	case view.ActionNavigate:
		client.ShowSection(ctx, domain.Section(action.Arg))
	case view.ActionLoadFeed:
		client.LoadFeed(ctx)
	case view.ActionLoadFollowingFeed:
		client.LoadFollowingFeed(ctx)
	case view.ActionFollow:
		client.FollowUser(ctx)
	case view.ActionUnfollow:
		client.UnfollowUser(ctx)
	case view.ActionListFollowers:
		client.GetFollowers(ctx)
	case view.ActionListFollowing:
		client.GetFollowing(ctx)
	case view.ActionLogout:
		client.Logout(ctx)
	case view.ActionTheme:
		client.ToggleTheme(ctx)
	case view.ActionDigest:
		client.ToggleDigest(ctx)
	}
}

func (b *Bot) withEmptyCallbackAnswer(
	callback *tgbotapi.CallbackQuery,
	fn func() error,
) error {
	var errs []error

	if _, err := b.rateLimiter.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		errs = append(errs, b.errorCallbackAnswer(callback, fmt.Errorf("send request: %w", err)))
	}

	err := fn()
	if err != nil {
		errs = append(errs, fmt.Errorf("call fn: %w", err))
	}

	return errors.Join(errs...)
}

func (b *Bot) errorCallbackAnswer(
	callback *tgbotapi.CallbackQuery,
	err error,
) error {
	if _, sendErr := b.rateLimiter.Request(tgbotapi.NewCallback(callback.ID, "❌ Failed.")); sendErr != nil {
		return errors.Join(err, fmt.Errorf("send request: %w", sendErr))
	}
	return err
}
