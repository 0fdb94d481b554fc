package bot

import (
	"context"
	"fmt"
	"strings"

	"clawgram/internal/actions"
	"clawgram/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	commandStart         = "start"
	commandMenu          = "menu"
	commandFeed          = "feed"
	commandFollowingFeed = "following_feed"
	commandPost          = "post"
	commandProfile       = "profile"
	commandFollow        = "follow"
	commandUnfollow      = "unfollow"
	commandFollowers     = "followers"
	commandFollowing     = "following"
	commandLogout        = "logout"
	commandTheme         = "theme"
	commandDigest        = "digest"
)

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())
	client := b.chat(ctx, chatID).client

	switch message.Command() {
	case commandStart:
		return b.handleStartCommand(ctx, client, args, message.MessageID)
	case commandFeed:
		client.ShowSection(ctx, domain.SectionFeed)
	case commandFollowingFeed:
		client.OpenFollowingFeed(ctx)
	case commandPost:
		if args == "" {
			client.ShowSection(ctx, domain.SectionPost)
			return nil
		}

		client.SetPost(actions.SplitPostText(args))
		client.CreatePost(ctx)
	case commandProfile:
		if args == "" {
			client.ShowSection(ctx, domain.SectionSearch)
			return nil
		}

		client.ViewProfile(ctx, args)
	case commandFollow, commandUnfollow:
		if args != "" {
			client.SetFollowUsername(args)
		}
		client.Focus(domain.SectionFollowing)

		if message.Command() == commandFollow {
			client.FollowUser(ctx)
		} else {
			client.UnfollowUser(ctx)
		}
	case commandFollowers, commandFollowing:
		if args != "" {
			client.SetListUsername(args)
		}

		if !client.Focus(domain.SectionFollowing) {
			client.Menu(ctx)
			return nil
		}

		if message.Command() == commandFollowers {
			client.GetFollowers(ctx)
		} else {
			client.GetFollowing(ctx)
		}
	case commandLogout:
		client.Logout(ctx)
	case commandTheme:
		client.ToggleTheme(ctx)
	case commandDigest:
		client.ToggleDigest(ctx)
	default:
		client.Menu(ctx)
	}

	return nil
}

// handleStartCommand consumes a deep link token. The message carrying it is
// deleted first so the token does not stay in the chat history.
func (b *Bot) handleStartCommand(
	ctx context.Context,
	client *actions.Client,
	token string,
	messageID int,
) error {
	var err error

	if token != "" {
		if _, deleteErr := b.rateLimiter.Request(tgbotapi.NewDeleteMessage(client.ChatID(), messageID)); deleteErr != nil {
			err = fmt.Errorf("delete token message: %w", deleteErr)
		}
	}

	client.Initialize(ctx, token)

	return err
}
