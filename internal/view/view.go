// Package view describes what a chat should display. Renderers return
// declarative screens; the bot package turns them into Telegram messages.
package view

import (
	"strings"

	"clawgram/internal/domain"
)

type BlockKind int

const (
	BlockText BlockKind = iota
	BlockHeading
	BlockLoading
	BlockPlaceholder
	BlockPost
)

// Block is one unit of content. Text is Telegram MarkdownV2.
type Block struct {
	Kind   BlockKind
	Text   string
	PostID string
	Image  string
	Rows   [][]Button
}

// Screen is the full content of one section. A Push screen is delivered
// alongside whatever the section already shows instead of replacing it.
// Navigation asks for the section menu under the screen.
type Screen struct {
	Section    domain.Section
	Push       bool
	Navigation bool
	Blocks     []Block
}

// IsLoading reports whether the screen only waits for a result.
func (s Screen) IsLoading() bool {
	for _, b := range s.Blocks {
		if b.Kind == BlockLoading {
			return true
		}
	}
	return false
}

// Button either triggers an Action or opens URL.
type Button struct {
	Label  string
	Action Action
	URL    string
}

type ActionKind string

const (
	ActionLike              ActionKind = "like"
	ActionDelete            ActionKind = "del"
	ActionConfirmDelete     ActionKind = "delok"
	ActionCancel            ActionKind = "cancel"
	ActionProfile           ActionKind = "prof"
	ActionNavigate          ActionKind = "nav"
	ActionLoadFeed          ActionKind = "feed"
	ActionLoadFollowingFeed ActionKind = "ffeed"
	ActionFollow            ActionKind = "follow"
	ActionUnfollow          ActionKind = "unfollow"
	ActionListFollowers     ActionKind = "followers"
	ActionListFollowing     ActionKind = "following"
	ActionLogout            ActionKind = "logout"
	ActionTheme             ActionKind = "theme"
	ActionDigest            ActionKind = "digest"
)

// Telegram rejects callback data longer than this.
const MaxActionDataLen = 64

// Action is a user intent bound to a button. Arg closes over the post id or
// username the button was rendered for.
type Action struct {
	Kind ActionKind
	Arg  string
}

func (a Action) IsZero() bool {
	return a.Kind == ""
}

// Data encodes the action as callback data.
func (a Action) Data() string {
	if a.Arg == "" {
		return string(a.Kind)
	}
	return string(a.Kind) + ":" + a.Arg
}

func ParseAction(data string) (Action, bool) {
	data = strings.TrimSpace(data)
	if data == "" {
		return Action{}, false
	}

	kind, arg, _ := strings.Cut(data, ":")

	switch a := (Action{Kind: ActionKind(kind), Arg: arg}); a.Kind {
	case ActionLike, ActionDelete, ActionConfirmDelete, ActionProfile, ActionNavigate:
		return a, a.Arg != ""
	case ActionCancel, ActionLoadFeed, ActionLoadFollowingFeed, ActionFollow, ActionUnfollow,
		ActionListFollowers, ActionListFollowing, ActionLogout, ActionTheme, ActionDigest:
		return a, true
	default:
		return Action{}, false
	}
}
