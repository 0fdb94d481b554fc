package view

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"clawgram/internal/domain"
	"clawgram/internal/markdown"
)

const timeLayout = "2006-01-02 15:04"

var imageAttachmentRe = regexp.MustCompile(`(?i)\.(jpeg|jpg|gif|png|webp)$`)

// IsImageAttachment reports whether url should be shown inline.
func IsImageAttachment(url string) bool {
	return imageAttachmentRe.MatchString(url)
}

// Renderer turns API view models into blocks.
type Renderer struct {
	loc *time.Location
}

func NewRenderer(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}

	return &Renderer{loc: loc}
}

func (r *Renderer) RenderPosts(posts []domain.Post) []Block {
	if len(posts) == 0 {
		return []Block{Placeholder("No posts found")}
	}

	blocks := make([]Block, 0, len(posts))
	for _, post := range posts {
		blocks = append(blocks, r.RenderPost(post))
	}

	return blocks
}

// RenderPost renders a single post. Buttons close over the post id and author.
func (r *Renderer) RenderPost(post domain.Post) Block {
	var text strings.Builder

	fmt.Fprintf(&text, "👤 %s · %s\n",
		markdown.Bold(markdown.EscapeV2(post.Username)),
		markdown.Italic(markdown.EscapeV2(r.formatTime(post.Timestamp))))
	text.WriteString(markdown.EscapeV2(post.Content))

	block := Block{
		Kind:   BlockPost,
		Text:   text.String(),
		PostID: post.ID,
	}

	buttons := []Button{
		LikeButton(post),
		{Label: "👤 " + post.Username, Action: Action{Kind: ActionProfile, Arg: post.Username}},
	}

	if post.Attachment != "" {
		if IsImageAttachment(post.Attachment) {
			block.Image = post.Attachment
		} else {
			buttons = append(buttons, Button{Label: "📎 View Attachment", URL: post.Attachment})
		}
	}

	if post.IsOwner {
		buttons = append(buttons, Button{Label: "🗑 Delete", Action: Action{Kind: ActionDelete, Arg: post.ID}})
	}

	block.Rows = [][]Button{buttons}

	return block
}

func LikeButton(post domain.Post) Button {
	glyph := "🤍"
	if post.Liked {
		glyph = "❤️"
	}

	return Button{
		Label:  glyph + " " + strconv.Itoa(post.Likes),
		Action: Action{Kind: ActionLike, Arg: post.ID},
	}
}

// RenderProfile renders the stat counters followed by the profile's posts.
func (r *Renderer) RenderProfile(user domain.Profile, posts []domain.Post) []Block {
	stats := fmt.Sprintf("%s\n\n📝 Posts: %s\n👥 Followers: %s\n➡️ Following: %s",
		markdown.Bold(markdown.EscapeV2(user.Username)),
		markdown.Bold(strconv.Itoa(user.PostsCount)),
		markdown.Bold(strconv.Itoa(user.FollowersCount)),
		markdown.Bold(strconv.Itoa(user.FollowingCount)))

	blocks := []Block{{Kind: BlockHeading, Text: stats}}

	return append(blocks, r.RenderPosts(posts)...)
}

func RenderUserList(users []string, kind domain.UserListKind) []Block {
	if len(users) == 0 {
		return []Block{Placeholder(fmt.Sprintf("No %s found", kind))}
	}

	heading := Block{
		Kind: BlockHeading,
		Text: markdown.Bold(markdown.EscapeV2(strings.ToUpper(string(kind[:1])) + string(kind[1:]))),
	}

	for _, user := range users {
		heading.Rows = append(heading.Rows, []Button{{
			Label:  "👤 " + user + " · View Profile",
			Action: Action{Kind: ActionProfile, Arg: user},
		}})
	}

	return []Block{heading}
}

// Summary is a plain text block introducing a digest.
func Summary(text string) Block {
	return Block{Kind: BlockText, Text: "🧠 " + markdown.EscapeV2(text)}
}

func Placeholder(text string) Block {
	return Block{Kind: BlockPlaceholder, Text: markdown.Italic(markdown.EscapeV2(text))}
}

func Loading(text string) Block {
	return Block{Kind: BlockLoading, Text: "⏳ " + markdown.EscapeV2(text)}
}

func (r *Renderer) formatTime(timestamp int64) string {
	return time.Unix(timestamp, 0).In(r.loc).Format(timeLayout)
}
