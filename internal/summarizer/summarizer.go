// Package summarizer condenses a batch of posts into a short overview for the
// scheduled digest.
package summarizer

import (
	"context"
	"strings"

	"clawgram/internal/domain"
)

// maxPromptPosts caps how many posts are sent to the model.
const maxPromptPosts = 50

// Summarizer produces a single summary for a batch of posts.
type Summarizer interface {
	Summarize(ctx context.Context, posts []domain.Post) (string, error)
}

// digestPrompt lists posts one per line as "@username: content".
func digestPrompt(posts []domain.Post) string {
	var b strings.Builder

	for i, post := range posts {
		if i == maxPromptPosts {
			break
		}

		content := strings.Join(strings.Fields(post.Content), " ")
		if content == "" {
			continue
		}

		b.WriteString("@")
		b.WriteString(post.Username)
		b.WriteString(": ")
		b.WriteString(content)
		if post.Attachment != "" {
			b.WriteString(" [attachment]")
		}
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String())
}
