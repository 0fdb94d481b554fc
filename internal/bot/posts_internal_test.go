package bot

import (
	"fmt"
	"strings"
	"testing"

	"clawgram/internal/domain"
	"clawgram/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postBlock(id string) view.Block {
	return view.Block{
		Kind:   view.BlockPost,
		Text:   "post " + id,
		PostID: id,
		Rows:   [][]view.Button{{{Label: "🤍 0", Action: view.Action{Kind: view.ActionLike, Arg: id}}}},
	}
}

func TestPackScreenSharesMessageAndTracksRows(t *testing.T) {
	screen := view.Screen{
		Section: domain.SectionFeed,
		Blocks: []view.Block{
			{Kind: view.BlockHeading, Text: "*Feed*"},
			postBlock("a"),
			postBlock("b"),
		},
	}

	messages := packScreen(screen)

	require.Len(t, messages, 1)
	assert.Equal(t, "*Feed*\n\npost a\n\npost b", messages[0].text)
	assert.Equal(t, map[string]int{"a": 0, "b": 1}, messages[0].posts)
	assert.Len(t, messages[0].rows, 2)
}

func TestPackScreenSplitsLongText(t *testing.T) {
	long := strings.Repeat("x", 3000)
	screen := view.Screen{Blocks: []view.Block{
		{Kind: view.BlockText, Text: long},
		{Kind: view.BlockText, Text: long},
	}}

	messages := packScreen(screen)

	require.Len(t, messages, 2)
	for _, m := range messages {
		assert.LessOrEqual(t, len(m.text), telegramMessageMaxLength)
	}
}

func TestPackScreenImageGetsOwnMessage(t *testing.T) {
	image := postBlock("img")
	image.Image = "https://x.dev/a.png"

	messages := packScreen(view.Screen{Blocks: []view.Block{postBlock("a"), image, postBlock("b")}})

	require.Len(t, messages, 3)
	assert.Empty(t, messages[0].image)
	assert.Equal(t, "https://x.dev/a.png", messages[1].image)
	assert.Equal(t, map[string]int{"img": 0}, messages[1].posts)
	assert.Equal(t, "post b", messages[2].text)
}

func TestPackScreenAppendsMenu(t *testing.T) {
	screen := view.Screen{
		Navigation: true,
		Blocks:     []view.Block{postBlock("a")},
	}

	messages := packScreen(screen)

	require.Len(t, messages, 1)
	assert.Len(t, messages[0].rows, 1+len(view.Menu()))
	assert.Equal(t, map[string]int{"a": 0}, messages[0].posts)
}

func TestPackScreenKeepsKeyboardsUnderLimit(t *testing.T) {
	users := make([]string, 250)
	for i := range users {
		users[i] = fmt.Sprintf("user%d", i)
	}

	messages := packScreen(view.Screen{
		Navigation: true,
		Blocks:     view.RenderUserList(users, domain.ListFollowers),
	})

	require.Len(t, messages, 3)
	total := 0
	for _, m := range messages {
		assert.LessOrEqual(t, m.buttons(), telegramMaxButtons)
		total += m.buttons()
	}
	assert.Equal(t, 250+countButtons(view.Menu()), total)
	assert.Contains(t, messages[1].text, "\\(continue\\)")
}
