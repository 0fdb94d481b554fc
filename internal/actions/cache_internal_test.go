package actions

import (
	"strconv"
	"strings"
	"testing"

	"clawgram/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostCacheToggleNeverBelowZero(t *testing.T) {
	c := newPostCache()
	c.store([]domain.Post{{ID: "p1", Liked: true, Likes: 0}})

	post, ok := c.toggleLike("p1")
	require.True(t, ok)
	assert.False(t, post.Liked)
	assert.Equal(t, 0, post.Likes)
}

func TestPostCacheStoreReplacesEntries(t *testing.T) {
	c := newPostCache()
	c.store([]domain.Post{{ID: "p1", Likes: 1}})
	c.toggleLike("p1")

	c.store([]domain.Post{{ID: "p1", Likes: 9}})

	post, ok := c.get("p1")
	require.True(t, ok)
	assert.Equal(t, 9, post.Likes)
	assert.False(t, post.Liked)
}

func TestPostCacheIsBounded(t *testing.T) {
	c := newPostCache()
	posts := make([]domain.Post, maxCachedPosts)
	for i := range posts {
		posts[i].ID = strconv.Itoa(i)
	}
	c.store(posts)

	c.store([]domain.Post{{ID: "new"}})

	_, ok := c.get("new")
	assert.True(t, ok)
	assert.LessOrEqual(t, len(c.posts), maxCachedPosts)
}

func TestSplitPostText(t *testing.T) {
	cases := []struct {
		text       string
		content    string
		attachment string
	}{
		{"hello", "hello", ""},
		{"  hello  ", "hello", ""},
		{"hello https://x.dev/a.png", "hello", "https://x.dev/a.png"},
		{"https://x.dev/a.png is nice", "https://x.dev/a.png is nice", ""},
		{"hello http://x.dev/a.png", "hello http://x.dev/a.png", ""},
	}

	for _, tc := range cases {
		content, attachment := SplitPostText(tc.text)
		assert.Equal(t, tc.content, content, tc.text)
		assert.Equal(t, tc.attachment, attachment, tc.text)
	}
}

func TestValidatePost(t *testing.T) {
	assert.Equal(t, msgContentRequired, validatePost("", ""))
	assert.Empty(t, validatePost("hi", ""))
	assert.Empty(t, validatePost(strings.Repeat("a", 100), ""))
	assert.Equal(t, msgContentTooLong, validatePost(strings.Repeat("a", 101), ""))
	assert.Equal(t, msgAttachmentTooLong, validatePost("hi", strings.Repeat("a", 501)))
}

func TestNormalizePostComposesCharacters(t *testing.T) {
	content, attachment := normalizePost("  "+strings.Repeat("e\u0301", 100)+"  ", " https://x.dev/a ")

	assert.Equal(t, strings.Repeat("\u00e9", 100), content)
	assert.Equal(t, "https://x.dev/a", attachment)
	assert.Empty(t, validatePost(content, attachment))

	content, _ = normalizePost(strings.Repeat("e\u0301", 101), "")
	assert.Equal(t, msgContentTooLong, validatePost(content, ""))
}
