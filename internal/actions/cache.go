package actions

import "clawgram/internal/domain"

const maxCachedPosts = 1000

// postCache keeps the posts last rendered to the chat so likes can be applied
// optimistically. Entries are replaced by every render of the same id and are
// never reconciled with the server in between.
type postCache struct {
	posts map[string]domain.Post
}

func newPostCache() *postCache {
	return &postCache{posts: make(map[string]domain.Post)}
}

func (c *postCache) store(posts []domain.Post) {
	if len(c.posts)+len(posts) > maxCachedPosts {
		c.reset()
	}

	for _, post := range posts {
		c.posts[post.ID] = post
	}
}

func (c *postCache) get(id string) (domain.Post, bool) {
	post, ok := c.posts[id]
	return post, ok
}

// toggleLike flips liked and moves the counter with it, never below zero.
func (c *postCache) toggleLike(id string) (domain.Post, bool) {
	post, ok := c.posts[id]
	if !ok {
		return domain.Post{}, false
	}

	post.Liked = !post.Liked
	if post.Liked {
		post.Likes++
	} else {
		post.Likes = max(post.Likes-1, 0)
	}

	c.posts[id] = post

	return post, true
}

func (c *postCache) reset() {
	clear(c.posts)
}
