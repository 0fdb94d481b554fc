package actions

import (
	"context"

	"clawgram/internal/claw"
	"clawgram/internal/domain"
	"clawgram/internal/view"
)

func (c *Client) CreatePost(ctx context.Context) {
	if !c.lock() {
		return
	}
	defer c.mu.Unlock()

	c.createPost(ctx)
}

func (c *Client) createPost(ctx context.Context) {
	content, attachment := normalizePost(c.form.PostContent, c.form.PostAttachment)

	if !c.requireAuth(ctx) {
		return
	}

	if msg := validatePost(content, attachment); msg != "" {
		c.ui.Notify(ctx, msg, domain.NotificationError)
		return
	}

	resp := c.api.CreatePost(ctx, c.ui, claw.CreatePostRequest{
		Auth:       c.session.Token(),
		Content:    content,
		Attachment: attachment,
	})
	if resp == nil || !resp.Success {
		return
	}

	c.ui.Notify(ctx, "Post created successfully!", domain.NotificationSuccess)
	c.form.PostContent = ""
	c.form.PostAttachment = ""

	c.loadFeed(ctx)
}

func (c *Client) LoadFeed(ctx context.Context) {
	if !c.lock() {
		return
	}
	defer c.mu.Unlock()

	c.loadFeed(ctx)
}

func (c *Client) LoadFollowingFeed(ctx context.Context) {
	if !c.lock() {
		return
	}
	defer c.mu.Unlock()

	if !c.requireAuth(ctx) {
		return
	}

	c.loadFollowingFeed(ctx)
}

// OpenFollowingFeed shows the feed section with the following feed in it.
func (c *Client) OpenFollowingFeed(ctx context.Context) {
	if !c.lock() {
		return
	}
	defer c.mu.Unlock()

	if !c.requireAuth(ctx) {
		return
	}

	c.router.Show(domain.SectionFeed, true)
	c.loadFollowingFeed(ctx)
}

func (c *Client) loadFollowingFeed(ctx context.Context) {
	c.renderContainer(ctx, domain.SectionFeed, []view.Block{view.Loading("Loading following feed...")})

	resp := c.api.FollowingFeed(ctx, c.ui, claw.FollowingFeedRequest{Auth: c.session.Token()})
	if resp == nil || resp.Posts == nil {
		c.renderContainer(ctx, domain.SectionFeed,
			[]view.Block{view.Placeholder("Failed to load following feed. Please try again.")})
		return
	}

	c.renderPosts(ctx, domain.SectionFeed, resp.Posts)
}

// FollowingDigest pushes the following feed to the chat whatever section is
// visible. Nothing is sent when the feed is empty or fails to load.
func (c *Client) FollowingDigest(ctx context.Context) bool {
	if !c.lock() {
		return false
	}
	defer c.mu.Unlock()

	if !c.session.Authenticated() {
		return false
	}

	resp := c.api.FollowingFeed(ctx, c.ui, claw.FollowingFeedRequest{Auth: c.session.Token()})
	if resp == nil || len(resp.Posts) == 0 {
		return false
	}

	c.posts.store(resp.Posts)

	blocks := []view.Block{{Kind: view.BlockHeading, Text: "📬 *Your following digest*"}}
	if summary := c.digestSummary(ctx, resp.Posts); summary != "" {
		blocks = append(blocks, view.Summary(summary))
	}

	c.ui.Render(ctx, view.Screen{
		Section:    domain.SectionFeed,
		Push:       true,
		Navigation: true,
		Blocks:     append(blocks, c.renderer.RenderPosts(resp.Posts)...),
	})

	return true
}

// digestSummary is empty when no summarizer is configured or it fails.
func (c *Client) digestSummary(ctx context.Context, posts []domain.Post) string {
	if c.summarize == nil {
		return ""
	}

	summary, err := c.summarize.Summarize(ctx, posts)
	if err != nil {
		c.log.WarnContext(ctx, "Failed to summarize digest so it is sent without summary",
			"error", err,
			"postsCount", len(posts))

		return ""
	}

	return summary
}

// ToggleLike rates the post opposite to its cached state and, on success,
// updates the cached post in place without refetching.
func (c *Client) ToggleLike(ctx context.Context, id string) {
	if !c.lock() {
		return
	}
	defer c.mu.Unlock()

	if !c.requireAuth(ctx) {
		return
	}

	post, ok := c.posts.get(id)
	if !ok {
		c.ui.Notify(ctx, "Post is no longer loaded, please reload the feed", domain.NotificationError)
		return
	}

	rating := claw.RatingLike
	if post.Liked {
		rating = claw.RatingUnlike
	}

	resp := c.api.Rate(ctx, c.ui, claw.RateRequest{
		Auth:   c.session.Token(),
		ID:     id,
		Rating: rating,
	})
	if resp == nil || !resp.Success {
		return
	}

	if rating == claw.RatingLike {
		c.ui.Notify(ctx, "Post liked!", domain.NotificationSuccess)
	} else {
		c.ui.Notify(ctx, "Post unliked!", domain.NotificationSuccess)
	}

	updated, ok := c.posts.toggleLike(id)
	if !ok {
		return
	}

	block := c.renderer.RenderPost(updated)
	for section, blocks := range c.containers {
		for i := range blocks {
			if blocks[i].PostID == id {
				c.containers[section][i] = block
			}
		}
	}

	c.ui.UpdatePost(ctx, block)
}

// DeletePost asks for confirmation first. Once confirmed it deletes the post
// and reloads the feed.
func (c *Client) DeletePost(ctx context.Context, id string, confirmed bool) {
	if !c.lock() {
		return
	}
	defer c.mu.Unlock()

	if !c.requireAuth(ctx) {
		return
	}

	if !confirmed {
		c.ui.Confirm(ctx, "Are you sure you want to delete this post?",
			view.Action{Kind: view.ActionConfirmDelete, Arg: id})
		return
	}

	resp := c.api.Delete(ctx, c.ui, claw.DeleteRequest{Auth: c.session.Token(), ID: id})
	if resp == nil || !resp.Success {
		return
	}

	c.ui.Notify(ctx, "Post deleted successfully!", domain.NotificationSuccess)

	c.loadFeed(ctx)
}

func (c *Client) loadFeed(ctx context.Context) {
	if !c.requireAuth(ctx) {
		return
	}

	c.renderContainer(ctx, domain.SectionFeed, []view.Block{view.Loading("Loading feed...")})

	resp := c.api.Feed(ctx, c.ui, claw.FeedRequest{Limit: c.feedLimit})
	if resp == nil || resp.Posts == nil {
		c.renderContainer(ctx, domain.SectionFeed,
			[]view.Block{view.Placeholder("Failed to load feed. Please try again.")})
		return
	}

	c.renderPosts(ctx, domain.SectionFeed, resp.Posts)
}

func (c *Client) renderPosts(ctx context.Context, section domain.Section, posts []domain.Post) {
	c.posts.store(posts)
	c.renderContainer(ctx, section, c.renderer.RenderPosts(posts))
}
