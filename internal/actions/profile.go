package actions

import (
	"context"
	"strings"

	"clawgram/internal/claw"
	"clawgram/internal/domain"
	"clawgram/internal/view"
)

func (c *Client) SearchProfile(ctx context.Context) {
	if !c.lock() {
		return
	}
	defer c.mu.Unlock()

	c.searchProfile(ctx)
}

// ViewProfile fills the search field with username and searches for it.
func (c *Client) ViewProfile(ctx context.Context, username string) {
	if !c.lock() {
		return
	}
	defer c.mu.Unlock()

	c.form.UsernameSearch = username
	c.searchProfile(ctx)
}

func (c *Client) FollowUser(ctx context.Context) {
	if !c.lock() {
		return
	}
	defer c.mu.Unlock()

	if !c.requireAuth(ctx) {
		return
	}

	username := strings.TrimSpace(c.form.FollowUsername)
	if username == "" {
		c.ui.Notify(ctx, "Please enter a username to follow", domain.NotificationError)
		return
	}

	resp := c.api.Follow(ctx, c.ui, claw.FollowRequest{Auth: c.session.Token(), Username: username})
	if resp == nil || !resp.Success {
		return
	}

	c.ui.Notify(ctx, "You are now following "+username, domain.NotificationSuccess)
	c.refreshFollowing(ctx)
}

func (c *Client) UnfollowUser(ctx context.Context) {
	if !c.lock() {
		return
	}
	defer c.mu.Unlock()

	if !c.requireAuth(ctx) {
		return
	}

	username := strings.TrimSpace(c.form.FollowUsername)
	if username == "" {
		c.ui.Notify(ctx, "Please enter a username to unfollow", domain.NotificationError)
		return
	}

	resp := c.api.Unfollow(ctx, c.ui, claw.UnfollowRequest{Auth: c.session.Token(), Username: username})
	if resp == nil || !resp.Success {
		return
	}

	c.ui.Notify(ctx, "You have unfollowed "+username, domain.NotificationSuccess)
	c.refreshFollowing(ctx)
}

func (c *Client) GetFollowers(ctx context.Context) {
	if !c.lock() {
		return
	}
	defer c.mu.Unlock()

	c.getUserList(ctx, domain.ListFollowers)
}

func (c *Client) GetFollowing(ctx context.Context) {
	if !c.lock() {
		return
	}
	defer c.mu.Unlock()

	c.getUserList(ctx, domain.ListFollowing)
}

// HandleText routes free text to the form of the visible section.
func (c *Client) HandleText(ctx context.Context, text string) {
	if !c.lock() {
		return
	}
	defer c.mu.Unlock()

	section, ok := c.router.Visible()
	if !ok || !c.session.Authenticated() {
		c.ui.Render(ctx, c.unauthenticatedScreen(ctx))
		return
	}

	switch section {
	case domain.SectionPost:
		c.form.PostContent, c.form.PostAttachment = SplitPostText(text)
		c.createPost(ctx)
	case domain.SectionSearch, domain.SectionProfile:
		c.form.UsernameSearch = strings.TrimSpace(text)
		c.searchProfile(ctx)
	case domain.SectionFollowing:
		username := strings.TrimSpace(text)
		c.form.FollowUsername = username
		c.form.ListUsername = username
		c.ui.Render(ctx, c.screen(ctx, domain.SectionFollowing))
	default:
		c.renderVisible(ctx)
	}
}

func (c *Client) searchProfile(ctx context.Context) {
	if !c.requireAuth(ctx) {
		return
	}

	username := strings.TrimSpace(c.form.UsernameSearch)
	if username == "" {
		c.ui.Notify(ctx, "Please enter a username", domain.NotificationError)
		return
	}

	c.router.Show(domain.SectionProfile, true)
	c.renderContainer(ctx, domain.SectionProfile, []view.Block{view.Loading("Loading profile...")})

	resp := c.api.Profile(ctx, c.ui, claw.ProfileRequest{Name: username})
	if resp == nil || resp.User == nil {
		c.renderContainer(ctx, domain.SectionProfile,
			[]view.Block{view.Placeholder("User not found or error loading profile.")})
		return
	}

	c.session.SetCurrentUsername(ctx, resp.User.Username)
	c.posts.store(resp.Posts)
	c.renderContainer(ctx, domain.SectionProfile, c.renderer.RenderProfile(*resp.User, resp.Posts))
}

// refreshFollowing lists who the last viewed profile follows.
func (c *Client) refreshFollowing(ctx context.Context) {
	current := c.session.CurrentUsername(ctx)
	if current == "" {
		return
	}

	c.form.ListUsername = current
	c.getUserList(ctx, domain.ListFollowing)
}

func (c *Client) getUserList(ctx context.Context, kind domain.UserListKind) {
	if !c.requireAuth(ctx) {
		return
	}

	username := strings.TrimSpace(c.form.ListUsername)
	if username == "" {
		c.ui.Notify(ctx, "Please enter a username", domain.NotificationError)
		return
	}

	c.renderContainer(ctx, domain.SectionFollowing, []view.Block{view.Loading("Loading " + string(kind) + "...")})

	var users []string
	switch kind {
	case domain.ListFollowers:
		if resp := c.api.Followers(ctx, c.ui, claw.FollowersRequest{Username: username}); resp != nil {
			users = resp.Followers
		}
	case domain.ListFollowing:
		if resp := c.api.Following(ctx, c.ui, claw.FollowingRequest{Username: username}); resp != nil {
			users = resp.Following
		}
	}

	if users == nil {
		c.renderContainer(ctx, domain.SectionFollowing,
			[]view.Block{view.Placeholder("Failed to load " + string(kind) + ". Please try again.")})
		return
	}

	c.renderContainer(ctx, domain.SectionFollowing, view.RenderUserList(users, kind))
}
