// Package actions implements every user intent of a chat. A Client is the
// explicit per-chat context: it owns the session, the visible section, the
// form fields and the content last rendered into each section.
package actions

import (
	"context"
	"log/slog"
	"sync"

	"clawgram/internal/claw"
	"clawgram/internal/domain"
	"clawgram/internal/session"
	"clawgram/internal/view"
)

const defaultFeedLimit = 100

// UI is the runtime surface of one chat.
type UI interface {
	claw.Feedback
	Render(ctx context.Context, screen view.Screen)
	// UpdatePost replaces a previously rendered post in place.
	UpdatePost(ctx context.Context, block view.Block)
	Confirm(ctx context.Context, prompt string, confirm view.Action)
}

// Summarizer condenses the posts of a digest.
type Summarizer interface {
	Summarize(ctx context.Context, posts []domain.Post) (string, error)
}

// Form mirrors the input fields of the chat.
type Form struct {
	PostContent    string
	PostAttachment string
	UsernameSearch string
	FollowUsername string
	ListUsername   string
}

// Options configure a Client. Summarizer is optional; digests go out without a
// summary when it is nil.
type Options struct {
	API        *claw.Client
	Storage    session.Storage
	Renderer   *view.Renderer
	FeedLimit  int
	LoginURL   func(chatID int64) string
	Summarizer Summarizer
	Log        *slog.Logger
}

type Client struct {
	chatID    int64
	ui        UI
	api       *claw.Client
	session   *session.Session
	router    *view.Router
	renderer  *view.Renderer
	feedLimit int
	loginURL  func(chatID int64) string
	summarize Summarizer
	log       *slog.Logger

	mu         sync.Mutex
	disposed   bool
	form       Form
	posts      *postCache
	containers map[domain.Section][]view.Block
}

func New(chatID int64, ui UI, opts Options) *Client {
	feedLimit := opts.FeedLimit
	if feedLimit <= 0 {
		feedLimit = defaultFeedLimit
	}

	renderer := opts.Renderer
	if renderer == nil {
		renderer = view.NewRenderer(nil)
	}

	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		chatID:     chatID,
		ui:         ui,
		api:        opts.API,
		session:    session.New(chatID, opts.Storage, log),
		router:     view.NewRouter(),
		renderer:   renderer,
		feedLimit:  feedLimit,
		loginURL:   opts.LoginURL,
		summarize:  opts.Summarizer,
		log:        log.With("chatID", chatID),
		posts:      newPostCache(),
		containers: make(map[domain.Section][]view.Block),
	}
}

func (c *Client) ChatID() int64 {
	return c.chatID
}

// lock serializes actions of the chat. It reports false once the client is
// disposed.
func (c *Client) lock() bool {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return false
	}
	return true
}

// Initialize consumes a one-time token when given, otherwise resumes the
// stored one. An authenticated chat lands on the feed.
func (c *Client) Initialize(ctx context.Context, token string) {
	if !c.lock() {
		return
	}
	defer c.mu.Unlock()

	fresh := c.session.Initialize(ctx, token)
	if !c.session.Authenticated() {
		c.ui.Render(ctx, c.unauthenticatedScreen(ctx))
		return
	}

	c.router.Show(domain.SectionFeed, true)

	if fresh {
		c.log.InfoContext(ctx, "Chat is authenticated")
		c.ui.Notify(ctx, "Authentication successful!", domain.NotificationSuccess)
	}

	c.loadFeed(ctx)
}

// Resume restores a stored session without rendering anything. It reports
// whether the chat is authenticated.
func (c *Client) Resume(ctx context.Context) bool {
	if !c.lock() {
		return false
	}
	defer c.mu.Unlock()

	c.session.Initialize(ctx, "")

	return c.session.Authenticated()
}

// Dispose drops all in-memory state. The client ignores every later action.
func (c *Client) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disposed = true
	c.reset()
}

func (c *Client) Authenticated() bool {
	return c.session.Authenticated()
}

func (c *Client) Visible() (domain.Section, bool) {
	return c.router.Visible()
}

func (c *Client) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.form
}

func (c *Client) Logout(ctx context.Context) {
	if !c.lock() {
		return
	}
	defer c.mu.Unlock()

	c.session.Logout(ctx)
	c.router.Hide()
	c.reset()

	c.ui.Render(ctx, c.unauthenticatedScreen(ctx))
	c.ui.Notify(ctx, "Logged out successfully", domain.NotificationSuccess)
}

// ShowSection makes section visible and shows what was last rendered into
// it. The feed section reloads its content.
func (c *Client) ShowSection(ctx context.Context, section domain.Section) {
	if !c.lock() {
		return
	}
	defer c.mu.Unlock()

	if !c.router.Show(section, c.session.Authenticated()) {
		if !c.session.Authenticated() {
			c.ui.Render(ctx, c.unauthenticatedScreen(ctx))
		}
		return
	}

	if section == domain.SectionFeed {
		c.loadFeed(ctx)
		return
	}

	c.ui.Render(ctx, c.screen(ctx, section))
}

// Focus switches the visible section without rendering it.
func (c *Client) Focus(section domain.Section) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.router.Show(section, c.session.Authenticated())
}

// Menu shows the visible section again, or the sign in screen.
func (c *Client) Menu(ctx context.Context) {
	if !c.lock() {
		return
	}
	defer c.mu.Unlock()

	c.renderVisible(ctx)
}

func (c *Client) ToggleTheme(ctx context.Context) {
	if !c.lock() {
		return
	}
	defer c.mu.Unlock()

	theme := c.session.ToggleTheme(ctx)
	c.log.DebugContext(ctx, "Theme is toggled", "theme", theme)

	c.renderVisible(ctx)
}

func (c *Client) ToggleDigest(ctx context.Context) {
	if !c.lock() {
		return
	}
	defer c.mu.Unlock()

	if !c.requireAuth(ctx) {
		return
	}

	enabled := !c.session.DigestEnabled(ctx)
	c.session.SetDigest(ctx, enabled)

	if enabled {
		c.ui.Notify(ctx, "Daily digest enabled", domain.NotificationSuccess)
	} else {
		c.ui.Notify(ctx, "Daily digest disabled", domain.NotificationSuccess)
	}

	c.renderVisible(ctx)
}

func (c *Client) SetPost(content, attachment string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.form.PostContent = content
	c.form.PostAttachment = attachment
}

func (c *Client) SetUsernameSearch(username string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.form.UsernameSearch = username
}

func (c *Client) SetFollowUsername(username string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.form.FollowUsername = username
}

func (c *Client) SetListUsername(username string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.form.ListUsername = username
}

func (c *Client) requireAuth(ctx context.Context) bool {
	if c.session.Authenticated() {
		return true
	}

	c.ui.Notify(ctx, "Please authenticate first", domain.NotificationError)

	return false
}

// renderContainer replaces the content of section. The UI only gets it while
// the section is visible.
func (c *Client) renderContainer(ctx context.Context, section domain.Section, blocks []view.Block) {
	c.containers[section] = blocks

	if c.router.IsHidden(section) {
		return
	}

	c.ui.Render(ctx, c.screen(ctx, section))
}

func (c *Client) renderVisible(ctx context.Context) {
	section, ok := c.router.Visible()
	if !ok || !c.session.Authenticated() {
		c.ui.Render(ctx, c.unauthenticatedScreen(ctx))
		return
	}

	c.ui.Render(ctx, c.screen(ctx, section))
}

func (c *Client) screen(ctx context.Context, section domain.Section) view.Screen {
	blocks := []view.Block{view.Intro(section, c.introState(ctx))}

	return view.Screen{
		Section:    section,
		Navigation: true,
		Blocks:     append(blocks, c.containers[section]...),
	}
}

func (c *Client) unauthenticatedScreen(ctx context.Context) view.Screen {
	return view.Screen{
		Section: domain.SectionAuth,
		Blocks:  []view.Block{view.Intro(domain.SectionAuth, c.introState(ctx))},
	}
}

func (c *Client) introState(ctx context.Context) view.IntroState {
	state := view.IntroState{
		Authenticated:  c.session.Authenticated(),
		Theme:          c.session.Theme(ctx),
		FollowUsername: c.form.FollowUsername,
		ListUsername:   c.form.ListUsername,
	}

	if state.Authenticated {
		state.Digest = c.session.DigestEnabled(ctx)
	} else if c.loginURL != nil {
		state.LoginURL = c.loginURL(c.chatID)
	}

	return state
}

func (c *Client) reset() {
	c.form = Form{}
	c.posts.reset()
	clear(c.containers)
}
