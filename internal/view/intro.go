package view

import (
	"clawgram/internal/domain"
	"clawgram/internal/markdown"
)

// IntroState is what a section header needs to know about the chat.
type IntroState struct {
	Authenticated  bool
	Theme          domain.Theme
	LoginURL       string
	Digest         bool
	FollowUsername string
	ListUsername   string
}

var sectionTitles = map[domain.Section]string{
	domain.SectionAuth:      "Account",
	domain.SectionPost:      "New post",
	domain.SectionSearch:    "Search",
	domain.SectionFeed:      "Feed",
	domain.SectionProfile:   "Profile",
	domain.SectionFollowing: "Follows",
}

// Intro renders the static header of a section.
func Intro(section domain.Section, state IntroState) Block {
	heading := themeGlyph(state.Theme) + " " + markdown.Bold(markdown.EscapeV2(sectionTitles[section]))

	block := Block{Kind: BlockHeading}

	switch section {
	case domain.SectionAuth:
		if !state.Authenticated {
			block.Text = heading + "\n\n" + markdown.EscapeV2("Sign in with your rotur account to use Claw.")
			if state.LoginURL != "" {
				block.Rows = [][]Button{{{Label: "🔑 Sign in", URL: state.LoginURL}}}
			}
			return block
		}

		digest := "📬 Daily digest: off"
		if state.Digest {
			digest = "📬 Daily digest: on"
		}

		block.Text = heading + "\n\n" + markdown.EscapeV2("You are signed in.")
		block.Rows = [][]Button{
			{{Label: themeGlyph(state.Theme.Toggle()) + " Switch theme", Action: Action{Kind: ActionTheme}}},
			{{Label: digest, Action: Action{Kind: ActionDigest}}},
			{{Label: "🚪 Logout", Action: Action{Kind: ActionLogout}}},
		}
	case domain.SectionPost:
		block.Text = heading + "\n\n" +
			markdown.EscapeV2("Send the post text (up to 100 characters). A trailing https link becomes the attachment.")
	case domain.SectionSearch:
		block.Text = heading + "\n\n" + markdown.EscapeV2("Send a username to open the profile.")
	case domain.SectionFeed:
		block.Text = heading
		block.Rows = [][]Button{{
			{Label: "🌍 Global feed", Action: Action{Kind: ActionLoadFeed}},
			{Label: "👥 Following feed", Action: Action{Kind: ActionLoadFollowingFeed}},
		}}
	case domain.SectionProfile:
		block.Text = heading
	case domain.SectionFollowing:
		block.Text = heading + "\n\n" +
			markdown.EscapeV2("Follow username: "+orDash(state.FollowUsername)) + "\n" +
			markdown.EscapeV2("List username: "+orDash(state.ListUsername)) + "\n\n" +
			markdown.EscapeV2("Send a username to fill both fields.")
		block.Rows = [][]Button{
			{
				{Label: "➕ Follow", Action: Action{Kind: ActionFollow}},
				{Label: "➖ Unfollow", Action: Action{Kind: ActionUnfollow}},
			},
			{
				{Label: "Followers", Action: Action{Kind: ActionListFollowers}},
				{Label: "Following", Action: Action{Kind: ActionListFollowing}},
			},
		}
	}

	return block
}

// Menu is the navigation keyboard shown under every screen of an
// authenticated chat.
func Menu() [][]Button {
	nav := func(label string, section domain.Section) Button {
		return Button{Label: label, Action: Action{Kind: ActionNavigate, Arg: string(section)}}
	}

	return [][]Button{
		{
			nav("📰 Feed", domain.SectionFeed),
			nav("✍️ Post", domain.SectionPost),
			nav("🔍 Search", domain.SectionSearch),
		},
		{
			nav("👤 Profile", domain.SectionProfile),
			nav("👥 Follows", domain.SectionFollowing),
			nav("⚙️ Account", domain.SectionAuth),
		},
	}
}

func themeGlyph(theme domain.Theme) string {
	if theme == domain.ThemeLight {
		return "☀️"
	}
	return "🌙"
}

func orDash(s string) string {
	if s == "" {
		return "not set"
	}
	return s
}
