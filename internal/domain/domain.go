package domain

// Durable per-chat storage keys.
const (
	KeyAuth            = "authKey"
	KeyCurrentUsername = "currentUsername"
	KeyTheme           = "theme"
	KeyDigest          = "digest"

	DigestOn = "on"
)

type Post struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Content    string `json:"content"`
	Attachment string `json:"attachment,omitempty"`
	Timestamp  int64  `json:"timestamp"`
	Liked      bool   `json:"liked"`
	Likes      int    `json:"likes"`
	IsOwner    bool   `json:"is_owner"`
}

type Profile struct {
	Username       string `json:"username"`
	PostsCount     int    `json:"posts_count"`
	FollowersCount int    `json:"followers_count"`
	FollowingCount int    `json:"following_count"`
}

type Section string

const (
	SectionAuth      Section = "auth"
	SectionPost      Section = "post"
	SectionSearch    Section = "search"
	SectionFeed      Section = "feed"
	SectionProfile   Section = "profile"
	SectionFollowing Section = "following"
)

// Sections lists every section in navigation order.
func Sections() []Section {
	return []Section{
		SectionAuth,
		SectionPost,
		SectionSearch,
		SectionFeed,
		SectionProfile,
		SectionFollowing,
	}
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

type UserListKind string

const (
	ListFollowers UserListKind = "followers"
	ListFollowing UserListKind = "following"
)
