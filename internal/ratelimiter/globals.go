package ratelimiter

import (
	"time"
)

// Telegram allows about one message per second in a private chat, twenty per
// minute in a group and thirty per second overall.
const (
	privateChatInterval = time.Second
	groupChatInterval   = 3 * time.Second
	globalPerSecond     = 30
	maxPending          = 1000
)
