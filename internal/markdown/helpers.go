// Package markdown formats text for Telegram MarkdownV2 messages.
package markdown

import "strings"

// Reserved characters, see https://core.telegram.org/bots/api#markdownv2-style.
const reserved = "_*[]()~`>#+-=|{}.!\\"

//nolint:gochecknoglobals // Built once from reserved and never mutated.
var escaper = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(reserved))
	for _, c := range reserved {
		pairs = append(pairs, string(c), "\\"+string(c))
	}
	return strings.NewReplacer(pairs...)
}()

// EscapeV2 escapes every reserved character of s.
func EscapeV2(s string) string {
	if !strings.ContainsAny(s, reserved) {
		return s
	}
	return escaper.Replace(s)
}

// Bold wraps already escaped text.
func Bold(escaped string) string {
	return "*" + escaped + "*"
}

// Italic wraps already escaped text.
func Italic(escaped string) string {
	return "_" + escaped + "_"
}
