package actions

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"mvdan.cc/xurls/v2"
)

const (
	maxContentLength    = 100
	maxAttachmentLength = 500
)

const (
	msgContentRequired   = "Please enter post content"
	msgContentTooLong    = "Post content is too long (max 100 characters)"
	msgAttachmentTooLong = "Attachment URL is too long (max 500 characters)"
)

//nolint:gochecknoglobals // Compiled once, read-only.
var strictURLs = xurls.Strict()

// normalizePost trims the post fields and brings them to NFC, the form that is
// both measured and sent.
func normalizePost(content, attachment string) (string, string) {
	return norm.NFC.String(strings.TrimSpace(content)), norm.NFC.String(strings.TrimSpace(attachment))
}

// validatePost checks normalized post fields and returns the message to show,
// or an empty string.
func validatePost(content, attachment string) string {
	switch {
	case content == "":
		return msgContentRequired
	case utf8.RuneCountInString(content) > maxContentLength:
		return msgContentTooLong
	case utf8.RuneCountInString(attachment) > maxAttachmentLength:
		return msgAttachmentTooLong
	default:
		return ""
	}
}

// SplitPostText treats a trailing https URL in text as the attachment.
func SplitPostText(text string) (content, attachment string) {
	text = strings.TrimSpace(text)

	locs := strictURLs.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text, ""
	}

	last := locs[len(locs)-1]
	url := text[last[0]:last[1]]

	if last[1] != len(text) || !strings.HasPrefix(strings.ToLower(url), "https://") {
		return text, ""
	}

	return strings.TrimSpace(text[:last[0]]), url
}
