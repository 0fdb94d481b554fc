package markdown_test

import (
	"testing"

	"clawgram/internal/markdown"

	"github.com/stretchr/testify/assert"
)

func TestEscapeV2(t *testing.T) {
	cases := map[string]string{
		"plain":            "plain",
		"hello.world":      `hello\.world`,
		"a_b*c":            `a\_b\*c`,
		"(1+1=2)!":         `\(1\+1\=2\)\!`,
		`back\slash`:       `back\\slash`,
		"2025-01-01 10:00": `2025\-01\-01 10:00`,
		"héllo 🤍 wörld.":   `héllo 🤍 wörld\.`,
	}

	for input, want := range cases {
		assert.Equal(t, want, markdown.EscapeV2(input), input)
	}
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, `*a\.b*`, markdown.Bold(markdown.EscapeV2("a.b")))
	assert.Equal(t, "_x_", markdown.Italic("x"))
}
