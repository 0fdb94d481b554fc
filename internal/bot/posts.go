package bot

import (
	"clawgram/internal/view"
)

const (
	telegramMessageMaxLength = 4096
	telegramMaxButtons       = 100
)

// outgoing is one Telegram message of a screen. posts maps a post id to its
// keyboard row.
type outgoing struct {
	text  string
	image string
	rows  [][]view.Button
	posts map[string]int
}

func (o *outgoing) buttons() int {
	return countButtons(o.rows)
}

func (o *outgoing) empty() bool {
	return o.text == "" && o.image == ""
}

// packScreen splits a screen into messages. Text blocks share a message while
// it stays under Telegram's text and keyboard limits; image blocks get their
// own photo message. The navigation menu goes under the last message.
func packScreen(screen view.Screen) []outgoing {
	var messages []outgoing
	current := outgoing{posts: map[string]int{}}

	flush := func() {
		if !current.empty() {
			messages = append(messages, current)
		}
		current = outgoing{posts: map[string]int{}}
	}

	for _, block := range screen.Blocks {
		if block.Image != "" {
			flush()

			current.text = block.Text
			current.image = block.Image
			current.rows = block.Rows
			if block.PostID != "" && len(block.Rows) > 0 {
				current.posts[block.PostID] = 0
			}

			flush()

			continue
		}

		for i, rows := range splitRows(block.Rows) {
			text := block.Text
			if i > 0 {
				text += " \\(continue\\)"
			}

			if !fits(&current, text, rows) {
				flush()
			}

			if current.text != "" {
				current.text += "\n\n"
			}
			current.text += text

			if block.PostID != "" && len(rows) > 0 {
				current.posts[block.PostID] = len(current.rows)
			}
			current.rows = append(current.rows, rows...)
		}
	}

	flush()

	if screen.Navigation {
		menu := view.Menu()

		if len(messages) == 0 || messages[len(messages)-1].buttons()+countButtons(menu) > telegramMaxButtons {
			messages = append(messages, outgoing{text: "❔ *Choose an option:*", posts: map[string]int{}})
		}

		last := &messages[len(messages)-1]
		last.rows = append(append([][]view.Button{}, last.rows...), menu...)
	}

	return messages
}

func fits(current *outgoing, text string, rows [][]view.Button) bool {
	if current.empty() {
		return true
	}

	if len(current.text)+len("\n\n")+len(text) > telegramMessageMaxLength {
		return false
	}

	return current.buttons()+countButtons(rows) <= telegramMaxButtons
}

// splitRows chunks rows so that no chunk has more buttons than a message can
// carry. A block without rows yields a single empty chunk.
func splitRows(rows [][]view.Button) [][][]view.Button {
	if len(rows) == 0 {
		return [][][]view.Button{nil}
	}

	var chunks [][][]view.Button
	var chunk [][]view.Button
	buttons := 0

	for _, row := range rows {
		if buttons+len(row) > telegramMaxButtons && len(chunk) > 0 {
			chunks = append(chunks, chunk)
			chunk = nil
			buttons = 0
		}

		chunk = append(chunk, row)
		buttons += len(row)
	}

	return append(chunks, chunk)
}

func countButtons(rows [][]view.Button) int {
	n := 0
	for _, row := range rows {
		n += len(row)
	}
	return n
}
