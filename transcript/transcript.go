// Package transcript recovers an ordered, role-tagged conversation
// from the flat transcript buffer. The file carries no message
// metadata: turns are separated by core.Delimiter, roles alternate
// starting with the user, and the live user message is whatever sits
// between the last delimiter and the last terminator. Everything here
// is a pure function over (content, cursorPos); the driver owns the
// only mutable state.
package transcript

import (
	"strings"

	"github.com/sonnes/samvad/core"
)

// Parse splits content on the delimiter into role-tagged messages.
// Roles follow segment position in the raw split (even index → user,
// odd → assistant); blank segments are dropped after role assignment
// so they do not shift the parity of later turns. The result is
// truncated to the last maxMessages entries; maxMessages <= 0 means
// unbounded.
func Parse(content string, maxMessages int) []core.Message {
	parts := strings.Split(content, core.Delimiter)

	messages := make([]core.Message, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		role := core.RoleUser
		if i%2 == 1 {
			role = core.RoleAssistant
		}
		messages = append(messages, core.Message{Role: role, Content: part})
	}

	if maxMessages > 0 && len(messages) > maxMessages {
		messages = messages[len(messages)-maxMessages:]
	}
	return messages
}

// Cursor returns the byte offset of the last terminator occurrence in
// content, and false when the buffer contains none.
func Cursor(content string) (int, bool) {
	idx := strings.LastIndex(content, core.Terminator)
	return idx, idx >= 0
}

// IsAssistantTurn reports whether the turn ending at cursorPos was
// authored by the assistant. Assistant replies always end with the
// delimiter, so a whitespace-only gap between the last delimiter and
// the cursor means the assistant spoke last. With no delimiter before
// the cursor the turn is the user's: the first turn always is.
func IsAssistantTurn(content string, cursorPos int) bool {
	head := content[:cursorPos]
	last := strings.LastIndex(head, core.Delimiter)
	if last < 0 {
		return false
	}
	after := head[last+len(core.Delimiter):]
	return strings.TrimSpace(after) == ""
}

// NewMessage extracts the user message that ends at cursorPos.
//
// The common case is the text between the last delimiter and the
// cursor. When that gap is blank the user typed directly above an
// auto-appended delimiter, so the live message is the one sitting
// between the last two delimiters; with a single delimiter in the
// buffer it is everything before it. No delimiter at all means the
// whole prefix is the first-ever message.
func NewMessage(content string, cursorPos int) string {
	head := content[:cursorPos]
	last := strings.LastIndex(head, core.Delimiter)
	if last < 0 {
		return strings.TrimSpace(head)
	}

	if msg := strings.TrimSpace(head[last+len(core.Delimiter):]); msg != "" {
		return msg
	}

	prev := strings.LastIndex(head[:last], core.Delimiter)
	if prev < 0 {
		return strings.TrimSpace(head[:last])
	}
	return strings.TrimSpace(head[prev+len(core.Delimiter) : last])
}

// History parses the committed conversation preceding the turn that
// ends at cursorPos, capped at maxMessages. The in-progress user text
// after the last delimiter is excluded; callers append it as its own
// message.
func History(content string, cursorPos, maxMessages int) []core.Message {
	last := strings.LastIndex(content[:cursorPos], core.Delimiter)
	if last < 0 {
		return nil
	}
	return Parse(content[:last], maxMessages)
}
