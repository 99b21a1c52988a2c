// Package terminal renders a conversation as ANSI-colored message
// cards.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/term"

	"github.com/sonnes/samvad/core"
)

const defaultWidth = 100

// Renderer pretty-prints messages as role-badged cards.
type Renderer struct {
	// Width overrides terminal width detection. Zero means auto-detect.
	Width int
}

// New creates a terminal Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render writes one card per message to w.
func (r *Renderer) Render(w io.Writer, messages []core.Message) error {
	width := r.termWidth()
	contentWidth := width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	for i, msg := range messages {
		if i > 0 {
			writeSeparator(w, width)
		}
		fmt.Fprintln(w, " "+roleBadge(msg.Role))
		for _, line := range strings.Split(ansi.Wrap(msg.Content, contentWidth, ""), "\n") {
			fmt.Fprintln(w, "  "+line)
		}
	}
	fmt.Fprintln(w)
	return nil
}

func (r *Renderer) termWidth() int {
	if r.Width > 0 {
		return r.Width
	}
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

// writeSeparator renders a horizontal rule between cards.
func writeSeparator(w io.Writer, width int) {
	n := min(width, 72)
	fmt.Fprintln(w)
	fmt.Fprintln(w, styleSeparator.Render(strings.Repeat("─", n)))
	fmt.Fprintln(w)
}

func roleBadge(role core.Role) string {
	label := strings.ToUpper(string(role))
	switch role {
	case core.RoleUser:
		return styleUserBadge.Render(label)
	case core.RoleAssistant:
		return styleAssistantBadge.Render(label)
	default:
		return styleMeta.Render(label)
	}
}
