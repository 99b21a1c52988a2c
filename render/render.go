// Package render defines the output interface for transcript viewing.
package render

import (
	"io"

	"github.com/sonnes/samvad/core"
)

// Renderer writes a parsed conversation to an output stream.
type Renderer interface {
	Render(w io.Writer, messages []core.Message) error
}
