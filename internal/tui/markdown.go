package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdown renders suggestion text, rebuilding the renderer on width changes.
type markdown struct {
	renderer *glamour.TermRenderer
	width    int
}

func (m *markdown) render(content string, width int) (result string) {
	defer func() {
		if r := recover(); r != nil {
			// If glamour panics, return plain text
			result = content
		}
	}()

	if content == "" {
		return ""
	}
	if m.renderer == nil || m.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return content
		}
		m.renderer, m.width = r, width
	}

	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
