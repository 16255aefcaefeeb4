package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/fintree/internal/tui/theme"
)

// Sparkline renders a unicode sparkline from values. Values are plotted on
// a fixed 0..100 axis so score history keeps its shape across refreshes.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	var buf strings.Builder
	buf.Grow(len(values) * 3) // UTF-8 block chars are 3 bytes
	for _, v := range values {
		idx := int(v / 100 * float64(len(blocks)-1))
		buf.WriteRune(blocks[clampInt(idx, 0, len(blocks)-1)])
	}

	return style.Render(buf.String())
}

// Bar is one labeled horizontal bar.
type Bar struct {
	Label string
	Value float64
	Text  string // value as displayed
	Color lipgloss.Color
}

// HBars renders horizontal bars scaled to the largest value.
func HBars(bars []Bar, width int) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active

	labelW, textW := 0, 0
	peak := 0.0
	for _, b := range bars {
		labelW = max(labelW, lipgloss.Width(b.Label))
		textW = max(textW, lipgloss.Width(b.Text))
		peak = max(peak, b.Value)
	}
	if peak <= 0 {
		peak = 1
	}
	barW := max(width-labelW-textW-2, 4)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	lines := make([]string, len(bars))
	for i, b := range bars {
		n := clampInt(int(b.Value/peak*float64(barW)), 0, barW)
		fill := lipgloss.NewStyle().Foreground(b.Color).Background(t.Surface)
		lines[i] = labelStyle.Render(fmt.Sprintf("%-*s", labelW, b.Label)) +
			space.Render(" ") +
			fill.Render(strings.Repeat("█", n)) +
			space.Render(strings.Repeat(" ", barW-n)) +
			space.Render(" ") +
			textStyle.Render(fmt.Sprintf("%*s", textW, b.Text))
	}
	return strings.Join(lines, "\n")
}
