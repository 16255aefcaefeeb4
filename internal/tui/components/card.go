// Package components provides reusable TUI widgets for the fintree dashboard.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/fintree/internal/tui/theme"
)

// LayoutRow distributes totalWidth into n widths that sum to exactly totalWidth.
// First items absorb the remainder from integer division.
func LayoutRow(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	base := totalWidth / n
	remainder := totalWidth % n
	widths := make([]int, n)
	for i := range widths {
		widths[i] = base
		if i < remainder {
			widths[i]++
		}
	}
	return widths
}

func cardStyle(border lipgloss.Color, contentWidth int) lipgloss.Style {
	t := theme.Active
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		BorderBackground(t.Background).
		Background(t.Surface).
		Width(contentWidth).
		Padding(0, 1)
}

// MetricCard renders a small metric card with label, value, and a hint line.
// outerWidth is the total rendered width including border.
func MetricCard(label, value, hint string, valueColor lipgloss.Color, outerWidth int) string {
	t := theme.Active
	if valueColor == "" {
		valueColor = t.TextPrimary
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(valueColor).Background(t.Surface).Bold(true)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	content := labelStyle.Render(label) + "\n" + valueStyle.Render(value)
	if hint != "" {
		content += "\n" + hintStyle.Render(hint)
	}

	return cardStyle(t.Border, max(outerWidth-2, 10)).Render(content)
}

// Metric is one entry of a MetricCardRow.
type Metric struct {
	Label, Value, Hint string
	Color              lipgloss.Color
}

// MetricCardRow renders a row of metric cards side by side.
// totalWidth is the full row width; cards sum to exactly that.
func MetricCardRow(metrics []Metric, totalWidth int) string {
	if len(metrics) == 0 {
		return ""
	}

	widths := LayoutRow(totalWidth, len(metrics))
	rendered := make([]string, len(metrics))
	for i, m := range metrics {
		rendered[i] = MetricCard(m.Label, m.Value, m.Hint, m.Color, widths[i])
	}
	return CardRow(rendered)
}

// ContentCard renders a bordered content card with an optional title.
// outerWidth controls the total rendered width including border.
func ContentCard(title, body string, outerWidth int) string {
	return titledCard(title, body, theme.Active.Border, outerWidth)
}

// FocusCard is a ContentCard with an accent border.
func FocusCard(title, body string, outerWidth int) string {
	return titledCard(title, body, theme.Active.BorderAccent, outerWidth)
}

func titledCard(title, body string, border lipgloss.Color, outerWidth int) string {
	t := theme.Active
	titleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)

	content := ""
	if title != "" {
		content = titleStyle.Render(title) + "\n"
	}
	content += body

	return cardStyle(border, max(outerWidth-2, 10)).Render(content)
}

// fallbackNote is kept short enough to fit a compact card on one line.
const fallbackNote = "Saved tip, service unreachable."

// CampaignCard renders the suggestion card with its two actions.
// body is expected to be pre-rendered (plain or markdown output).
func CampaignCard(title, body string, fallback bool, outerWidth int) string {
	t := theme.Active

	btn := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Padding(0, 1)
	okBtn := lipgloss.NewStyle().Foreground(t.Background).Background(t.Accent).Bold(true).Padding(0, 1)
	gap := lipgloss.NewStyle().Background(t.Surface).Render("  ")
	note := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Italic(true)

	var b strings.Builder
	b.WriteString(body)
	if fallback {
		b.WriteString("\n")
		b.WriteString(note.Render(fallbackNote))
	}
	b.WriteString("\n\n")
	b.WriteString(btn.Render("esc Back"))
	b.WriteString(gap)
	b.WriteString(okBtn.Render("enter OK"))

	return FocusCard(title, b.String(), outerWidth)
}

// CardRow joins pre-rendered cards horizontally. Shorter cards are padded
// with background-filled lines so the row has no unstyled gaps.
func CardRow(cards []string) string {
	if len(cards) == 0 {
		return ""
	}

	height := 0
	for _, c := range cards {
		height = max(height, lipgloss.Height(c))
	}

	bg := lipgloss.NewStyle().Background(theme.Active.Background)
	padded := make([]string, len(cards))
	for i, c := range cards {
		h := lipgloss.Height(c)
		if h == height {
			padded[i] = c
			continue
		}
		filler := bg.Render(strings.Repeat(" ", lipgloss.Width(c)))
		padded[i] = c + strings.Repeat("\n"+filler, height-h)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, padded...)
}

// CardInnerWidth returns the usable text width inside a ContentCard
// given its outer width (subtracts border + padding).
func CardInnerWidth(outerWidth int) int {
	return max(outerWidth-4, 10)
}
