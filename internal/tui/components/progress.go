package components

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/fintree/internal/arc"
	"github.com/theirongolddev/fintree/internal/tui/theme"
)

// ScoreBar renders a compact bar for a normalized progress value, in the
// gauge's palette, followed by the "%N" label.
func ScoreBar(pct float64, width int) string {
	t := theme.Active
	pal := arc.PaletteFor(pct)

	bar := progress.New(
		progress.WithSolidFill(pal.Stroke),
		progress.WithWidth(max(width, 4)),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(TrackColor(pal, t.Surface))

	pctStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(pal.Stroke)).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface)

	return bar.ViewAs(arc.Normalize(pct, arc.ScalePercent)/100) +
		space.Render(" ") +
		pctStyle.Render(arc.Label(pct))
}

// RatioBar renders a 0..1 ratio (e.g. savings rate) with the accent color.
func RatioBar(ratio float64, width int) string {
	t := theme.Active
	ratio = min(max(ratio, 0), 1)

	bar := progress.New(
		progress.WithSolidFill(string(t.Accent)),
		progress.WithWidth(max(width, 4)),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)
	return bar.ViewAs(ratio)
}
