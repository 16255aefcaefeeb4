package components

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/theirongolddev/fintree/internal/arc"
	"github.com/theirongolddev/fintree/internal/tui/theme"
)

// GaugeCell classifies one terminal cell of a rasterized gauge.
type GaugeCell uint8

// Gauge cell kinds.
const (
	CellEmpty GaugeCell = iota
	CellTrack           // background arc
	CellFill            // arc up to the current angle
	CellDot             // progress indicator
)

// RasterizeGauge samples a frame onto a cols×rows grid. Terminal cells are
// about twice as tall as wide, so callers pass cols ≈ 2·rows for a round arc.
func RasterizeGauge(f arc.Frame, cols, rows int) [][]GaugeCell {
	cols, rows = max(cols, 4), max(rows, 2)
	grid := make([][]GaugeCell, rows)

	cellW := f.Diameter / float64(cols)
	cellH := f.Diameter / float64(rows)
	// The band must be at least one cell thick or the ring breaks up.
	half := math.Max(f.StrokeWidth/2, math.Max(cellW, cellH)*0.55)

	for r := range grid {
		grid[r] = make([]GaugeCell, cols)
		y := (float64(r) + 0.5) * cellH
		for c := range grid[r] {
			x := (float64(c) + 0.5) * cellW
			dx, dy := x-f.Center.X, y-f.Center.Y
			if math.Abs(math.Hypot(dx, dy)-f.Radius) > half {
				continue
			}
			deg := math.Atan2(dy, dx) * 180 / math.Pi
			for deg < f.StartAngle {
				deg += 360
			}
			switch {
			case deg > f.EndAngle:
				// inside the bottom gap
			case f.Progress > 0 && deg <= f.CurrentAngle:
				grid[r][c] = CellFill
			default:
				grid[r][c] = CellTrack
			}
		}
	}

	if f.Indicator != nil {
		c := clampInt(int(f.Indicator.X/cellW), 0, cols-1)
		r := clampInt(int(f.Indicator.Y/cellH), 0, rows-1)
		grid[r][c] = CellDot
	}
	return grid
}

// Gauge renders a frame as colored terminal text: the arc, the centered
// percentage label and a "%0 … %100" row underneath.
func Gauge(f arc.Frame, rows int) string {
	t := theme.Active
	rows = max(rows, 5)
	cols := rows * 2
	grid := RasterizeGauge(f, cols, rows)

	stroke := lipgloss.Color(f.Palette.Stroke)
	track := TrackColor(f.Palette, t.Surface)

	bg := lipgloss.NewStyle().Background(t.Surface)
	fillStyle := lipgloss.NewStyle().Foreground(stroke).Background(t.Surface)
	trackStyle := lipgloss.NewStyle().Foreground(track).Background(t.Surface)
	dotStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(stroke).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(stroke).Background(t.Surface).Bold(true)
	endStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	label := f.Label
	labelRow := rows / 2
	labelCol := (cols - len(label)) / 2

	var b strings.Builder
	for r, line := range grid {
		c := 0
		for c < cols {
			if r == labelRow && c == labelCol {
				b.WriteString(labelStyle.Render(label))
				c += len(label)
				continue
			}
			switch line[c] {
			case CellFill:
				b.WriteString(fillStyle.Render("█"))
			case CellTrack:
				b.WriteString(trackStyle.Render("█"))
			case CellDot:
				b.WriteString(dotStyle.Render("●"))
			default:
				b.WriteString(bg.Render(" "))
			}
			c++
		}
		b.WriteString("\n")
	}

	// End labels sit below the arc ends, like the %0 / %100 captions in the app.
	minLbl, maxLbl := "%0", "%100"
	gap := max(cols-len(minLbl)-len(maxLbl)-2, 1)
	b.WriteString(bg.Render(" "))
	b.WriteString(endStyle.Render(minLbl))
	b.WriteString(bg.Render(strings.Repeat(" ", gap)))
	b.WriteString(endStyle.Render(maxLbl))
	b.WriteString(bg.Render(" "))

	return b.String()
}

// TrackColor flattens the palette's translucent track over a background,
// since terminals have no alpha. Non-hex backgrounds (ANSI themes) fall back
// to the stroke color.
func TrackColor(p arc.Palette, background lipgloss.Color) lipgloss.Color {
	stroke, err := colorful.Hex(p.Stroke)
	if err != nil {
		return lipgloss.Color(p.Stroke)
	}
	base, err := colorful.Hex(string(background))
	if err != nil {
		return lipgloss.Color(p.Stroke)
	}
	alpha := p.TrackAlpha
	if alpha <= 0 || alpha > 1 {
		alpha = 0.18
	}
	// Raise the alpha a little: 18% over a dark terminal is nearly invisible.
	return lipgloss.Color(base.BlendRgb(stroke, math.Min(alpha*2, 1)).Clamped().Hex())
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
