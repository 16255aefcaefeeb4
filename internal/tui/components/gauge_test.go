package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/fintree/internal/arc"
	"github.com/theirongolddev/fintree/internal/tui/theme"
)

func count(grid [][]GaugeCell, kind GaugeCell) int {
	n := 0
	for _, row := range grid {
		for _, c := range row {
			if c == kind {
				n++
			}
		}
	}
	return n
}

func TestRasterizeGauge_ZeroHasNoFillOrDot(t *testing.T) {
	grid := RasterizeGauge(arc.Render(0, arc.DefaultGeometry, nil), 24, 12)
	if n := count(grid, CellFill); n != 0 {
		t.Errorf("fill cells at 0%% = %d, want 0", n)
	}
	if n := count(grid, CellDot); n != 0 {
		t.Errorf("dot cells at 0%% = %d, want 0", n)
	}
	if count(grid, CellTrack) == 0 {
		t.Error("no track cells drawn")
	}
}

func TestRasterizeGauge_ExactlyOneDotAboveZero(t *testing.T) {
	for _, p := range []float64{1, 40, 75, 100} {
		grid := RasterizeGauge(arc.Render(p, arc.DefaultGeometry, nil), 24, 12)
		if n := count(grid, CellDot); n != 1 {
			t.Errorf("progress %v: %d dots, want 1", p, n)
		}
	}
}

func TestRasterizeGauge_FillGrowsWithProgress(t *testing.T) {
	prev := -1
	for p := 0.0; p <= 100; p += 10 {
		grid := RasterizeGauge(arc.Render(p, arc.DefaultGeometry, nil), 24, 12)
		n := count(grid, CellFill) + count(grid, CellDot)
		if n < prev {
			t.Fatalf("progress %v: %d filled cells, fewer than %d before", p, n, prev)
		}
		prev = n
	}

	full := RasterizeGauge(arc.Render(100, arc.DefaultGeometry, nil), 24, 12)
	if n := count(full, CellTrack); n != 0 {
		t.Errorf("full gauge still has %d track cells", n)
	}
}

func TestRasterizeGauge_GapAtBottom(t *testing.T) {
	grid := RasterizeGauge(arc.Render(100, arc.DefaultGeometry, nil), 24, 12)
	bottom := grid[len(grid)-1]
	mid := len(bottom) / 2
	if bottom[mid] != CellEmpty || bottom[mid-1] != CellEmpty {
		t.Errorf("bottom center should be the gap, got %v", bottom)
	}
	top := grid[0]
	if top[mid] == CellEmpty && top[mid-1] == CellEmpty {
		t.Errorf("top center should be on the arc, got %v", top)
	}
}

func TestGauge_RendersLabels(t *testing.T) {
	theme.SetActive("flexoki-dark")
	out := Gauge(arc.Render(75, arc.DefaultGeometry, nil), 10)
	for _, want := range []string{"%75", "%0", "%100"} {
		if !strings.Contains(out, want) {
			t.Errorf("gauge missing %q", want)
		}
	}
	lines := strings.Split(out, "\n")
	if len(lines) != 11 {
		t.Errorf("gauge has %d lines, want 11", len(lines))
	}
	for i, l := range lines {
		if w := lipgloss.Width(l); w != 20 {
			t.Errorf("line %d width %d, want 20", i, w)
		}
	}
}

func TestTrackColor(t *testing.T) {
	got := TrackColor(arc.Healthy, lipgloss.Color("#000000"))
	if got == lipgloss.Color(arc.Healthy.Stroke) || !strings.HasPrefix(string(got), "#") {
		t.Errorf("TrackColor over black = %q, want a darker blend", got)
	}
	// ANSI background can't be blended
	if got := TrackColor(arc.Warning, lipgloss.Color("0")); got != lipgloss.Color(arc.Warning.Stroke) {
		t.Errorf("TrackColor over ANSI = %q, want stroke", got)
	}
}
