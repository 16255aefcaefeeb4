package arc

import (
	"math"
	"testing"
)

const eps = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		raw   float64
		scale Scale
		want  float64
	}{
		{"percent zero", 0, ScalePercent, 0},
		{"percent mid", 62.5, ScalePercent, 62.5},
		{"percent over", 140, ScalePercent, 100},
		{"percent negative", -3, ScalePercent, 0},
		{"permille mid", 750, ScalePermille, 75},
		{"permille full", 1000, ScalePermille, 100},
		{"permille over", 4000, ScalePermille, 100},
		{"nan", math.NaN(), ScalePercent, 0},
		{"inf", math.Inf(1), ScalePermille, 100},
		{"neg inf", math.Inf(-1), ScalePercent, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw, tt.scale); got != tt.want {
				t.Errorf("Normalize(%v, %d) = %v, want %v", tt.raw, tt.scale, got, tt.want)
			}
		})
	}
}

func TestNormalize_BoundedAndMonotonic(t *testing.T) {
	for _, scale := range []Scale{ScalePercent, ScalePermille} {
		prev := -1.0
		prevTier := 0
		for s := 0.0; s <= scale.Max(); s += 0.5 {
			p := Normalize(s, scale)
			if p < 0 || p > 100 {
				t.Fatalf("scale %d: Normalize(%v) = %v, outside [0,100]", scale, s, p)
			}
			if p < prev {
				t.Fatalf("scale %d: Normalize(%v) = %v < previous %v", scale, s, p, prev)
			}
			prev = p

			tier := DefaultTiers.Select(p)
			if tier.Index < 1 || tier.Index > tier.Count {
				t.Fatalf("scale %d: tier %d outside [1,%d] at progress %v", scale, tier.Index, tier.Count, p)
			}
			if tier.Index < prevTier {
				t.Fatalf("scale %d: tier went down from %d to %d at progress %v", scale, prevTier, tier.Index, p)
			}
			prevTier = tier.Index

			angle := AngleFor(p)
			if angle < StartAngle-eps || angle > EndAngle+eps {
				t.Fatalf("angle %v outside [%v,%v]", angle, StartAngle, EndAngle)
			}
		}
	}
}

func TestParseScale(t *testing.T) {
	if s, err := ParseScale(1000); err != nil || s != ScalePermille {
		t.Fatalf("ParseScale(1000) = %v, %v", s, err)
	}
	if s, err := ParseScale(100); err != nil || s != ScalePercent {
		t.Fatalf("ParseScale(100) = %v, %v", s, err)
	}
	if _, err := ParseScale(10); err == nil {
		t.Fatal("ParseScale(10) should fail")
	}
}

func TestRender_ZeroScore(t *testing.T) {
	f := Render(Normalize(0, ScalePermille), DefaultGeometry, nil)

	if f.Progress != 0 {
		t.Errorf("Progress = %v, want 0", f.Progress)
	}
	if f.Indicator != nil {
		t.Errorf("Indicator = %+v, want none at zero progress", *f.Indicator)
	}
	if f.Tier.Index != 1 {
		t.Errorf("Tier = %d, want lowest (1)", f.Tier.Index)
	}
	if f.Label != "%0" {
		t.Errorf("Label = %q, want %%0", f.Label)
	}
	if f.CurrentAngle != StartAngle {
		t.Errorf("CurrentAngle = %v, want %v", f.CurrentAngle, StartAngle)
	}
	if f.Palette.Name != Warning.Name {
		t.Errorf("Palette = %s, want warning", f.Palette.Name)
	}
}

func TestRender_FullScore(t *testing.T) {
	f := Render(Normalize(1000, ScalePermille), DefaultGeometry, nil)

	if f.Progress != 100 {
		t.Errorf("Progress = %v, want 100", f.Progress)
	}
	if f.CurrentAngle != EndAngle {
		t.Errorf("CurrentAngle = %v, want %v", f.CurrentAngle, EndAngle)
	}
	if f.Indicator == nil {
		t.Fatal("Indicator missing at full progress")
	}
	// 405° == 45°: lower right of a 152px radius around (160,160)
	want := 160 + 152*math.Sqrt2/2
	if !approx(f.Indicator.X, want) || !approx(f.Indicator.Y, want) {
		t.Errorf("Indicator = (%v,%v), want (%v,%v)", f.Indicator.X, f.Indicator.Y, want, want)
	}
	if f.Tier.Index != f.Tier.Count {
		t.Errorf("Tier = %d/%d, want highest", f.Tier.Index, f.Tier.Count)
	}
	if f.Label != "%100" {
		t.Errorf("Label = %q, want %%100", f.Label)
	}
	if f.Palette.Name != Healthy.Name {
		t.Errorf("Palette = %s, want healthy", f.Palette.Name)
	}
}

func TestRender_ThreeQuarters(t *testing.T) {
	f := Render(Normalize(750, ScalePermille), DefaultGeometry, nil)

	if f.Progress != 75 {
		t.Fatalf("Progress = %v, want 75", f.Progress)
	}
	if !approx(f.CurrentAngle, StartAngle+202.5) {
		t.Errorf("CurrentAngle = %v, want %v", f.CurrentAngle, StartAngle+202.5)
	}
	rad := (StartAngle + 202.5) * math.Pi / 180
	wantX := 160 + 152*math.Cos(rad)
	wantY := 160 + 152*math.Sin(rad)
	if f.Indicator == nil || !approx(f.Indicator.X, wantX) || !approx(f.Indicator.Y, wantY) {
		t.Errorf("Indicator = %+v, want (%v,%v)", f.Indicator, wantX, wantY)
	}
	// ceil(0.75 * 10) = 8
	if f.Tier.Index != 8 || f.Tier.Asset != "tree8" {
		t.Errorf("Tier = %+v, want index 8 / tree8", f.Tier)
	}
	if f.Label != "%75" {
		t.Errorf("Label = %q, want %%75", f.Label)
	}
}

func TestRender_IndicatorOnlyAboveZero(t *testing.T) {
	for _, p := range []float64{0.001, 1, 39.5, 40, 99.9} {
		f := Render(p, DefaultGeometry, nil)
		if f.Indicator == nil {
			t.Fatalf("progress %v: expected exactly one indicator", p)
		}
		want := PointAt(f.Center, f.Radius, AngleFor(p))
		if !approx(f.Indicator.X, want.X) || !approx(f.Indicator.Y, want.Y) {
			t.Errorf("progress %v: indicator %+v, want %+v", p, *f.Indicator, want)
		}
		dist := math.Hypot(f.Indicator.X-f.Center.X, f.Indicator.Y-f.Center.Y)
		if !approx(dist, f.Radius) {
			t.Errorf("progress %v: indicator %v from center, want radius %v", p, dist, f.Radius)
		}
	}
}

func TestRender_GapCenteredAtBottom(t *testing.T) {
	f := Render(50, DefaultGeometry, nil)
	start := PointAt(f.Center, f.Radius, f.StartAngle)
	end := PointAt(f.Center, f.Radius, f.EndAngle)

	// Endpoints mirror across the vertical axis and sit below center.
	if !approx(start.Y, end.Y) || start.Y <= f.Center.Y {
		t.Errorf("arc endpoints %+v / %+v not level below center", start, end)
	}
	if !approx(f.Center.X-start.X, end.X-f.Center.X) {
		t.Errorf("arc endpoints %+v / %+v not symmetric", start, end)
	}
	// Halfway is straight up (270°).
	mid := *f.Indicator
	if !approx(mid.X, f.Center.X) || !approx(mid.Y, f.Center.Y-f.Radius) {
		t.Errorf("50%% indicator = %+v, want top of circle", mid)
	}
}

func TestRender_TrackPath(t *testing.T) {
	f := Render(10, DefaultGeometry, nil)
	want := "M 52.52 267.48 A 152 152 0 1 1 267.48 267.48"
	if f.TrackPath != want {
		t.Errorf("TrackPath = %q, want %q", f.TrackPath, want)
	}
}

func TestRender_GuardsGeometry(t *testing.T) {
	tests := []struct {
		name string
		g    Geometry
		want Geometry
	}{
		{"zero diameter", Geometry{0, 16}, DefaultGeometry},
		{"negative diameter", Geometry{-50, 4}, Geometry{320, 4}},
		{"nan diameter", Geometry{math.NaN(), 16}, DefaultGeometry},
		{"stroke too wide", Geometry{100, 100}, Geometry{100, 5}},
		{"zero stroke", Geometry{200, 0}, Geometry{200, 10}},
		{"valid", Geometry{120, 12}, Geometry{120, 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Render(60, tt.g, nil)
			if f.Diameter != tt.want.Diameter || f.StrokeWidth != tt.want.StrokeWidth {
				t.Errorf("geometry = %v/%v, want %v/%v", f.Diameter, f.StrokeWidth, tt.want.Diameter, tt.want.StrokeWidth)
			}
			if f.Radius <= 0 {
				t.Errorf("Radius = %v, want > 0", f.Radius)
			}
		})
	}
}

func TestRender_ClampsUnnormalizedInput(t *testing.T) {
	f := Render(750, DefaultGeometry, nil)
	if f.Progress != 100 || f.Label != "%100" {
		t.Errorf("Render(750) progress=%v label=%q, want saturated 100", f.Progress, f.Label)
	}
	f = Render(-20, DefaultGeometry, nil)
	if f.Progress != 0 || f.Indicator != nil {
		t.Errorf("Render(-20) progress=%v indicator=%v, want 0 and none", f.Progress, f.Indicator)
	}
}

func TestPaletteThreshold(t *testing.T) {
	tests := []struct {
		progress float64
		want     string
	}{
		{0, "warning"},
		{39.9, "warning"},
		{40, "warning"},
		{40.0001, "healthy"},
		{41, "healthy"},
		{100, "healthy"},
	}
	for _, tt := range tests {
		if got := PaletteFor(tt.progress).Name; got != tt.want {
			t.Errorf("PaletteFor(%v) = %s, want %s", tt.progress, got, tt.want)
		}
	}
	if PaletteFor(40) == PaletteFor(41) {
		t.Error("40 and 41 must select different palettes")
	}
}

func TestLabelRounding(t *testing.T) {
	tests := []struct {
		progress float64
		want     string
	}{
		{0, "%0"},
		{74.4, "%74"},
		{74.5, "%75"},
		{74.6, "%75"},
		{99.6, "%100"},
		{100, "%100"},
		{130, "%100"},
	}
	for _, tt := range tests {
		if got := Label(tt.progress); got != tt.want {
			t.Errorf("Label(%v) = %q, want %q", tt.progress, got, tt.want)
		}
	}
}
