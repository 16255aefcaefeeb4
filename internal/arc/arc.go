// Package arc maps a financial-health score onto a 270° progress gauge.
//
// The gauge has a 90° gap centered at the bottom of the circle. Angles are in
// degrees, measured clockwise from the positive x-axis in screen coordinates
// (y grows downward), so the arc starts at 135° (lower left) and ends at 405°
// (lower right). Everything here is a pure function of its inputs.
package arc

import (
	"fmt"
	"math"
)

// Arc layout constants.
const (
	StartAngle = 135.0
	SweepAngle = 270.0
	EndAngle   = StartAngle + SweepAngle

	// EndLabelOffset is how far outside the track the %0 / %100 labels sit.
	EndLabelOffset = 28.0
)

// Scale is the caller's raw score convention.
type Scale int

const (
	// ScalePercent means raw scores are already in 0-100.
	ScalePercent Scale = 100
	// ScalePermille means raw scores are in 0-1000 and get divided by 10.
	ScalePermille Scale = 1000
)

// ParseScale converts a configured max value into a Scale.
func ParseScale(max int) (Scale, error) {
	switch Scale(max) {
	case ScalePercent, ScalePermille:
		return Scale(max), nil
	}
	return ScalePercent, fmt.Errorf("arc: unsupported score scale %d (want 100 or 1000)", max)
}

// Max returns the upper bound of the raw scale.
func (s Scale) Max() float64 {
	if s == ScalePermille {
		return 1000
	}
	return 100
}

// Normalize converts a raw score into a progress percentage clamped to [0,100].
// NaN and negative values map to 0; values above the scale saturate at 100.
func Normalize(raw float64, s Scale) float64 {
	if s == ScalePermille {
		raw /= 10
	}
	return clampPct(raw)
}

func clampPct(p float64) float64 {
	switch {
	case math.IsNaN(p), p <= 0:
		return 0
	case p >= 100:
		return 100
	}
	return p
}

// Geometry describes the gauge's bounding square.
type Geometry struct {
	Diameter    float64
	StrokeWidth float64
}

// DefaultGeometry matches the dashboard's 320px gauge with a 16px track.
var DefaultGeometry = Geometry{Diameter: 320, StrokeWidth: 16}

// sanitized replaces unusable dimensions so drawing never divides by zero or
// produces a negative radius.
func (g Geometry) sanitized() Geometry {
	if math.IsNaN(g.Diameter) || math.IsInf(g.Diameter, 0) || g.Diameter <= 0 {
		g.Diameter = DefaultGeometry.Diameter
	}
	if math.IsNaN(g.StrokeWidth) || g.StrokeWidth <= 0 || g.StrokeWidth >= g.Diameter {
		g.StrokeWidth = g.Diameter * DefaultGeometry.StrokeWidth / DefaultGeometry.Diameter
	}
	return g
}

// Point is a position in drawing coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Frame is everything needed to draw one gauge.
type Frame struct {
	Progress     float64 `json:"progress"`
	StartAngle   float64 `json:"start_angle"`
	EndAngle     float64 `json:"end_angle"`
	CurrentAngle float64 `json:"current_angle"`
	Diameter     float64 `json:"diameter"`
	StrokeWidth  float64 `json:"stroke_width"`
	Center       Point   `json:"center"`
	Radius       float64 `json:"radius"`
	TrackPath    string  `json:"track_path"`
	Indicator    *Point  `json:"indicator,omitempty"` // nil at zero progress
	Palette      Palette `json:"palette"`
	Tier         Tier    `json:"tier"`
	Label        string  `json:"label"`
	MinLabel     Point   `json:"min_label"`
	MaxLabel     Point   `json:"max_label"`
}

// Render builds a Frame for a progress percentage. Callers normalize raw
// scores with Normalize first; progress is clamped again here regardless.
// A nil selector uses the default proportional tiers.
func Render(progress float64, g Geometry, sel TierSelector) Frame {
	if sel == nil {
		sel = DefaultTiers
	}
	p := clampPct(progress)
	g = g.sanitized()

	c := g.Diameter / 2
	center := Point{X: c, Y: c}
	r := (g.Diameter - g.StrokeWidth) / 2
	current := AngleFor(p)

	f := Frame{
		Progress:     p,
		StartAngle:   StartAngle,
		EndAngle:     EndAngle,
		CurrentAngle: current,
		Diameter:     g.Diameter,
		StrokeWidth:  g.StrokeWidth,
		Center:       center,
		Radius:       r,
		TrackPath:    trackPath(center, r),
		Palette:      PaletteFor(p),
		Tier:         sel.Select(p),
		Label:        Label(p),
		MinLabel:     PointAt(center, r+EndLabelOffset, StartAngle),
		MaxLabel:     PointAt(center, r+EndLabelOffset, EndAngle),
	}
	if p > 0 {
		pt := PointAt(center, r, current)
		f.Indicator = &pt
	}
	return f
}

// AngleFor returns the indicator angle in degrees for a progress percentage.
func AngleFor(progress float64) float64 {
	return StartAngle + clampPct(progress)/100*SweepAngle
}

// PointAt returns the point at radius r and angle deg (degrees) around center.
func PointAt(center Point, r, deg float64) Point {
	rad := deg * math.Pi / 180
	return Point{
		X: center.X + r*math.Cos(rad),
		Y: center.Y + r*math.Sin(rad),
	}
}

// Label formats progress as "%N" with N rounded to the nearest integer.
func Label(progress float64) string {
	return fmt.Sprintf("%%%d", int(math.Round(clampPct(progress))))
}

// trackPath is the SVG path of the full background arc. The sweep exceeds
// 180°, so the large-arc flag is set; sweep-flag 1 draws clockwise on screen.
func trackPath(center Point, r float64) string {
	from := PointAt(center, r, StartAngle)
	to := PointAt(center, r, EndAngle)
	return fmt.Sprintf("M %s %s A %s %s 0 1 1 %s %s",
		num(from.X), num(from.Y), num(r), num(r), num(to.X), num(to.Y))
}

// num trims float noise so paths stay stable across platforms.
func num(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		v = 0 // drop negative zero
	}
	return fmt.Sprintf("%g", v)
}
