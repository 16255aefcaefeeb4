package arc

// WarningThreshold is the highest progress still drawn with the warning palette.
const WarningThreshold = 40.0

// Palette is the pair of colors used for the track and the indicator.
type Palette struct {
	Name       string  `json:"name"`
	Stroke     string  `json:"stroke"`      // indicator fill
	Track      string  `json:"track"`       // translucent background arc
	TrackAlpha float64 `json:"track_alpha"` // opacity carried by Track
}

// Palettes used by the gauge.
var (
	Warning = Palette{
		Name:       "warning",
		Stroke:     "#E53935",
		Track:      "rgba(229,57,53,0.18)",
		TrackAlpha: 0.18,
	}
	Healthy = Palette{
		Name:       "healthy",
		Stroke:     "#86C443",
		Track:      "rgba(134,196,67,0.18)",
		TrackAlpha: 0.18,
	}
)

// PaletteFor picks the palette for a normalized progress percentage.
func PaletteFor(progress float64) Palette {
	if clampPct(progress) <= WarningThreshold {
		return Warning
	}
	return Healthy
}
