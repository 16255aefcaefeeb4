// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/theirongolddev/fintree/internal/arc"
)

// FormatMoney formats an amount with thousands separators and two decimals.
// e.g., 1234567.5 -> "1,234,567.50"
func FormatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	s := humanize.CommafWithDigits(math.Round(v*100)/100, 2)
	// CommafWithDigits trims trailing zeros; money always shows cents.
	if i := strings.IndexByte(s, '.'); i < 0 {
		s += ".00"
	} else if len(s)-i == 2 {
		s += "0"
	}
	return s
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatRate formats a 0-1 ratio as a percentage string.
// Values already above 1 are treated as percentages.
func FormatRate(f float64) string {
	if math.Abs(f) > 1 {
		return fmt.Sprintf("%.1f%%", f)
	}
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatScore shows a raw score against its scale, e.g. "750 / 1000".
func FormatScore(raw float64, s arc.Scale) string {
	return fmt.Sprintf("%s / %d", trimFloat(raw), int(s.Max()))
}

// FormatAge renders how long ago t was, or "never" for the zero time.
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	if now.Sub(t) < time.Second {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// FormatDays renders a day count, e.g. "1 day", "14 days".
func FormatDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return humanize.Comma(int64(n)) + " days"
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return humanize.Comma(int64(v))
	}
	return humanize.Ftoa(math.Round(v*10) / 10)
}
