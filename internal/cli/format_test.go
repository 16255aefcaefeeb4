package cli

import (
	"math"
	"testing"
	"time"

	"github.com/theirongolddev/fintree/internal/arc"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{5, "5.00"},
		{1234.5, "1,234.50"},
		{1234567.891, "1,234,567.89"},
		{-42.1, "-42.10"},
		{math.NaN(), "-"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.in); got != tt.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(1234567); got != "1,234,567" {
		t.Errorf("FormatNumber = %q", got)
	}
	if got := FormatNumber(-1000); got != "-1,000" {
		t.Errorf("FormatNumber(-1000) = %q", got)
	}
}

func TestFormatRate(t *testing.T) {
	if got := FormatRate(0.3); got != "30.0%" {
		t.Errorf("FormatRate(0.3) = %q", got)
	}
	if got := FormatRate(42.5); got != "42.5%" {
		t.Errorf("FormatRate(42.5) = %q", got)
	}
}

func TestFormatScore(t *testing.T) {
	if got := FormatScore(750, arc.ScalePermille); got != "750 / 1000" {
		t.Errorf("FormatScore = %q", got)
	}
	if got := FormatScore(72.5, arc.ScalePercent); got != "72.5 / 100" {
		t.Errorf("FormatScore = %q", got)
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := FormatAge(time.Time{}, now); got != "never" {
		t.Errorf("zero time = %q", got)
	}
	if got := FormatAge(now, now); got != "just now" {
		t.Errorf("now = %q", got)
	}
	if got := FormatAge(now.Add(-2*time.Minute), now); got != "2 minutes ago" {
		t.Errorf("2m = %q", got)
	}
}

func TestFormatDays(t *testing.T) {
	if FormatDays(1) != "1 day" || FormatDays(14) != "14 days" {
		t.Errorf("FormatDays = %q / %q", FormatDays(1), FormatDays(14))
	}
}
